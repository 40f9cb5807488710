// ABOUTME: In-memory dataset helpers shared by the local store.
// ABOUTME: Cloning, load-time de-duplication, and cluster filtering over the JSON document.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/harperreed/minilok/internal/models"
)

func emptyDataset() *Dataset {
	return &Dataset{
		Activities:   []*models.Activity{},
		Achievements: []*models.Achievement{},
		Pdca:         []*models.PdcaEntry{},
	}
}

// decodeDataset parses the persisted document. Missing collections become empty,
// nil records are dropped, and repeated keys collapse onto their first occurrence.
func decodeDataset(raw []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	out := emptyDataset()
	seen := make(map[string]bool)
	for _, a := range ds.Activities {
		if a == nil || a.ID == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		if a.TargetLogic == "" {
			a.TargetLogic = models.TargetStatic
		}
		out.Activities = append(out.Activities, a)
	}
	for _, ach := range ds.Achievements {
		if ach == nil || indexAchievement(out.Achievements, ach) >= 0 {
			continue
		}
		out.Achievements = append(out.Achievements, ach)
	}
	for _, p := range ds.Pdca {
		if p == nil || indexPdca(out.Pdca, p) >= 0 {
			continue
		}
		p.ActivityName = ""
		out.Pdca = append(out.Pdca, p)
	}
	return out, nil
}

func (ds *Dataset) clone() *Dataset {
	out := &Dataset{
		Activities:   make([]*models.Activity, 0, len(ds.Activities)),
		Achievements: make([]*models.Achievement, 0, len(ds.Achievements)),
		Pdca:         make([]*models.PdcaEntry, 0, len(ds.Pdca)),
	}
	for _, a := range ds.Activities {
		c := *a
		out.Activities = append(out.Activities, &c)
	}
	for _, ach := range ds.Achievements {
		c := *ach
		out.Achievements = append(out.Achievements, &c)
	}
	for _, p := range ds.Pdca {
		c := *p
		out.Pdca = append(out.Pdca, &c)
	}
	return out
}

func (ds *Dataset) activityIndex(id string) int {
	for i, a := range ds.Activities {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// findByName returns the activity in clusterID whose name folds to the same key.
func (ds *Dataset) findByName(clusterID, name string) *models.Activity {
	key := models.NameKey(name)
	for _, a := range ds.Activities {
		if a.ClusterID == clusterID && models.NameKey(a.Name) == key {
			return a
		}
	}
	return nil
}

// clusterMembers returns the ids of activities in clusterID, or nil for every cluster.
func (ds *Dataset) clusterMembers(clusterID string) map[string]*models.Activity {
	if clusterID == "" {
		return nil
	}
	members := make(map[string]*models.Activity)
	for _, a := range ds.Activities {
		if a.ClusterID == clusterID {
			members[a.ID] = a
		}
	}
	return members
}

func indexAchievement(list []*models.Achievement, key *models.Achievement) int {
	for i, a := range list {
		if a.SameKey(key) {
			return i
		}
	}
	return -1
}

func indexPdca(list []*models.PdcaEntry, key *models.PdcaEntry) int {
	for i, p := range list {
		if p.SameKey(key) {
			return i
		}
	}
	return -1
}
