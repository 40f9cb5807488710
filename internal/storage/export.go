// ABOUTME: Export and import of the full minilok dataset.
// ABOUTME: Supports JSON backups, a cluster-grouped YAML view, and replaying data into any backend.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/minilok/internal/models"
	"gopkg.in/yaml.v3"
)

const exportVersion = "1.0"

// Dataset is the document persisted by the local store and carried by exports.
type Dataset struct {
	Activities   []*models.Activity    `json:"activities" yaml:"activities"`
	Achievements []*models.Achievement `json:"achievements" yaml:"achievements"`
	Pdca         []*models.PdcaEntry   `json:"pdca" yaml:"pdca"`
}

// ExportData represents the full export format for minilok data.
type ExportData struct {
	Version    string    `json:"version" yaml:"version"`
	ExportedAt time.Time `json:"exported_at" yaml:"exported_at"`
	Tool       string    `json:"tool" yaml:"tool"`
	Dataset    `yaml:",inline"`
}

// NewExportData stamps a dataset with the export header.
func NewExportData(ds Dataset) *ExportData {
	if ds.Activities == nil {
		ds.Activities = []*models.Activity{}
	}
	if ds.Achievements == nil {
		ds.Achievements = []*models.Achievement{}
	}
	if ds.Pdca == nil {
		ds.Pdca = []*models.PdcaEntry{}
	}
	return &ExportData{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Tool:       "minilok",
		Dataset:    ds,
	}
}

// ExportJSON exports all data as indented JSON.
func ExportJSON(ctx context.Context, repo Repository) ([]byte, error) {
	data, err := repo.GetAllData(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all data: %w", err)
	}
	return json.MarshalIndent(data, "", "  ")
}

// ImportJSON decodes a JSON export and replays it into repo.
func ImportJSON(ctx context.Context, repo Repository, raw []byte) error {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return repo.ImportData(ctx, &data)
}

// ExportYAML exports all data as YAML with activities grouped by cluster.
func ExportYAML(ctx context.Context, repo Repository) ([]byte, error) {
	data, err := repo.GetAllData(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all data: %w", err)
	}

	doc := yamlExport{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Clusters:   make([]yamlCluster, 0, len(models.Clusters)),
	}

	byActivity := make(map[string]*yamlActivity)
	for _, c := range models.Clusters {
		yc := yamlCluster{ID: c.ID, Name: c.Name}
		for _, a := range data.Activities {
			if a.ClusterID != c.ID {
				continue
			}
			yc.Activities = append(yc.Activities, yamlActivity{
				ID:          a.ID,
				Name:        a.Name,
				TargetValue: a.TargetValue,
				TargetLogic: string(a.TargetLogic),
			})
		}
		doc.Clusters = append(doc.Clusters, yc)
	}
	for ci := range doc.Clusters {
		for ai := range doc.Clusters[ci].Activities {
			ya := &doc.Clusters[ci].Activities[ai]
			byActivity[ya.ID] = ya
		}
	}

	for _, ach := range data.Achievements {
		ya, ok := byActivity[ach.ActivityID]
		if !ok {
			continue
		}
		if ya.Achievements == nil {
			ya.Achievements = make(map[string]float64)
		}
		ya.Achievements[periodKey(ach.Month, ach.Year)] = ach.Value
	}
	for _, p := range data.Pdca {
		ya, ok := byActivity[p.ActivityID]
		if !ok {
			continue
		}
		ya.Pdca = append(ya.Pdca, yamlPdca{
			Period: periodKey(p.Month, p.Year),
			Plan:   p.Plan,
			Do:     p.Do,
			Check:  p.Check,
			Action: p.Action,
		})
	}

	return yaml.Marshal(doc)
}

func periodKey(month, year int) string {
	return fmt.Sprintf("%04d-%02d", year, month+1)
}

type yamlExport struct {
	Version    string        `yaml:"version"`
	ExportedAt string        `yaml:"exported_at"`
	Tool       string        `yaml:"tool"`
	Clusters   []yamlCluster `yaml:"clusters"`
}

type yamlCluster struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Activities []yamlActivity `yaml:"activities,omitempty"`
}

type yamlActivity struct {
	ID           string             `yaml:"id"`
	Name         string             `yaml:"name"`
	TargetValue  float64            `yaml:"target_value"`
	TargetLogic  string             `yaml:"target_logic"`
	Achievements map[string]float64 `yaml:"achievements,omitempty"`
	Pdca         []yamlPdca         `yaml:"pdca,omitempty"`
}

type yamlPdca struct {
	Period string `yaml:"period"`
	Plan   string `yaml:"plan"`
	Do     string `yaml:"do"`
	Check  string `yaml:"check"`
	Action string `yaml:"action"`
}

// ReplayData writes every record of data into w. Activities are created through
// the normal duplicate-aware path, so ids are remapped onto whatever the
// destination assigns; records pointing at unknown activities are skipped.
func ReplayData(ctx context.Context, w Writer, data *ExportData) (*MigrateSummary, error) {
	summary := &MigrateSummary{}
	ids := make(map[string]string, len(data.Activities))

	for _, a := range data.Activities {
		created, err := w.CreateActivity(ctx, models.ActivityInput{
			ClusterID:   a.ClusterID,
			Name:        a.Name,
			TargetValue: a.TargetValue,
			TargetLogic: a.TargetLogic,
		})
		if err != nil {
			return nil, fmt.Errorf("import activity %s: %w", a.ID, err)
		}
		ids[a.ID] = created.ID
		summary.Activities++
	}

	for _, ach := range data.Achievements {
		id, ok := ids[ach.ActivityID]
		if !ok {
			summary.Skipped++
			continue
		}
		rec := models.NewAchievement(id, ach.Month, ach.Year, ach.Value)
		if _, err := w.SaveAchievement(ctx, rec); err != nil {
			return nil, fmt.Errorf("import achievement %s %s: %w", ach.ActivityID, ach.Period(), err)
		}
		summary.Achievements++
	}

	for _, p := range data.Pdca {
		id, ok := ids[p.ActivityID]
		if !ok {
			summary.Skipped++
			continue
		}
		entry := *p
		entry.ActivityID = id
		entry.ActivityName = ""
		if _, err := w.SavePdca(ctx, &entry); err != nil {
			return nil, fmt.Errorf("import pdca %s: %w", p.ActivityID, err)
		}
		summary.Pdca++
	}

	return summary, nil
}
