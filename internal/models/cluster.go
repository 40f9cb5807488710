// ABOUTME: Fixed organizational clusters and Indonesian month labels.
// ABOUTME: Clusters partition activities and are not user-editable.
package models

import "fmt"

// Cluster is one of the fixed organizational groupings of a Puskesmas.
type Cluster struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Name  string `json:"name" yaml:"name"`
}

// Clusters lists every cluster in display order.
var Clusters = []Cluster{
	{ID: "k1", Label: "Kluster 1", Name: "Administrasi Manajemen"},
	{ID: "k2", Label: "Kluster 2", Name: "Ibu dan Balita"},
	{ID: "k3", Label: "Kluster 3", Name: "Dewasa dan Lansia"},
	{ID: "k4", Label: "Kluster 4", Name: "Penyakit Menular dan Tidak Menular"},
	{ID: "k5", Label: "Kluster 5", Name: "Lintas Kluster"},
}

// DefaultCluster is the cluster selected when none is given.
func DefaultCluster() Cluster {
	return Clusters[0]
}

// ClusterByID looks up a cluster by its identifier.
func ClusterByID(id string) (Cluster, bool) {
	for _, c := range Clusters {
		if c.ID == id {
			return c, true
		}
	}
	return Cluster{}, false
}

// IsValidCluster checks if id names a known cluster.
func IsValidCluster(id string) bool {
	_, ok := ClusterByID(id)
	return ok
}

// Months holds the month labels indexed 0 (Januari) to 11 (Desember).
var Months = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the label for a zero-based month index.
func MonthName(month int) string {
	if month < 0 || month > 11 {
		return fmt.Sprintf("Bulan %d", month+1)
	}
	return Months[month]
}

// ValidMonth reports whether month is a zero-based month index.
func ValidMonth(month int) bool {
	return month >= 0 && month <= 11
}
