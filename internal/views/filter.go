// ABOUTME: Filter and paging inputs shared by every view.
// ABOUTME: A filter names one cluster and one month of one year.
package views

import (
	"fmt"
	"time"

	"github.com/harperreed/minilok/internal/models"
)

// Filter selects the cluster and period a view is computed for.
type Filter struct {
	ClusterID string `json:"clusterId"`
	Month     int    `json:"month"`
	Year      int    `json:"year"`
}

// DefaultFilter returns the first cluster at the month containing now.
func DefaultFilter(now time.Time) Filter {
	return Filter{
		ClusterID: models.DefaultCluster().ID,
		Month:     int(now.Month()) - 1,
		Year:      now.Year(),
	}
}

// Validate rejects unknown clusters and out-of-range periods.
func (f Filter) Validate() error {
	if !models.IsValidCluster(f.ClusterID) {
		return fmt.Errorf("%w: unknown cluster %q", models.ErrValidation, f.ClusterID)
	}
	return f.Period().Validate()
}

// Period returns the filter's month and year.
func (f Filter) Period() models.Period {
	return models.Period{Month: f.Month, Year: f.Year}
}

// Cluster returns the filter's cluster. Call Validate first.
func (f Filter) Cluster() models.Cluster {
	c, _ := models.ClusterByID(f.ClusterID)
	return c
}

// DefaultPerPage is the page size views start with.
const DefaultPerPage = 10

// PageRequest asks for one page of a list; PerPage <= 0 means all rows.
type PageRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// FirstPage is the page request a freshly opened view uses.
func FirstPage() PageRequest {
	return PageRequest{Page: 1, PerPage: DefaultPerPage}
}
