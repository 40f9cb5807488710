// ABOUTME: Query-string parsing for filters, paging and integers.
// ABOUTME: Missing filter fields fall back to the session's selection.
package web

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/views"
)

// filterFromQuery reads cluster, month and year, falling back to the session's
// current selection for anything not given. Month is zero-based.
func (h *Handler) filterFromQuery(c *gin.Context) (views.Filter, error) {
	f := h.Session.Current().Filter
	if cluster, ok := c.GetQuery("cluster"); ok {
		f.ClusterID = cluster
	}

	var err error
	if f.Month, err = intQuery(c, "month", f.Month); err != nil {
		return views.Filter{}, err
	}
	if f.Year, err = intQuery(c, "year", f.Year); err != nil {
		return views.Filter{}, err
	}
	return f, f.Validate()
}

// listFilterFromQuery reads month and year like filterFromQuery, but leaves the
// cluster empty when ?cluster= is absent so raw lists span every cluster.
func (h *Handler) listFilterFromQuery(c *gin.Context) (views.Filter, error) {
	f := h.Session.Current().Filter
	f.ClusterID = c.Query("cluster")

	var err error
	if f.Month, err = intQuery(c, "month", f.Month); err != nil {
		return views.Filter{}, err
	}
	if f.Year, err = intQuery(c, "year", f.Year); err != nil {
		return views.Filter{}, err
	}
	if f.ClusterID == "" {
		return f, f.Period().Validate()
	}
	return f, f.Validate()
}

// pageFromQuery reads page and per_page; per_page=0 returns every row.
func pageFromQuery(c *gin.Context) (views.PageRequest, error) {
	req := views.FirstPage()
	var err error
	if req.Page, err = intQuery(c, "page", req.Page); err != nil {
		return req, err
	}
	if req.PerPage, err = intQuery(c, "per_page", req.PerPage); err != nil {
		return req, err
	}
	return req, nil
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", models.ErrValidation, key, raw)
	}
	return v, nil
}
