// ABOUTME: HTTP handlers for the four views and the selection session.
// ABOUTME: Session loads go through views.Load so stale results are dropped.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/minilok/internal/views"
)

// DashboardView returns the dashboard for the queried filter.
func (h *Handler) DashboardView(c *gin.Context) {
	f, err := h.filterFromQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	v, err := h.Service.Dashboard(c.Request.Context(), f)
	respond(c, v, err)
}

// EntryView returns one page of the data entry screen.
func (h *Handler) EntryView(c *gin.Context) {
	paged(c, h, h.Service.DataEntry)
}

// AnalysisView returns one page of chart series.
func (h *Handler) AnalysisView(c *gin.Context) {
	paged(c, h, h.Service.Analysis)
}

// PdcaView returns one page of activities below target.
func (h *Handler) PdcaView(c *gin.Context) {
	paged(c, h, h.Service.Pdca)
}

func paged[T any](c *gin.Context, h *Handler, build func(context.Context, views.Filter, views.PageRequest) (T, error)) {
	f, err := h.filterFromQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	req, err := pageFromQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	v, err := build(c.Request.Context(), f, req)
	respond(c, v, err)
}

func respond(c *gin.Context, v any, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type selectionRequest struct {
	ClusterID    string   `json:"clusterId" binding:"required"`
	Month        int      `json:"month"`
	Year         int      `json:"year" binding:"required"`
	ExportFilter []string `json:"exportFilter"`
}

// GetSelection returns the session's current selection.
func (h *Handler) GetSelection(c *gin.Context) {
	c.JSON(http.StatusOK, h.Session.Current())
}

// PutSelection switches the selection. Loads still running for the old one are discarded.
func (h *Handler) PutSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBind(c, err)
		return
	}
	sel, err := h.Session.Select(views.Filter{ClusterID: req.ClusterID, Month: req.Month, Year: req.Year})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if req.ExportFilter != nil {
		sel = h.Session.SetExportFilter(req.ExportFilter)
	}
	c.JSON(http.StatusOK, sel)
}

// SelectionDashboard loads the dashboard for the session's selection; a result
// overtaken by a selection change is answered with 409.
func (h *Handler) SelectionDashboard(c *gin.Context) {
	v, err := views.Load(c.Request.Context(), h.Session, func(ctx context.Context, sel views.Selection) (*views.DashboardView, error) {
		return h.Service.Dashboard(ctx, sel.Filter)
	})
	respond(c, v, err)
}
