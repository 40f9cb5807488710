// ABOUTME: HTTP handlers for report HTML previews and PDF downloads.
// ABOUTME: The activity selection comes from ?activity= or the session filter.
package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/minilok/internal/report"
	"github.com/harperreed/minilok/internal/views"
)

// exportScope reads the filter and the activity selection. Without ?activity=
// the session's export filter applies when the cluster matches the selection.
func (h *Handler) exportScope(c *gin.Context) (views.Filter, []string, error) {
	f, err := h.filterFromQuery(c)
	if err != nil {
		return f, nil, err
	}
	ids := c.QueryArray("activity")
	if len(ids) == 0 {
		if sel := h.Session.Current(); sel.ClusterID == f.ClusterID {
			ids = sel.ExportFilter
		}
	}
	return f, ids, nil
}

// DocumentHTML returns the report markup without rasterizing it.
func (h *Handler) DocumentHTML(c *gin.Context) {
	h.html(c, views.ExportDocument)
}

// SlidesHTML returns the slide markup without rasterizing it.
func (h *Handler) SlidesHTML(c *gin.Context) {
	h.html(c, views.ExportSlides)
}

func (h *Handler) html(c *gin.Context, kind views.ExportKind) {
	f, ids, err := h.exportScope(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	body, err := h.Exporter.HTML(c.Request.Context(), kind, f, ids)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// DocumentPDF downloads the portrait report.
func (h *Handler) DocumentPDF(c *gin.Context) {
	f, ids, err := h.exportScope(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	file, err := h.Exporter.Document(c.Request.Context(), f, ids)
	sendPDF(c, file, err)
}

// SlidesPDF downloads the landscape slide deck.
func (h *Handler) SlidesPDF(c *gin.Context) {
	f, ids, err := h.exportScope(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	file, err := h.Exporter.Slides(c.Request.Context(), f, ids)
	sendPDF(c, file, err)
}

func sendPDF(c *gin.Context, file *report.File, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, "application/pdf", file.PDF)
}
