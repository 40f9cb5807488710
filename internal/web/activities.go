// ABOUTME: HTTP handlers for clusters and activity CRUD.
// ABOUTME: Bulk add reports created and pre-existing names separately.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/views"
)

// ListClusters returns the fixed clusters in display order.
func (h *Handler) ListClusters(c *gin.Context) {
	c.JSON(http.StatusOK, models.Clusters)
}

// ListActivities returns the activities of ?cluster=, or all of them.
func (h *Handler) ListActivities(c *gin.Context) {
	cluster := c.Query("cluster")
	if cluster != "" && !models.IsValidCluster(cluster) {
		c.AbortWithStatusJSON(http.StatusBadRequest, HTTPError{Error: "unknown cluster " + cluster})
		return
	}
	list, err := h.Service.Repository().ListActivities(c.Request.Context(), cluster)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateActivity adds one activity. An existing name in the cluster returns the existing record.
func (h *Handler) CreateActivity(c *gin.Context) {
	var in models.ActivityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortBind(c, err)
		return
	}
	a, err := h.Service.AddActivity(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// BulkCreateActivities adds one activity per line of names.
func (h *Handler) BulkCreateActivities(c *gin.Context) {
	var in views.BulkInput
	if err := c.ShouldBindJSON(&in); err != nil {
		abortBind(c, err)
		return
	}
	res, err := h.Service.BulkAddActivities(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// UpdateActivity merges the given fields into an activity.
func (h *Handler) UpdateActivity(c *gin.Context) {
	var patch models.ActivityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortBind(c, err)
		return
	}
	a, err := h.Service.EditActivity(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteActivity removes an activity with its achievements and PDCA notes.
func (h *Handler) DeleteActivity(c *gin.Context) {
	if err := h.Service.RemoveActivity(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
