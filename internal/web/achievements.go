// ABOUTME: HTTP handlers for achievements and PDCA notes.
// ABOUTME: Raw lists span every cluster unless ?cluster= is given.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harperreed/minilok/internal/models"
)

// achievementRequest carries either a numeric value or the raw form input.
type achievementRequest struct {
	ActivityID string   `json:"activityId" binding:"required"`
	Month      int      `json:"month"`
	Year       int      `json:"year"`
	Value      *float64 `json:"value"`
	Input      *string  `json:"input"`
}

// ListAchievements returns the values recorded for a month, in one cluster or all.
func (h *Handler) ListAchievements(c *gin.Context) {
	f, err := h.listFilterFromQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	list, err := h.Service.Repository().ListAchievements(c.Request.Context(), f.Month, f.Year, f.ClusterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListAnnualAchievements returns every value of a year, in one cluster or all.
func (h *Handler) ListAnnualAchievements(c *gin.Context) {
	f, err := h.listFilterFromQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	list, err := h.Service.Repository().ListAnnualAchievements(c.Request.Context(), f.Year, f.ClusterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// SaveAchievement upserts one value. "input" is parsed like the entry form;
// "value" must be a non-negative number.
func (h *Handler) SaveAchievement(c *gin.Context) {
	var req achievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBind(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		saved *models.Achievement
		err   error
	)
	switch {
	case req.Input != nil:
		saved, err = h.Service.RecordAchievement(ctx, req.ActivityID, models.Period{Month: req.Month, Year: req.Year}, *req.Input)
	case req.Value != nil:
		saved, err = h.Service.SaveAchievement(ctx, models.NewAchievement(req.ActivityID, req.Month, req.Year, *req.Value))
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, HTTPError{Error: "value or input is required"})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// ListPdca returns every PDCA note of a month, in one cluster or all.
func (h *Handler) ListPdca(c *gin.Context) {
	f, err := h.listFilterFromQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	list, err := h.Service.Repository().ListBulkPdca(c.Request.Context(), f.Month, f.Year, f.ClusterID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetPdca returns an activity's note for the period, "-" filled when none exists.
func (h *Handler) GetPdca(c *gin.Context) {
	f, err := h.filterFromQuery(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	entry, err := h.Service.GetPdca(c.Request.Context(), c.Param("activityId"), f.Period())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// SavePdca upserts a PDCA note.
func (h *Handler) SavePdca(c *gin.Context) {
	var entry models.PdcaEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		abortBind(c, err)
		return
	}
	saved, err := h.Service.SavePdca(c.Request.Context(), &entry)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
