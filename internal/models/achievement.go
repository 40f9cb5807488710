// ABOUTME: Achievement and PdcaEntry models keyed by activity and period.
// ABOUTME: Both are unique on (activityId, month, year) and saved by upsert.
package models

import (
	"fmt"
	"math"
	"strings"
)

// Period identifies one calendar month; Month is zero-based.
type Period struct {
	Month int `json:"month" yaml:"month"`
	Year  int `json:"year" yaml:"year"`
}

// Validate checks the month index and year.
func (p Period) Validate() error {
	if !ValidMonth(p.Month) {
		return fmt.Errorf("%w: month must be between 0 and 11, got %d", ErrValidation, p.Month)
	}
	if p.Year < 1 {
		return fmt.Errorf("%w: invalid year %d", ErrValidation, p.Year)
	}
	return nil
}

// String formats the period as "<MonthName> <Year>".
func (p Period) String() string {
	return fmt.Sprintf("%s %d", MonthName(p.Month), p.Year)
}

// Achievement is one recorded value of an activity for one month.
type Achievement struct {
	ActivityID string  `json:"activityId" yaml:"activity_id"`
	Month      int     `json:"month" yaml:"month"`
	Year       int     `json:"year" yaml:"year"`
	Value      float64 `json:"value" yaml:"value"`
}

// NewAchievement creates an achievement record for a period.
func NewAchievement(activityID string, month, year int, value float64) *Achievement {
	return &Achievement{ActivityID: activityID, Month: month, Year: year, Value: value}
}

// Period returns the month/year the achievement belongs to.
func (a *Achievement) Period() Period {
	return Period{Month: a.Month, Year: a.Year}
}

// Validate checks the key fields and rejects negative values.
func (a *Achievement) Validate() error {
	if a.ActivityID == "" {
		return fmt.Errorf("%w: activity id is required", ErrValidation)
	}
	if a.Value < 0 {
		return fmt.Errorf("%w: value must not be negative", ErrValidation)
	}
	if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
		return fmt.Errorf("%w: value must be a finite number", ErrValidation)
	}
	return a.Period().Validate()
}

// SameKey reports whether both records share (activityId, month, year).
func (a *Achievement) SameKey(other *Achievement) bool {
	return a.ActivityID == other.ActivityID && a.Month == other.Month && a.Year == other.Year
}

// PdcaEntry is a Plan-Do-Check-Action improvement note for one period.
type PdcaEntry struct {
	ActivityID   string `json:"activityId" yaml:"activity_id"`
	Month        int    `json:"month" yaml:"month"`
	Year         int    `json:"year" yaml:"year"`
	Plan         string `json:"plan" yaml:"plan"`
	Do           string `json:"do" yaml:"do"`
	Check        string `json:"check" yaml:"check"`
	Action       string `json:"action" yaml:"action"`
	ActivityName string `json:"activityName,omitempty" yaml:"activity_name,omitempty"`
}

// Validate checks the key fields.
func (p *PdcaEntry) Validate() error {
	if p.ActivityID == "" {
		return fmt.Errorf("%w: activity id is required", ErrValidation)
	}
	return Period{Month: p.Month, Year: p.Year}.Validate()
}

// SameKey reports whether both entries share (activityId, month, year).
func (p *PdcaEntry) SameKey(other *PdcaEntry) bool {
	return p.ActivityID == other.ActivityID && p.Month == other.Month && p.Year == other.Year
}

// IsEmpty reports whether none of the four text fields carry content.
func (p *PdcaEntry) IsEmpty() bool {
	return strings.TrimSpace(p.Plan+p.Do+p.Check+p.Action) == ""
}

// PlaceholderPdca returns the "-" filled entry shown when nothing was written.
func PlaceholderPdca(activityID string, period Period) *PdcaEntry {
	return &PdcaEntry{
		ActivityID: activityID,
		Month:      period.Month,
		Year:       period.Year,
		Plan:       "-",
		Do:         "-",
		Check:      "-",
		Action:     "-",
	}
}
