// ABOUTME: Activity model, target logic enum, and create/update inputs.
// ABOUTME: Activities are tracked indicators with a numeric monthly target.
package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

// ErrValidation marks input that must be rejected before anything is persisted.
var ErrValidation = errors.New("validation failed")

// TargetLogic selects how an activity's target applies across months.
type TargetLogic string

const (
	// TargetStatic applies the same target every month.
	TargetStatic TargetLogic = "static"
	// TargetCumulative accrues the target across months.
	TargetCumulative TargetLogic = "cumulative"
)

// IsValid checks if the target logic is one of the known variants.
func (l TargetLogic) IsValid() bool {
	return l == TargetStatic || l == TargetCumulative
}

// Label returns the Indonesian form label for the target logic.
func (l TargetLogic) Label() string {
	if l == TargetCumulative {
		return "Akumulatif (Linear)"
	}
	return "Bulanan (Tetap)"
}

// ParseTargetLogic parses a target logic, defaulting empty input to static.
func ParseTargetLogic(s string) (TargetLogic, error) {
	if s == "" {
		return TargetStatic, nil
	}
	l := TargetLogic(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", fmt.Errorf("%w: unknown target logic %q (use static or cumulative)", ErrValidation, s)
	}
	return l, nil
}

// Activity is a trackable program or indicator within a cluster.
type Activity struct {
	ID          string      `json:"id" yaml:"id"`
	ClusterID   string      `json:"clusterId" yaml:"cluster_id"`
	Name        string      `json:"name" yaml:"name"`
	TargetValue float64     `json:"targetValue" yaml:"target_value"`
	TargetLogic TargetLogic `json:"targetLogic" yaml:"target_logic"`
	CreatedAt   time.Time   `json:"createdAt,omitzero" yaml:"created_at,omitempty"`
}

// ActivityInput holds the fields needed to create an activity.
type ActivityInput struct {
	ClusterID   string      `json:"clusterId"`
	Name        string      `json:"name"`
	TargetValue float64     `json:"targetValue"`
	TargetLogic TargetLogic `json:"targetLogic"`
}

// Validate checks the required form fields.
func (in ActivityInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: activity name is required", ErrValidation)
	}
	if !IsValidCluster(in.ClusterID) {
		return fmt.Errorf("%w: unknown cluster %q", ErrValidation, in.ClusterID)
	}
	if err := validateTarget(in.TargetValue); err != nil {
		return err
	}
	if in.TargetLogic != "" && !in.TargetLogic.IsValid() {
		return fmt.Errorf("%w: unknown target logic %q", ErrValidation, in.TargetLogic)
	}
	return nil
}

func validateTarget(v float64) error {
	if v == 0 {
		return fmt.Errorf("%w: target value is required", ErrValidation)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: target value must be a finite number", ErrValidation)
	}
	return nil
}

// NewActivity builds a fresh activity from input with a generated ID.
func NewActivity(in ActivityInput) *Activity {
	logic := in.TargetLogic
	if logic == "" {
		logic = TargetStatic
	}
	return &Activity{
		ID:          NewActivityID(),
		ClusterID:   in.ClusterID,
		Name:        strings.TrimSpace(in.Name),
		TargetValue: in.TargetValue,
		TargetLogic: logic,
		CreatedAt:   time.Now().UTC(),
	}
}

// ActivityPatch carries the fields of an update; nil fields are left untouched.
type ActivityPatch struct {
	Name        *string      `json:"name,omitempty"`
	TargetValue *float64     `json:"targetValue,omitempty"`
	TargetLogic *TargetLogic `json:"targetLogic,omitempty"`
}

// Validate rejects patches that would blank a required field.
func (p ActivityPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: activity name is required", ErrValidation)
	}
	if p.TargetValue != nil {
		if err := validateTarget(*p.TargetValue); err != nil {
			return err
		}
	}
	if p.TargetLogic != nil && !p.TargetLogic.IsValid() {
		return fmt.Errorf("%w: unknown target logic %q", ErrValidation, *p.TargetLogic)
	}
	return nil
}

// Apply merges the provided fields into a.
func (p ActivityPatch) Apply(a *Activity) {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.TargetValue != nil {
		a.TargetValue = *p.TargetValue
	}
	if p.TargetLogic != nil {
		a.TargetLogic = *p.TargetLogic
	}
}

// NewActivityID returns a time-ordered identifier with a random suffix.
func NewActivityID() string {
	return "act_" + uuid.Must(uuid.NewV7()).String()
}

// NameKey normalizes an activity name for case-insensitive duplicate checks.
// A Caser is stateful, so each call gets its own.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
