// ABOUTME: Tests for cluster lookup, activity input validation, and name keys.
// ABOUTME: Covers the validation rules shared by every storage backend.
package models

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestClusterByID(t *testing.T) {
	c, ok := ClusterByID("k2")
	if !ok {
		t.Fatal("expected k2 to exist")
	}
	if c.Name != "Ibu dan Balita" {
		t.Errorf("unexpected name %q", c.Name)
	}
	if _, ok := ClusterByID("k9"); ok {
		t.Error("expected k9 to be unknown")
	}
	if len(Clusters) != 5 {
		t.Errorf("expected 5 clusters, got %d", len(Clusters))
	}
}

func TestMonthName(t *testing.T) {
	if MonthName(0) != "Januari" || MonthName(11) != "Desember" {
		t.Errorf("unexpected month labels: %s %s", MonthName(0), MonthName(11))
	}
	if MonthName(12) != "Bulan 13" {
		t.Errorf("out-of-range month label: %s", MonthName(12))
	}
}

func TestActivityInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   ActivityInput
		wantErr bool
	}{
		{"valid", ActivityInput{ClusterID: "k1", Name: "Rapat", TargetValue: 1}, false},
		{"blank name", ActivityInput{ClusterID: "k1", Name: "  ", TargetValue: 1}, true},
		{"missing target", ActivityInput{ClusterID: "k1", Name: "Rapat"}, true},
		{"unknown cluster", ActivityInput{ClusterID: "x", Name: "Rapat", TargetValue: 1}, true},
		{"bad logic", ActivityInput{ClusterID: "k1", Name: "Rapat", TargetValue: 1, TargetLogic: "weekly"}, true},
		{"infinite target", ActivityInput{ClusterID: "k1", Name: "Rapat", TargetValue: math.Inf(1)}, true},
		{"nan target", ActivityInput{ClusterID: "k1", Name: "Rapat", TargetValue: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewActivityDefaults(t *testing.T) {
	a := NewActivity(ActivityInput{ClusterID: "k2", Name: " Imunisasi ", TargetValue: 100})
	if !strings.HasPrefix(a.ID, "act_") {
		t.Errorf("unexpected id %q", a.ID)
	}
	if a.Name != "Imunisasi" {
		t.Errorf("name not trimmed: %q", a.Name)
	}
	if a.TargetLogic != TargetStatic {
		t.Errorf("expected static default, got %s", a.TargetLogic)
	}

	b := NewActivity(ActivityInput{ClusterID: "k2", Name: "Imunisasi", TargetValue: 100})
	if a.ID == b.ID {
		t.Error("expected unique ids")
	}
}

func TestNameKeyIsCaseInsensitive(t *testing.T) {
	if NameKey("Imunisasi Dasar") != NameKey("  IMUNISASI dasar ") {
		t.Error("expected equal name keys")
	}
	if NameKey("Imunisasi") == NameKey("Imunisasi Lanjut") {
		t.Error("expected different name keys")
	}
}

func TestActivityPatchApply(t *testing.T) {
	a := &Activity{Name: "Old", TargetValue: 10, TargetLogic: TargetStatic}
	name := "New"
	logic := TargetCumulative
	ActivityPatch{Name: &name, TargetLogic: &logic}.Apply(a)

	if a.Name != "New" || a.TargetLogic != TargetCumulative {
		t.Errorf("patch not applied: %+v", a)
	}
	if a.TargetValue != 10 {
		t.Errorf("target should be untouched, got %v", a.TargetValue)
	}
}

func TestActivityPatchValidateRejectsNonFiniteTarget(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), 0} {
		target := v
		if err := (ActivityPatch{TargetValue: &target}).Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("target %v: expected ErrValidation, got %v", v, err)
		}
	}
	ok := 12.5
	if err := (ActivityPatch{TargetValue: &ok}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPeriodValidate(t *testing.T) {
	if err := (Period{Month: 11, Year: 2031}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Period{Month: 12, Year: 2025}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for month 12, got %v", err)
	}
	if err := (Period{Month: 0, Year: 0}).Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for year 0, got %v", err)
	}
}

func TestAchievementValidateRejectsNegative(t *testing.T) {
	a := NewAchievement("act_1", 0, 2025, -1)
	if err := a.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestAchievementValidateRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.Inf(1), math.NaN()} {
		if err := NewAchievement("act_1", 0, 2025, v).Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("value %v: expected ErrValidation, got %v", v, err)
		}
	}
}

func TestParseTargetLogic(t *testing.T) {
	l, err := ParseTargetLogic("Cumulative")
	if err != nil || l != TargetCumulative {
		t.Errorf("got %v, %v", l, err)
	}
	l, err = ParseTargetLogic("")
	if err != nil || l != TargetStatic {
		t.Errorf("got %v, %v", l, err)
	}
	if _, err := ParseTargetLogic("linear"); err == nil {
		t.Error("expected error")
	}
}
