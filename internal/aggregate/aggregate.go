// ABOUTME: Pure aggregation over activities and achievements: percentages, pass/fail, rollups.
// ABOUTME: No I/O; every function works on slices already fetched from storage.
package aggregate

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/harperreed/minilok/internal/models"
)

// AchievedThreshold is the percent at or above which an activity counts as achieved.
const AchievedThreshold = 100.0

// Percent returns value/target*100 rounded to one decimal. A target <= 0 or
// a non-finite input yields 0.
func Percent(target, value float64) float64 {
	if target <= 0 || !finite(target) || !finite(value) {
		return 0
	}
	p := decimal.NewFromFloat(value).
		Div(decimal.NewFromFloat(target)).
		Mul(decimal.NewFromInt(100)).
		Round(1)
	f, _ := p.Float64()
	return f
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Achieved reports whether percent meets the target.
func Achieved(percent float64) bool {
	return percent >= AchievedThreshold
}

// CappedPercent is Percent clamped to 100, as plotted on radar charts.
func CappedPercent(target, value float64) float64 {
	p := Percent(target, value)
	if p > 100 {
		return 100
	}
	return p
}

// ValueFor returns the recorded value for activityID, or 0 and false when none exists.
func ValueFor(achievements []*models.Achievement, activityID string) (float64, bool) {
	for _, a := range achievements {
		if a.ActivityID == activityID {
			return a.Value, true
		}
	}
	return 0, false
}

// UniqueActivities collapses repeated ids onto their first occurrence, keeping order.
func UniqueActivities(list []*models.Activity) []*models.Activity {
	seen := make(map[string]bool, len(list))
	out := make([]*models.Activity, 0, len(list))
	for _, a := range list {
		if a == nil || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out = append(out, a)
	}
	return out
}

// Score is the evaluation of one activity for one month.
type Score struct {
	Value    float64 `json:"value"`
	Target   float64 `json:"target"`
	Percent  float64 `json:"percent"`
	Achieved bool    `json:"achieved"`
	Recorded bool    `json:"recorded"`
}

// Evaluator scores activities for a month.
//
// With CumulativeAsRunning unset, both target logics compare the month's value
// against the monthly target. When set, cumulative activities compare the
// year-to-date total against the rolling target-to-date instead.
type Evaluator struct {
	CumulativeAsRunning bool
}

// Evaluate scores a for month. monthly holds the month's achievements and
// annual the whole year's; annual is only read for running cumulative scores.
func (e Evaluator) Evaluate(a *models.Activity, month int, monthly, annual []*models.Achievement) Score {
	value, recorded := ValueFor(monthly, a.ID)

	if e.CumulativeAsRunning && a.TargetLogic == models.TargetCumulative {
		r := AnnualRollup(a, annual, month)
		return Score{
			Value:    r.Total,
			Target:   r.RollingTarget,
			Percent:  r.RollingPercent,
			Achieved: Achieved(r.RollingPercent),
			Recorded: recorded,
		}
	}

	p := Percent(a.TargetValue, value)
	return Score{
		Value:    value,
		Target:   a.TargetValue,
		Percent:  p,
		Achieved: Achieved(p),
		Recorded: recorded,
	}
}

// FailedActivities returns activities below target for the month, including
// those with no recorded achievement, in their original order.
func (e Evaluator) FailedActivities(activities []*models.Activity, month int, monthly, annual []*models.Achievement) []*models.Activity {
	var failed []*models.Activity
	for _, a := range UniqueActivities(activities) {
		if !e.Evaluate(a, month, monthly, annual).Achieved {
			failed = append(failed, a)
		}
	}
	return failed
}

// Rollup is an activity's year-to-date summary.
type Rollup struct {
	Total          float64 `json:"total"`
	AnnualTarget   float64 `json:"annualTarget"`
	RollingTarget  float64 `json:"rollingTarget"`
	RollingPercent float64 `json:"rollingPercent"`
}

// AnnualRollup sums a's values for months 0..month; later months are ignored
// even when recorded.
func AnnualRollup(a *models.Activity, annual []*models.Achievement, month int) Rollup {
	total := decimal.Zero
	for _, ach := range annual {
		if ach.ActivityID != a.ID || ach.Month > month || ach.Month < 0 {
			continue
		}
		total = total.Add(decimal.NewFromFloat(ach.Value))
	}
	t, _ := total.Float64()

	rolling := a.TargetValue * float64(month+1)
	return Rollup{
		Total:          t,
		AnnualTarget:   a.TargetValue * 12,
		RollingTarget:  rolling,
		RollingPercent: Percent(rolling, t),
	}
}

// MonthValues returns a's recorded value per month index; unrecorded months are 0.
func MonthValues(a *models.Activity, annual []*models.Achievement) [12]float64 {
	var out [12]float64
	for _, ach := range annual {
		if ach.ActivityID == a.ID && models.ValidMonth(ach.Month) {
			out[ach.Month] = ach.Value
		}
	}
	return out
}

// MonthlyAveragePercent returns, for each month 0..month, the mean percent of
// activities in that month. Missing records count as 0.
func MonthlyAveragePercent(activities []*models.Activity, annual []*models.Achievement, month int) []float64 {
	unique := UniqueActivities(activities)
	if month < 0 {
		return []float64{}
	}
	if month > 11 {
		month = 11
	}

	values := make(map[string][12]float64, len(unique))
	for _, a := range unique {
		values[a.ID] = MonthValues(a, annual)
	}

	out := make([]float64, month+1)
	if len(unique) == 0 {
		return out
	}
	for m := 0; m <= month; m++ {
		sum := decimal.Zero
		for _, a := range unique {
			sum = sum.Add(decimal.NewFromFloat(Percent(a.TargetValue, values[a.ID][m])))
		}
		avg, _ := sum.Div(decimal.NewFromInt(int64(len(unique)))).Round(1).Float64()
		out[m] = avg
	}
	return out
}

// Totals counts achieved and unachieved activities.
type Totals struct {
	Total       int `json:"total"`
	Achieved    int `json:"achieved"`
	NotAchieved int `json:"notAchieved"`
}

// Count tallies scores into Totals.
func Count(scores []Score) Totals {
	t := Totals{Total: len(scores)}
	for _, s := range scores {
		if s.Achieved {
			t.Achieved++
		}
	}
	t.NotAchieved = t.Total - t.Achieved
	return t
}
