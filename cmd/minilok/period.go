// ABOUTME: Shared --cluster/--month/--year flags and output helpers for commands.
// ABOUTME: Months are typed 1-12 on the command line and stored zero-based.
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/views"
)

// periodFlags holds --cluster, --month (1-12) and --year for a command.
type periodFlags struct {
	cluster string
	month   int
	year    int
}

func (p *periodFlags) register(cmd *cobra.Command, withCluster bool) {
	if withCluster {
		cmd.Flags().StringVarP(&p.cluster, "cluster", "c", models.DefaultCluster().ID, "cluster id (k1-k5)")
	}
	cmd.Flags().IntVarP(&p.month, "month", "m", 0, "month 1-12 (default: current month)")
	cmd.Flags().IntVarP(&p.year, "year", "y", 0, "year (default: current year)")
}

func (p *periodFlags) period(now time.Time) models.Period {
	out := models.Period{Month: p.month - 1, Year: p.year}
	if p.month == 0 {
		out.Month = int(now.Month()) - 1
	}
	if p.year == 0 {
		out.Year = now.Year()
	}
	return out
}

func (p *periodFlags) filter(now time.Time) (views.Filter, error) {
	per := p.period(now)
	f := views.Filter{ClusterID: p.cluster, Month: per.Month, Year: per.Year}
	return f, f.Validate()
}

func truncate(s string, maxLen int) string {
	if len([]rune(s)) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}

func padRight(s string, length int) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

func formatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
