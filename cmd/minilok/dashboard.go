// ABOUTME: CLI command printing a cluster's monthly dashboard.
// ABOUTME: Shows totals and a per-activity target vs achievement table.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	dashboardPeriod periodFlags
	dashboardFailed bool
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "d"},
	Short:   "Show target vs achievement for a cluster and month",
	Long: `Show the dashboard of one cluster for one month.

An activity counts as achieved when its value reaches at least 100% of the
target. Activities without a recorded value count as 0.

EXAMPLES:

  minilok dashboard                       # first cluster, current month
  minilok dashboard -c k2 -m 3            # Ibu dan Balita, March
  minilok dashboard -c k4 --failed        # only activities below target`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dashboardPeriod.filter(time.Now())
		if err != nil {
			return err
		}
		v, err := svc.Dashboard(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("failed to build dashboard: %w", err)
		}

		out := cmd.OutOrStdout()
		bold := color.New(color.Bold)
		faint := color.New(color.Faint)
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)

		bold.Fprintf(out, "%s - %s\n", v.Cluster.Name, v.Period)
		fmt.Fprintf(out, "Total %d  %s  %s\n\n",
			v.Totals.Total,
			green.Sprintf("Tercapai %d", v.Totals.Achieved),
			red.Sprintf("Belum Tercapai %d", v.Totals.NotAchieved))

		if len(v.Rows) == 0 {
			fmt.Fprintln(out, "No activities in this cluster.")
			return nil
		}
		for _, row := range v.Rows {
			if dashboardFailed && row.Achieved {
				continue
			}
			status := red.Sprint("✗")
			if row.Achieved {
				status = green.Sprint("✓")
			}
			value := formatNumber(row.Value)
			if !row.Recorded {
				value = faint.Sprint("-")
			}
			fmt.Fprintf(out, "%s %s %s %s / %s  %5.1f%%\n",
				status,
				faint.Sprint(shortID(row.Activity.ID)),
				padRight(truncate(row.Activity.Name, 40), 40),
				value,
				formatNumber(row.Target),
				row.Percent)
		}
		return nil
	},
}

func init() {
	dashboardPeriod.register(dashboardCmd, true)
	dashboardCmd.Flags().BoolVar(&dashboardFailed, "failed", false, "only show activities below target")
	rootCmd.AddCommand(dashboardCmd)
}
