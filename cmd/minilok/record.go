// ABOUTME: CLI command for recording a monthly achievement value.
// ABOUTME: Saving twice for the same month overwrites the earlier value.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/aggregate"
)

var recordPeriod periodFlags

var recordCmd = &cobra.Command{
	Use:     "record <activity-id> <value>",
	Aliases: []string{"rec"},
	Short:   "Record an activity's achievement for a month",
	Long: `Record the achieved value of an activity for one month.

Values that are not numbers, and negative values, are stored as 0. A comma
may be used as the decimal separator.

EXAMPLES:

  minilok record 0190ab 87                   # current month
  minilok record 0190ab 87 --month 3         # March of the current year
  minilok record 0190ab 87 -m 12 -y 2024     # December 2024`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := resolveActivity(ctx, args[0])
		if err != nil {
			return err
		}

		period := recordPeriod.period(time.Now())
		rec, err := svc.RecordAchievement(ctx, a.ID, period, args[1])
		if err != nil {
			return fmt.Errorf("failed to record achievement: %w", err)
		}

		pct := aggregate.Percent(a.TargetValue, rec.Value)
		color.Green("✓ Recorded %s for %s", formatNumber(rec.Value), period)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s  %.1f%% of %s\n",
			color.New(color.Faint).Sprint(shortID(a.ID)),
			a.Name, pct, formatNumber(a.TargetValue))
		return nil
	},
}

func init() {
	recordPeriod.register(recordCmd, false)
	rootCmd.AddCommand(recordCmd)
}
