// ABOUTME: CLI commands for Plan-Do-Check-Action notes.
// ABOUTME: Notes are keyed by activity and month; saving again overwrites.
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/views"
)

var (
	pdcaPeriod                           periodFlags
	pdcaPlan, pdcaDo, pdcaCheck, pdcaAct string
)

var pdcaCmd = &cobra.Command{
	Use:   "pdca",
	Short: "Manage PDCA improvement notes",
	Long: `Manage Plan-Do-Check-Action notes for activities below target.

EXAMPLES:

  minilok pdca list -c k2 -m 3
  minilok pdca show 0190ab -m 3
  minilok pdca set 0190ab -m 3 --plan "Sweeping" --do "Kunjungan rumah"`,
}

var pdcaListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List activities below target with their PDCA notes",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := pdcaPeriod.filter(time.Now())
		if err != nil {
			return err
		}
		v, err := svc.Pdca(cmd.Context(), f, views.PageRequest{})
		if err != nil {
			return fmt.Errorf("failed to list pdca: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(v.Items) == 0 {
			color.Green("✓ Every activity reached its target in %s", f.Period())
			return nil
		}
		for _, item := range v.Items {
			color.New(color.Bold).Fprintf(out, "%s %s\n", item.Activity.Name, color.New(color.Faint).Sprint(shortID(item.Activity.ID)))
			printPdca(out, item.Entry)
			fmt.Fprintln(out)
		}
		return nil
	},
}

var pdcaShowCmd = &cobra.Command{
	Use:   "show <activity-id>",
	Short: "Show the PDCA note of an activity for a month",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := resolveActivity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		p, err := svc.GetPdca(cmd.Context(), a.ID, pdcaPeriod.period(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to get pdca: %w", err)
		}
		out := cmd.OutOrStdout()
		color.New(color.Bold).Fprintf(out, "%s - %s\n", a.Name, models.Period{Month: p.Month, Year: p.Year})
		printPdca(out, p)
		return nil
	},
}

var pdcaSetCmd = &cobra.Command{
	Use:   "set <activity-id>",
	Short: "Write the PDCA note of an activity for a month",
	Long: `Write the PDCA note of an activity for a month. Fields not given keep their
current text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := resolveActivity(ctx, args[0])
		if err != nil {
			return err
		}
		period := pdcaPeriod.period(time.Now())
		p, err := repo.GetPdca(ctx, a.ID, period.Month, period.Year)
		if err != nil {
			return fmt.Errorf("failed to get pdca: %w", err)
		}
		if p == nil {
			p = &models.PdcaEntry{ActivityID: a.ID, Month: period.Month, Year: period.Year}
		}

		flags := cmd.Flags()
		if flags.Changed("plan") {
			p.Plan = pdcaPlan
		}
		if flags.Changed("do") {
			p.Do = pdcaDo
		}
		if flags.Changed("check") {
			p.Check = pdcaCheck
		}
		if flags.Changed("action") {
			p.Action = pdcaAct
		}

		saved, err := svc.SavePdca(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to save pdca: %w", err)
		}
		color.Green("✓ Saved PDCA for %s (%s)", a.Name, period)
		printPdca(cmd.OutOrStdout(), saved)
		return nil
	},
}

func printPdca(w io.Writer, p *models.PdcaEntry) {
	if p == nil {
		p = &models.PdcaEntry{Plan: "-", Do: "-", Check: "-", Action: "-"}
	}
	faint := color.New(color.Faint)
	fmt.Fprintf(w, "  %s %s\n", faint.Sprint(padRight("Plan", 7)), p.Plan)
	fmt.Fprintf(w, "  %s %s\n", faint.Sprint(padRight("Do", 7)), p.Do)
	fmt.Fprintf(w, "  %s %s\n", faint.Sprint(padRight("Check", 7)), p.Check)
	fmt.Fprintf(w, "  %s %s\n", faint.Sprint(padRight("Action", 7)), p.Action)
}

func init() {
	pdcaPeriod.register(pdcaListCmd, true)
	pdcaPeriod.register(pdcaShowCmd, false)
	pdcaPeriod.register(pdcaSetCmd, false)
	pdcaSetCmd.Flags().StringVar(&pdcaPlan, "plan", "", "plan text")
	pdcaSetCmd.Flags().StringVar(&pdcaDo, "do", "", "do text")
	pdcaSetCmd.Flags().StringVar(&pdcaCheck, "check", "", "check text")
	pdcaSetCmd.Flags().StringVar(&pdcaAct, "action", "", "action text")

	pdcaCmd.AddCommand(pdcaListCmd, pdcaShowCmd, pdcaSetCmd)
	rootCmd.AddCommand(pdcaCmd)
}
