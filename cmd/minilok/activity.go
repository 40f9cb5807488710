// ABOUTME: CLI commands for managing activities within a cluster.
// ABOUTME: Supports list, add, bulk add, edit and delete by ID or ID prefix.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/storage"
	"github.com/harperreed/minilok/internal/views"
)

var (
	activityCluster string
	activityLogic   string
	bulkTarget      float64
	bulkFile        string
	editName        string
	editTarget      float64
	editLogic       string
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"act", "a"},
	Short:   "Manage activities",
	Long: `Manage the activities tracked in each cluster.

Activity names are unique within a cluster (case-insensitive). IDs can be
given in full or as a unique prefix, with or without the "act_" part.

EXAMPLES:

  minilok activity list --cluster k2
  minilok activity add k2 "Imunisasi Dasar" 100
  minilok activity add k3 "Skrining PTM" 1200 --logic cumulative
  minilok activity bulk k1 --target 12 < names.txt
  minilok activity edit 0190ab --target 150
  minilok activity delete 0190ab`,
}

var activityListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List activities",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if activityCluster != "" && !models.IsValidCluster(activityCluster) {
			return fmt.Errorf("unknown cluster: %s", activityCluster)
		}
		list, err := repo.ListActivities(cmd.Context(), activityCluster)
		if err != nil {
			return fmt.Errorf("failed to list activities: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No activities found.")
			return nil
		}
		for _, a := range list {
			printActivity(out, a)
		}
		return nil
	},
}

var activityAddCmd = &cobra.Command{
	Use:   "add <cluster> <name> <target>",
	Short: "Add an activity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid target: %s", args[2])
		}
		logic, err := models.ParseTargetLogic(activityLogic)
		if err != nil {
			return err
		}

		a, err := svc.AddActivity(cmd.Context(), models.ActivityInput{
			ClusterID:   args[0],
			Name:        args[1],
			TargetValue: target,
			TargetLogic: logic,
		})
		if err != nil {
			return fmt.Errorf("failed to add activity: %w", err)
		}

		color.Green("✓ Added %s", a.Name)
		printActivity(cmd.OutOrStdout(), a)
		return nil
	},
}

var activityBulkCmd = &cobra.Command{
	Use:   "bulk <cluster>",
	Short: "Add many activities from newline-separated names",
	Long: `Add several activities sharing one target. Names are read one per line from
--file, or from stdin when no file is given. Blank lines are ignored. A name
that already exists in the cluster (case-insensitive) keeps its current
target and is reported as existing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if bulkFile != "" {
			raw, err = os.ReadFile(bulkFile)
		} else {
			raw, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("failed to read names: %w", err)
		}
		logic, err := models.ParseTargetLogic(activityLogic)
		if err != nil {
			return err
		}

		res, err := svc.BulkAddActivities(cmd.Context(), views.BulkInput{
			ClusterID:   args[0],
			Names:       string(raw),
			TargetValue: bulkTarget,
			TargetLogic: logic,
		})
		if err != nil {
			return fmt.Errorf("failed to add activities: %w", err)
		}

		color.Green("✓ Added %d activities", res.Created)
		if res.Existing > 0 {
			color.Yellow("  %d already existed", res.Existing)
		}
		for _, a := range res.Activities {
			printActivity(cmd.OutOrStdout(), a)
		}
		return nil
	},
}

var activityEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an activity's name, target or target logic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := resolveActivity(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var patch models.ActivityPatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			patch.Name = &editName
		}
		if flags.Changed("target") {
			patch.TargetValue = &editTarget
		}
		if flags.Changed("logic") {
			logic, err := models.ParseTargetLogic(editLogic)
			if err != nil {
				return err
			}
			patch.TargetLogic = &logic
		}
		if patch == (models.ActivityPatch{}) {
			return fmt.Errorf("nothing to change: use --name, --target or --logic")
		}

		updated, err := svc.EditActivity(cmd.Context(), a.ID, patch)
		if err != nil {
			return fmt.Errorf("failed to edit activity: %w", err)
		}

		color.Green("✓ Updated %s", updated.Name)
		printActivity(cmd.OutOrStdout(), updated)
		return nil
	},
}

var activityDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete an activity with its achievements and PDCA notes",
	Long: `Delete an activity by its ID or ID prefix.

CAUTION:

  This permanently deletes the activity together with every recorded
  achievement and PDCA note. There is no undo.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := resolveActivity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := svc.RemoveActivity(cmd.Context(), a.ID); err != nil {
			return fmt.Errorf("failed to delete activity: %w", err)
		}

		color.Yellow("✗ Deleted %s", a.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", color.New(color.Faint).Sprint(shortID(a.ID)), a.ClusterID)
		return nil
	},
}

// resolveActivity finds an activity by full ID or unique ID prefix.
func resolveActivity(ctx context.Context, ref string) (*models.Activity, error) {
	if a, err := repo.GetActivity(ctx, ref); err == nil {
		return a, nil
	}

	list, err := repo.ListActivities(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	prefix := strings.TrimPrefix(ref, "act_")
	var found *models.Activity
	for _, a := range list {
		if !strings.HasPrefix(strings.TrimPrefix(a.ID, "act_"), prefix) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("ambiguous id prefix %q", ref)
		}
		found = a
	}
	if found == nil {
		return nil, fmt.Errorf("activity %s: %w", ref, storage.ErrNotFound)
	}
	return found, nil
}

// shortID returns the first 8 characters after the "act_" prefix.
func shortID(id string) string {
	id = strings.TrimPrefix(id, "act_")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printActivity(w io.Writer, a *models.Activity) {
	faint := color.New(color.Faint)
	fmt.Fprintf(w, "%s %s %s %s %s\n",
		faint.Sprint(shortID(a.ID)),
		faint.Sprint(a.ClusterID),
		padRight(truncate(a.Name, 40), 40),
		padRight(formatNumber(a.TargetValue), 8),
		faint.Sprint(a.TargetLogic.Label()))
}

func init() {
	activityListCmd.Flags().StringVarP(&activityCluster, "cluster", "c", "", "filter by cluster id")
	activityAddCmd.Flags().StringVarP(&activityLogic, "logic", "l", "static", "target logic: static or cumulative")
	activityBulkCmd.Flags().StringVarP(&activityLogic, "logic", "l", "static", "target logic: static or cumulative")
	activityBulkCmd.Flags().Float64VarP(&bulkTarget, "target", "t", 0, "target shared by every name")
	activityBulkCmd.Flags().StringVarP(&bulkFile, "file", "f", "", "file with one name per line (default: stdin)")
	_ = activityBulkCmd.MarkFlagRequired("target")
	activityEditCmd.Flags().StringVar(&editName, "name", "", "new name")
	activityEditCmd.Flags().Float64VarP(&editTarget, "target", "t", 0, "new target value")
	activityEditCmd.Flags().StringVarP(&editLogic, "logic", "l", "", "new target logic")

	activityCmd.AddCommand(activityListCmd, activityAddCmd, activityBulkCmd, activityEditCmd, activityDeleteCmd)
	rootCmd.AddCommand(activityCmd)
}
