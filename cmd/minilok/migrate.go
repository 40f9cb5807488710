// ABOUTME: CLI command for copying data between storage backends.
// ABOUTME: Reads everything from one backend and replays it into another.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/config"
	"github.com/harperreed/minilok/internal/storage"
)

var (
	migrateFrom  string
	migrateTo    string
	migrateForce bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy all data from one storage backend to another",
	Long: `Copy every activity, achievement and PDCA note between backends.

BACKENDS:

  local     badger store under <data-dir>/local
  sqlite    <data-dir>/minilok.db
  postgres  database_url from the config

The destination must be empty unless --force is given; with --force, existing
activities are matched by cluster and name and their values are overwritten.
Afterwards set "backend" in the config to the destination.

EXAMPLES:

  minilok migrate --from local --to sqlite
  minilok migrate --from sqlite --to postgres --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateFrom == migrateTo {
			return fmt.Errorf("source and destination are both %q", migrateFrom)
		}
		ctx := cmd.Context()

		src, err := cfg.OpenBackend(ctx, migrateFrom)
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		defer src.Close()

		if !migrateForce && migrateTo == config.BackendLocal {
			nonEmpty, err := storage.IsDirNonEmpty(storage.LocalDir(cfg.GetDataDir()))
			if err != nil {
				return err
			}
			if nonEmpty {
				return fmt.Errorf("destination local store is not empty (use --force to merge)")
			}
		}

		dst, err := cfg.OpenBackend(ctx, migrateTo)
		if err != nil {
			return fmt.Errorf("failed to open destination: %w", err)
		}
		defer dst.Close()

		if !migrateForce && migrateTo != config.BackendLocal {
			existing, err := dst.ListActivities(ctx, "")
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				return fmt.Errorf("destination %s already has %d activities (use --force to merge)", migrateTo, len(existing))
			}
		}

		summary, err := storage.MigrateData(ctx, src, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.Green("✓ Migrated %s → %s", migrateFrom, migrateTo)
		faint := color.New(color.Faint)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  %s %d\n", faint.Sprint(padRight("activities", 13)), summary.Activities)
		fmt.Fprintf(out, "  %s %d\n", faint.Sprint(padRight("achievements", 13)), summary.Achievements)
		fmt.Fprintf(out, "  %s %d\n", faint.Sprint(padRight("pdca", 13)), summary.Pdca)
		if summary.Skipped > 0 {
			color.Yellow("  skipped %d records", summary.Skipped)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", config.BackendLocal, "source backend")
	migrateCmd.Flags().StringVar(&migrateTo, "to", config.BackendSQLite, "destination backend")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "merge into a destination that already has data")
	rootCmd.AddCommand(migrateCmd)
}
