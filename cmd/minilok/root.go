// ABOUTME: Root Cobra command for minilok CLI.
// ABOUTME: Loads config, sets up logging, and opens storage via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/config"
	"github.com/harperreed/minilok/internal/storage"
	"github.com/harperreed/minilok/internal/views"
)

var (
	cfg  *config.Config
	repo storage.Repository
	svc  *views.Service

	flagBackend string
	flagDataDir string
)

// noStorage lists commands that run without opening a backend.
var noStorage = map[string]bool{
	"help":       true,
	"version":    true,
	"clusters":   true,
	"migrate":    true,
	"completion": true,
}

var rootCmd = &cobra.Command{
	Use:   "minilok",
	Short: "Monthly performance dashboard for a Puskesmas",
	Long: `Minilok tracks monthly activity achievements of a Puskesmas against targets,
grouped into five fixed clusters, with PDCA notes for activities below target.

QUICK START:

  $ minilok clusters                                   # Show the five clusters
  $ minilok activity add k2 "Imunisasi Dasar" 100      # Add an activity with target 100
  $ minilok record <activity-id> 87 --month 3          # Record March's value
  $ minilok dashboard --cluster k2 --month 3           # See target vs achievement
  $ minilok pdca set <activity-id> --plan "..."        # Write a PDCA note
  $ minilok report document --cluster k2 -o out.pdf    # Export the PDF report

WEB DASHBOARD:

  $ minilok serve                                      # HTTP API on 127.0.0.1:8080

STORAGE:

  The backend is chosen with --backend or the "backend" config key:
    local     badger key-value store (default)
    sqlite    single SQLite file
    postgres  remote database from database_url

  Config lives at $XDG_CONFIG_HOME/minilok/config.json, data under
  $XDG_DATA_HOME/minilok.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if flagBackend != "" {
			cfg.Backend = flagBackend
		}
		if flagDataDir != "" {
			cfg.DataDir = flagDataDir
		}
		setupLogging(cfg, cmd.ErrOrStderr())

		// PostRunE is skipped when a command fails.
		if repo != nil {
			_ = repo.Close()
			repo, svc = nil, nil
		}
		if noStorage[cmd.Name()] {
			return nil
		}

		repo, err = cfg.OpenStorage(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.GetBackend(), err)
		}
		svc = views.NewService(repo, cfg.Evaluator())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if repo == nil {
			return nil
		}
		err := repo.Close()
		repo, svc = nil, nil
		return err
	},
}

// setupLogging configures the global zerolog logger. Human output is a console
// writer; otherwise logs are JSON lines.
func setupLogging(c *config.Config, w io.Writer) {
	zerolog.SetGlobalLevel(c.GetLogLevel())
	output := w
	if c.HumanLogs() {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	if _, ok := os.LookupEnv("GIN_MODE"); !ok {
		gin.SetMode(gin.ReleaseMode)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend: local, sqlite or postgres")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/minilok)")
}
