// ABOUTME: CLI command running the HTTP API and dashboard backend.
// ABOUTME: Serves until interrupted, then shuts down gracefully.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/report"
	"github.com/harperreed/minilok/internal/views"
	"github.com/harperreed/minilok/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the dashboard frontend.

The listen address comes from --listen, MINILOK_LISTEN or the "listen"
config key (default 127.0.0.1:8080). CORS origins are read from
CORS_ALLOW_ORIGINS. Prometheus metrics are served at /metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := report.NewRenderer()
		if err != nil {
			return err
		}
		chrome := report.NewChrome(cfg.ChromeBin)
		defer chrome.Close()

		h := &web.Handler{
			Service:  svc,
			Session:  views.NewSession(views.DefaultFilter(time.Now())),
			Exporter: report.NewExporter(svc, renderer, chrome),
		}

		addr := serveListen
		if addr == "" {
			addr = cfg.GetListen()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		color.Green("✓ Serving on http://%s (%s backend)", addr, cfg.GetBackend())
		return web.Run(ctx, web.DefaultServerConfig(addr), web.New(h))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (default: config or 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}
