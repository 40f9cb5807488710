// ABOUTME: CLI command for starting the MCP server.
// ABOUTME: Runs a stdio-based MCP server over the configured storage.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.
The server communicates via stdin/stdout.

CONFIGURATION:

  {
    "mcpServers": {
      "minilok": {
        "command": "minilok",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_clusters           List the five clusters
  list_activities         List activities of a cluster
  add_activity            Add an activity with a target
  record_achievement      Record a month's value for an activity
  get_dashboard           Target vs achievement for a cluster and month
  list_failed_activities  Activities below target for a month
  save_pdca               Write a PDCA note
  delete_activity         Delete an activity and its records

AVAILABLE RESOURCES:

  minilok://clusters           The fixed clusters
  minilok://dashboard/current  Every cluster's dashboard for this month

Months are 1-12 in tool arguments; 0 means the current month.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(svc)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
