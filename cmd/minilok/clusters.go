// ABOUTME: CLI command listing the fixed clusters.
// ABOUTME: Runs without opening storage.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/models"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "List the five clusters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		faint := color.New(color.Faint)
		for _, c := range models.Clusters {
			fmt.Fprintf(out, "%s %s %s\n", faint.Sprint(c.ID), padRight(c.Label, 10), c.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clustersCmd)
}
