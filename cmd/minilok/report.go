// ABOUTME: CLI commands exporting the PDF report document or slide deck.
// ABOUTME: Renders HTML, rasterizes it in headless Chrome and writes the PDF.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/minilok/internal/report"
	"github.com/harperreed/minilok/internal/views"
)

var (
	reportPeriod     periodFlags
	reportOutput     string
	reportActivities []string
	reportHTML       bool
)

var reportCmd = &cobra.Command{
	Use:   "report <document|slides>",
	Short: "Export the cluster report as PDF",
	Long: `Export a cluster's report for one month.

KINDS:

  document   Portrait A4 report with tables, charts and PDCA notes
  slides     Landscape deck with one slide per activity

Without --activity every activity of the cluster is included. The file name
follows the selection, e.g. Laporan_Ibu_dan_Balita_Lengkap.pdf.

Chrome or Chromium is needed for PDF output. Set chrome_bin in the config or
MINILOK_CHROME_BIN to pick a binary; otherwise one is located or downloaded.

EXAMPLES:

  minilok report document -c k2 -m 3
  minilok report slides -c k2 -m 3 -o slides.pdf
  minilok report document -c k2 --activity 0190ab
  minilok report document -c k2 --html > report.html`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(views.ExportDocument), string(views.ExportSlides)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := views.ExportKind(args[0])
		if kind != views.ExportDocument && kind != views.ExportSlides {
			return fmt.Errorf("unknown report kind: %s (use document or slides)", args[0])
		}
		f, err := reportPeriod.filter(time.Now())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		var ids []string
		for _, ref := range reportActivities {
			a, err := resolveActivity(ctx, ref)
			if err != nil {
				return err
			}
			ids = append(ids, a.ID)
		}

		renderer, err := report.NewRenderer()
		if err != nil {
			return err
		}
		chrome := report.NewChrome(cfg.ChromeBin)
		defer chrome.Close()
		exporter := report.NewExporter(svc, renderer, chrome)

		if reportHTML {
			html, err := exporter.HTML(ctx, kind, f, ids)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(html)
			return err
		}

		var file *report.File
		if kind == views.ExportDocument {
			file, err = exporter.Document(ctx, f, ids)
		} else {
			file, err = exporter.Slides(ctx, f, ids)
		}
		if err != nil {
			return err
		}

		out := reportOutput
		if out == "" {
			out = file.Name
		} else if info, err := os.Stat(out); err == nil && info.IsDir() {
			out = filepath.Join(out, file.Name)
		}
		if err := os.WriteFile(out, file.PDF, 0600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		color.Green("✓ Exported %s to %s", kind, out)
		return nil
	},
}

func init() {
	reportPeriod.register(reportCmd, true)
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file or directory (default: generated name)")
	reportCmd.Flags().StringSliceVarP(&reportActivities, "activity", "a", nil, "activity id to include (repeatable)")
	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "print the rendered HTML instead of a PDF")
	rootCmd.AddCommand(reportCmd)
}
