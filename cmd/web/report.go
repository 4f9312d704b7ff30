package main

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"autosales-dashboard/internal/charts"
	"autosales-dashboard/internal/config"
	"autosales-dashboard/internal/models"
	"autosales-dashboard/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var reportSVGDir string

var reportCmd = &cobra.Command{
	Use:   "report [recession|yearly]",
	Short: "Print one report view as JSON",
	Long: `Loads the dataset once, computes the selected report and prints the
message and both chart specifications as JSON. With --svg-dir the two charts
are also written as SVG files.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(models.ReportRecession), string(models.ReportYearly)},
	RunE:      runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportSVGDir, "svg-dir", "", "write <report>-1.svg and <report>-2.svg into this directory")
}

func runReport(cmd *cobra.Command, args []string) error {
	sel, err := models.ParseReportSelection(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger)

	analytics, err := loadAnalytics(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	view, err := analytics.Views(sel)
	if err != nil {
		return err
	}

	if reportSVGDir != "" {
		if err := writeSVGs(reportSVGDir, view); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func writeSVGs(dir string, view models.ReportView) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create svg dir: %w", err)
	}

	for i := 1; i <= 2; i++ {
		spec, _ := view.Chart(i)
		path := filepath.Join(dir, fmt.Sprintf("%s-%d.svg", view.Selection, i))

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		renderErr := charts.RenderSVG(f, spec, charts.Options{})
		closeErr := f.Close()
		if renderErr != nil {
			return fmt.Errorf("render %s: %w", path, renderErr)
		}
		if closeErr != nil {
			return fmt.Errorf("close %s: %w", path, closeErr)
		}
	}
	return nil
}
