package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gastos-dev/gastos/internal/auditlog"
	"github.com/gastos-dev/gastos/internal/config"
	"github.com/gastos-dev/gastos/internal/export"
	"github.com/gastos-dev/gastos/internal/logger"
	"github.com/gastos-dev/gastos/internal/report"
	"github.com/gastos-dev/gastos/internal/view"
)

func newSummaryCommand() *cobra.Command {
	var cfgPath string
	var inPath string
	var months []string
	var categories []string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show spending per category from a categorized CSV",
		Long: `Show spending per category from a categorized CSV.

Without --month every month is shown. Without --category no category
filter is applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, cfgPath, inPath, months, categories)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", config.FileName, "config file")
	cmd.Flags().StringVar(&inPath, "in", "", "categorized CSV (default output.csv)")
	cmd.Flags().StringArrayVar(&months, "month", nil, "month to include as MM/YY (repeatable)")
	cmd.Flags().StringArrayVar(&categories, "category", nil, "category to include (repeatable)")

	return cmd
}

func runSummary(cmd *cobra.Command, cfgPath, inPath string, months, categories []string) error {
	abs, err := filepath.Abs(cfgPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return err
	}
	base := filepath.Dir(abs)
	if inPath == "" {
		inPath = resolve(base, cfg.Output.CSV)
	}

	txns, err := export.ReadFile(inPath)
	if err != nil {
		return err
	}
	rows := view.Build(txns)
	if len(months) == 0 {
		months = view.Months(rows)
	}
	filtered := view.Filter(rows, months, categories)

	logger.FromContext(cmd.Context()).Debug().
		Int("rows", len(rows)).Int("shown", len(filtered)).Strs("months", months).Msg("summary")

	if err := report.Render(cmd.OutOrStdout(), filtered, view.ByCategory(filtered, cfg.Palette())); err != nil {
		return err
	}

	if path := resolve(base, cfg.Output.AuditLog); path != "" {
		entries, err := auditlog.Read(path)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\nClassification log (%d entries). %s\n", len(entries), outcomeLine(auditlog.Summary(entries)))
		}
	}
	return nil
}
