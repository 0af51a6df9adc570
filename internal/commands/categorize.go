package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/gastos-dev/gastos/internal/auditlog"
	"github.com/gastos-dev/gastos/internal/config"
	"github.com/gastos-dev/gastos/internal/export"
	"github.com/gastos-dev/gastos/internal/llm"
	"github.com/gastos-dev/gastos/internal/logger"
	"github.com/gastos-dev/gastos/internal/pipeline"
	"github.com/gastos-dev/gastos/internal/statement"
	"github.com/gastos-dev/gastos/internal/view"
)

func newCategorizeCommand() *cobra.Command {
	var cfgPath string
	var inDir string
	var outPath string
	var resume bool

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize every statement in the input directory into a CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategorize(cmd, cfgPath, inDir, outPath, resume)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", config.FileName, "config file")
	cmd.Flags().StringVar(&inDir, "dir", "", "statements directory (default input.dir)")
	cmd.Flags().StringVar(&outPath, "out", "", "output CSV (default output.csv)")
	cmd.Flags().BoolVar(&resume, "resume", false, "reuse labels already present in the output CSV")

	return cmd
}

func runCategorize(cmd *cobra.Command, cfgPath, inDir, outPath string, resume bool) error {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	cfg, base, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if inDir == "" {
		inDir = resolve(base, cfg.Input.Dir)
	}
	if outPath == "" {
		outPath = resolve(base, cfg.Output.CSV)
	}

	cat, err := newCategorizer(ctx, cfg, base)
	if err != nil {
		return err
	}
	if resume {
		prior, err := export.ReadFile(outPath)
		switch {
		case err == nil:
			cat.Prior = pipeline.NewCheckpoint(prior)
			log.Info().Int("labels", len(cat.Prior)).Str("file", outPath).Msg("resuming from previous output")
		case errors.Is(err, os.ErrNotExist):
			log.Info().Str("file", outPath).Msg("nothing to resume from")
		default:
			return fmt.Errorf("reading previous output: %w", err)
		}
	}

	reg := statement.DefaultRegistry()
	files, err := reg.Scan(inDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no statements found in %s", inDir)
	}
	sources := make([]statement.Source, len(files))
	for i, f := range files {
		sources[i] = statement.FileSource(f.Path)
	}

	p := &pipeline.Pipeline{Registry: reg, Categorizer: cat}
	out, err := p.Run(ctx, sources)
	if err != nil {
		return err
	}

	labels, err := cfg.LabelSet()
	if err != nil {
		return err
	}
	for _, verr := range view.Validate(view.Build(out.Transactions), labels) {
		log.Warn().Str("check", verr.Rule).Int("row", verr.Row).Msg(verr.Description)
	}

	if err := export.WriteFile(outPath, out.Transactions); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if path := resolve(base, cfg.Output.AuditLog); path != "" {
		if err := auditlog.Append(path, out.Audit); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("failed to write audit log")
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d transactions from %d statement(s) to %s\n",
		len(out.Transactions), len(files), outPath)
	fmt.Fprintln(cmd.OutOrStdout(), outcomeLine(auditlog.Summary(out.Audit)))

	if n := len(out.Failures); n > 0 {
		return fmt.Errorf("%d transaction(s) left unclassified; first failure: %w", n, out.Failures[0])
	}
	return nil
}

// outcomeLine reports how model answers were mapped onto labels.
func outcomeLine(counts map[auditlog.Outcome]int) string {
	return fmt.Sprintf("Outcomes: %d exact, %d normalized, %d fallback, %d resumed, %d failed",
		counts[auditlog.OutcomeExact], counts[auditlog.OutcomeNormalized], counts[auditlog.OutcomeFallback],
		counts[auditlog.OutcomeResumed], counts[auditlog.OutcomeFailed])
}

// loadConfig loads and validates the config file and returns the directory
// relative paths in it are resolved against.
func loadConfig(path string) (*config.Config, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(abs)
	if err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", abs, err)
	}
	return cfg, filepath.Dir(abs), nil
}

// newCategorizer builds the classifier from cfg. The credential is checked
// here so a missing key fails before any statement is read.
func newCategorizer(ctx context.Context, cfg *config.Config, base string) (*pipeline.Categorizer, error) {
	key, err := config.LoadAPIKey(cfg, base)
	if err != nil {
		return nil, err
	}
	labels, err := cfg.LabelSet()
	if err != nil {
		return nil, err
	}
	classifier, err := llm.New(ctx, llm.Options{
		Provider: cfg.Classifier.Provider,
		Model:    cfg.Classifier.Model,
		BaseURL:  cfg.Classifier.BaseURL,
		APIKey:   key,
		Prompt:   cfg.Categories.Prompt,
	})
	if err != nil {
		return nil, err
	}

	cat := &pipeline.Categorizer{
		Classifier: classifier,
		Labels:     labels,
		Workers:    cfg.Classifier.Workers,
		Attempts:   cfg.Classifier.Attempts,
		Backoff:    cfg.Classifier.Backoff(),
		Timeout:    cfg.Classifier.Timeout(),
		KeepGoing:  cfg.Classifier.KeepGoing,
	}
	if rpm := cfg.Classifier.RequestsPerMinute; rpm > 0 {
		cat.Limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
	return cat, nil
}
