package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gastos-dev/gastos/internal/category"
	"github.com/gastos-dev/gastos/internal/config"
)

func newInitCommand() *cobra.Command {
	var profile string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a gastos.yaml and the statements directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, profile, force)
		},
	}

	cmd.Flags().StringVar(&profile, "profile", category.ProfileInteractive, "category profile (batch or interactive)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing gastos.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, dir, profile string, force bool) error {
	if profile != category.ProfileBatch && profile != category.ProfileInteractive {
		return fmt.Errorf("unknown profile %q (want %s or %s)", profile, category.ProfileBatch, category.ProfileInteractive)
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", cfgPath, err)
	}

	cfg := config.Default(profile)

	// Create directory structure.
	dirs := []string{
		cfg.Input.Dir,
		filepath.Dir(cfg.Output.AuditLog),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	gitignore := cfg.Classifier.EnvFile + "\n" + filepath.Dir(cfg.Output.AuditLog) + "/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized gastos at %s (profile %s)\n", dir, cfg.Profile)
	fmt.Fprintf(cmd.OutOrStdout(), "Put %s in %s and the statements in %s/\n",
		cfg.Classifier.APIKeyEnv, cfg.Classifier.EnvFile, cfg.Input.Dir)
	return nil
}
