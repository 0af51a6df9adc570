package commands

import (
	"github.com/spf13/cobra"

	"github.com/gastos-dev/gastos/internal/config"
	"github.com/gastos-dev/gastos/internal/logger"
	"github.com/gastos-dev/gastos/internal/pipeline"
	"github.com/gastos-dev/gastos/internal/web"
)

func newServeCommand() *cobra.Command {
	var cfgPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive upload and chart view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, cfgPath, addr)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", config.FileName, "config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, cfgPath, addr string) error {
	ctx := cmd.Context()

	cfg, base, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	cat, err := newCategorizer(ctx, cfg, base)
	if err != nil {
		return err
	}

	srv, err := web.NewServer(web.Options{
		Pipeline:       &pipeline.Pipeline{Categorizer: cat, SkipBadFiles: true},
		Labels:         cat.Labels,
		Palette:        cfg.Palette(),
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		Logger:         logger.FromContext(ctx),
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, addr)
}
