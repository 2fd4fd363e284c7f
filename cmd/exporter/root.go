package exporter

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mfs-exporter/pkg/agent"
	"github.com/mfs-exporter/pkg/config"
	"github.com/mfs-exporter/pkg/logger"
	"github.com/mfs-exporter/pkg/server"
	"github.com/mfs-exporter/pkg/signal"
	"github.com/mfs-exporter/pkg/util"
)

// Version is set at build time with -ldflags "-X .../cmd/exporter.Version=...".
var Version = "dev"

const projectName = "mfs-exporter"

var defaultCfg = config.NewDefaultConfig()

// NewRootCommand builds the exporter command with every flag group.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           projectName,
		Short:         "Prometheus exporter for MooseFS master, chunkserver and disk statistics",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, v, err := config.LoadConfigWithCli(cmd)
			if err != nil {
				return err
			}
			// past this point errors are runtime failures, not usage mistakes
			cmd.SilenceUsage = true

			if noBanner, _ := cmd.Flags().GetBool("no-banner"); !noBanner {
				util.PrintBanner(cmd.OutOrStdout(), projectName, "cyan")
			}
			return runServer(cmd.Context(), cfg, v)
		},
	}

	cmd.Flags().StringP("config", "c", "", "-> Optional YAML config file")
	cmd.Flags().Bool("no-banner", false, "-> Do not print the startup banner")
	initMooseFSFlags(cmd)
	initServerFlags(cmd)
	initCollectorFlags(cmd)
	initLogFlags(cmd)
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	cobra.CheckErr(NewRootCommand().ExecuteContext(context.Background()))
}

func runServer(ctx context.Context, cfg *config.Config, v *viper.Viper) error {
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.SetDefaultComponent("main")
	logger.Info("configuration loaded",
		zap.String("version", Version),
		zap.String("master", cfg.MooseFS.Host),
		zap.Int("master_port", cfg.MooseFS.Port),
		zap.Duration("interval", cfg.MooseFS.Interval),
		zap.String("config", v.ConfigFileUsed()),
		zap.String("log_path", cfg.Log.Path))

	const enableRuntime = true
	registry, store, a, err := agent.InitPromRegistry(ctx, enableRuntime, cfg)
	if err != nil {
		return fmt.Errorf("start collection: %w", err)
	}

	httpServer := server.NewHTTPServer(cfg.Server, registry, store)
	if err := httpServer.Start(); err != nil {
		_ = a.Shutdown(context.Background())
		return fmt.Errorf("start HTTP server failed: %w", err)
	}

	config.WatchConfig(v, func(newCfg *config.Config, err error) {
		if err != nil {
			logger.Warn("ignoring invalid config change", zap.Error(err))
			return
		}
		a.SetInterval(newCfg.MooseFS.Interval)
	})

	signal.WaitForShutdown(ctx, logger.GetLogger(), func(ctx context.Context) error {
		var errs []error
		if err := httpServer.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("shutdown HTTP server failed: %w", err))
		}
		if err := a.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown agent failed: %w", err))
		}
		if len(errs) == 0 {
			logger.Info("all services shutdown successfully")
		}
		return errors.Join(errs...)
	})
	return nil
}
