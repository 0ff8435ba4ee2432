// Package cli wires configuration, storage and the netcore components into
// cobra commands.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"netcore/internal/config"
	"netcore/internal/logger"
	"netcore/internal/monitor"
	"netcore/internal/repository"
	"netcore/internal/service"
)

// NewRootCmd creates the netcore root command
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "netcore",
		Short:         "Network inventory from nmap scans with liveness monitoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search $NETCORE_CONFIG, ./netcore.yaml, XDG paths)")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newImportCmd(&configPath))
	cmd.AddCommand(newLinkCmd(&configPath))
	cmd.AddCommand(newMonitorCmd(&configPath))
	cmd.AddCommand(newExportCmd(&configPath))

	return cmd
}

// app holds the components shared by every command
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store repository.Store
}

// setup loads and validates config, then opens the store. Nothing runs
// before this succeeds.
func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, path, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Debug().Str("path", path).Msg("config loaded")
	}

	store, err := repository.Open(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &app{cfg: cfg, log: log, store: store}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) linker() *service.Linker {
	return service.NewLinker(a.store, a.store, a.log)
}

func (a *app) importer() *service.Importer {
	return service.NewImporter(a.store, a.linker(), a.log)
}

func (a *app) monitor() (*monitor.Monitor, error) {
	mc := a.cfg.Monitor
	prober, err := monitor.NewProber(mc.Prober, mc.ProbeTimeout.Duration())
	if err != nil {
		return nil, err
	}
	return monitor.New(a.store, prober, monitor.Config{
		Interval:      mc.Interval.Duration(),
		ProbeTimeout:  mc.ProbeTimeout.Duration(),
		MaxConcurrent: mc.MaxConcurrent,
	}, a.log), nil
}
