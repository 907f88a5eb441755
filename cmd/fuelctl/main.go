package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/langchou/fuelgazer/internal/config"
	"github.com/langchou/fuelgazer/internal/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app 子命令共享的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  repository.FuelStore
}

func (a *app) close() {
	a.store.Close()
	a.logger.Sync()
}

func newRootCmd() *cobra.Command {
	var debug bool

	root := &cobra.Command{
		Use:   "fuelctl",
		Short: "Fuel log maintenance commands",
		Long:  "Sync fill-ups from the spreadsheet and inspect fuel statistics without running the server.",
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceUsage = true
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	open := func(ctx context.Context) (*app, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if debug {
			cfg.Debug = true
		}

		logger := zap.NewNop()
		if cfg.Debug {
			logger, _ = zap.NewDevelopment()
		}

		store, err := repository.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return &app{cfg: cfg, logger: logger, store: store}, nil
	}

	root.AddCommand(
		newMigrateCmd(open),
		newSyncCmd(open),
		newRemindersCmd(open),
		newStatsCmd(open),
	)
	return root
}
