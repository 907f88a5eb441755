package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/langchou/fuelgazer/internal/api/sheets"
	"github.com/langchou/fuelgazer/internal/config"
	"github.com/langchou/fuelgazer/internal/ingest"
	"github.com/langchou/fuelgazer/internal/service"
)

type opener func(ctx context.Context) (*app, error)

func newMigrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database migrated")
			return nil
		},
	}
}

func newSyncCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync fill-ups from the spreadsheet once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			var fetcher ingest.Fetcher
			if a.cfg.SheetID != "" {
				client, err := sheets.NewClient(ctx, a.cfg.ServiceAccountFile, a.cfg.SheetID)
				if err != nil {
					return err
				}
				fetcher = client
			}

			svc := service.NewSyncService(a.logger, ingest.NewEngine(a.store, a.cfg.Location), fetcher,
				service.SyncOptions{SheetRange: a.cfg.SheetRange, Timeout: a.cfg.SyncTimeout}, nil, nil, nil)
			res, err := svc.Sync(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d entries\n", res.Accepted)
			for _, rej := range res.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped row %d: %v\n", rej.Index, rej.Err)
			}
			return nil
		},
	}
}

func newStatsService(a *app) (*service.StatsService, error) {
	schedule, err := config.LoadServiceSchedule(a.cfg.ServiceScheduleFile)
	if err != nil {
		return nil, err
	}
	return service.NewStatsService(a.store, schedule, a.cfg.Location, a.cfg.StatsWindow, nil), nil
}

func newRemindersCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Show kilometres left until each scheduled service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := newStatsService(a)
			if err != nil {
				return err
			}
			reminders, err := stats.Reminders(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(reminders) == 0 {
				fmt.Fprintln(out, "No services scheduled")
				return nil
			}
			for _, r := range reminders {
				if r.KmRemaining < 0 {
					fmt.Fprintf(out, "%s: overdue by %.0f km\n", r.ServiceType, -r.KmRemaining)
					continue
				}
				fmt.Fprintf(out, "%s: %.0f km remaining\n", r.ServiceType, r.KmRemaining)
			}
			return nil
		},
	}
}

func newStatsCmd(open opener) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print fuel consumption for a month or the default window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := newStatsService(a)
			if err != nil {
				return err
			}
			consumption, err := stats.Consumption(cmd.Context(), month)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(consumption)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month to report on (YYYY-MM), defaults to the trailing window")
	return cmd
}
