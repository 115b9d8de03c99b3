package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/pkordes/formflow/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	for _, sub := range []struct {
		use, short string
		run        func(ctx context.Context, p *goose.Provider, log *slog.Logger) error
	}{
		{"up", "Apply all pending migrations", migrateUp},
		{"down", "Roll back the latest migration", migrateDown},
		{"status", "Show the state of every migration", migrateStatus},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, logger, err := setup()
				if err != nil {
					return err
				}
				return withProvider(cmd.Context(), cfg.DatabaseURL, func(p *goose.Provider) error {
					return sub.run(cmd.Context(), p, logger)
				})
			},
		})
	}
	return cmd
}

func withProvider(ctx context.Context, dsn string, fn func(*goose.Provider) error) error {
	p, db, err := migrations.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(p)
}

func migrateUp(ctx context.Context, p *goose.Provider, log *slog.Logger) error {
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied", "version", r.Source.Version, "file", r.Source.Path, "duration", r.Duration)
	}
	if len(results) == 0 {
		log.Info("no pending migrations")
	}
	return nil
}

func migrateDown(ctx context.Context, p *goose.Provider, log *slog.Logger) error {
	r, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	log.Info("migration rolled back", "version", r.Source.Version, "file", r.Source.Path)
	return nil
}

func migrateStatus(ctx context.Context, p *goose.Provider, log *slog.Logger) error {
	statuses, err := p.Status(ctx)
	if err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	for _, s := range statuses {
		log.Info("migration", "version", s.Source.Version, "file", s.Source.Path, "state", string(s.State), "applied_at", s.AppliedAt)
	}
	return nil
}
