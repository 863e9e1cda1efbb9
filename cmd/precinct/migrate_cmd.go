package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/iota-uz/precinct/migrations"
	"github.com/iota-uz/precinct/pkg/configuration"
)

type migrationOutput struct {
	Version    int64  `json:"version"`
	Path       string `json:"path"`
	Direction  string `json:"direction,omitempty"`
	State      string `json:"state,omitempty"`
	AppliedAt  string `json:"applied_at,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withProvider(cmd.Context(), func(p *goose.Provider) error {
					results, err := p.Up(cmd.Context())
					if err != nil {
						return err
					}
					out := make([]migrationOutput, 0, len(results))
					for _, r := range results {
						out = append(out, resultOutput(r))
					}
					return writeJSON(out)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withProvider(cmd.Context(), func(p *goose.Provider) error {
					r, err := p.Down(cmd.Context())
					if err != nil {
						return err
					}
					return writeJSON(resultOutput(r))
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withProvider(cmd.Context(), func(p *goose.Provider) error {
					statuses, err := p.Status(cmd.Context())
					if err != nil {
						return err
					}
					out := make([]migrationOutput, 0, len(statuses))
					for _, s := range statuses {
						o := migrationOutput{Version: s.Source.Version, Path: s.Source.Path, State: string(s.State)}
						if !s.AppliedAt.IsZero() {
							o.AppliedAt = s.AppliedAt.UTC().Format(time.RFC3339)
						}
						out = append(out, o)
					}
					return writeJSON(out)
				})
			},
		},
	)
	return cmd
}

func resultOutput(r *goose.MigrationResult) migrationOutput {
	return migrationOutput{
		Version:    r.Source.Version,
		Path:       r.Source.Path,
		Direction:  r.Direction,
		DurationMS: r.Duration.Milliseconds(),
	}
}

func withProvider(ctx context.Context, fn func(p *goose.Provider) error) error {
	conf := configuration.Use()
	if conf.StorageBackend != configuration.StoragePostgres {
		return fmt.Errorf("migrations require STORAGE_BACKEND=postgres")
	}
	pool, err := connect(ctx, conf)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	return fn(provider)
}
