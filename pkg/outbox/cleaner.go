package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cleaner deletes published rows older than the retention window.
type Cleaner struct {
	pool       *pgxpool.Pool
	table      pgx.Identifier
	opts       CleanerOptions
	tableLabel string
}

func NewCleaner(pool *pgxpool.Pool, table pgx.Identifier, opts CleanerOptions) (*Cleaner, error) {
	if pool == nil {
		return nil, invalidConfig("pool is required")
	}
	if len(table) == 0 {
		return nil, invalidConfig("table is required")
	}
	if opts.DeadRetention > 0 && opts.DeadAttemptsThreshold <= 0 {
		return nil, invalidConfig("dead retention requires DeadAttemptsThreshold > 0")
	}
	opts.setDefaults()
	return &Cleaner{pool: pool, table: table, opts: opts, tableLabel: TableLabel(table)}, nil
}

func (c *Cleaner) Run(ctx context.Context) error {
	if !c.opts.Enabled {
		return nil
	}
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		removed, err := c.CleanOnce(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.opts.Logger.WithError(err).WithField("table", c.tableLabel).Warn("outbox: cleaner tick failed")
			continue
		}
		if removed > 0 {
			c.opts.Logger.WithField("table", c.tableLabel).WithField("removed", removed).Debug("outbox: cleaned")
		}
	}
}

func (c *Cleaner) CleanOnce(ctx context.Context) (int64, error) {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	table := c.table.Sanitize()
	tag, err := tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE published_at IS NOT NULL AND published_at < $1`, table),
		time.Now().Add(-c.opts.Retention),
	)
	if err != nil {
		return 0, fmt.Errorf("outbox cleaner delete published: %w", err)
	}
	removed := tag.RowsAffected()

	if c.opts.DeadRetention > 0 {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE published_at IS NULL AND attempts >= $1 AND created_at < $2`, table),
			c.opts.DeadAttemptsThreshold, time.Now().Add(-c.opts.DeadRetention),
		)
		if err != nil {
			return 0, fmt.Errorf("outbox cleaner delete dead: %w", err)
		}
		removed += tag.RowsAffected()
	}
	return removed, tx.Commit(ctx)
}
