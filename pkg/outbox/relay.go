package outbox

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Relay moves committed outbox rows to a Dispatcher. Rows are claimed with
// FOR UPDATE SKIP LOCKED so several relays may run; with SingleActive only
// the holder of a session advisory lock polls.
type Relay struct {
	pool       *pgxpool.Pool
	table      pgx.Identifier
	dispatcher Dispatcher
	opts       RelayOptions

	lockKey    int64
	m          *metrics
	tableLabel string
}

func NewRelay(pool *pgxpool.Pool, table pgx.Identifier, dispatcher Dispatcher, opts RelayOptions) (*Relay, error) {
	switch {
	case pool == nil:
		return nil, invalidConfig("pool is required")
	case len(table) == 0:
		return nil, invalidConfig("table is required")
	case dispatcher == nil:
		return nil, invalidConfig("dispatcher is required")
	}
	opts.setDefaults()
	label := TableLabel(table)
	return &Relay{
		pool:       pool,
		table:      table,
		dispatcher: dispatcher,
		opts:       opts,
		lockKey:    advisoryLockKey("outbox:" + label),
		m:          getMetrics(),
		tableLabel: label,
	}, nil
}

func (r *Relay) Run(ctx context.Context) error {
	if !r.opts.SingleActive {
		r.m.relayLeader.WithLabelValues(r.tableLabel).Set(1)
		return r.loop(ctx, r.pool)
	}
	for {
		err := r.leadOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			r.opts.Logger.WithError(err).Warn("outbox: leader attempt failed")
		}
		if !sleep(ctx, r.opts.PollInterval) {
			return ctx.Err()
		}
	}
}

// leadOnce holds one pooled connection for as long as it is the leader.
func (r *Relay) leadOnce(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	var leader bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1::bigint)`, r.lockKey).Scan(&leader); err != nil {
		return err
	}
	if !leader {
		r.m.relayLeader.WithLabelValues(r.tableLabel).Set(0)
		return nil
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1::bigint)`, r.lockKey)
		r.m.relayLeader.WithLabelValues(r.tableLabel).Set(0)
	}()

	r.m.relayLeader.WithLabelValues(r.tableLabel).Set(1)
	r.opts.Logger.WithField("table", r.tableLabel).Info("outbox: relay became leader")
	return r.loop(ctx, conn)
}

// db is satisfied by both *pgxpool.Pool and *pgxpool.Conn.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *Relay) loop(ctx context.Context, conn db) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()
	nextDepth := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if time.Now().After(nextDepth) {
			if err := r.observeQueueDepth(ctx, conn); err != nil {
				r.opts.Logger.WithError(err).Debug("outbox: observe queue depth failed")
			}
			nextDepth = time.Now().Add(r.opts.ObserveQueueDepthEvery)
		}
		if _, err := r.ProcessOnce(ctx, conn); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.opts.Logger.WithError(err).Warn("outbox: process tick failed")
		}
	}
}

type claimedRow struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Topic     string
	Payload   []byte
	EventID   uuid.UUID
	Sequence  int64
	Attempts  int
	CreatedAt time.Time
}

// ProcessOnce claims one batch and dispatches it, returning the batch size.
func (r *Relay) ProcessOnce(ctx context.Context, conn db) (int, error) {
	if conn == nil {
		conn = r.pool
	}
	now := time.Now()
	rows, err := r.claim(ctx, conn, now)
	if err != nil {
		return 0, err
	}
	for _, c := range rows {
		r.deliver(ctx, conn, c)
	}
	return len(rows), nil
}

func (r *Relay) deliver(ctx context.Context, conn db, c claimedRow) {
	dispatchCtx, cancel := context.WithTimeout(ctx, r.opts.DispatchTimeout)
	start := time.Now()
	err := r.dispatcher.Dispatch(dispatchCtx, DispatchedMessage{
		Meta: Meta{
			Table:      r.table,
			TenantID:   c.TenantID,
			Topic:      c.Topic,
			EventID:    c.EventID,
			Sequence:   c.Sequence,
			Attempts:   c.Attempts,
			RecordedAt: c.CreatedAt,
		},
		Payload: c.Payload,
	})
	cancel()
	latency := time.Since(start)
	log := r.opts.Logger.WithFields(logFields(c, r.tableLabel))

	if err == nil {
		r.recordDispatch(c.Topic, "success", latency)
		if ackErr := r.settle(ctx, conn, `published_at = now(), locked_at = NULL, last_error = NULL`, c.ID); ackErr != nil {
			log.WithError(ackErr).Warn("outbox: ack failed")
		}
		return
	}

	r.recordDispatch(c.Topic, "failure", latency)
	lastErr := lastError(err, r.opts.LastErrorMaxLen)
	if c.Attempts >= r.opts.MaxAttempts {
		r.m.deadTotal.WithLabelValues(r.tableLabel, c.Topic).Inc()
		log.WithError(err).Error("outbox: message is dead")
		if deadErr := r.settle(ctx, conn, `locked_at = NULL, last_error = $2, available_at = now()`, c.ID, lastErr); deadErr != nil {
			log.WithError(deadErr).Warn("outbox: dead update failed")
		}
		return
	}
	next := time.Now().Add(retryDelay(c.Attempts, r.opts.MaxBackoff, r.opts.JitterMax, r.opts.Rand))
	log.WithError(err).Warn("outbox: dispatch failed, will retry")
	if nackErr := r.settle(ctx, conn, `locked_at = NULL, last_error = $2, available_at = $3`, c.ID, lastErr, next); nackErr != nil {
		log.WithError(nackErr).Warn("outbox: nack failed")
	}
}

func (r *Relay) claim(ctx context.Context, conn db, now time.Time) ([]claimedRow, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	table := r.table.Sanitize()
	rows, err := tx.Query(ctx, fmt.Sprintf(
		`SELECT id, tenant_id, topic, payload, event_id, sequence, attempts, created_at
		   FROM %s
		  WHERE published_at IS NULL
		    AND available_at <= $1
		    AND attempts < $2
		    AND (locked_at IS NULL OR locked_at < $3)
		  ORDER BY available_at, sequence
		  LIMIT $4
		  FOR UPDATE SKIP LOCKED`, table),
		now, r.opts.MaxAttempts, now.Add(-r.opts.LockTTL), r.opts.BatchSize,
	)
	if err != nil {
		return nil, fmt.Errorf("outbox claim select: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (claimedRow, error) {
		var c claimedRow
		err := row.Scan(&c.ID, &c.TenantID, &c.Topic, &c.Payload, &c.EventID, &c.Sequence, &c.Attempts, &c.CreatedAt)
		c.Attempts++
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("outbox claim scan: %w", err)
	}
	if len(out) > 0 {
		ids := make([]uuid.UUID, len(out))
		for i, c := range out {
			ids[i] = c.ID
		}
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`UPDATE %s SET locked_at = $1, attempts = attempts + 1 WHERE id = ANY($2)`, table),
			now, pgtype.FlatArray[uuid.UUID](ids),
		); err != nil {
			return nil, fmt.Errorf("outbox claim update: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// settle applies one of the ack/nack/dead updates to an unpublished row.
func (r *Relay) settle(ctx context.Context, conn db, set string, id uuid.UUID, args ...any) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 AND published_at IS NULL`, r.table.Sanitize(), set)
	if _, err := tx.Exec(ctx, q, append([]any{id}, args...)...); err != nil {
		return fmt.Errorf("outbox settle: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *Relay) observeQueueDepth(ctx context.Context, conn db) error {
	var pending, locked int64
	q := fmt.Sprintf(
		`SELECT count(*), count(*) FILTER (WHERE locked_at IS NOT NULL) FROM %s WHERE published_at IS NULL`,
		r.table.Sanitize(),
	)
	if err := conn.QueryRow(ctx, q).Scan(&pending, &locked); err != nil {
		return fmt.Errorf("outbox queue depth: %w", err)
	}
	r.m.pending.WithLabelValues(r.tableLabel).Set(float64(pending))
	r.m.locked.WithLabelValues(r.tableLabel).Set(float64(locked))
	return nil
}

func (r *Relay) recordDispatch(topic, result string, latency time.Duration) {
	r.m.dispatchTotal.WithLabelValues(r.tableLabel, topic, result).Inc()
	r.m.dispatchLatency.WithLabelValues(r.tableLabel, topic, result).Observe(latency.Seconds())
}

func advisoryLockKey(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int64(h.Sum64())
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func logFields(c claimedRow, table string) logrus.Fields {
	return logrus.Fields{
		"table":     table,
		"topic":     c.Topic,
		"event_id":  c.EventID.String(),
		"tenant_id": c.TenantID.String(),
		"sequence":  c.Sequence,
		"attempts":  c.Attempts,
	}
}
