package composables

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/pkg/constants"
)

// InTenantTx runs fn inside a database transaction scoped to the tenant in
// ctx. An outer transaction is reused; after-commit hooks registered inside
// fn run only once the outermost transaction commits.
func InTenantTx(ctx context.Context, fn func(context.Context) error) error {
	if existing, ok := ctx.Value(constants.TxKey).(pgx.Tx); ok && existing != nil {
		return fn(ctx)
	}

	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	state := &txState{}
	txCtx := withTxState(WithTx(ctx, tx), state)
	if err := applyTenantSetting(txCtx, tx); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}

	if err := fn(txCtx); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	state.commit(ctx)
	return nil
}

func InTenantTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}

func applyTenantSetting(ctx context.Context, tx pgx.Tx) error {
	tenantID, err := UseTenantID(ctx)
	if err != nil {
		return fmt.Errorf("tenant transaction requires tenant in context: %w", err)
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('app.current_tenant', $1, true)", tenantID.String()); err != nil {
		return fmt.Errorf("failed to set tenant context: %w", err)
	}
	return nil
}
