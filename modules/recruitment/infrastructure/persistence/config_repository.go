package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/pkg/composables"
)

const configColumns = `id, kind, label, active, sort_order`

type PgConfigRepository struct{}

func NewConfigRepository() config.Repository {
	return &PgConfigRepository{}
}

func (r *PgConfigRepository) List(ctx context.Context, kind config.Kind) ([]config.Item, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+configColumns+` FROM recruitment_config_items
		WHERE tenant_id = $1 AND kind = $2 ORDER BY sort_order, label`, tenantID, string(kind))
	if err != nil {
		return nil, gerrors.Wrap(err, "list recruitment settings")
	}
	return pgx.CollectRows(rows, scanConfigItem)
}

func (r *PgConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (config.Item, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return config.Item{}, err
	}
	rows, err := tx.Query(ctx, `SELECT `+configColumns+` FROM recruitment_config_items
		WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return config.Item{}, gerrors.Wrap(err, "get recruitment setting")
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanConfigItem)
	if errors.Is(err, pgx.ErrNoRows) {
		return config.Item{}, config.ErrNotFound
	}
	return it, err
}

func (r *PgConfigRepository) Create(ctx context.Context, it config.Item) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO recruitment_config_items (id, tenant_id, kind, label, active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)`, it.ID, tenantID, string(it.Kind), it.Label, it.Active, it.SortOrder)
	return gerrors.Wrap(err, "create recruitment setting")
}

func (r *PgConfigRepository) Update(ctx context.Context, it config.Item) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE recruitment_config_items SET label = $3, active = $4, sort_order = $5
		WHERE tenant_id = $1 AND id = $2`, tenantID, it.ID, it.Label, it.Active, it.SortOrder)
	if err != nil {
		return gerrors.Wrap(err, "update recruitment setting")
	}
	if tag.RowsAffected() == 0 {
		return config.ErrNotFound
	}
	return nil
}

func (r *PgConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM recruitment_config_items WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return gerrors.Wrap(err, "delete recruitment setting")
	}
	if tag.RowsAffected() == 0 {
		return config.ErrNotFound
	}
	return nil
}

func scanConfigItem(row pgx.CollectableRow) (config.Item, error) {
	var it config.Item
	var kind string
	if err := row.Scan(&it.ID, &kind, &it.Label, &it.Active, &it.SortOrder); err != nil {
		return config.Item{}, err
	}
	it.Kind = config.Kind(kind)
	return it, nil
}
