package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/pkg/composables"
)

const moduleColumns = `id, category, name, description, sort_order, active`

type PgModuleRepository struct{}

func NewModuleRepository() course.ModuleRepository {
	return &PgModuleRepository{}
}

func (r *PgModuleRepository) List(ctx context.Context) ([]course.Module, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+moduleColumns+` FROM academy_modules
		WHERE tenant_id = $1 ORDER BY category, sort_order, name`, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list academy modules")
	}
	return pgx.CollectRows(rows, scanModule)
}

func (r *PgModuleRepository) GetByID(ctx context.Context, id uuid.UUID) (course.Module, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return course.Module{}, err
	}
	rows, err := tx.Query(ctx, `SELECT `+moduleColumns+` FROM academy_modules WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return course.Module{}, gerrors.Wrap(err, "get academy module")
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanModule)
	if errors.Is(err, pgx.ErrNoRows) {
		return course.Module{}, course.ErrModuleNotFound
	}
	return m, err
}

func (r *PgModuleRepository) Create(ctx context.Context, m course.Module) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO academy_modules (id, tenant_id, category, name, description, sort_order, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, tenantID, string(m.Category), m.Name, m.Description, m.SortOrder, m.Active)
	return gerrors.Wrap(err, "create academy module")
}

func (r *PgModuleRepository) Update(ctx context.Context, m course.Module) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `UPDATE academy_modules SET name = $3, description = $4, sort_order = $5, active = $6
		WHERE tenant_id = $1 AND id = $2`, tenantID, m.ID, m.Name, m.Description, m.SortOrder, m.Active)
	if err != nil {
		return gerrors.Wrap(err, "update academy module")
	}
	if tag.RowsAffected() == 0 {
		return course.ErrModuleNotFound
	}
	return nil
}

func scanModule(row pgx.CollectableRow) (course.Module, error) {
	var m course.Module
	var category string
	if err := row.Scan(&m.ID, &category, &m.Name, &m.Description, &m.SortOrder, &m.Active); err != nil {
		return course.Module{}, err
	}
	m.Category = course.Category(category)
	return m, nil
}

const progressColumns = `employee_id, module_id, completed, completed_at, completed_by`

type PgProgressRepository struct{}

func NewProgressRepository() course.ProgressRepository {
	return &PgProgressRepository{}
}

func (r *PgProgressRepository) ForEmployee(ctx context.Context, employeeID uuid.UUID) ([]course.Progress, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+progressColumns+` FROM academy_progress
		WHERE tenant_id = $1 AND employee_id = $2`, tenantID, employeeID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list academy progress")
	}
	return pgx.CollectRows(rows, scanProgress)
}

func (r *PgProgressRepository) GetForUpdate(ctx context.Context, employeeID, moduleID uuid.UUID) (course.Progress, bool, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return course.Progress{}, false, err
	}
	rows, err := tx.Query(ctx, `SELECT `+progressColumns+` FROM academy_progress
		WHERE tenant_id = $1 AND employee_id = $2 AND module_id = $3 FOR UPDATE`, tenantID, employeeID, moduleID)
	if err != nil {
		return course.Progress{}, false, gerrors.Wrap(err, "get academy progress")
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProgress)
	if errors.Is(err, pgx.ErrNoRows) {
		return course.Progress{}, false, nil
	}
	if err != nil {
		return course.Progress{}, false, err
	}
	return p, true, nil
}

func (r *PgProgressRepository) Save(ctx context.Context, p course.Progress) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO academy_progress (tenant_id, employee_id, module_id, completed, completed_at, completed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, employee_id, module_id) DO UPDATE
		SET completed = EXCLUDED.completed, completed_at = EXCLUDED.completed_at, completed_by = EXCLUDED.completed_by`,
		tenantID, p.EmployeeID, p.ModuleID, p.Completed, p.CompletedAt, nullUUID(p.CompletedBy))
	return gerrors.Wrap(err, "save academy progress")
}

func scanProgress(row pgx.CollectableRow) (course.Progress, error) {
	var p course.Progress
	var by *uuid.UUID
	if err := row.Scan(&p.EmployeeID, &p.ModuleID, &p.Completed, &p.CompletedAt, &by); err != nil {
		return course.Progress{}, err
	}
	if by != nil {
		p.CompletedBy = *by
	}
	return p, nil
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
