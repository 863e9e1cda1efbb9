package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/hrm/domain/entities/unitrole"
	"github.com/iota-uz/precinct/pkg/repo"
	"github.com/iota-uz/precinct/pkg/serrors"
)

const (
	unitRoleColumns = `r.id, r.unit, r.label, r.is_base, r.sort_order, r.external_id`

	listUnitRolesQuery = `SELECT ` + unitRoleColumns + ` FROM hrm_unit_roles r
		WHERE r.tenant_id = $1 ORDER BY r.unit, r.is_base DESC, r.sort_order, r.label`

	unitRolesByIDsQuery = `SELECT ` + unitRoleColumns + ` FROM hrm_unit_roles r
		WHERE r.tenant_id = $1 AND r.id = ANY($2)`

	assignedUnitRolesQuery = `SELECT ` + unitRoleColumns + ` FROM hrm_unit_roles r
		JOIN hrm_employee_unit_roles a ON a.unit_role_id = r.id AND a.tenant_id = r.tenant_id
		WHERE r.tenant_id = $1 AND a.employee_id = $2
		ORDER BY r.unit, r.is_base DESC, r.sort_order, r.label`
)

type PgUnitRoleRepository struct{}

func NewUnitRoleRepository() unitrole.Repository {
	return &PgUnitRoleRepository{}
}

func (r *PgUnitRoleRepository) List(ctx context.Context) ([]unitrole.UnitRole, error) {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return nil, err
	}
	return queryUnitRoles(ctx, tx, listUnitRolesQuery, tenantID)
}

func (r *PgUnitRoleRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]unitrole.UnitRole, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return nil, err
	}
	return queryUnitRoles(ctx, tx, unitRolesByIDsQuery, tenantID, ids)
}

func (r *PgUnitRoleRepository) Create(ctx context.Context, ur unitrole.UnitRole) (unitrole.UnitRole, error) {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return unitrole.UnitRole{}, err
	}
	if ur.ID == uuid.Nil {
		ur.ID = uuid.New()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO hrm_unit_roles (id, tenant_id, unit, label, is_base, sort_order, external_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ur.ID, tenantID, ur.Unit, ur.Label, ur.IsBase, ur.SortOrder, ur.ExternalID,
	)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return unitrole.UnitRole{}, serrors.ErrConflict.WithMessage("external role %s is already mapped", ur.ExternalID)
		}
		return unitrole.UnitRole{}, gerrors.Wrap(err, "create unit role")
	}
	return ur, nil
}

func (r *PgUnitRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM hrm_unit_roles WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return gerrors.Wrap(err, "delete unit role")
	}
	if tag.RowsAffected() == 0 {
		return unitrole.ErrNotFound
	}
	return nil
}

func (r *PgUnitRoleRepository) Assigned(ctx context.Context, employeeID uuid.UUID) ([]unitrole.UnitRole, error) {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return nil, err
	}
	return queryUnitRoles(ctx, tx, assignedUnitRolesQuery, tenantID, employeeID)
}

func (r *PgUnitRoleRepository) ReplaceAssignments(ctx context.Context, employeeID uuid.UUID, roleIDs []uuid.UUID) error {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM hrm_employee_unit_roles WHERE tenant_id = $1 AND employee_id = $2`,
		tenantID, employeeID,
	); err != nil {
		return gerrors.Wrap(err, "clear unit assignments")
	}
	if len(roleIDs) == 0 {
		return nil
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO hrm_employee_unit_roles (tenant_id, employee_id, unit_role_id)
		 SELECT $1, $2, unnest($3::uuid[])`,
		tenantID, employeeID, roleIDs,
	)
	return gerrors.Wrap(err, "insert unit assignments")
}

func queryUnitRoles(ctx context.Context, tx repo.Tx, query string, args ...any) ([]unitrole.UnitRole, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "query unit roles")
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (unitrole.UnitRole, error) {
		var ur unitrole.UnitRole
		err := row.Scan(&ur.ID, &ur.Unit, &ur.Label, &ur.IsBase, &ur.SortOrder, &ur.ExternalID)
		return ur, err
	})
}
