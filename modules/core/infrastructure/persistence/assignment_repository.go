package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/core/domain/entities/assignment"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/repo"
)

const (
	rolesOfQuery = `SELECT role FROM core_role_assignments
		WHERE tenant_id = $1 AND discord_id = $2 ORDER BY role`

	listAssignmentsQuery = `SELECT tenant_id, discord_id, role, granted_by, granted_at
		FROM core_role_assignments WHERE tenant_id = $1 ORDER BY discord_id, role`

	insertAssignmentQuery = `INSERT INTO core_role_assignments (tenant_id, discord_id, role, granted_by, granted_at)
		VALUES ($1, $2, $3, $4, $5)`

	deleteAssignmentQuery = `DELETE FROM core_role_assignments
		WHERE tenant_id = $1 AND discord_id = $2 AND role = $3`
)

type PgAssignmentRepository struct{}

func NewAssignmentRepository() assignment.Repository {
	return &PgAssignmentRepository{}
}

func (r *PgAssignmentRepository) RolesOf(ctx context.Context, discordID string) ([]string, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, rolesOfQuery, tenantID, discordID)
	if err != nil {
		return nil, gerrors.Wrap(err, "query roles")
	}
	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, gerrors.Wrap(err, "scan roles")
	}
	return roles, nil
}

func (r *PgAssignmentRepository) List(ctx context.Context) ([]assignment.Assignment, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, listAssignmentsQuery, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "query role assignments")
	}
	defer rows.Close()

	var out []assignment.Assignment
	for rows.Next() {
		var a assignment.Assignment
		if err := rows.Scan(&a.TenantID, &a.DiscordID, &a.Role, &a.GrantedBy, &a.GrantedAt); err != nil {
			return nil, gerrors.Wrap(err, "scan role assignment")
		}
		out = append(out, a)
	}
	return out, gerrors.Wrap(rows.Err(), "iterate role assignments")
}

func (r *PgAssignmentRepository) Create(ctx context.Context, a assignment.Assignment) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, insertAssignmentQuery, tenantID, a.DiscordID, a.Role, a.GrantedBy, a.GrantedAt)
	if repo.IsUniqueViolation(err) {
		return assignment.ErrAlreadyGiven
	}
	return gerrors.Wrap(err, "insert role assignment")
}

func (r *PgAssignmentRepository) Delete(ctx context.Context, discordID, role string) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, deleteAssignmentQuery, tenantID, discordID, role)
	if err != nil {
		return gerrors.Wrap(err, "delete role assignment")
	}
	if tag.RowsAffected() == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
