package persistence

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/repo"
	"github.com/iota-uz/precinct/pkg/serrors"
)

var ErrBadgeTaken = serrors.ErrConflict.WithMessage("badge number already held")

const (
	employeeColumns = `id, tenant_id, discord_id, display_name, rank_level, COALESCE(badge_number, ''),
		status, hired_at, terminated_at, created_at, updated_at`

	selectEmployeeQuery = `SELECT ` + employeeColumns + ` FROM hrm_employees WHERE tenant_id = $1`

	insertEmployeeQuery = `INSERT INTO hrm_employees (
		id, tenant_id, discord_id, display_name, rank_level, badge_number, status, hired_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)`

	updateEmployeeQuery = `UPDATE hrm_employees SET
		display_name = $3, rank_level = $4, badge_number = NULLIF($5, ''), status = $6,
		terminated_at = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2`

	badgesWithPrefixQuery = `SELECT badge_number FROM hrm_employees
		WHERE tenant_id = $1 AND badge_number LIKE $2 AND status <> 'TERMINATED'`
)

type PgEmployeeRepository struct{}

func NewEmployeeRepository() employee.Repository {
	return &PgEmployeeRepository{}
}

func (r *PgEmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	return r.getOne(ctx, selectEmployeeQuery+` AND id = $2`, id)
}

func (r *PgEmployeeRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	return r.getOne(ctx, selectEmployeeQuery+` AND id = $2 FOR UPDATE`, id)
}

func (r *PgEmployeeRepository) GetByDiscordID(ctx context.Context, discordID string) (employee.Employee, error) {
	return r.getOne(ctx, selectEmployeeQuery+` AND discord_id = $2 AND status <> 'TERMINATED'`, strings.TrimSpace(discordID))
}

func (r *PgEmployeeRepository) ExistsByDiscordID(ctx context.Context, discordID string) (bool, error) {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return false, err
	}
	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM hrm_employees WHERE tenant_id = $1 AND discord_id = $2 AND status <> 'TERMINATED')`,
		tenantID, strings.TrimSpace(discordID),
	).Scan(&exists)
	if err != nil {
		return false, gerrors.Wrap(err, "check employee identity")
	}
	return exists, nil
}

func (r *PgEmployeeRepository) GetPaginated(ctx context.Context, params *employee.FindParams) ([]employee.Employee, int64, error) {
	if params == nil {
		params = &employee.FindParams{}
	}
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.RankLevel > 0 {
		args = append(args, params.RankLevel)
		where = append(where, fmt.Sprintf("rank_level = $%d", len(args)))
	}
	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(display_name ILIKE $%[1]d OR badge_number ILIKE $%[1]d OR discord_id ILIKE $%[1]d)", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM hrm_employees WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, gerrors.Wrap(err, "count employees")
	}

	limit, offset := page(params.Limit, params.Offset)
	args = append(args, limit, offset)
	rows, err := tx.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM hrm_employees WHERE %s ORDER BY rank_level DESC, display_name LIMIT $%d OFFSET $%d`,
			employeeColumns, cond, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "list employees")
	}
	out, err := pgx.CollectRows(rows, scanEmployee)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "scan employees")
	}
	return out, total, nil
}

func (r *PgEmployeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	_, err = tx.Exec(ctx, insertEmployeeQuery,
		e.ID(), tenantID, e.DiscordID(), e.DisplayName(), e.RankLevel(), e.BadgeNumber(),
		string(e.Status()), e.HiredAt(), e.CreatedAt(), e.UpdatedAt(),
	)
	if err != nil {
		if repo.IsUniqueViolation(err, "hrm_employees_badge_key") {
			return employee.Employee{}, ErrBadgeTaken
		}
		if repo.IsUniqueViolation(err, "hrm_employees_discord_active_key") {
			return employee.Employee{}, employee.ErrAlreadyEmployed
		}
		return employee.Employee{}, gerrors.Wrap(err, "failed to create employee")
	}
	return r.GetByID(ctx, e.ID())
}

func (r *PgEmployeeRepository) Update(ctx context.Context, e employee.Employee) error {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, updateEmployeeQuery,
		tenantID, e.ID(), e.DisplayName(), e.RankLevel(), e.BadgeNumber(),
		string(e.Status()), e.TerminatedAt(), e.UpdatedAt(),
	)
	if err != nil {
		if repo.IsUniqueViolation(err, "hrm_employees_badge_key") {
			return ErrBadgeTaken
		}
		return gerrors.Wrap(err, "failed to update employee")
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func (r *PgEmployeeRepository) LockBadgePrefix(ctx context.Context, prefix string) error {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, badgeLockKey(tenantID, prefix)); err != nil {
		return gerrors.Wrap(err, "lock badge prefix")
	}
	return nil
}

func (r *PgEmployeeRepository) BadgesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, badgesWithPrefixQuery, tenantID, prefix+"-%")
	if err != nil {
		return nil, gerrors.Wrap(err, "list badges")
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *PgEmployeeRepository) getOne(ctx context.Context, query string, arg any) (employee.Employee, error) {
	tx, tenantID, err := txAndTenant(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	rows, err := tx.Query(ctx, query, tenantID, arg)
	if err != nil {
		return employee.Employee{}, gerrors.Wrap(err, "get employee")
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEmployee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrNotFound
		}
		return employee.Employee{}, gerrors.Wrap(err, "scan employee")
	}
	return e, nil
}

func scanEmployee(row pgx.CollectableRow) (employee.Employee, error) {
	var (
		id, tenantID                  uuid.UUID
		discordID, displayName, badge string
		rankLevel                     int
		status                        string
		hiredAt, createdAt, updatedAt time.Time
		terminatedAt                  *time.Time
	)
	if err := row.Scan(&id, &tenantID, &discordID, &displayName, &rankLevel, &badge,
		&status, &hiredAt, &terminatedAt, &createdAt, &updatedAt); err != nil {
		return employee.Employee{}, err
	}
	return employee.Hydrate(id, tenantID, discordID, displayName, rankLevel, badge,
		employee.Status(status), hiredAt, terminatedAt, createdAt, updatedAt), nil
}

// badgeLockKey derives the advisory lock key for a tenant's badge prefix.
func badgeLockKey(tenantID uuid.UUID, prefix string) int64 {
	h := fnv.New64a()
	_, _ = h.Write(tenantID[:])
	_, _ = h.Write([]byte("badge:" + prefix))
	return int64(h.Sum64())
}

func txAndTenant(ctx context.Context) (repo.Tx, uuid.UUID, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("failed to get tenant from context: %w", err)
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return tx, tenantID, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
