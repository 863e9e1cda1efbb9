package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/pkg/composables"
)

const (
	applicationColumns = `id, tenant_id, applicant_name, discord_id, discord_name, notes, status,
		criteria, answered_questions, completed_checklist, id_card_path, invite_url, rejection_reason,
		employee_id, processed_by, processed_at, created_at, updated_at`

	insertApplicationQuery = `INSERT INTO recruitment_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	updateApplicationQuery = `UPDATE recruitment_applications SET
		discord_id = $3, discord_name = $4, status = $5, criteria = $6, answered_questions = $7,
		completed_checklist = $8, id_card_path = $9, invite_url = $10, rejection_reason = $11,
		employee_id = $12, processed_by = $13, processed_at = $14, updated_at = $15
		WHERE tenant_id = $1 AND id = $2`
)

type PgApplicationRepository struct{}

func NewApplicationRepository() application.Repository {
	return &PgApplicationRepository{}
}

func (r *PgApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (application.Application, error) {
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM recruitment_applications WHERE tenant_id = $1 AND id = $2`, id)
}

func (r *PgApplicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (application.Application, error) {
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM recruitment_applications WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, id)
}

func (r *PgApplicationRepository) getOne(ctx context.Context, query string, id uuid.UUID) (application.Application, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return application.Application{}, err
	}
	rows, err := tx.Query(ctx, query, tenantID, id)
	if err != nil {
		return application.Application{}, gerrors.Wrap(err, "get application")
	}
	a, err := pgx.CollectExactlyOneRow(rows, scanApplication)
	if errors.Is(err, pgx.ErrNoRows) {
		return application.Application{}, application.ErrNotFound
	}
	return a, err
}

func (r *PgApplicationRepository) GetPaginated(ctx context.Context, params *application.FindParams) ([]application.Application, int64, error) {
	if params == nil {
		params = &application.FindParams{}
	}
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(params.Query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(applicant_name ILIKE $%d OR discord_id ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM recruitment_applications WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, gerrors.Wrap(err, "count applications")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, max(params.Offset, 0))
	rows, err := tx.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM recruitment_applications WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			applicationColumns, cond, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "list applications")
	}
	list, err := pgx.CollectRows(rows, scanApplication)
	if err != nil {
		return nil, 0, gerrors.Wrap(err, "scan applications")
	}
	return list, total, nil
}

func (r *PgApplicationRepository) Create(ctx context.Context, a application.Application) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	st := a.State()
	_, err = tx.Exec(ctx, insertApplicationQuery,
		st.ID, tenantID, st.ApplicantName, st.DiscordID, st.DiscordName, st.Notes, string(st.Status),
		st.Criteria, ensureIDs(st.AnsweredQuestions), ensureIDs(st.CompletedChecklist), st.IDCardPath, st.InviteURL, st.RejectionReason,
		nullUUID(st.EmployeeID), nullUUID(st.ProcessedBy), st.ProcessedAt, st.CreatedAt, st.UpdatedAt,
	)
	return gerrors.Wrap(err, "create application")
}

func (r *PgApplicationRepository) Update(ctx context.Context, a application.Application) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	st := a.State()
	tag, err := tx.Exec(ctx, updateApplicationQuery,
		tenantID, st.ID, st.DiscordID, st.DiscordName, string(st.Status), st.Criteria,
		ensureIDs(st.AnsweredQuestions), ensureIDs(st.CompletedChecklist), st.IDCardPath, st.InviteURL, st.RejectionReason,
		nullUUID(st.EmployeeID), nullUUID(st.ProcessedBy), st.ProcessedAt, st.UpdatedAt,
	)
	if err != nil {
		return gerrors.Wrap(err, "update application")
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *PgApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM recruitment_applications WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return gerrors.Wrap(err, "delete application")
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

func scanApplication(row pgx.CollectableRow) (application.Application, error) {
	var (
		st                      application.State
		status                  string
		employeeID, processedBy *uuid.UUID
	)
	err := row.Scan(&st.ID, &st.TenantID, &st.ApplicantName, &st.DiscordID, &st.DiscordName, &st.Notes, &status,
		&st.Criteria, &st.AnsweredQuestions, &st.CompletedChecklist, &st.IDCardPath, &st.InviteURL, &st.RejectionReason,
		&employeeID, &processedBy, &st.ProcessedAt, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return application.Application{}, err
	}
	st.Status = application.Status(status)
	if employeeID != nil {
		st.EmployeeID = *employeeID
	}
	if processedBy != nil {
		st.ProcessedBy = *processedBy
	}
	return application.Hydrate(st), nil
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func ensureIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
