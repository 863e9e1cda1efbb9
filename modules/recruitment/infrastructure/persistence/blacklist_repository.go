package persistence

import (
	"context"
	"errors"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/blacklist"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/repo"
)

const blacklistColumns = `id, discord_id, applicant_name, reason, application_id, created_by, created_at, expires_at`

type PgBlacklistRepository struct{}

func NewBlacklistRepository() blacklist.Repository {
	return &PgBlacklistRepository{}
}

func (r *PgBlacklistRepository) GetByDiscordID(ctx context.Context, discordID string) (blacklist.Entry, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return blacklist.Entry{}, err
	}
	rows, err := tx.Query(ctx, `SELECT `+blacklistColumns+` FROM recruitment_blacklist
		WHERE tenant_id = $1 AND discord_id = $2`, tenantID, discordID)
	if err != nil {
		return blacklist.Entry{}, gerrors.Wrap(err, "get blacklist entry")
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanBlacklistEntry)
	if errors.Is(err, pgx.ErrNoRows) {
		return blacklist.Entry{}, blacklist.ErrNotFound
	}
	return e, err
}

func (r *PgBlacklistRepository) List(ctx context.Context) ([]blacklist.Entry, error) {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, `SELECT `+blacklistColumns+` FROM recruitment_blacklist
		WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "list blacklist")
	}
	return pgx.CollectRows(rows, scanBlacklistEntry)
}

func (r *PgBlacklistRepository) Create(ctx context.Context, e blacklist.Entry) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO recruitment_blacklist (id, tenant_id, discord_id, applicant_name, reason,
		application_id, created_by, created_at, expires_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, tenantID, e.DiscordID, e.ApplicantName, e.Reason, nullUUID(e.ApplicationID), nullUUID(e.CreatedBy), e.CreatedAt, e.ExpiresAt)
	if repo.IsUniqueViolation(err, "recruitment_blacklist_discord_key") {
		return blacklist.ErrExists
	}
	return gerrors.Wrap(err, "create blacklist entry")
}

func (r *PgBlacklistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, tenantID, err := composables.UseTenantTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM recruitment_blacklist WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return gerrors.Wrap(err, "delete blacklist entry")
	}
	if tag.RowsAffected() == 0 {
		return blacklist.ErrNotFound
	}
	return nil
}

func scanBlacklistEntry(row pgx.CollectableRow) (blacklist.Entry, error) {
	var (
		e                        blacklist.Entry
		applicationID, createdBy *uuid.UUID
	)
	if err := row.Scan(&e.ID, &e.DiscordID, &e.ApplicantName, &e.Reason, &applicationID, &createdBy, &e.CreatedAt, &e.ExpiresAt); err != nil {
		return blacklist.Entry{}, err
	}
	if applicationID != nil {
		e.ApplicationID = *applicationID
	}
	if createdBy != nil {
		e.CreatedBy = *createdBy
	}
	return e, nil
}
