package persistence

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/blacklist"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/pkg/memstore"
)

type MemoryApplicationRepository struct {
	rows *memstore.Table[uuid.UUID, application.Application]
}

func NewMemoryApplicationRepository() *MemoryApplicationRepository {
	return &MemoryApplicationRepository{rows: memstore.NewTable[uuid.UUID, application.Application]()}
}

func (r *MemoryApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (application.Application, error) {
	a, ok, err := r.rows.Get(ctx, id)
	if err != nil {
		return application.Application{}, err
	}
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	return a, nil
}

func (r *MemoryApplicationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (application.Application, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryApplicationRepository) GetPaginated(ctx context.Context, params *application.FindParams) ([]application.Application, int64, error) {
	if params == nil {
		params = &application.FindParams{}
	}
	q := strings.ToLower(strings.TrimSpace(params.Query))
	all, err := r.rows.Find(ctx, func(a application.Application) bool {
		if params.Status != "" && a.Status() != params.Status {
			return false
		}
		return q == "" ||
			strings.Contains(strings.ToLower(a.ApplicantName()), q) ||
			strings.Contains(a.DiscordID(), q)
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt().After(all[j].CreatedAt()) })
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	return memstore.Page(all, limit, params.Offset), int64(len(all)), nil
}

func (r *MemoryApplicationRepository) Create(ctx context.Context, a application.Application) error {
	return r.rows.Put(ctx, a.ID(), a)
}

func (r *MemoryApplicationRepository) Update(ctx context.Context, a application.Application) error {
	if _, err := r.GetByID(ctx, a.ID()); err != nil {
		return err
	}
	return r.rows.Put(ctx, a.ID(), a)
}

func (r *MemoryApplicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := r.rows.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return application.ErrNotFound
	}
	return nil
}

type MemoryConfigRepository struct {
	rows *memstore.Table[uuid.UUID, config.Item]
}

func NewMemoryConfigRepository() *MemoryConfigRepository {
	return &MemoryConfigRepository{rows: memstore.NewTable[uuid.UUID, config.Item]()}
}

func (r *MemoryConfigRepository) List(ctx context.Context, kind config.Kind) ([]config.Item, error) {
	items, err := r.rows.Find(ctx, func(it config.Item) bool { return it.Kind == kind })
	if err != nil {
		return nil, err
	}
	config.Sort(items)
	return items, nil
}

func (r *MemoryConfigRepository) GetByID(ctx context.Context, id uuid.UUID) (config.Item, error) {
	it, ok, err := r.rows.Get(ctx, id)
	if err != nil {
		return config.Item{}, err
	}
	if !ok {
		return config.Item{}, config.ErrNotFound
	}
	return it, nil
}

func (r *MemoryConfigRepository) Create(ctx context.Context, it config.Item) error {
	return r.rows.Put(ctx, it.ID, it)
}

func (r *MemoryConfigRepository) Update(ctx context.Context, it config.Item) error {
	if _, err := r.GetByID(ctx, it.ID); err != nil {
		return err
	}
	return r.rows.Put(ctx, it.ID, it)
}

func (r *MemoryConfigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := r.rows.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return config.ErrNotFound
	}
	return nil
}

type MemoryBlacklistRepository struct {
	rows *memstore.Table[uuid.UUID, blacklist.Entry]
}

func NewMemoryBlacklistRepository() *MemoryBlacklistRepository {
	return &MemoryBlacklistRepository{rows: memstore.NewTable[uuid.UUID, blacklist.Entry]()}
}

func (r *MemoryBlacklistRepository) GetByDiscordID(ctx context.Context, discordID string) (blacklist.Entry, error) {
	discordID = strings.TrimSpace(discordID)
	e, ok, err := r.rows.First(ctx, func(e blacklist.Entry) bool { return e.DiscordID == discordID })
	if err != nil {
		return blacklist.Entry{}, err
	}
	if !ok {
		return blacklist.Entry{}, blacklist.ErrNotFound
	}
	return e, nil
}

func (r *MemoryBlacklistRepository) List(ctx context.Context) ([]blacklist.Entry, error) {
	all, err := r.rows.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return all, nil
}

func (r *MemoryBlacklistRepository) Create(ctx context.Context, e blacklist.Entry) error {
	_, clash, err := r.rows.First(ctx, func(o blacklist.Entry) bool { return o.DiscordID == e.DiscordID })
	if err != nil {
		return err
	}
	if clash {
		return blacklist.ErrExists
	}
	return r.rows.Put(ctx, e.ID, e)
}

func (r *MemoryBlacklistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := r.rows.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return blacklist.ErrNotFound
	}
	return nil
}
