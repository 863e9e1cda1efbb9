package persistence

import (
	"context"
	"sort"

	"github.com/iota-uz/precinct/modules/core/domain/entities/assignment"
	"github.com/iota-uz/precinct/pkg/memstore"
)

type assignmentKey struct {
	discordID string
	role      string
}

type MemoryAssignmentRepository struct {
	rows *memstore.Table[assignmentKey, assignment.Assignment]
}

func NewMemoryAssignmentRepository() *MemoryAssignmentRepository {
	return &MemoryAssignmentRepository{rows: memstore.NewTable[assignmentKey, assignment.Assignment]()}
}

func (r *MemoryAssignmentRepository) RolesOf(ctx context.Context, discordID string) ([]string, error) {
	held, err := r.rows.Find(ctx, func(a assignment.Assignment) bool { return a.DiscordID == discordID })
	if err != nil {
		return nil, err
	}
	roles := make([]string, 0, len(held))
	for _, a := range held {
		roles = append(roles, a.Role)
	}
	sort.Strings(roles)
	return roles, nil
}

func (r *MemoryAssignmentRepository) List(ctx context.Context) ([]assignment.Assignment, error) {
	all, err := r.rows.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].DiscordID != all[j].DiscordID {
			return all[i].DiscordID < all[j].DiscordID
		}
		return all[i].Role < all[j].Role
	})
	return all, nil
}

func (r *MemoryAssignmentRepository) Create(ctx context.Context, a assignment.Assignment) error {
	key := assignmentKey{a.DiscordID, a.Role}
	_, exists, err := r.rows.Get(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return assignment.ErrAlreadyGiven
	}
	return r.rows.Put(ctx, key, a)
}

func (r *MemoryAssignmentRepository) Delete(ctx context.Context, discordID, role string) error {
	ok, err := r.rows.Delete(ctx, assignmentKey{discordID, role})
	if err != nil {
		return err
	}
	if !ok {
		return assignment.ErrNotFound
	}
	return nil
}
