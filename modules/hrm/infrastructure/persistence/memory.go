package persistence

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/sanction"
	"github.com/iota-uz/precinct/modules/hrm/domain/entities/unitrole"
	"github.com/iota-uz/precinct/pkg/memstore"
	"github.com/iota-uz/precinct/pkg/serrors"
)

// MemoryEmployeeRepository is the in-memory employee store. Badge
// allocation is serialized by the memory transactor, so LockBadgePrefix has
// nothing to do.
type MemoryEmployeeRepository struct {
	rows *memstore.Table[uuid.UUID, employee.Employee]
}

func NewMemoryEmployeeRepository() *MemoryEmployeeRepository {
	return &MemoryEmployeeRepository{rows: memstore.NewTable[uuid.UUID, employee.Employee]()}
}

func (r *MemoryEmployeeRepository) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	e, ok, err := r.rows.Get(ctx, id)
	if err != nil {
		return employee.Employee{}, err
	}
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	return e, nil
}

func (r *MemoryEmployeeRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryEmployeeRepository) GetByDiscordID(ctx context.Context, discordID string) (employee.Employee, error) {
	discordID = strings.TrimSpace(discordID)
	e, ok, err := r.rows.First(ctx, func(e employee.Employee) bool {
		return e.DiscordID() == discordID && !e.IsTerminated()
	})
	if err != nil {
		return employee.Employee{}, err
	}
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	return e, nil
}

func (r *MemoryEmployeeRepository) ExistsByDiscordID(ctx context.Context, discordID string) (bool, error) {
	_, err := r.GetByDiscordID(ctx, discordID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, employee.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (r *MemoryEmployeeRepository) GetPaginated(ctx context.Context, params *employee.FindParams) ([]employee.Employee, int64, error) {
	if params == nil {
		params = &employee.FindParams{}
	}
	q := strings.ToLower(strings.TrimSpace(params.Query))
	all, err := r.rows.Find(ctx, func(e employee.Employee) bool {
		if params.Status != "" && e.Status() != params.Status {
			return false
		}
		if params.RankLevel > 0 && e.RankLevel() != params.RankLevel {
			return false
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.DisplayName()), q) &&
			!strings.Contains(strings.ToLower(e.BadgeNumber()), q) &&
			!strings.Contains(e.DiscordID(), q) {
			return false
		}
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].RankLevel() != all[j].RankLevel() {
			return all[i].RankLevel() > all[j].RankLevel()
		}
		return all[i].DisplayName() < all[j].DisplayName()
	})
	limit, offset := page(params.Limit, params.Offset)
	return memstore.Page(all, limit, offset), int64(len(all)), nil
}

func (r *MemoryEmployeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	if e.BadgeNumber() != "" {
		held, err := r.BadgesWithPrefix(ctx, strings.SplitN(e.BadgeNumber(), "-", 2)[0])
		if err != nil {
			return employee.Employee{}, err
		}
		for _, b := range held {
			if b == e.BadgeNumber() {
				return employee.Employee{}, ErrBadgeTaken
			}
		}
	}
	exists, err := r.ExistsByDiscordID(ctx, e.DiscordID())
	if err != nil {
		return employee.Employee{}, err
	}
	if exists {
		return employee.Employee{}, employee.ErrAlreadyEmployed
	}
	if err := r.rows.Put(ctx, e.ID(), e); err != nil {
		return employee.Employee{}, err
	}
	return e, nil
}

func (r *MemoryEmployeeRepository) Update(ctx context.Context, e employee.Employee) error {
	if _, ok, err := r.rows.Get(ctx, e.ID()); err != nil {
		return err
	} else if !ok {
		return employee.ErrNotFound
	}
	if e.BadgeNumber() != "" {
		_, clash, err := r.rows.First(ctx, func(o employee.Employee) bool {
			return o.ID() != e.ID() && o.BadgeNumber() == e.BadgeNumber() && !o.IsTerminated()
		})
		if err != nil {
			return err
		}
		if clash {
			return ErrBadgeTaken
		}
	}
	return r.rows.Put(ctx, e.ID(), e)
}

func (r *MemoryEmployeeRepository) LockBadgePrefix(context.Context, string) error {
	return nil
}

func (r *MemoryEmployeeRepository) BadgesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	held, err := r.rows.Find(ctx, func(e employee.Employee) bool {
		return !e.IsTerminated() && strings.HasPrefix(e.BadgeNumber(), prefix+"-")
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(held))
	for _, e := range held {
		out = append(out, e.BadgeNumber())
	}
	return out, nil
}

type MemoryUnitRoleRepository struct {
	roles *memstore.Table[uuid.UUID, unitrole.UnitRole]
	// assignments maps employee id to the held unit role ids.
	assignments *memstore.Table[uuid.UUID, []uuid.UUID]
}

func NewMemoryUnitRoleRepository() *MemoryUnitRoleRepository {
	return &MemoryUnitRoleRepository{
		roles:       memstore.NewTable[uuid.UUID, unitrole.UnitRole](),
		assignments: memstore.NewTable[uuid.UUID, []uuid.UUID](),
	}
}

func (r *MemoryUnitRoleRepository) List(ctx context.Context) ([]unitrole.UnitRole, error) {
	all, err := r.roles.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	sortUnitRoles(all)
	return all, nil
}

func (r *MemoryUnitRoleRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]unitrole.UnitRole, error) {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return r.roles.Find(ctx, func(ur unitrole.UnitRole) bool {
		_, ok := want[ur.ID]
		return ok
	})
}

func (r *MemoryUnitRoleRepository) Create(ctx context.Context, ur unitrole.UnitRole) (unitrole.UnitRole, error) {
	if ur.ID == uuid.Nil {
		ur.ID = uuid.New()
	}
	_, clash, err := r.roles.First(ctx, func(o unitrole.UnitRole) bool { return o.ExternalID == ur.ExternalID })
	if err != nil {
		return unitrole.UnitRole{}, err
	}
	if clash {
		return unitrole.UnitRole{}, serrors.ErrConflict.WithMessage("external role %s is already mapped", ur.ExternalID)
	}
	if err := r.roles.Put(ctx, ur.ID, ur); err != nil {
		return unitrole.UnitRole{}, err
	}
	return ur, nil
}

func (r *MemoryUnitRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := r.roles.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return unitrole.ErrNotFound
	}
	return nil
}

func (r *MemoryUnitRoleRepository) Assigned(ctx context.Context, employeeID uuid.UUID) ([]unitrole.UnitRole, error) {
	ids, _, err := r.assignments.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	held, err := r.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortUnitRoles(held)
	return held, nil
}

func (r *MemoryUnitRoleRepository) ReplaceAssignments(ctx context.Context, employeeID uuid.UUID, roleIDs []uuid.UUID) error {
	return r.assignments.Put(ctx, employeeID, append([]uuid.UUID(nil), roleIDs...))
}

func sortUnitRoles(roles []unitrole.UnitRole) {
	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Unit != roles[j].Unit {
			return roles[i].Unit < roles[j].Unit
		}
		return unitrole.Less(roles[i], roles[j])
	})
}

type MemorySanctionRepository struct {
	rows *memstore.Table[uuid.UUID, sanction.Sanction]
	// seq keeps List in insertion order, newest first.
	mu  sync.Mutex
	seq map[uuid.UUID]int
}

func NewMemorySanctionRepository() *MemorySanctionRepository {
	return &MemorySanctionRepository{
		rows: memstore.NewTable[uuid.UUID, sanction.Sanction](),
		seq:  map[uuid.UUID]int{},
	}
}

func (r *MemorySanctionRepository) GetByID(ctx context.Context, id uuid.UUID) (sanction.Sanction, error) {
	s, ok, err := r.rows.Get(ctx, id)
	if err != nil {
		return sanction.Sanction{}, err
	}
	if !ok {
		return sanction.Sanction{}, sanction.ErrNotFound
	}
	return s, nil
}

func (r *MemorySanctionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (sanction.Sanction, error) {
	return r.GetByID(ctx, id)
}

func (r *MemorySanctionRepository) List(ctx context.Context, params *sanction.FindParams) ([]sanction.Sanction, error) {
	if params == nil {
		params = &sanction.FindParams{}
	}
	all, err := r.rows.Find(ctx, func(s sanction.Sanction) bool {
		if params.EmployeeID != uuid.Nil && s.EmployeeID() != params.EmployeeID {
			return false
		}
		return params.Status == "" || s.Status() == params.Status
	})
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	sort.Slice(all, func(i, j int) bool { return r.seq[all[i].ID()] > r.seq[all[j].ID()] })
	r.mu.Unlock()
	limit, offset := page(params.Limit, params.Offset)
	return memstore.Page(all, limit, offset), nil
}

func (r *MemorySanctionRepository) Create(ctx context.Context, s sanction.Sanction) error {
	r.mu.Lock()
	r.seq[s.ID()] = len(r.seq) + 1
	r.mu.Unlock()
	return r.rows.Put(ctx, s.ID(), s)
}

func (r *MemorySanctionRepository) Update(ctx context.Context, s sanction.Sanction) error {
	if _, err := r.GetByID(ctx, s.ID()); err != nil {
		return err
	}
	return r.rows.Put(ctx, s.ID(), s)
}
