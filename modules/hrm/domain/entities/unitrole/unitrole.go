package unitrole

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/pkg/serrors"
)

var ErrNotFound = serrors.ErrNotFound.WithMessage("unit role not found")

// UnitRole maps one external platform role to a unit.
type UnitRole struct {
	ID         uuid.UUID `json:"id"`
	Unit       string    `json:"unit"`
	Label      string    `json:"label"`
	IsBase     bool      `json:"is_base"`
	SortOrder  int       `json:"sort_order"`
	ExternalID string    `json:"external_id"`
}

// Unit groups the roles of one unit for display.
type Unit struct {
	Name  string     `json:"name"`
	Roles []UnitRole `json:"roles"`
}

// Less orders roles within a unit: the base role first, then ascending sort
// order. Label breaks ties so output is stable.
func Less(a, b UnitRole) bool {
	if a.IsBase != b.IsBase {
		return a.IsBase
	}
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	return a.Label < b.Label
}

// Group buckets roles by unit name (units sorted by name) and orders each
// bucket with Less.
func Group(roles []UnitRole) []Unit {
	byUnit := map[string][]UnitRole{}
	for _, r := range roles {
		byUnit[r.Unit] = append(byUnit[r.Unit], r)
	}
	units := make([]Unit, 0, len(byUnit))
	for name, rs := range byUnit {
		sort.SliceStable(rs, func(i, j int) bool { return Less(rs[i], rs[j]) })
		units = append(units, Unit{Name: name, Roles: rs})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })
	return units
}

// Diff computes the external role changes needed to move from current to
// requested. Roles in current that are not managed are never removed.
func Diff(current []string, requested, managed []UnitRole) (add, remove []string) {
	want := make(map[string]struct{}, len(requested))
	for _, r := range requested {
		want[r.ExternalID] = struct{}{}
	}
	have := make(map[string]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}
	for _, r := range requested {
		if _, ok := have[r.ExternalID]; !ok {
			add = append(add, r.ExternalID)
			have[r.ExternalID] = struct{}{}
		}
	}
	for _, r := range managed {
		_, held := have[r.ExternalID]
		_, wanted := want[r.ExternalID]
		if held && !wanted {
			remove = append(remove, r.ExternalID)
			delete(have, r.ExternalID)
		}
	}
	sort.Strings(add)
	sort.Strings(remove)
	return add, remove
}

type Repository interface {
	List(ctx context.Context) ([]UnitRole, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]UnitRole, error)
	Create(ctx context.Context, r UnitRole) (UnitRole, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Assigned returns the roles the local record says the employee holds.
	Assigned(ctx context.Context, employeeID uuid.UUID) ([]UnitRole, error)
	ReplaceAssignments(ctx context.Context, employeeID uuid.UUID, roleIDs []uuid.UUID) error
}
