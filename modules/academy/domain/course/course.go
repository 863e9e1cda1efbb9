// Package course holds the academy curriculum and per-employee progress.
// Modules are grouped into categories, each qualifying a trainee for one
// target rank.
package course

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/hrm/domain/rank"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type Category string

const (
	CategoryA Category = "A"
	CategoryB Category = "B"
)

// Categories lists every category in rank order.
var Categories = []Category{CategoryA, CategoryB}

func (c Category) Valid() bool {
	return c == CategoryA || c == CategoryB
}

// TargetLevel is the rank a completed category qualifies for.
func (c Category) TargetLevel() int {
	switch c {
	case CategoryA:
		return 2
	case CategoryB:
		return 3
	}
	return 0
}

func (c Category) TargetRank() string {
	return rank.Name(c.TargetLevel())
}

// CategoryFor resolves the category qualifying for targetLevel.
func CategoryFor(targetLevel int) (Category, bool) {
	for _, c := range Categories {
		if c.TargetLevel() == targetLevel {
			return c, true
		}
	}
	return "", false
}

var (
	ErrModuleNotFound = serrors.ErrNotFound.WithMessage("academy module not found")
	ErrModuleInactive = serrors.ErrValidation.WithMessage("academy module is inactive")
)

type Module struct {
	ID          uuid.UUID `json:"id"`
	Category    Category  `json:"category"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SortOrder   int       `json:"sort_order"`
	Active      bool      `json:"active"`
}

func NewModule(category Category, name, description string, sortOrder int) (Module, error) {
	m := Module{
		ID:          uuid.New(),
		Category:    category,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		SortOrder:   sortOrder,
		Active:      true,
	}
	return m, m.validate()
}

func (m Module) validate() error {
	verrs := serrors.ValidationErrors{}
	if !m.Category.Valid() {
		verrs["category"] = "must be A or B"
	}
	if m.Name == "" {
		verrs["name"] = "is required"
	}
	return verrs.AsError()
}

func SortModules(mods []Module) {
	sort.SliceStable(mods, func(i, j int) bool {
		if mods[i].Category != mods[j].Category {
			return mods[i].Category < mods[j].Category
		}
		if mods[i].SortOrder != mods[j].SortOrder {
			return mods[i].SortOrder < mods[j].SortOrder
		}
		return mods[i].Name < mods[j].Name
	})
}

// Progress is one employee's record for one module. It exists once the
// module has been toggled for the first time.
type Progress struct {
	EmployeeID  uuid.UUID  `json:"employee_id"`
	ModuleID    uuid.UUID  `json:"module_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy uuid.UUID  `json:"completed_by,omitempty"`
}

// Toggle flips completion. Completing stamps time and actor; reverting
// clears both.
func (p Progress) Toggle(by uuid.UUID, at time.Time) Progress {
	p.Completed = !p.Completed
	if p.Completed {
		p.CompletedAt = &at
		p.CompletedBy = by
	} else {
		p.CompletedAt = nil
		p.CompletedBy = uuid.Nil
	}
	return p
}

type CategoryEligibility struct {
	Category    Category `json:"category"`
	TargetLevel int      `json:"target_level"`
	TargetRank  string   `json:"target_rank"`
	Active      int      `json:"active"`
	Completed   int      `json:"completed"`
	Eligible    bool     `json:"eligible"`
	// CompletedNames lists completed active modules in curriculum order.
	CompletedNames []string `json:"completed_names"`
}

// Eligibility reports, per category, whether every active module is
// completed. A category without active modules is never eligible.
func Eligibility(mods []Module, progress []Progress) map[Category]CategoryEligibility {
	done := make(map[uuid.UUID]bool, len(progress))
	for _, p := range progress {
		if p.Completed {
			done[p.ModuleID] = true
		}
	}
	ordered := append([]Module(nil), mods...)
	SortModules(ordered)

	out := make(map[Category]CategoryEligibility, len(Categories))
	for _, c := range Categories {
		out[c] = CategoryEligibility{
			Category:       c,
			TargetLevel:    c.TargetLevel(),
			TargetRank:     c.TargetRank(),
			CompletedNames: []string{},
		}
	}
	for _, m := range ordered {
		if !m.Active {
			continue
		}
		e, ok := out[m.Category]
		if !ok {
			continue
		}
		e.Active++
		if done[m.ID] {
			e.Completed++
			e.CompletedNames = append(e.CompletedNames, m.Name)
		}
		out[m.Category] = e
	}
	for c, e := range out {
		e.Eligible = e.Active > 0 && e.Completed == e.Active
		out[c] = e
	}
	return out
}

type ModuleRepository interface {
	List(ctx context.Context) ([]Module, error)
	GetByID(ctx context.Context, id uuid.UUID) (Module, error)
	Create(ctx context.Context, m Module) error
	Update(ctx context.Context, m Module) error
}

type ProgressRepository interface {
	ForEmployee(ctx context.Context, employeeID uuid.UUID) ([]Progress, error)
	// GetForUpdate returns ok=false when no record exists yet.
	GetForUpdate(ctx context.Context, employeeID, moduleID uuid.UUID) (Progress, bool, error)
	Save(ctx context.Context, p Progress) error
}
