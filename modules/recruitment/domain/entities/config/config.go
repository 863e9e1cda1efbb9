// Package config holds the recruitment settings applicants are measured
// against: eligibility criteria, interview questions and the onboarding
// checklist.
package config

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type Kind string

const (
	KindCriterion Kind = "criterion"
	KindQuestion  Kind = "question"
	KindChecklist Kind = "checklist"
)

func (k Kind) Valid() bool {
	return k == KindCriterion || k == KindQuestion || k == KindChecklist
}

var ErrNotFound = serrors.ErrNotFound.WithMessage("recruitment setting not found")

type Item struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Label     string    `json:"label"`
	Active    bool      `json:"active"`
	SortOrder int       `json:"sort_order"`
}

func NewItem(kind Kind, label string, sortOrder int) Item {
	return Item{
		ID:        uuid.New(),
		Kind:      kind,
		Label:     strings.TrimSpace(label),
		Active:    true,
		SortOrder: sortOrder,
	}
}

// Requirements returns the active items in display order.
func Requirements(items []Item) []application.Requirement {
	active := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Active {
			active = append(active, it)
		}
	}
	Sort(active)
	out := make([]application.Requirement, 0, len(active))
	for _, it := range active {
		out = append(out, application.Requirement{ID: it.ID, Label: it.Label})
	}
	return out
}

func Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].Label < items[j].Label
	})
}

type Repository interface {
	List(ctx context.Context, kind Kind) ([]Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (Item, error)
	Create(ctx context.Context, it Item) error
	Update(ctx context.Context, it Item) error
	Delete(ctx context.Context, id uuid.UUID) error
}
