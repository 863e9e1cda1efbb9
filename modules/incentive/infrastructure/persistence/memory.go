package persistence

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/pkg/memstore"
)

type sourceKey struct {
	eventType string
	sourceID  string
}

type MemoryPaymentRepository struct {
	rows *memstore.Table[sourceKey, payment.Payment]
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{rows: memstore.NewTable[sourceKey, payment.Payment]()}
}

func (r *MemoryPaymentRepository) Create(ctx context.Context, p payment.Payment) (bool, error) {
	key := sourceKey{p.EventType, p.SourceRecordID}
	_, exists, err := r.rows.Get(ctx, key)
	if err != nil || exists {
		return false, err
	}
	return true, r.rows.Put(ctx, key, p)
}

func (r *MemoryPaymentRepository) List(ctx context.Context, params *payment.FindParams) ([]payment.Payment, error) {
	if params == nil {
		params = &payment.FindParams{}
	}
	all, err := r.rows.Find(ctx, func(p payment.Payment) bool {
		if params.EmployeeID != uuid.Nil && p.EmployeeID != params.EmployeeID {
			return false
		}
		return params.Week == "" || p.Week == params.Week
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return memstore.Page(all, params.Limit, params.Offset), nil
}

func (r *MemoryPaymentRepository) ByWeek(ctx context.Context, week string) ([]payment.Payment, error) {
	return r.List(ctx, &payment.FindParams{Week: week})
}
