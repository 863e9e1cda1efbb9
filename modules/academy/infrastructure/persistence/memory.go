package persistence

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/modules/academy/domain/exam"
	"github.com/iota-uz/precinct/modules/academy/domain/uprank"
	"github.com/iota-uz/precinct/pkg/memstore"
)

type MemoryModuleRepository struct {
	rows *memstore.Table[uuid.UUID, course.Module]
}

func NewMemoryModuleRepository() *MemoryModuleRepository {
	return &MemoryModuleRepository{rows: memstore.NewTable[uuid.UUID, course.Module]()}
}

func (r *MemoryModuleRepository) List(ctx context.Context) ([]course.Module, error) {
	all, err := r.rows.Find(ctx, nil)
	if err != nil {
		return nil, err
	}
	course.SortModules(all)
	return all, nil
}

func (r *MemoryModuleRepository) GetByID(ctx context.Context, id uuid.UUID) (course.Module, error) {
	m, ok, err := r.rows.Get(ctx, id)
	if err != nil {
		return course.Module{}, err
	}
	if !ok {
		return course.Module{}, course.ErrModuleNotFound
	}
	return m, nil
}

func (r *MemoryModuleRepository) Create(ctx context.Context, m course.Module) error {
	return r.rows.Put(ctx, m.ID, m)
}

func (r *MemoryModuleRepository) Update(ctx context.Context, m course.Module) error {
	if _, err := r.GetByID(ctx, m.ID); err != nil {
		return err
	}
	return r.rows.Put(ctx, m.ID, m)
}

type progressKey struct {
	employeeID uuid.UUID
	moduleID   uuid.UUID
}

type MemoryProgressRepository struct {
	rows *memstore.Table[progressKey, course.Progress]
}

func NewMemoryProgressRepository() *MemoryProgressRepository {
	return &MemoryProgressRepository{rows: memstore.NewTable[progressKey, course.Progress]()}
}

func (r *MemoryProgressRepository) ForEmployee(ctx context.Context, employeeID uuid.UUID) ([]course.Progress, error) {
	return r.rows.Find(ctx, func(p course.Progress) bool { return p.EmployeeID == employeeID })
}

func (r *MemoryProgressRepository) GetForUpdate(ctx context.Context, employeeID, moduleID uuid.UUID) (course.Progress, bool, error) {
	return r.rows.Get(ctx, progressKey{employeeID, moduleID})
}

func (r *MemoryProgressRepository) Save(ctx context.Context, p course.Progress) error {
	return r.rows.Put(ctx, progressKey{p.EmployeeID, p.ModuleID}, p)
}

type MemoryUprankRepository struct {
	rows *memstore.Table[uuid.UUID, uprank.Request]
}

func NewMemoryUprankRepository() *MemoryUprankRepository {
	return &MemoryUprankRepository{rows: memstore.NewTable[uuid.UUID, uprank.Request]()}
}

func (r *MemoryUprankRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (uprank.Request, error) {
	req, ok, err := r.rows.Get(ctx, id)
	if err != nil {
		return uprank.Request{}, err
	}
	if !ok {
		return uprank.Request{}, uprank.ErrNotFound
	}
	return req, nil
}

func (r *MemoryUprankRepository) HasPending(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	_, ok, err := r.rows.First(ctx, func(req uprank.Request) bool {
		return req.EmployeeID == employeeID && req.Status == uprank.StatusPending
	})
	return ok, err
}

func (r *MemoryUprankRepository) List(ctx context.Context, params *uprank.FindParams) ([]uprank.Request, error) {
	if params == nil {
		params = &uprank.FindParams{}
	}
	all, err := r.rows.Find(ctx, func(req uprank.Request) bool {
		if params.EmployeeID != uuid.Nil && req.EmployeeID != params.EmployeeID {
			return false
		}
		return params.Status == "" || req.Status == params.Status
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	return memstore.Page(all, limit, max(params.Offset, 0)), nil
}

func (r *MemoryUprankRepository) Create(ctx context.Context, req uprank.Request) error {
	if req.Status == uprank.StatusPending {
		pending, err := r.HasPending(ctx, req.EmployeeID)
		if err != nil {
			return err
		}
		if pending {
			return uprank.ErrDuplicateRequest
		}
	}
	return r.rows.Put(ctx, req.ID, req)
}

func (r *MemoryUprankRepository) Update(ctx context.Context, req uprank.Request) error {
	if _, err := r.GetByIDForUpdate(ctx, req.ID); err != nil {
		return err
	}
	return r.rows.Put(ctx, req.ID, req)
}

type MemoryExamRepository struct {
	rows *memstore.Table[uuid.UUID, exam.Exam]
}

func NewMemoryExamRepository() *MemoryExamRepository {
	return &MemoryExamRepository{rows: memstore.NewTable[uuid.UUID, exam.Exam]()}
}

func (r *MemoryExamRepository) List(ctx context.Context, employeeID uuid.UUID) ([]exam.Exam, error) {
	all, err := r.rows.Find(ctx, func(e exam.Exam) bool {
		return employeeID == uuid.Nil || e.EmployeeID == employeeID
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ConductedAt.After(all[j].ConductedAt) })
	return all, nil
}

func (r *MemoryExamRepository) Create(ctx context.Context, e exam.Exam) error {
	return r.rows.Put(ctx, e.ID, e)
}
