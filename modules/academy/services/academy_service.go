package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
)

type ModuleDTO struct {
	Category    course.Category `json:"category" validate:"omitempty,oneof=A B"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	SortOrder   int             `json:"sort_order"`
	Active      *bool           `json:"active"`
}

// ModuleProgress is a curriculum entry joined with one employee's record.
type ModuleProgress struct {
	Module      course.Module `json:"module"`
	Completed   bool          `json:"completed"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CompletedBy uuid.UUID     `json:"completed_by,omitempty"`
}

type AcademyService struct {
	modules    course.ModuleRepository
	progress   course.ProgressRepository
	ranks      Ranks
	incentives IncentiveEmitter
	transactor composables.Transactor
}

func NewAcademyService(modules course.ModuleRepository, progress course.ProgressRepository, ranks Ranks, incentives IncentiveEmitter, transactor composables.Transactor) *AcademyService {
	return &AcademyService{
		modules:    modules,
		progress:   progress,
		ranks:      ranks,
		incentives: incentives,
		transactor: transactor,
	}
}

func (s *AcademyService) Modules(ctx context.Context, actor authz.Actor) ([]course.Module, error) {
	if err := actor.Require(authz.AcademyRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, s.modules.List)
}

func (s *AcademyService) CreateModule(ctx context.Context, actor authz.Actor, dto ModuleDTO) (course.Module, error) {
	if err := actor.Require(authz.AcademyConfigure); err != nil {
		return course.Module{}, err
	}
	m, err := course.NewModule(dto.Category, dto.Name, dto.Description, dto.SortOrder)
	if err != nil {
		return course.Module{}, err
	}
	if dto.Active != nil {
		m.Active = *dto.Active
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (course.Module, error) {
		return m, s.modules.Create(txCtx, m)
	})
}

// UpdateModule edits a module in place. The category is fixed at creation.
func (s *AcademyService) UpdateModule(ctx context.Context, actor authz.Actor, id uuid.UUID, dto ModuleDTO) (course.Module, error) {
	if err := actor.Require(authz.AcademyConfigure); err != nil {
		return course.Module{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (course.Module, error) {
		m, err := s.modules.GetByID(txCtx, id)
		if err != nil {
			return course.Module{}, err
		}
		updated, err := course.NewModule(m.Category, dto.Name, dto.Description, dto.SortOrder)
		if err != nil {
			return course.Module{}, err
		}
		updated.ID, updated.Active = m.ID, m.Active
		if dto.Active != nil {
			updated.Active = *dto.Active
		}
		if err := s.modules.Update(txCtx, updated); err != nil {
			return course.Module{}, err
		}
		return updated, nil
	})
}

func (s *AcademyService) Progress(ctx context.Context, actor authz.Actor, employeeID uuid.UUID) ([]ModuleProgress, error) {
	if err := actor.Require(authz.AcademyRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]ModuleProgress, error) {
		mods, records, err := s.load(txCtx, employeeID)
		if err != nil {
			return nil, err
		}
		byModule := make(map[uuid.UUID]course.Progress, len(records))
		for _, p := range records {
			byModule[p.ModuleID] = p
		}
		out := make([]ModuleProgress, 0, len(mods))
		for _, m := range mods {
			p := byModule[m.ID]
			out = append(out, ModuleProgress{Module: m, Completed: p.Completed, CompletedAt: p.CompletedAt, CompletedBy: p.CompletedBy})
		}
		return out, nil
	})
}

// ToggleModuleCompletion creates the progress record as completed on first
// use and flips it afterwards. Only a false to true flip triggers the
// instructor incentive; reverting never claws it back.
func (s *AcademyService) ToggleModuleCompletion(ctx context.Context, actor authz.Actor, employeeID, moduleID uuid.UUID) (course.Progress, error) {
	if err := actor.Require(authz.AcademyManageProgress); err != nil {
		return course.Progress{}, err
	}
	p, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (course.Progress, error) {
		if _, err := s.ranks.RankOf(txCtx, employeeID); err != nil {
			return course.Progress{}, err
		}
		m, err := s.modules.GetByID(txCtx, moduleID)
		if err != nil {
			return course.Progress{}, err
		}
		if !m.Active {
			return course.Progress{}, course.ErrModuleInactive
		}
		current, ok, err := s.progress.GetForUpdate(txCtx, employeeID, moduleID)
		if err != nil {
			return course.Progress{}, err
		}
		if !ok {
			current = course.Progress{EmployeeID: employeeID, ModuleID: moduleID}
		}
		next := current.Toggle(actor.ID, time.Now())
		if err := s.progress.Save(txCtx, next); err != nil {
			return course.Progress{}, err
		}
		if next.Completed {
			source := employeeID.String() + "/" + moduleID.String()
			if err := s.incentives.Emit(txCtx, payment.ModuleCompleted, actor.ID, m.Name, source); err != nil {
				return course.Progress{}, err
			}
		}
		return next, nil
	})
	if err != nil {
		return course.Progress{}, err
	}
	moduleTogglesTotal.WithLabelValues(strconv.FormatBool(p.Completed)).Inc()
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"employee_id": employeeID,
		"module_id":   moduleID,
		"completed":   p.Completed,
	}).Info("academy progress toggled")
	return p, nil
}

func (s *AcademyService) ComputeEligibility(ctx context.Context, actor authz.Actor, employeeID uuid.UUID) (map[course.Category]course.CategoryEligibility, error) {
	if err := actor.Require(authz.AcademyRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (map[course.Category]course.CategoryEligibility, error) {
		return s.eligibility(txCtx, employeeID)
	})
}

func (s *AcademyService) eligibility(ctx context.Context, employeeID uuid.UUID) (map[course.Category]course.CategoryEligibility, error) {
	mods, records, err := s.load(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return course.Eligibility(mods, records), nil
}

func (s *AcademyService) load(ctx context.Context, employeeID uuid.UUID) ([]course.Module, []course.Progress, error) {
	if _, err := s.ranks.RankOf(ctx, employeeID); err != nil {
		return nil, nil, err
	}
	mods, err := s.modules.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.progress.ForEmployee(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	return mods, records, nil
}
