package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/sanction"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
)

type CreateSanctionDTO struct {
	Warning     bool            `json:"warning"`
	Fine        bool            `json:"fine"`
	FineAmount  decimal.Decimal `json:"fine_amount"`
	Measure     bool            `json:"measure"`
	MeasureText string          `json:"measure_text" validate:"max=500"`
	Reason      string          `json:"reason" validate:"required,max=1000"`
	ExpiresAt   *time.Time      `json:"expires_at"`
}

type SanctionService struct {
	repo       sanction.Repository
	employees  employee.Repository
	transactor composables.Transactor
}

func NewSanctionService(repo sanction.Repository, employees employee.Repository, transactor composables.Transactor) *SanctionService {
	return &SanctionService{
		repo:       repo,
		employees:  employees,
		transactor: transactor,
	}
}

func (s *SanctionService) Create(ctx context.Context, actor authz.Actor, employeeID uuid.UUID, dto CreateSanctionDTO) (sanction.Sanction, error) {
	if err := actor.Require(authz.SanctionsCreate); err != nil {
		return sanction.Sanction{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (sanction.Sanction, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return sanction.Sanction{}, err
		}
		if _, err := s.employees.GetByID(txCtx, employeeID); err != nil {
			return sanction.Sanction{}, err
		}
		created, err := sanction.New(tenantID, employeeID, actor.ID, sanction.Components{
			Warning:     dto.Warning,
			Fine:        dto.Fine,
			FineAmount:  dto.FineAmount,
			Measure:     dto.Measure,
			MeasureText: dto.MeasureText,
		}, dto.Reason, dto.ExpiresAt)
		if err != nil {
			return sanction.Sanction{}, err
		}
		if err := s.repo.Create(txCtx, created); err != nil {
			return sanction.Sanction{}, err
		}
		composables.UseLogger(txCtx).WithFields(logrus.Fields{
			"sanction_id": created.ID(),
			"employee_id": employeeID,
		}).Info("sanction issued")
		return created, nil
	})
}

// ToggleComponent flips the completion flag of one present component. The
// overall status is left as is.
func (s *SanctionService) ToggleComponent(ctx context.Context, actor authz.Actor, id uuid.UUID, c sanction.Component) (sanction.Sanction, error) {
	if err := actor.Require(authz.SanctionsManage); err != nil {
		return sanction.Sanction{}, err
	}
	return s.mutate(ctx, id, func(sc sanction.Sanction) (sanction.Sanction, error) {
		return sc.ToggleCompletion(c)
	})
}

func (s *SanctionService) Revoke(ctx context.Context, actor authz.Actor, id uuid.UUID) (sanction.Sanction, error) {
	if err := actor.Require(authz.SanctionsRevoke); err != nil {
		return sanction.Sanction{}, err
	}
	return s.mutate(ctx, id, func(sc sanction.Sanction) (sanction.Sanction, error) {
		return sc.Revoke(actor.ID, time.Now())
	})
}

func (s *SanctionService) GetByID(ctx context.Context, actor authz.Actor, id uuid.UUID) (sanction.Sanction, error) {
	if err := actor.Require(authz.SanctionsRead); err != nil {
		return sanction.Sanction{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (sanction.Sanction, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *SanctionService) List(ctx context.Context, actor authz.Actor, params *sanction.FindParams) ([]sanction.Sanction, error) {
	if err := actor.Require(authz.SanctionsRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]sanction.Sanction, error) {
		return s.repo.List(txCtx, params)
	})
}

func (s *SanctionService) mutate(ctx context.Context, id uuid.UUID, fn func(sanction.Sanction) (sanction.Sanction, error)) (sanction.Sanction, error) {
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (sanction.Sanction, error) {
		current, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return sanction.Sanction{}, err
		}
		next, err := fn(current)
		if err != nil {
			return sanction.Sanction{}, err
		}
		if err := s.repo.Update(txCtx, next); err != nil {
			return sanction.Sanction{}, err
		}
		return next, nil
	})
}
