package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/modules/academy/domain/uprank"
	"github.com/iota-uz/precinct/modules/hrm/domain/rank"
	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/serrors"
)

// UprankRequestDTO names the target rank by level or by name; when both
// are given they must agree.
type UprankRequestDTO struct {
	TargetLevel  int    `json:"target_level" validate:"required_without=TargetRank,omitempty,min=2,max=17"`
	TargetRank   string `json:"target_rank" validate:"max=64"`
	Achievements string `json:"achievements" validate:"max=2000"`
}

func (dto UprankRequestDTO) targetLevel() (int, error) {
	if strings.TrimSpace(dto.TargetRank) == "" {
		if dto.TargetLevel == 0 {
			return 0, serrors.ValidationErrors{"target_level": "target_level or target_rank is required"}.AsError()
		}
		return dto.TargetLevel, nil
	}
	level, err := rank.LevelOf(dto.TargetRank)
	if err != nil {
		return 0, err
	}
	if dto.TargetLevel != 0 && dto.TargetLevel != level {
		return 0, serrors.ValidationErrors{"target_rank": "does not match target_level"}.AsError()
	}
	return level, nil
}

// ApprovalResult pairs the approved request with the applied rank change.
type ApprovalResult struct {
	Request uprank.Request         `json:"request"`
	Rank    hrmservices.RankResult `json:"rank"`
}

type UprankService struct {
	requests   uprank.Repository
	academy    *AcademyService
	ranks      Ranks
	promoter   Promoter
	transactor composables.Transactor
}

func NewUprankService(requests uprank.Repository, academy *AcademyService, ranks Ranks, promoter Promoter, transactor composables.Transactor) *UprankService {
	return &UprankService{
		requests:   requests,
		academy:    academy,
		ranks:      ranks,
		promoter:   promoter,
		transactor: transactor,
	}
}

func (s *UprankService) List(ctx context.Context, actor authz.Actor, params *uprank.FindParams) ([]uprank.Request, error) {
	if err := actor.Require(authz.AcademyRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]uprank.Request, error) {
		return s.requests.List(txCtx, params)
	})
}

// Request files a pending uprank request for the target rank. The
// employee must have completed every active module of the matching category
// and hold no other pending request. The pending check is repeated by the
// store on insert.
func (s *UprankService) Request(ctx context.Context, actor authz.Actor, employeeID uuid.UUID, dto UprankRequestDTO) (uprank.Request, error) {
	if err := actor.Require(authz.AcademyRequestUprank); err != nil {
		return uprank.Request{}, err
	}
	target, err := dto.targetLevel()
	if err != nil {
		return uprank.Request{}, err
	}
	req, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (uprank.Request, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return uprank.Request{}, err
		}
		category, ok := course.CategoryFor(target)
		if !ok {
			return uprank.Request{}, uprank.ErrNotEligible.WithMessage("no academy category qualifies for this rank")
		}
		level, err := s.ranks.RankOf(txCtx, employeeID)
		if err != nil {
			return uprank.Request{}, err
		}
		if level >= target {
			return uprank.Request{}, uprank.ErrNotEligible.WithMessage("employee already holds this rank or higher")
		}
		elig, err := s.academy.eligibility(txCtx, employeeID)
		if err != nil {
			return uprank.Request{}, err
		}
		cat := elig[category]
		if !cat.Eligible {
			return uprank.Request{}, uprank.ErrNotEligible.WithDetails(map[string]any{
				"category":  string(category),
				"completed": cat.Completed,
				"active":    cat.Active,
			})
		}
		pending, err := s.requests.HasPending(txCtx, employeeID)
		if err != nil {
			return uprank.Request{}, err
		}
		if pending {
			return uprank.Request{}, uprank.ErrDuplicateRequest
		}
		req := uprank.New(tenantID, employeeID, level, target, cat.CompletedNames, dto.Achievements, actor.ID)
		if err := s.requests.Create(txCtx, req); err != nil {
			return uprank.Request{}, err
		}
		return req, nil
	})
	if err != nil {
		return uprank.Request{}, err
	}
	uprankRequestsTotal.WithLabelValues("requested").Inc()
	return req, nil
}

// Approve promotes the employee to the requested rank in the same
// transaction that closes the request.
func (s *UprankService) Approve(ctx context.Context, actor authz.Actor, id uuid.UUID) (ApprovalResult, error) {
	if err := actor.Require(authz.AcademyProcessUprank); err != nil {
		return ApprovalResult{}, err
	}
	res, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (ApprovalResult, error) {
		req, err := s.requests.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return ApprovalResult{}, err
		}
		approved, err := req.Approve(actor.ID, time.Now())
		if err != nil {
			return ApprovalResult{}, err
		}
		change, err := s.promoter.AdvanceTo(txCtx, req.EmployeeID, req.TargetLevel, actor.ID)
		if err != nil {
			return ApprovalResult{}, err
		}
		if err := s.requests.Update(txCtx, approved); err != nil {
			return ApprovalResult{}, err
		}
		return ApprovalResult{Request: approved, Rank: change}, nil
	})
	if err != nil {
		return ApprovalResult{}, err
	}
	uprankRequestsTotal.WithLabelValues("approved").Inc()
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"request_id":  id,
		"employee_id": res.Request.EmployeeID,
		"new_rank":    res.Rank.NewRank,
	}).Info("uprank approved")
	return res, nil
}

func (s *UprankService) Reject(ctx context.Context, actor authz.Actor, id uuid.UUID, reason string) (uprank.Request, error) {
	if err := actor.Require(authz.AcademyProcessUprank); err != nil {
		return uprank.Request{}, err
	}
	req, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (uprank.Request, error) {
		req, err := s.requests.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return uprank.Request{}, err
		}
		rejected, err := req.Reject(reason, actor.ID, time.Now())
		if err != nil {
			return uprank.Request{}, err
		}
		return rejected, s.requests.Update(txCtx, rejected)
	})
	if err != nil {
		return uprank.Request{}, err
	}
	uprankRequestsTotal.WithLabelValues("rejected").Inc()
	return req, nil
}
