package services

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/rank"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/outbox"
)

// RankResult describes an applied rank change. NewBadgeNumber is set only
// when the change crossed a team boundary.
type RankResult struct {
	EmployeeID     uuid.UUID `json:"employee_id"`
	FromLevel      int       `json:"from_level"`
	NewLevel       int       `json:"new_level"`
	NewRank        string    `json:"new_rank"`
	NewBadgeNumber string    `json:"new_badge_number,omitempty"`
	TeamChanged    bool      `json:"team_changed"`
}

type RankService struct {
	repo       employee.Repository
	transactor composables.Transactor
	recorder   outbox.Recorder
}

func NewRankService(repo employee.Repository, transactor composables.Transactor, recorder outbox.Recorder) *RankService {
	return &RankService{
		repo:       repo,
		transactor: transactor,
		recorder:   recorder,
	}
}

func (s *RankService) Promote(ctx context.Context, actor authz.Actor, employeeID uuid.UUID) (RankResult, error) {
	if err := actor.Require(authz.EmployeesPromote); err != nil {
		return RankResult{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (RankResult, error) {
		return s.step(txCtx, employeeID, 1, actor.ID)
	})
}

func (s *RankService) Demote(ctx context.Context, actor authz.Actor, employeeID uuid.UUID) (RankResult, error) {
	if err := actor.Require(authz.EmployeesDemote); err != nil {
		return RankResult{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (RankResult, error) {
		return s.step(txCtx, employeeID, -1, actor.ID)
	})
}

// AdvanceTo promotes one level at a time until targetLevel is reached. It
// performs no permission check; callers authorize the operation that led
// here (an approved uprank request). Reusing the caller's transaction keeps
// the promotion atomic with that operation.
func (s *RankService) AdvanceTo(ctx context.Context, employeeID uuid.UUID, targetLevel int, changedBy uuid.UUID) (RankResult, error) {
	if !rank.Valid(targetLevel) {
		return RankResult{}, rank.ErrUnknownRank.WithTemplateData(map[string]string{"rank": strconv.Itoa(targetLevel)})
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (RankResult, error) {
		e, err := s.repo.GetByIDForUpdate(txCtx, employeeID)
		if err != nil {
			return RankResult{}, err
		}
		if e.RankLevel() >= targetLevel {
			return RankResult{}, rank.ErrRankBoundary.WithMessage(
				"employee already holds %s or higher", rank.Name(targetLevel))
		}
		var out RankResult
		for level := e.RankLevel(); level < targetLevel; level++ {
			res, err := s.step(txCtx, employeeID, 1, changedBy)
			if err != nil {
				return RankResult{}, err
			}
			if out.EmployeeID == uuid.Nil {
				out = res
			}
			out.NewLevel, out.NewRank = res.NewLevel, res.NewRank
			if res.TeamChanged {
				out.TeamChanged = true
				out.NewBadgeNumber = res.NewBadgeNumber
			}
		}
		return out, nil
	})
}

func (s *RankService) step(ctx context.Context, employeeID uuid.UUID, delta int, changedBy uuid.UUID) (RankResult, error) {
	e, err := s.repo.GetByIDForUpdate(ctx, employeeID)
	if err != nil {
		return RankResult{}, err
	}
	if e.IsTerminated() {
		return RankResult{}, employee.ErrInvalidStateTransition.WithMessage("employee is terminated")
	}
	t, err := rank.Step(e.RankLevel(), delta)
	if err != nil {
		return RankResult{}, err
	}

	var badge string
	if t.TeamChanged {
		badge, err = allocateBadge(ctx, s.repo, t.NewTeam)
		if err != nil {
			return RankResult{}, err
		}
	}
	updated := e.ApplyRank(t, badge)
	if err := s.repo.Update(ctx, updated); err != nil {
		return RankResult{}, err
	}

	if err := s.recorder.Record(ctx, &employee.RankChangedEvent{
		EmployeeID:  updated.ID(),
		DiscordID:   updated.DiscordID(),
		DisplayName: updated.DisplayName(),
		FromLevel:   t.FromLevel,
		NewLevel:    t.NewLevel,
		NewRank:     t.NewRank,
		BadgeNumber: updated.BadgeNumber(),
		TeamChanged: t.TeamChanged,
		ChangedBy:   changedBy,
	}); err != nil {
		return RankResult{}, err
	}

	direction := "promote"
	if delta < 0 {
		direction = "demote"
	}
	rankChangesTotal.WithLabelValues(direction, strconv.FormatBool(t.TeamChanged)).Inc()
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"employee_id":  updated.ID(),
		"from_level":   t.FromLevel,
		"new_level":    t.NewLevel,
		"team_changed": t.TeamChanged,
		"badge":        badge,
	}).Info("rank changed")

	return RankResult{
		EmployeeID:     updated.ID(),
		FromLevel:      t.FromLevel,
		NewLevel:       t.NewLevel,
		NewRank:        t.NewRank,
		NewBadgeNumber: badge,
		TeamChanged:    t.TeamChanged,
	}, nil
}
