package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/rank"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/outbox"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type EmployeeService struct {
	repo       employee.Repository
	transactor composables.Transactor
	recorder   outbox.Recorder
}

func NewEmployeeService(repo employee.Repository, transactor composables.Transactor, recorder outbox.Recorder) *EmployeeService {
	return &EmployeeService{
		repo:       repo,
		transactor: transactor,
		recorder:   recorder,
	}
}

func (s *EmployeeService) GetByID(ctx context.Context, actor authz.Actor, id uuid.UUID) (employee.Employee, error) {
	if err := actor.Require(authz.EmployeesRead); err != nil {
		return employee.Employee{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (employee.Employee, error) {
		return s.repo.GetByID(txCtx, id)
	})
}

func (s *EmployeeService) GetPaginated(ctx context.Context, actor authz.Actor, params *employee.FindParams) ([]employee.Employee, int64, error) {
	if err := actor.Require(authz.EmployeesRead); err != nil {
		return nil, 0, err
	}
	var (
		list  []employee.Employee
		total int64
	)
	err := s.transactor.InTx(ctx, func(txCtx context.Context) error {
		var err error
		list, total, err = s.repo.GetPaginated(txCtx, params)
		return err
	})
	return list, total, err
}

// FindByDiscordID resolves the employee behind an external identity. It is
// used while building the request actor, before any permission is known.
func (s *EmployeeService) FindByDiscordID(ctx context.Context, discordID string) (employee.Employee, error) {
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (employee.Employee, error) {
		return s.repo.GetByDiscordID(txCtx, discordID)
	})
}

// ExistsByDiscordID reports whether a non-terminated employee holds the
// identity. Callers authorize the surrounding operation.
func (s *EmployeeService) ExistsByDiscordID(ctx context.Context, discordID string) (bool, error) {
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (bool, error) {
		return s.repo.ExistsByDiscordID(txCtx, discordID)
	})
}

// RankOf returns the current rank level of an employee.
func (s *EmployeeService) RankOf(ctx context.Context, employeeID uuid.UUID) (int, error) {
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (int, error) {
		e, err := s.repo.GetByID(txCtx, employeeID)
		if err != nil {
			return 0, err
		}
		return e.RankLevel(), nil
	})
}

// Hire creates an entry level employee with a freshly allocated badge. The
// identity check runs inside the same transaction as the insert; the
// caller is responsible for authorization.
func (s *EmployeeService) Hire(ctx context.Context, discordID, displayName string, hiredBy uuid.UUID) (uuid.UUID, error) {
	discordID = strings.TrimSpace(discordID)
	displayName = strings.TrimSpace(displayName)
	verrs := serrors.ValidationErrors{}
	if discordID == "" {
		verrs["discord_id"] = "is required"
	}
	if displayName == "" {
		verrs["display_name"] = "is required"
	}
	if err := verrs.AsError(); err != nil {
		return uuid.Nil, err
	}

	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (uuid.UUID, error) {
		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return uuid.Nil, err
		}
		exists, err := s.repo.ExistsByDiscordID(txCtx, discordID)
		if err != nil {
			return uuid.Nil, err
		}
		if exists {
			return uuid.Nil, employee.ErrAlreadyEmployed
		}
		team, _ := rank.TeamOf(rank.EntryLevel)
		badge, err := allocateBadge(txCtx, s.repo, team)
		if err != nil {
			return uuid.Nil, err
		}
		created, err := s.repo.Create(txCtx, employee.New(tenantID, discordID, displayName, badge))
		if err != nil {
			return uuid.Nil, err
		}
		if err := s.recorder.Record(txCtx, &employee.HiredEvent{
			EmployeeID:  created.ID(),
			DiscordID:   created.DiscordID(),
			DisplayName: created.DisplayName(),
			BadgeNumber: created.BadgeNumber(),
			RankName:    created.RankName(),
			HiredBy:     hiredBy,
		}); err != nil {
			return uuid.Nil, err
		}
		composables.UseLogger(txCtx).WithFields(logrus.Fields{
			"employee_id": created.ID(),
			"badge":       created.BadgeNumber(),
		}).Info("employee hired")
		return created.ID(), nil
	})
}

func (s *EmployeeService) SetStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, status employee.Status) (employee.Employee, error) {
	if err := actor.Require(authz.EmployeesTerminate); err != nil {
		return employee.Employee{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (employee.Employee, error) {
		e, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		updated, err := e.SetStatus(status)
		if err != nil {
			return employee.Employee{}, err
		}
		if err := s.repo.Update(txCtx, updated); err != nil {
			return employee.Employee{}, err
		}
		return updated, nil
	})
}

// Terminate ends employment. The badge is released and the member is
// removed from the guild once the transaction commits.
func (s *EmployeeService) Terminate(ctx context.Context, actor authz.Actor, id uuid.UUID, reason string) (employee.Employee, error) {
	if err := actor.Require(authz.EmployeesTerminate); err != nil {
		return employee.Employee{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return employee.Employee{}, serrors.ValidationErrors{"reason": "is required"}.AsError()
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (employee.Employee, error) {
		e, err := s.repo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			return employee.Employee{}, err
		}
		terminated, err := e.Terminate(time.Now())
		if err != nil {
			return employee.Employee{}, err
		}
		if err := s.repo.Update(txCtx, terminated); err != nil {
			return employee.Employee{}, err
		}
		if err := s.recorder.Record(txCtx, &employee.TerminatedEvent{
			EmployeeID:   terminated.ID(),
			DiscordID:    terminated.DiscordID(),
			Reason:       reason,
			TerminatedBy: actor.ID,
		}); err != nil {
			return employee.Employee{}, err
		}
		return terminated, nil
	})
}

// IsNotFound reports whether err means the employee does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, employee.ErrNotFound)
}
