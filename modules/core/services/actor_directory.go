package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/precinct/modules/core/domain/entities/assignment"
	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/middleware"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type EmployeeLookup interface {
	FindByDiscordID(ctx context.Context, discordID string) (employee.Employee, error)
}

// ActorDirectory answers who a Discord identity is: the backing employee,
// if any, and the role slugs assigned to it. Terminated employees keep
// their role assignments but lose their employee link.
type ActorDirectory struct {
	roles      assignment.Repository
	employees  EmployeeLookup
	transactor composables.Transactor
}

func NewActorDirectory(roles assignment.Repository, employees EmployeeLookup, transactor composables.Transactor) *ActorDirectory {
	return &ActorDirectory{
		roles:      roles,
		employees:  employees,
		transactor: transactor,
	}
}

func (d *ActorDirectory) FindActor(ctx context.Context, discordID string) (middleware.ActorRecord, error) {
	roles, err := composables.InTxResult(ctx, d.transactor, func(txCtx context.Context) ([]string, error) {
		return d.roles.RolesOf(txCtx, discordID)
	})
	if err != nil {
		return middleware.ActorRecord{}, err
	}
	record := middleware.ActorRecord{Roles: roles}

	e, err := d.employees.FindByDiscordID(ctx, discordID)
	switch {
	case err == nil:
		if !e.IsTerminated() {
			record.EmployeeID = e.ID()
			record.DisplayName = e.DisplayName()
		}
	case errors.Is(err, serrors.ErrNotFound):
	default:
		return middleware.ActorRecord{}, err
	}

	if record.EmployeeID == uuid.Nil && len(roles) == 0 {
		return middleware.ActorRecord{}, serrors.ErrNotFound.WithMessage("unknown actor %s", discordID)
	}
	return record, nil
}
