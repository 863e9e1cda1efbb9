package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/entities/unitrole"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/discord"
	"github.com/iota-uz/precinct/pkg/outbox"
	"github.com/iota-uz/precinct/pkg/serrors"
)

// UnitSyncResult lists the external role changes applied by SetUnitRoles.
type UnitSyncResult struct {
	Added   []string        `json:"added"`
	Removed []string        `json:"removed"`
	Units   []unitrole.Unit `json:"units"`
}

type UnitRoleService struct {
	roles      unitrole.Repository
	employees  employee.Repository
	store      discord.RoleStore
	transactor composables.Transactor
	recorder   outbox.Recorder
}

func NewUnitRoleService(
	roles unitrole.Repository,
	employees employee.Repository,
	store discord.RoleStore,
	transactor composables.Transactor,
	recorder outbox.Recorder,
) *UnitRoleService {
	return &UnitRoleService{
		roles:      roles,
		employees:  employees,
		store:      store,
		transactor: transactor,
		recorder:   recorder,
	}
}

// Catalog returns every managed unit role grouped by unit.
func (s *UnitRoleService) Catalog(ctx context.Context, actor authz.Actor) ([]unitrole.Unit, error) {
	if err := actor.Require(authz.EmployeesRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]unitrole.Unit, error) {
		all, err := s.roles.List(txCtx)
		if err != nil {
			return nil, err
		}
		return unitrole.Group(all), nil
	})
}

func (s *UnitRoleService) EmployeeUnits(ctx context.Context, actor authz.Actor, employeeID uuid.UUID) ([]unitrole.Unit, error) {
	if err := actor.Require(authz.EmployeesRead); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) ([]unitrole.Unit, error) {
		if _, err := s.employees.GetByID(txCtx, employeeID); err != nil {
			return nil, err
		}
		held, err := s.roles.Assigned(txCtx, employeeID)
		if err != nil {
			return nil, err
		}
		return unitrole.Group(held), nil
	})
}

type CreateUnitRoleDTO struct {
	Unit       string `json:"unit" validate:"required,max=64"`
	Label      string `json:"label" validate:"required,max=64"`
	IsBase     bool   `json:"is_base"`
	SortOrder  int    `json:"sort_order" validate:"gte=0"`
	ExternalID string `json:"external_id" validate:"required,max=32"`
}

func (s *UnitRoleService) CreateUnitRole(ctx context.Context, actor authz.Actor, dto CreateUnitRoleDTO) (unitrole.UnitRole, error) {
	if err := actor.Require(authz.EmployeesManageUnits); err != nil {
		return unitrole.UnitRole{}, err
	}
	verrs := serrors.ValidationErrors{}
	if strings.TrimSpace(dto.Unit) == "" {
		verrs["unit"] = "is required"
	}
	if strings.TrimSpace(dto.Label) == "" {
		verrs["label"] = "is required"
	}
	if strings.TrimSpace(dto.ExternalID) == "" {
		verrs["external_id"] = "is required"
	}
	if err := verrs.AsError(); err != nil {
		return unitrole.UnitRole{}, err
	}
	return composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (unitrole.UnitRole, error) {
		return s.roles.Create(txCtx, unitrole.UnitRole{
			Unit:       strings.TrimSpace(dto.Unit),
			Label:      strings.TrimSpace(dto.Label),
			IsBase:     dto.IsBase,
			SortOrder:  dto.SortOrder,
			ExternalID: strings.TrimSpace(dto.ExternalID),
		})
	})
}

func (s *UnitRoleService) DeleteUnitRole(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := actor.Require(authz.EmployeesManageUnits); err != nil {
		return err
	}
	return s.transactor.InTx(ctx, func(txCtx context.Context) error {
		return s.roles.Delete(txCtx, id)
	})
}

type unitPlan struct {
	employee employee.Employee
	wanted   []unitrole.UnitRole
	managed  []unitrole.UnitRole
}

// SetUnitRoles makes requested the employee's complete set of unit roles.
// The difference against the roles held on the external platform is applied
// there in one batch; the local record is replaced only after the platform
// accepted it. Roles outside the managed catalog are never touched. No
// database transaction is held open across platform calls, so a failed local
// write is compensated by reverting the platform change.
func (s *UnitRoleService) SetUnitRoles(ctx context.Context, actor authz.Actor, employeeID uuid.UUID, requested []uuid.UUID) (UnitSyncResult, error) {
	if err := actor.Require(authz.EmployeesManageUnits); err != nil {
		return UnitSyncResult{}, err
	}
	requested = dedupe(requested)
	plan, err := composables.InTxResult(ctx, s.transactor, func(txCtx context.Context) (unitPlan, error) {
		e, err := s.employees.GetByID(txCtx, employeeID)
		if err != nil {
			return unitPlan{}, err
		}
		if e.IsTerminated() {
			return unitPlan{}, employee.ErrInvalidStateTransition.WithMessage("employee is terminated")
		}
		wanted, err := s.roles.GetByIDs(txCtx, requested)
		if err != nil {
			return unitPlan{}, err
		}
		if len(wanted) != len(requested) {
			return unitPlan{}, unitrole.ErrNotFound.WithMessage("one or more unit roles do not exist")
		}
		managed, err := s.roles.List(txCtx)
		if err != nil {
			return unitPlan{}, err
		}
		return unitPlan{employee: e, wanted: wanted, managed: managed}, nil
	})
	if err != nil {
		return UnitSyncResult{}, err
	}

	e := plan.employee
	logger := composables.UseLogger(ctx).WithFields(logrus.Fields{
		"employee_id": e.ID(),
		"discord_id":  e.DiscordID(),
	})
	current, err := s.store.GetMemberRoles(ctx, e.DiscordID())
	if err != nil {
		unitSyncTotal.WithLabelValues("read_failed").Inc()
		logger.WithError(err).Warn("reading member roles failed")
		return UnitSyncResult{}, discord.ErrUpstream.Wrap(err)
	}
	add, remove := unitrole.Diff(current, plan.wanted, plan.managed)
	changed := len(add) > 0 || len(remove) > 0
	if changed {
		if err := s.store.SetMemberRoles(ctx, e.DiscordID(), add, remove); err != nil {
			unitSyncTotal.WithLabelValues("write_failed").Inc()
			logger.WithError(err).Warn("updating member roles failed")
			return UnitSyncResult{}, discord.ErrUpstream.Wrap(err)
		}
	}

	err = s.transactor.InTx(ctx, func(txCtx context.Context) error {
		if err := s.roles.ReplaceAssignments(txCtx, e.ID(), requested); err != nil {
			return err
		}
		return s.recorder.Record(txCtx, &employee.UnitsSyncedEvent{
			EmployeeID: e.ID(),
			DiscordID:  e.DiscordID(),
			Added:      add,
			Removed:    remove,
			SyncedBy:   actor.ID,
		})
	})
	if err != nil {
		if changed {
			s.revert(ctx, logger, e.DiscordID(), add, remove, err)
		}
		return UnitSyncResult{}, err
	}
	unitSyncTotal.WithLabelValues("ok").Inc()
	logger.WithField("added", add).WithField("removed", remove).Info("unit roles synced")

	return UnitSyncResult{Added: add, Removed: remove, Units: unitrole.Group(plan.wanted)}, nil
}

// revert undoes an applied platform change after the local record could not
// be written. When the undo fails too the two sides disagree until the next
// sync.
func (s *UnitRoleService) revert(ctx context.Context, logger *logrus.Entry, discordID string, added, removed []string, cause error) {
	logger = logger.WithFields(logrus.Fields{
		"added":   added,
		"removed": removed,
		"cause":   cause.Error(),
	})
	if err := s.store.SetMemberRoles(context.WithoutCancel(ctx), discordID, removed, added); err != nil {
		unitSyncTotal.WithLabelValues("diverged").Inc()
		logger.WithError(err).Error("member roles diverged from local record")
		return
	}
	unitSyncTotal.WithLabelValues("reverted").Inc()
	logger.Warn("local unit roles not saved; member roles reverted")
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
