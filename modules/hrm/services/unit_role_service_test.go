package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/hrm/domain/entities/unitrole"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/discord"
)

type unitCatalog struct {
	patrolBase, patrolFTO, swatBase, swatSniper unitrole.UnitRole
}

func seedCatalog(t *testing.T, f *fixture) unitCatalog {
	t.Helper()
	svc := f.unitRoleService()
	mk := func(unit, label string, base bool, order int, ext string) unitrole.UnitRole {
		ur, err := svc.CreateUnitRole(f.ctx, f.chief(), CreateUnitRoleDTO{
			Unit: unit, Label: label, IsBase: base, SortOrder: order, ExternalID: ext,
		})
		require.NoError(t, err)
		return ur
	}
	return unitCatalog{
		patrolFTO:  mk("Patrol", "Field Training Officer", false, 1, "r-patrol-fto"),
		patrolBase: mk("Patrol", "Patrol", true, 5, "r-patrol"),
		swatSniper: mk("SWAT", "Sniper", false, 2, "r-swat-sniper"),
		swatBase:   mk("SWAT", "SWAT", true, 0, "r-swat"),
	}
}

func TestUnitRoleService_CatalogGroupsBaseFirst(t *testing.T) {
	f := newFixture(t)
	seedCatalog(t, f)

	units, err := f.unitRoleService().Catalog(f.ctx, f.actor(authz.EmployeesRead))
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "Patrol", units[0].Name)
	assert.Equal(t, "r-patrol", units[0].Roles[0].ExternalID)
	assert.Equal(t, "r-patrol-fto", units[0].Roles[1].ExternalID)
	assert.Equal(t, "SWAT", units[1].Name)
	assert.Equal(t, "r-swat", units[1].Roles[0].ExternalID)
}

func TestUnitRoleService_SetUnitRolesAppliesDiff(t *testing.T) {
	f := newFixture(t)
	c := seedCatalog(t, f)
	e := f.seed(t, 4, "G-01")
	f.discord.SeedRoles(e.DiscordID(), "unmanaged-vip", "r-patrol")

	res, err := f.unitRoleService().SetUnitRoles(f.ctx, f.chief(), e.ID(), []uuid.UUID{c.swatBase.ID, c.swatSniper.ID, c.swatBase.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-swat", "r-swat-sniper"}, res.Added)
	assert.Equal(t, []string{"r-patrol"}, res.Removed)
	assert.Equal(t, []string{"r-swat", "r-swat-sniper", "unmanaged-vip"}, f.discord.Roles(e.DiscordID()))

	held, err := f.unitRoleService().EmployeeUnits(f.ctx, f.chief(), e.ID())
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "SWAT", held[0].Name)
	assert.Len(t, held[0].Roles, 2)
}

func TestUnitRoleService_EmptySetClearsManagedRolesOnly(t *testing.T) {
	f := newFixture(t)
	c := seedCatalog(t, f)
	e := f.seed(t, 4, "G-01")
	f.discord.SeedRoles(e.DiscordID(), "unmanaged-vip")
	svc := f.unitRoleService()

	_, err := svc.SetUnitRoles(f.ctx, f.chief(), e.ID(), []uuid.UUID{c.patrolBase.ID, c.patrolFTO.ID})
	require.NoError(t, err)
	res, err := svc.SetUnitRoles(f.ctx, f.chief(), e.ID(), nil)
	require.NoError(t, err)

	assert.Empty(t, res.Added)
	assert.Equal(t, []string{"r-patrol", "r-patrol-fto"}, res.Removed)
	assert.Equal(t, []string{"unmanaged-vip"}, f.discord.Roles(e.DiscordID()))
	held, err := svc.EmployeeUnits(f.ctx, f.chief(), e.ID())
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestUnitRoleService_StoreFailureKeepsLocalRecord(t *testing.T) {
	f := newFixture(t)
	c := seedCatalog(t, f)
	e := f.seed(t, 4, "G-01")
	svc := f.unitRoleService()

	_, err := svc.SetUnitRoles(f.ctx, f.chief(), e.ID(), []uuid.UUID{c.patrolBase.ID})
	require.NoError(t, err)
	eventsBefore := len(f.recorder.Events())

	f.discord.FailWrites = true
	_, err = svc.SetUnitRoles(f.ctx, f.chief(), e.ID(), []uuid.UUID{c.swatBase.ID})
	require.ErrorIs(t, err, discord.ErrUpstream)

	held, err := svc.EmployeeUnits(f.ctx, f.chief(), e.ID())
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "Patrol", held[0].Name)
	assert.Equal(t, []string{"r-patrol"}, f.discord.Roles(e.DiscordID()))
	assert.Len(t, f.recorder.Events(), eventsBefore)
}

func TestUnitRoleService_UnknownRole(t *testing.T) {
	f := newFixture(t)
	e := f.seed(t, 4, "G-01")
	_, err := f.unitRoleService().SetUnitRoles(f.ctx, f.chief(), e.ID(), []uuid.UUID{uuid.New()})
	require.ErrorIs(t, err, unitrole.ErrNotFound)
}

func TestUnitRoleService_RequiresManageUnits(t *testing.T) {
	f := newFixture(t)
	e := f.seed(t, 4, "G-01")
	spy := &spyEmployeeRepo{Repository: f.employees}
	svc := NewUnitRoleService(f.roles, spy, f.discord, f.tx, f.recorder)

	_, err := svc.SetUnitRoles(f.ctx, f.actor(authz.EmployeesRead), e.ID(), nil)
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
	assert.False(t, spy.called)
}

type failingAssignments struct {
	unitrole.Repository
}

func (failingAssignments) ReplaceAssignments(context.Context, uuid.UUID, []uuid.UUID) error {
	return errors.New("disk full")
}

func TestUnitRoleService_LocalFailureRevertsMemberRoles(t *testing.T) {
	f := newFixture(t)
	c := seedCatalog(t, f)
	e := f.seed(t, 4, "G-01")
	f.discord.SeedRoles(e.DiscordID(), "unmanaged-vip", "r-patrol")

	logger, hook := logtest.NewNullLogger()
	ctx := composables.WithLogger(f.ctx, logrus.NewEntry(logger))
	svc := NewUnitRoleService(failingAssignments{Repository: f.roles}, f.employees, f.discord, f.tx, f.recorder)
	eventsBefore := len(f.recorder.Events())

	_, err := svc.SetUnitRoles(ctx, f.chief(), e.ID(), []uuid.UUID{c.swatBase.ID})
	require.EqualError(t, err, "disk full")

	assert.ElementsMatch(t, []string{"unmanaged-vip", "r-patrol"}, f.discord.Roles(e.DiscordID()))
	assert.Len(t, f.recorder.Events(), eventsBefore)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "disk full", entry.Data["cause"])
}
