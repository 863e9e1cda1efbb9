package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/core/domain/entities/assignment"
	"github.com/iota-uz/precinct/modules/core/infrastructure/persistence"
	hrmpersistence "github.com/iota-uz/precinct/modules/hrm/infrastructure/persistence"
	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/itf"
	"github.com/iota-uz/precinct/pkg/serrors"
)

type catalog map[string]bool

func (c catalog) HasRole(slug string) bool { return c[slug] }

type fixture struct {
	ctx       context.Context
	tenantID  uuid.UUID
	roles     *persistence.MemoryAssignmentRepository
	employees *hrmservices.EmployeeService
	tx        composables.Transactor
}

func newFixture() *fixture {
	tenantID := uuid.New()
	tx := composables.NewMemoryTransactor()
	return &fixture{
		ctx:       composables.WithTenantID(context.Background(), tenantID),
		tenantID:  tenantID,
		roles:     persistence.NewMemoryAssignmentRepository(),
		employees: hrmservices.NewEmployeeService(hrmpersistence.NewMemoryEmployeeRepository(), tx, itf.NewRecordingRecorder()),
		tx:        tx,
	}
}

func (f *fixture) roleService() *RoleService {
	return NewRoleService(f.roles, catalog{"officer": true, "hr": true}, f.tx)
}

func TestRoleService_GrantAndRevoke(t *testing.T) {
	f := newFixture()
	admin := itf.Actor(f.tenantID, authz.RolesManage)
	svc := f.roleService()

	a, err := svc.Grant(f.ctx, admin, " 555 ", "HR")
	require.NoError(t, err)
	assert.Equal(t, "555", a.DiscordID)
	assert.Equal(t, "hr", a.Role)

	_, err = svc.Grant(f.ctx, admin, "555", "hr")
	require.ErrorIs(t, err, serrors.ErrConflict)

	list, err := svc.List(f.ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Revoke(f.ctx, admin, "555", "hr"))
	require.ErrorIs(t, svc.Revoke(f.ctx, admin, "555", "hr"), assignment.ErrNotFound)
}

func TestRoleService_RejectsUnknownRole(t *testing.T) {
	f := newFixture()
	_, err := f.roleService().Grant(f.ctx, itf.Actor(f.tenantID, authz.RolesManage), "555", "janitor")
	require.ErrorIs(t, err, serrors.ErrValidation)
}

func TestRoleService_RequiresManage(t *testing.T) {
	f := newFixture()
	svc := f.roleService()
	officer := itf.Actor(f.tenantID, authz.EmployeesRead)

	_, err := svc.Grant(f.ctx, officer, "555", "hr")
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
	_, err = svc.List(f.ctx, officer)
	require.ErrorIs(t, err, authz.ErrPermissionDenied)
}

func TestActorDirectory_FindActor(t *testing.T) {
	f := newFixture()
	dir := NewActorDirectory(f.roles, f.employees, f.tx)
	admin := itf.Actor(f.tenantID, authz.RolesManage)

	_, err := dir.FindActor(f.ctx, "777")
	require.ErrorIs(t, err, serrors.ErrNotFound)

	// Roles without an employee record, e.g. external staff.
	_, err = f.roleService().Grant(f.ctx, admin, "777", "hr")
	require.NoError(t, err)
	rec, err := dir.FindActor(f.ctx, "777")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, rec.EmployeeID)
	assert.Equal(t, []string{"hr"}, rec.Roles)

	id, err := f.employees.Hire(f.ctx, "888", "Jane Doe", uuid.Nil)
	require.NoError(t, err)
	rec, err = dir.FindActor(f.ctx, "888")
	require.NoError(t, err)
	assert.Equal(t, id, rec.EmployeeID)
	assert.Equal(t, "Jane Doe", rec.DisplayName)
	assert.Empty(t, rec.Roles)
}
