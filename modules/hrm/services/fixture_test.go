package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/infrastructure/persistence"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/itf"
)

type fixture struct {
	ctx       context.Context
	tenantID  uuid.UUID
	employees *persistence.MemoryEmployeeRepository
	roles     *persistence.MemoryUnitRoleRepository
	sanctions *persistence.MemorySanctionRepository
	recorder  *itf.RecordingRecorder
	discord   *itf.FakeDiscord
	tx        composables.Transactor
	seq       int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tenantID := uuid.New()
	return &fixture{
		ctx:       composables.WithTenantID(context.Background(), tenantID),
		tenantID:  tenantID,
		employees: persistence.NewMemoryEmployeeRepository(),
		roles:     persistence.NewMemoryUnitRoleRepository(),
		sanctions: persistence.NewMemorySanctionRepository(),
		recorder:  itf.NewRecordingRecorder(),
		discord:   itf.NewFakeDiscord(),
		tx:        composables.NewMemoryTransactor(),
	}
}

func (f *fixture) chief() authz.Actor {
	return itf.Actor(f.tenantID, authz.Wildcard)
}

func (f *fixture) actor(perms ...authz.Permission) authz.Actor {
	return itf.Actor(f.tenantID, perms...)
}

// seed stores an active employee at level holding badge.
func (f *fixture) seed(t *testing.T, level int, badge string) employee.Employee {
	t.Helper()
	f.seq++
	now := time.Now()
	e := employee.Hydrate(uuid.New(), f.tenantID,
		fmt.Sprintf("10000000000%04d", f.seq), fmt.Sprintf("Officer %d", f.seq),
		level, badge, employee.StatusActive, now, nil, now, now)
	created, err := f.employees.Create(f.ctx, e)
	require.NoError(t, err)
	return created
}

func (f *fixture) get(t *testing.T, id uuid.UUID) employee.Employee {
	t.Helper()
	e, err := f.employees.GetByID(f.ctx, id)
	require.NoError(t, err)
	return e
}

func (f *fixture) rankService() *RankService {
	return NewRankService(f.employees, f.tx, f.recorder)
}

func (f *fixture) employeeService() *EmployeeService {
	return NewEmployeeService(f.employees, f.tx, f.recorder)
}

func (f *fixture) unitRoleService() *UnitRoleService {
	return NewUnitRoleService(f.roles, f.employees, f.discord, f.tx, f.recorder)
}

func (f *fixture) sanctionService() *SanctionService {
	return NewSanctionService(f.sanctions, f.employees, f.tx)
}

// spyEmployeeRepo records whether any read reached the store.
type spyEmployeeRepo struct {
	employee.Repository
	called bool
}

func (s *spyEmployeeRepo) GetByID(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	s.called = true
	return s.Repository.GetByID(ctx, id)
}

func (s *spyEmployeeRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (employee.Employee, error) {
	s.called = true
	return s.Repository.GetByIDForUpdate(ctx, id)
}

func (s *spyEmployeeRepo) GetPaginated(ctx context.Context, params *employee.FindParams) ([]employee.Employee, int64, error) {
	s.called = true
	return s.Repository.GetPaginated(ctx, params)
}
