package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/modules/academy/infrastructure/persistence"
	hrmpersistence "github.com/iota-uz/precinct/modules/hrm/infrastructure/persistence"
	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
	incentiveservices "github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/itf"
)

type fixture struct {
	ctx       context.Context
	tenantID  uuid.UUID
	modules   *persistence.MemoryModuleRepository
	progress  *persistence.MemoryProgressRepository
	requests  *persistence.MemoryUprankRepository
	exams     *persistence.MemoryExamRepository
	employees *hrmservices.EmployeeService
	ranks     *hrmservices.RankService
	recorder  *itf.RecordingRecorder
	tx        composables.Transactor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tenantID := uuid.New()
	tx := composables.NewMemoryTransactor()
	recorder := itf.NewRecordingRecorder()
	employees := hrmpersistence.NewMemoryEmployeeRepository()
	return &fixture{
		ctx:       composables.WithTenantID(context.Background(), tenantID),
		tenantID:  tenantID,
		modules:   persistence.NewMemoryModuleRepository(),
		progress:  persistence.NewMemoryProgressRepository(),
		requests:  persistence.NewMemoryUprankRepository(),
		exams:     persistence.NewMemoryExamRepository(),
		employees: hrmservices.NewEmployeeService(employees, tx, recorder),
		ranks:     hrmservices.NewRankService(employees, tx, recorder),
		recorder:  recorder,
		tx:        tx,
	}
}

func (f *fixture) chief() authz.Actor {
	return itf.Actor(f.tenantID, authz.Wildcard)
}

func (f *fixture) actor(perms ...authz.Permission) authz.Actor {
	return itf.Actor(f.tenantID, perms...)
}

func (f *fixture) academyService() *AcademyService {
	return NewAcademyService(f.modules, f.progress, f.employees, incentiveservices.NewEmitter(f.recorder), f.tx)
}

func (f *fixture) uprankService() *UprankService {
	return NewUprankService(f.requests, f.academyService(), f.employees, f.ranks, f.tx)
}

func (f *fixture) examService() *ExamService {
	return NewExamService(f.exams, f.employees, incentiveservices.NewEmitter(f.recorder), f.tx)
}

// hire adds a Cadet.
func (f *fixture) hire(t *testing.T, discordID string) uuid.UUID {
	t.Helper()
	id, err := f.employees.Hire(f.ctx, discordID, "Trainee "+discordID, uuid.New())
	require.NoError(t, err)
	return id
}

func (f *fixture) curriculum(t *testing.T, c course.Category, names ...string) []course.Module {
	t.Helper()
	out := make([]course.Module, 0, len(names))
	for i, name := range names {
		m, err := course.NewModule(c, name, "", i)
		require.NoError(t, err)
		require.NoError(t, f.modules.Create(f.ctx, m))
		out = append(out, m)
	}
	return out
}
