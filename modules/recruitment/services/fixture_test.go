package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	hrmpersistence "github.com/iota-uz/precinct/modules/hrm/infrastructure/persistence"
	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
	incentiveservices "github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/modules/recruitment/infrastructure/persistence"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/blob"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/itf"
)

type fixture struct {
	ctx       context.Context
	tenantID  uuid.UUID
	apps      *persistence.MemoryApplicationRepository
	configs   *persistence.MemoryConfigRepository
	blacklist *persistence.MemoryBlacklistRepository
	employees *hrmpersistence.MemoryEmployeeRepository
	recorder  *itf.RecordingRecorder
	discord   *itf.FakeDiscord
	blobs     *blob.FSStore
	tx        composables.Transactor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tenantID := uuid.New()
	return &fixture{
		ctx:       composables.WithTenantID(context.Background(), tenantID),
		tenantID:  tenantID,
		apps:      persistence.NewMemoryApplicationRepository(),
		configs:   persistence.NewMemoryConfigRepository(),
		blacklist: persistence.NewMemoryBlacklistRepository(),
		employees: hrmpersistence.NewMemoryEmployeeRepository(),
		recorder:  itf.NewRecordingRecorder(),
		discord:   itf.NewFakeDiscord(),
		blobs:     blob.NewFSStore(t.TempDir(), 0),
		tx:        composables.NewMemoryTransactor(),
	}
}

func (f *fixture) chief() authz.Actor {
	return itf.Actor(f.tenantID, authz.Wildcard)
}

func (f *fixture) actor(perms ...authz.Permission) authz.Actor {
	return itf.Actor(f.tenantID, perms...)
}

func (f *fixture) employeeService() *hrmservices.EmployeeService {
	return hrmservices.NewEmployeeService(f.employees, f.tx, f.recorder)
}

func (f *fixture) applicationService() *ApplicationService {
	return NewApplicationService(ApplicationServiceOptions{
		Repo:       f.apps,
		Configs:    f.configs,
		Blacklist:  f.blacklist,
		Hirer:      f.employeeService(),
		Incentives: incentiveservices.NewEmitter(f.recorder),
		Blobs:      f.blobs,
		Profiles:   f.discord,
		Transactor: f.tx,
	})
}

func (f *fixture) configService() *ConfigService {
	return NewConfigService(f.configs, f.blacklist, f.tx)
}

// configure stores one active item of kind per label.
func (f *fixture) configure(t *testing.T, kind config.Kind, labels ...string) []config.Item {
	t.Helper()
	out := make([]config.Item, 0, len(labels))
	for i, label := range labels {
		it := config.NewItem(kind, label, i)
		require.NoError(t, f.configs.Create(f.ctx, it))
		out = append(out, it)
	}
	return out
}

func ids(items []config.Item) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

// onboarding opens an application for discordID and walks it to step 3.
func (f *fixture) onboarding(t *testing.T, svc *ApplicationService, name, discordID string) application.Application {
	t.Helper()
	criteria, err := f.configs.List(f.ctx, config.KindCriterion)
	require.NoError(t, err)
	if len(criteria) == 0 {
		criteria = f.configure(t, config.KindCriterion, "Is 18 or older")
	}
	questions, err := f.configs.List(f.ctx, config.KindQuestion)
	require.NoError(t, err)
	if len(questions) == 0 {
		questions = f.configure(t, config.KindQuestion, "Why do you want to join?")
	}

	a, err := svc.Create(f.ctx, f.chief(), CreateApplicationDTO{ApplicantName: name, DiscordID: discordID})
	require.NoError(t, err)
	values := map[uuid.UUID]bool{}
	for _, c := range criteria {
		values[c.ID] = true
	}
	_, res, err := svc.SubmitCriteria(f.ctx, f.chief(), a.ID(), values)
	require.NoError(t, err)
	require.True(t, res.Advanced)
	a, qres, err := svc.SubmitQuestions(f.ctx, f.chief(), a.ID(), ids(questions))
	require.NoError(t, err)
	require.True(t, qres.Advanced)
	return a
}
