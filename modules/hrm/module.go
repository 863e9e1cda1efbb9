package hrm

import (
	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/sanction"
	"github.com/iota-uz/precinct/modules/hrm/domain/entities/unitrole"
	"github.com/iota-uz/precinct/modules/hrm/handlers"
	"github.com/iota-uz/precinct/modules/hrm/infrastructure/persistence"
	"github.com/iota-uz/precinct/modules/hrm/infrastructure/query"
	"github.com/iota-uz/precinct/modules/hrm/presentation/controllers"
	"github.com/iota-uz/precinct/modules/hrm/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/outbox"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	var (
		employees employee.Repository
		roles     unitrole.Repository
		sanctions sanction.Repository
		roster    query.RosterReader
	)
	if app.InMemory() {
		employees = persistence.NewMemoryEmployeeRepository()
		roles = persistence.NewMemoryUnitRoleRepository()
		sanctions = persistence.NewMemorySanctionRepository()
		roster = query.NewRepositoryRosterQuery(employees)
	} else {
		employees = persistence.NewEmployeeRepository()
		roles = persistence.NewUnitRoleRepository()
		sanctions = persistence.NewSanctionRepository()
		roster = query.NewPgRosterQuery(app.SQLX())
	}

	tx, recorder := app.Transactor(), app.Recorder()
	app.RegisterServices(
		services.NewEmployeeService(employees, tx, recorder),
		services.NewRankService(employees, tx, recorder),
		services.NewUnitRoleService(roles, employees, app.Discord(), tx, recorder),
		services.NewSanctionService(sanctions, employees, tx),
		services.NewRosterService(roster),
	)

	events := app.Events()
	events.Register(func() outbox.Event { return &employee.HiredEvent{} })
	events.Register(func() outbox.Event { return &employee.RankChangedEvent{} })
	events.Register(func() outbox.Event { return &employee.TerminatedEvent{} })
	events.Register(func() outbox.Event { return &employee.UnitsSyncedEvent{} })

	var hireChannel string
	if conf := app.Config(); conf != nil {
		hireChannel = conf.Discord.HireChannelID
	}
	handlers.NewDiscordSyncHandler(
		app.Discord(),
		hireChannel,
		app.Logger().WithField("component", "hrm.discord"),
	).Subscribe(app.EventPublisher())

	app.RegisterControllers(
		controllers.NewEmployeeController(app),
		controllers.NewUnitRoleController(app),
		controllers.NewSanctionController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "hrm"
}
