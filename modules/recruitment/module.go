package recruitment

import (
	"time"

	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
	incentiveservices "github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/modules/recruitment/domain/aggregates/application"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/blacklist"
	"github.com/iota-uz/precinct/modules/recruitment/domain/entities/config"
	"github.com/iota-uz/precinct/modules/recruitment/infrastructure/persistence"
	"github.com/iota-uz/precinct/modules/recruitment/presentation/controllers"
	"github.com/iota-uz/precinct/modules/recruitment/services"
	pkgapp "github.com/iota-uz/precinct/pkg/application"
)

// NewModule wires the application pipeline. It hires through hrm and pays
// through incentive, so both must be registered first.
func NewModule() pkgapp.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app pkgapp.Application) error {
	var (
		apps     application.Repository
		settings config.Repository
		barred   blacklist.Repository
	)
	if app.InMemory() {
		apps = persistence.NewMemoryApplicationRepository()
		settings = persistence.NewMemoryConfigRepository()
		barred = persistence.NewMemoryBlacklistRepository()
	} else {
		apps = persistence.NewApplicationRepository()
		settings = persistence.NewConfigRepository()
		barred = persistence.NewBlacklistRepository()
	}

	var (
		threshold int
		inviteTTL time.Duration
	)
	if conf := app.Config(); conf != nil {
		threshold = conf.Recruitment.QuestionThresholdPercent
		inviteTTL = conf.Recruitment.InviteTTL
	}

	app.RegisterServices(
		services.NewApplicationService(services.ApplicationServiceOptions{
			Repo:              apps,
			Configs:           settings,
			Blacklist:         barred,
			Hirer:             app.Service(hrmservices.EmployeeService{}).(*hrmservices.EmployeeService),
			Incentives:        app.Service(incentiveservices.Emitter{}).(*incentiveservices.Emitter),
			Blobs:             app.Blobs(),
			Profiles:          app.Discord(),
			Transactor:        app.Transactor(),
			QuestionThreshold: threshold,
			InviteTTL:         inviteTTL,
		}),
		services.NewConfigService(settings, barred, app.Transactor()),
	)
	app.RegisterControllers(
		controllers.NewApplicationController(app),
		controllers.NewSettingsController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "recruitment"
}
