package finance

import (
	"github.com/iota-uz/precinct/modules/finance/domain/aggregates/treasury"
	"github.com/iota-uz/precinct/modules/finance/infrastructure/persistence"
	"github.com/iota-uz/precinct/modules/finance/infrastructure/query"
	"github.com/iota-uz/precinct/modules/finance/presentation/controllers"
	"github.com/iota-uz/precinct/modules/finance/services"
	"github.com/iota-uz/precinct/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	var (
		repo      treasury.Repository
		summaries query.SummaryReader
	)
	if app.InMemory() {
		repo = persistence.NewMemoryTreasuryRepository()
		summaries = query.NewRepositorySummaryQuery(repo)
	} else {
		repo = persistence.NewTreasuryRepository()
		summaries = query.NewPgSummaryQuery(app.SQLX())
	}

	treasurySvc := services.NewTreasuryService(repo, summaries, app.Transactor())
	app.RegisterServices(
		treasurySvc,
		services.NewExportService(treasurySvc),
	)
	app.RegisterControllers(
		controllers.NewTreasuryController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "finance"
}
