package academy

import (
	"github.com/iota-uz/precinct/modules/academy/domain/course"
	"github.com/iota-uz/precinct/modules/academy/domain/exam"
	"github.com/iota-uz/precinct/modules/academy/domain/uprank"
	"github.com/iota-uz/precinct/modules/academy/infrastructure/persistence"
	"github.com/iota-uz/precinct/modules/academy/presentation/controllers"
	"github.com/iota-uz/precinct/modules/academy/services"
	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
	incentiveservices "github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/pkg/application"
)

// NewModule wires training, uprank requests and exams. Register it after
// hrm and incentive.
func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	var (
		modules  course.ModuleRepository
		progress course.ProgressRepository
		requests uprank.Repository
		exams    exam.Repository
	)
	if app.InMemory() {
		modules = persistence.NewMemoryModuleRepository()
		progress = persistence.NewMemoryProgressRepository()
		requests = persistence.NewMemoryUprankRepository()
		exams = persistence.NewMemoryExamRepository()
	} else {
		modules = persistence.NewModuleRepository()
		progress = persistence.NewProgressRepository()
		requests = persistence.NewUprankRepository()
		exams = persistence.NewExamRepository()
	}

	employees := app.Service(hrmservices.EmployeeService{}).(*hrmservices.EmployeeService)
	ranks := app.Service(hrmservices.RankService{}).(*hrmservices.RankService)
	emitter := app.Service(incentiveservices.Emitter{}).(*incentiveservices.Emitter)
	tx := app.Transactor()

	academySvc := services.NewAcademyService(modules, progress, employees, emitter, tx)
	app.RegisterServices(
		academySvc,
		services.NewUprankService(requests, academySvc, employees, ranks, tx),
		services.NewExamService(exams, employees, emitter, tx),
	)
	app.RegisterControllers(
		controllers.NewAcademyController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "academy"
}
