package core

import (
	"github.com/iota-uz/precinct/modules/core/domain/entities/assignment"
	"github.com/iota-uz/precinct/modules/core/infrastructure/persistence"
	"github.com/iota-uz/precinct/modules/core/presentation/controllers"
	"github.com/iota-uz/precinct/modules/core/services"
	hrmservices "github.com/iota-uz/precinct/modules/hrm/services"
	"github.com/iota-uz/precinct/pkg/application"
)

// NewModule wires role assignments and the actor directory. It must be
// registered after the hrm module.
func NewModule(catalog services.RoleCatalog) application.Module {
	return &Module{catalog: catalog}
}

type Module struct {
	catalog services.RoleCatalog
}

func (m *Module) Register(app application.Application) error {
	var roles assignment.Repository
	if app.InMemory() {
		roles = persistence.NewMemoryAssignmentRepository()
	} else {
		roles = persistence.NewAssignmentRepository()
	}
	employees := app.Service(hrmservices.EmployeeService{}).(*hrmservices.EmployeeService)

	app.RegisterServices(
		services.NewRoleService(roles, m.catalog, app.Transactor()),
		services.NewActorDirectory(roles, employees, app.Transactor()),
	)
	app.RegisterControllers(
		controllers.NewRoleController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "core"
}
