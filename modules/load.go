package modules

import (
	"github.com/iota-uz/precinct/modules/academy"
	"github.com/iota-uz/precinct/modules/core"
	"github.com/iota-uz/precinct/modules/core/services"
	"github.com/iota-uz/precinct/modules/finance"
	"github.com/iota-uz/precinct/modules/hrm"
	"github.com/iota-uz/precinct/modules/incentive"
	"github.com/iota-uz/precinct/modules/recruitment"
	"github.com/iota-uz/precinct/pkg/application"
)

// BuiltInModules returns every module in registration order. Later modules
// look up services registered by earlier ones.
func BuiltInModules(catalog services.RoleCatalog) []application.Module {
	return []application.Module{
		hrm.NewModule(),
		core.NewModule(catalog),
		incentive.NewModule(),
		recruitment.NewModule(),
		academy.NewModule(),
		finance.NewModule(),
	}
}

func Load(app application.Application, modules ...application.Module) error {
	for _, module := range modules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
