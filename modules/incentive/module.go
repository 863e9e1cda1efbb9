package incentive

import (
	"github.com/shopspring/decimal"

	"github.com/iota-uz/precinct/modules/incentive/domain/payment"
	"github.com/iota-uz/precinct/modules/incentive/handlers"
	"github.com/iota-uz/precinct/modules/incentive/infrastructure/persistence"
	"github.com/iota-uz/precinct/modules/incentive/presentation/controllers"
	"github.com/iota-uz/precinct/modules/incentive/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/outbox"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	rates := map[string]decimal.Decimal{}
	if conf := app.Config(); conf != nil {
		var err error
		if rates, err = conf.Incentive.Rates(); err != nil {
			return err
		}
	}

	var repo payment.Repository
	if app.InMemory() {
		repo = persistence.NewMemoryPaymentRepository()
	} else {
		repo = persistence.NewPaymentRepository()
	}
	payments := services.NewPaymentService(repo, rates, app.Transactor())
	app.RegisterServices(
		services.NewEmitter(app.Recorder()),
		payments,
	)

	app.Events().Register(func() outbox.Event { return &payment.TriggeredEvent{} })
	handlers.NewPaymentHandler(payments, app.Logger().WithField("module", "incentive")).Subscribe(app.EventPublisher())

	app.RegisterControllers(
		controllers.NewIncentiveController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "incentive"
}
