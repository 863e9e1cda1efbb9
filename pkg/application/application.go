package application

import (
	"fmt"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/pkg/blob"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/configuration"
	"github.com/iota-uz/precinct/pkg/discord"
	"github.com/iota-uz/precinct/pkg/eventbus"
	"github.com/iota-uz/precinct/pkg/outbox"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Register(app Application) error
	Name() string
}

// Application is the registry modules are wired into.
type Application interface {
	Config() *configuration.Configuration
	Logger() *logrus.Logger
	DB() *pgxpool.Pool
	// SQLX wraps DB for the read-side queries. Nil with the in-memory backend.
	SQLX() *sqlx.DB
	// InMemory reports whether modules should build their in-memory
	// repositories instead of the Postgres ones.
	InMemory() bool

	EventPublisher() eventbus.EventBus
	Transactor() composables.Transactor
	Recorder() outbox.Recorder
	Events() *outbox.Registry
	Discord() discord.Gateway
	Blobs() blob.Store

	Middleware() []mux.MiddlewareFunc
	Controllers() []Controller
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}

type ApplicationOptions struct {
	Config   *configuration.Configuration
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
	Discord  discord.Gateway
	Blobs    blob.Store
}

// New builds the application. Without a pool the in-memory backend is used:
// units of work are serialized by a MemoryTransactor and events are
// delivered on the bus after commit instead of through the outbox table.
func New(opts *ApplicationOptions) (Application, error) {
	app := &application{
		conf:        opts.Config,
		pool:        opts.Pool,
		bus:         opts.EventBus,
		logger:      opts.Logger,
		gateway:     opts.Discord,
		blobs:       opts.Blobs,
		registry:    outbox.NewRegistry(),
		controllers: make(map[string]Controller),
		services:    make(map[reflect.Type]interface{}),
	}
	if app.logger == nil {
		app.logger = logrus.StandardLogger()
	}
	if app.bus == nil {
		app.bus = eventbus.NewEventPublisher(app.logger)
	}
	if app.gateway == nil {
		app.gateway = discord.Noop{}
	}
	if app.blobs == nil {
		app.blobs = blob.NewMemoryStore()
	}

	if app.pool == nil {
		app.transactor = composables.NewMemoryTransactor()
		app.recorder = outbox.NewBusRecorder(app.bus, app.logger.WithField("component", "outbox"))
		return app, nil
	}

	table := "public.precinct_outbox"
	if app.conf != nil && app.conf.Outbox.Table != "" {
		table = app.conf.Outbox.Table
	}
	ident, err := outbox.ParseIdentifier(table)
	if err != nil {
		return nil, fmt.Errorf("outbox table: %w", err)
	}
	app.transactor = composables.NewPoolTransactor()
	app.sqlx = sqlx.NewDb(stdlib.OpenDBFromPool(app.pool), "pgx")
	app.recorder = outbox.NewTxRecorder(ident, outbox.NewPublisher())
	return app, nil
}

type application struct {
	conf        *configuration.Configuration
	pool        *pgxpool.Pool
	sqlx        *sqlx.DB
	bus         eventbus.EventBus
	logger      *logrus.Logger
	gateway     discord.Gateway
	blobs       blob.Store
	transactor  composables.Transactor
	recorder    outbox.Recorder
	registry    *outbox.Registry
	services    map[reflect.Type]interface{}
	controllers map[string]Controller
	middleware  []mux.MiddlewareFunc
}

func (app *application) Config() *configuration.Configuration { return app.conf }
func (app *application) Logger() *logrus.Logger               { return app.logger }
func (app *application) DB() *pgxpool.Pool                    { return app.pool }
func (app *application) SQLX() *sqlx.DB                       { return app.sqlx }
func (app *application) InMemory() bool                       { return app.pool == nil }
func (app *application) EventPublisher() eventbus.EventBus    { return app.bus }
func (app *application) Transactor() composables.Transactor   { return app.transactor }
func (app *application) Recorder() outbox.Recorder            { return app.recorder }
func (app *application) Events() *outbox.Registry             { return app.registry }
func (app *application) Discord() discord.Gateway             { return app.gateway }
func (app *application) Blobs() blob.Store                    { return app.blobs }

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

func (app *application) Controllers() []Controller {
	controllers := make([]Controller, 0, len(app.controllers))
	for _, c := range app.controllers {
		controllers = append(controllers, c)
	}
	return controllers
}

func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		app.controllers[c.Key()] = c
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

// RegisterServices registers services by their pointer's element type.
func (app *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		app.services[reflect.TypeOf(service).Elem()] = service
	}
}

// Service retrieves a service by its value type, e.g. app.Service(services.RankService{}).
func (app *application) Service(service interface{}) interface{} {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]interface{} {
	return app.services
}
