package server

import (
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	coreservices "github.com/iota-uz/precinct/modules/core/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/configuration"
	"github.com/iota-uz/precinct/pkg/middleware"
	"github.com/iota-uz/precinct/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
	Resolver      middleware.CapabilityResolver
	// Paths served without tenant or actor, e.g. /health.
	PublicPaths []string
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	// Core middleware stack with tracing capabilities
	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, middleware.DefaultLoggerOptions()), // creates the root span for each request

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.Origin),

		middleware.TracedMiddleware("opsGuard"),
		middleware.OpsGuard(conf.OpsGuard, conf.Prometheus.Path),
	}

	if conf.RateLimit.Enabled {
		var store limiter.Store
		var err error

		switch conf.RateLimit.Storage {
		case "redis":
			store, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				store = middleware.NewMemoryStore()
			}
		default:
			store = middleware.NewMemoryStore()
		}

		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Store:             store,
			}),
		)
	}

	directory := app.Service(coreservices.ActorDirectory{}).(*coreservices.ActorDirectory)
	middlewares = append(middlewares,
		middleware.Timeout(conf.RequestTimeout),
		middleware.TracedMiddleware("database"),
		middleware.ProvidePool(options.Pool),
		middleware.TracedMiddleware("tenant"),
		middleware.Except(options.PublicPaths, middleware.RequireTenant(conf.Authz.TenantHeader, conf.TenantID())),
		middleware.TracedMiddleware("actor"),
		middleware.Except(options.PublicPaths, middleware.ResolveActor(directory, options.Resolver, middleware.ActorOptions{
			Header:        conf.Authz.ActorHeader,
			Superusers:    conf.Authz.Superusers,
			SuperuserRole: conf.Authz.SuperuserRole,
		})),
	)

	app.RegisterMiddleware(middlewares...)
	return server.NewHTTPServer(app, nil, nil), nil
}
