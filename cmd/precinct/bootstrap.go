package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/precinct/modules"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/authz"
	"github.com/iota-uz/precinct/pkg/blob"
	"github.com/iota-uz/precinct/pkg/configuration"
	"github.com/iota-uz/precinct/pkg/discord"
	"github.com/iota-uz/precinct/pkg/eventbus"
)

type runtime struct {
	conf     *configuration.Configuration
	pool     *pgxpool.Pool
	app      application.Application
	resolver *authz.Resolver
}

func (r *runtime) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

func connect(ctx context.Context, conf *configuration.Configuration) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// bootstrap builds the application with every module loaded.
func bootstrap(ctx context.Context) (*runtime, error) {
	conf := configuration.Use()
	logger := conf.Logger()

	resolver, err := authz.NewResolver(authz.DefaultConfig(conf))
	if err != nil {
		return nil, fmt.Errorf("authz: %w", err)
	}

	rt := &runtime{conf: conf, resolver: resolver}
	if conf.StorageBackend == configuration.StoragePostgres {
		if rt.pool, err = connect(ctx, conf); err != nil {
			return nil, err
		}
	} else {
		logger.Warn("STORAGE_BACKEND=memory: state is lost on restart")
	}

	var gateway discord.Gateway = discord.Noop{}
	if conf.Discord.Enabled {
		gateway = discord.NewClient(conf.Discord, logger.WithField("component", "discord"))
	}

	app, err := application.New(&application.ApplicationOptions{
		Config:   conf,
		Pool:     rt.pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
		Discord:  gateway,
		Blobs:    blob.NewFSStore(conf.UploadsPath, conf.MaxUploadSize),
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	if err := modules.Load(app, modules.BuiltInModules(resolver)...); err != nil {
		rt.Close()
		return nil, fmt.Errorf("load modules: %w", err)
	}
	rt.app = app
	return rt, nil
}
