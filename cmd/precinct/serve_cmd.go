package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/precinct/internal/server"
	"github.com/iota-uz/precinct/pkg/logging"
	"github.com/iota-uz/precinct/pkg/metrics"
	"github.com/iota-uz/precinct/pkg/outbox"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	conf, app := rt.conf, rt.app
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		cleanup := logging.SetupTracing(ctx, conf.OpenTelemetry.ServiceName, conf.OpenTelemetry.TempoURL)
		defer cleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to Tempo at " + conf.OpenTelemetry.TempoURL)
	}

	public := []string{"/health"}
	if rt.pool != nil {
		app.RegisterControllers(metrics.NewHealthController(rt.pool, conf.StorageBackend))
	} else {
		app.RegisterControllers(metrics.NewHealthController(nil, conf.StorageBackend))
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
		public = append(public, conf.Prometheus.Path)
	}

	srv, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          rt.pool,
		Resolver:      rt.resolver,
		PublicPaths:   public,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Listening on %s", conf.SocketAddress)
		return srv.Run(ctx, conf.SocketAddress)
	})
	if rt.pool != nil {
		if err := startOutbox(ctx, g, rt); err != nil {
			return err
		}
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func startOutbox(ctx context.Context, g *errgroup.Group, rt *runtime) error {
	conf := rt.conf
	log := conf.Logger().WithField("component", "outbox")
	table, err := outbox.ParseIdentifier(conf.Outbox.Table)
	if err != nil {
		return err
	}

	if conf.Outbox.RelayEnabled {
		dispatcher := outbox.NewBusDispatcher(rt.app.EventPublisher(), rt.app.Events())
		relay, err := outbox.NewRelay(rt.pool, table, dispatcher, outbox.RelayOptionsFrom(conf.Outbox, log))
		if err != nil {
			return err
		}
		g.Go(func() error { return relay.Run(ctx) })
	}
	if conf.Outbox.CleanerEnabled {
		cleaner, err := outbox.NewCleaner(rt.pool, table, outbox.CleanerOptionsFrom(conf.Outbox, log))
		if err != nil {
			return err
		}
		g.Go(func() error { return cleaner.Run(ctx) })
	}
	return nil
}
