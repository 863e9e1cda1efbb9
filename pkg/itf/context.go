// Package itf builds test environments: an in-memory application with
// modules registered, a tenant-scoped context and recording fakes for the
// external platform.
package itf

import (
	"context"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/blob"
	"github.com/iota-uz/precinct/pkg/composables"
	"github.com/iota-uz/precinct/pkg/configuration"
	"github.com/iota-uz/precinct/pkg/eventbus"
	"github.com/iota-uz/precinct/pkg/logging"
)

// TestContext provides a fluent API for building test environments.
type TestContext struct {
	ctx      context.Context
	modules  []application.Module
	env      map[string]string
	tenantID uuid.UUID
}

func NewTestContext() *TestContext {
	return &TestContext{
		ctx:      context.Background(),
		env:      map[string]string{},
		tenantID: uuid.New(),
	}
}

func (tc *TestContext) WithModules(modules ...application.Module) *TestContext {
	tc.modules = append(tc.modules, modules...)
	return tc
}

// WithEnv overrides a configuration variable, e.g. RECRUITMENT_QUESTION_THRESHOLD_PERCENT.
func (tc *TestContext) WithEnv(key, value string) *TestContext {
	tc.env[key] = value
	return tc
}

func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()

	conf := Config(tb, tc.env)
	discord := NewFakeDiscord()
	blobs := blob.NewMemoryStore()
	logger := logging.Nop().Logger

	app, err := application.New(&application.ApplicationOptions{
		Config:   conf,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
		Discord:  discord,
		Blobs:    blobs,
	})
	if err != nil {
		tb.Fatal(err)
	}
	for _, m := range tc.modules {
		if err := m.Register(app); err != nil {
			tb.Fatalf("register module %s: %v", m.Name(), err)
		}
	}

	ctx := composables.WithTenantID(tc.ctx, tc.tenantID)
	ctx = composables.WithLogger(ctx, logrus.NewEntry(logger))

	return &TestEnvironment{
		Ctx:      ctx,
		App:      app,
		TenantID: tc.tenantID,
		Discord:  discord,
		Blobs:    blobs,
	}
}

// Config parses configuration defaults overlaid with overrides, without
// touching the process environment or .env files.
func Config(tb testing.TB, overrides map[string]string) *configuration.Configuration {
	tb.Helper()
	conf := &configuration.Configuration{}
	if err := env.ParseWithOptions(conf, env.Options{Environment: overrides}); err != nil {
		tb.Fatal(err)
	}
	conf.StorageBackend = configuration.StorageMemory
	if err := conf.Validate(); err != nil {
		tb.Fatal(err)
	}
	return conf
}

// TestEnvironment contains all test dependencies.
type TestEnvironment struct {
	Ctx      context.Context
	App      application.Application
	TenantID uuid.UUID
	Discord  *FakeDiscord
	Blobs    *blob.MemoryStore
}

func (te *TestEnvironment) Service(service interface{}) interface{} {
	return te.App.Service(service)
}

// GetService retrieves and casts a registered service.
func GetService[T any](te *TestEnvironment) *T {
	var zero T
	return te.App.Service(zero).(*T)
}
