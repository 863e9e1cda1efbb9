package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	academyservices "github.com/iota-uz/precinct/modules/academy/services"
	coreservices "github.com/iota-uz/precinct/modules/core/services"
	financeservices "github.com/iota-uz/precinct/modules/finance/services"
	"github.com/iota-uz/precinct/pkg/application"
	"github.com/iota-uz/precinct/pkg/logging"
)

type anyRole struct{}

func (anyRole) HasRole(string) bool { return true }

func TestBuiltInModules_LoadInMemory(t *testing.T) {
	app, err := application.New(&application.ApplicationOptions{Logger: logging.Nop().Logger})
	require.NoError(t, err)
	require.True(t, app.InMemory())

	require.NoError(t, Load(app, BuiltInModules(anyRole{})...))

	assert.NotPanics(t, func() {
		_ = app.Service(coreservices.ActorDirectory{}).(*coreservices.ActorDirectory)
		_ = app.Service(academyservices.UprankService{}).(*academyservices.UprankService)
		_ = app.Service(financeservices.TreasuryService{}).(*financeservices.TreasuryService)
	})

	keys := make(map[string]bool)
	for _, c := range app.Controllers() {
		keys[c.Key()] = true
	}
	assert.True(t, keys["/api/v1/academy"])
	assert.True(t, keys["/api/v1/finance/treasury"])
}
