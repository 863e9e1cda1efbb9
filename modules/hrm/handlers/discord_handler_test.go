package handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/pkg/eventbus"
	"github.com/iota-uz/precinct/pkg/itf"
	"github.com/iota-uz/precinct/pkg/logging"
	"github.com/iota-uz/precinct/pkg/outbox"
)

func newBus(t *testing.T, hireChannel string) (eventbus.EventBus, *itf.FakeDiscord) {
	t.Helper()
	fake := itf.NewFakeDiscord()
	bus := eventbus.NewEventPublisher(logging.Nop().Logger)
	NewDiscordSyncHandler(fake, hireChannel, logging.Nop()).Subscribe(bus)
	return bus, fake
}

func TestDiscordSyncHandler_RankChangedRenamesMember(t *testing.T) {
	bus, fake := newBus(t, "")
	err := bus.PublishE(context.Background(), &outbox.Meta{Topic: employee.TopicRankChanged}, &employee.RankChangedEvent{
		EmployeeID:  uuid.New(),
		DiscordID:   "42",
		DisplayName: "Jane Doe",
		NewLevel:    6,
		BadgeNumber: "S-04",
		TeamChanged: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "[S-04] Jane Doe", fake.DisplayName("42"))
}

func TestDiscordSyncHandler_HiredAnnouncesWhenChannelSet(t *testing.T) {
	bus, fake := newBus(t, "chan-1")
	err := bus.PublishE(context.Background(), &outbox.Meta{}, &employee.HiredEvent{
		DiscordID:   "43",
		DisplayName: "John Roe",
		BadgeNumber: "G-01",
		RankName:    "Cadet",
	})
	require.NoError(t, err)
	assert.Equal(t, "[G-01] John Roe", fake.DisplayName("43"))
	require.Len(t, fake.Announcements(), 1)
	assert.Contains(t, fake.Announcements()[0], "badge G-01")
}

func TestDiscordSyncHandler_TerminatedKicks(t *testing.T) {
	bus, fake := newBus(t, "")
	err := bus.PublishE(context.Background(), &outbox.Meta{}, &employee.TerminatedEvent{DiscordID: "44", Reason: "misconduct"})
	require.NoError(t, err)
	assert.Equal(t, []string{"44"}, fake.Kicked())
}
