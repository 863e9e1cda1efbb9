package handlers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/precinct/pkg/discord"
	"github.com/iota-uz/precinct/pkg/eventbus"
	"github.com/iota-uz/precinct/pkg/outbox"
)

// DiscordSyncHandler mirrors committed personnel changes onto the guild.
// Returned errors make the relay retry the event.
type DiscordSyncHandler struct {
	gateway       discord.Gateway
	hireChannelID string
	logger        *logrus.Entry
}

func NewDiscordSyncHandler(gateway discord.Gateway, hireChannelID string, logger *logrus.Entry) *DiscordSyncHandler {
	return &DiscordSyncHandler{
		gateway:       gateway,
		hireChannelID: hireChannelID,
		logger:        logger.WithField("component", "hrm.discord_sync"),
	}
}

func (h *DiscordSyncHandler) Subscribe(bus eventbus.EventBus) {
	bus.Subscribe(h.onHired)
	bus.Subscribe(h.onRankChanged)
	bus.Subscribe(h.onTerminated)
}

func (h *DiscordSyncHandler) onHired(ctx context.Context, meta *outbox.Meta, ev *employee.HiredEvent) error {
	name := "[" + ev.BadgeNumber + "] " + ev.DisplayName
	if err := h.gateway.UpdateDisplayName(ctx, ev.DiscordID, name); err != nil {
		h.fail(meta, err).Warn("profile sync after hire failed")
		return err
	}
	if h.hireChannelID == "" {
		return nil
	}
	msg := fmt.Sprintf("Welcome <@%s> to the department as %s, badge %s.", ev.DiscordID, ev.RankName, ev.BadgeNumber)
	if err := h.gateway.Announce(ctx, h.hireChannelID, msg); err != nil {
		// The profile is already synced; a lost announcement is not retried.
		h.fail(meta, err).Warn("hire announcement failed")
	}
	return nil
}

func (h *DiscordSyncHandler) onRankChanged(ctx context.Context, meta *outbox.Meta, ev *employee.RankChangedEvent) error {
	if err := h.gateway.UpdateDisplayName(ctx, ev.DiscordID, ev.ProfileName()); err != nil {
		h.fail(meta, err).Warn("profile sync after rank change failed")
		return err
	}
	return nil
}

func (h *DiscordSyncHandler) onTerminated(ctx context.Context, meta *outbox.Meta, ev *employee.TerminatedEvent) error {
	if err := h.gateway.KickMember(ctx, ev.DiscordID, ev.Reason); err != nil {
		h.fail(meta, err).Warn("kick after termination failed")
		return err
	}
	return nil
}

func (h *DiscordSyncHandler) fail(meta *outbox.Meta, err error) *logrus.Entry {
	entry := h.logger.WithError(err)
	if meta != nil {
		entry = entry.WithFields(logrus.Fields{
			"topic":    meta.Topic,
			"event_id": meta.EventID.String(),
			"attempts": meta.Attempts,
		})
	}
	return entry
}
