// Package notify presents notifications over whichever channels are
// configured, falling back to the in-app feed when none deliver.
package notify

import (
	"context"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/events"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
)

// Channel is one delivery backend (telegram, webhook).
type Channel interface {
	Name() string
	Send(ctx context.Context, n entities.Notification) error
}

// Gateway fans a notification out to all configured channels. A channel
// failure is logged and does not affect the other channels; nothing a
// channel does can fail the caller.
type Gateway struct {
	channels []Channel
	bus      *events.Bus
	logger   *logger.Logger
}

// NewGateway creates a gateway over the given channels. The channel list
// is fixed at startup; an unconfigured channel is simply absent.
func NewGateway(bus *events.Bus, appLogger *logger.Logger, channels ...Channel) *Gateway {
	return &Gateway{
		channels: channels,
		bus:      bus,
		logger:   appLogger.WithComponent("gateway"),
	}
}

// Send presents the notification. It returns true if at least one external
// channel accepted it; either way the notification is published to the
// in-app feed so a connected client can show a toast.
func (g *Gateway) Send(ctx context.Context, n entities.Notification) bool {
	delivered := false
	for _, ch := range g.channels {
		err := ch.Send(ctx, n)
		g.logger.LogDelivery(ch.Name(), n.Tag, err)
		if err == nil {
			delivered = true
		}
	}

	g.bus.Publish(events.TopicInAppNotification, n)
	return delivered
}

// Channels lists the active channel names, for the health endpoint.
func (g *Gateway) Channels() []string {
	names := make([]string, len(g.channels))
	for i, ch := range g.channels {
		names[i] = ch.Name()
	}
	return names
}
