// Package notify forwards formatted operator notifications (lead
// submissions) to the outbound channel.
package notify

import (
	"context"

	"chatrelay/pkg/logger"
)

// Notifier delivers one text notification to the operator channel.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Announcer is the channel-broadcast capability of the Slack directory
// client.
type Announcer interface {
	Announce(ctx context.Context, channel, text string) error
}

// Channel posts notifications as standalone messages into a fixed channel.
type Channel struct {
	ann     Announcer
	channel string
}

// NewChannel builds a notifier posting into channel via ann.
func NewChannel(ann Announcer, channel string) *Channel {
	return &Channel{ann: ann, channel: channel}
}

func (c *Channel) Notify(ctx context.Context, text string) error {
	if err := c.ann.Announce(ctx, c.channel, text); err != nil {
		logger.Error("notification failed", "channel", c.channel, "err", err.Error())
		return err
	}
	return nil
}

// Noop drops notifications. Used when no outbound channel is configured.
type Noop struct{}

func (Noop) Notify(context.Context, string) error { return nil }
