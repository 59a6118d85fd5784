package conversation

import (
	"context"
	"errors"
	"time"
)

// ErrUnauthorized is returned by a PollFunc when the server rejects the
// token; the poller stops and the caller must restart the protocol with a
// fresh relay call.
var ErrUnauthorized = errors.New("poll unauthorized")

// Reply is one operator message delivered to the client.
type Reply struct {
	ID   string
	Text string
	TS   string
}

// PollFunc fetches operator replies after cursor and returns the advanced
// cursor. Transient failures are plain errors; they trigger backoff, not
// termination.
type PollFunc func(ctx context.Context, cursor string) ([]Reply, string, error)

// Poller runs the background reply loop: poll on a fixed interval, back off
// exponentially (bounded) while the backend is unhealthy, snap back to the
// base interval on the first success.
type Poller struct {
	Interval   time.Duration
	MaxBackoff time.Duration
	Poll       PollFunc
	OnReply    func(Reply)
}

const (
	defaultInterval   = 3 * time.Second
	defaultMaxBackoff = time.Minute
)

// Run polls until ctx is cancelled or the token is rejected. The cursor only
// advances on success, so replies missed during an outage are delivered on
// recovery.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	maxBackoff := p.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}

	cursor := ""
	delay := interval
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		replies, next, err := p.Poll(ctx, cursor)
		switch {
		case errors.Is(err, ErrUnauthorized):
			return ErrUnauthorized
		case err != nil:
			delay = nextDelay(delay, maxBackoff)
		default:
			for _, r := range replies {
				if p.OnReply != nil {
					p.OnReply(r)
				}
			}
			cursor = next
			delay = interval
		}
		timer.Reset(delay)
	}
}

func nextDelay(cur, max time.Duration) time.Duration {
	cur *= 2
	if cur > max {
		return max
	}
	return cur
}
