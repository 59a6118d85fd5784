package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPollerDeliversAndAdvancesCursor(t *testing.T) {
	var mu sync.Mutex
	var got []string
	var cursors []string

	batches := [][]Reply{
		{{ID: "1", Text: "hello", TS: "1"}},
		{},
		{{ID: "2", Text: "two", TS: "2"}, {ID: "3", Text: "three", TS: "3"}},
	}
	call := 0
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		Interval: time.Millisecond,
		Poll: func(ctx context.Context, cursor string) ([]Reply, string, error) {
			mu.Lock()
			defer mu.Unlock()
			cursors = append(cursors, cursor)
			if call >= len(batches) {
				cancel()
				return nil, cursor, nil
			}
			b := batches[call]
			call++
			next := cursor
			if len(b) > 0 {
				next = b[len(b)-1].TS
			}
			return b, next, nil
		},
		OnReply: func(r Reply) {
			mu.Lock()
			got = append(got, r.Text)
			mu.Unlock()
		},
	}

	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{"hello", "two", "three"}, got)
	// Cursor carried between calls: "", then "1", unchanged across the empty
	// batch, then "3".
	require.Equal(t, []string{"", "1", "1", "3"}, cursors[:4])
}

func TestPollerStopsOnUnauthorized(t *testing.T) {
	p := &Poller{
		Interval: time.Millisecond,
		Poll: func(ctx context.Context, cursor string) ([]Reply, string, error) {
			return nil, "", ErrUnauthorized
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.ErrorIs(t, p.Run(ctx), ErrUnauthorized)
}

func TestPollerBacksOffThenRecovers(t *testing.T) {
	var mu sync.Mutex
	var calls int
	var delivered []string
	ctx, cancel := context.WithCancel(context.Background())

	p := &Poller{
		Interval: time.Millisecond,
		Poll: func(ctx context.Context, cursor string) ([]Reply, string, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls <= 3 {
				return nil, "", errors.New("backend down")
			}
			cancel()
			return []Reply{{ID: "1", Text: "back", TS: "1"}}, "1", nil
		},
		OnReply: func(r Reply) {
			mu.Lock()
			delivered = append(delivered, r.Text)
			mu.Unlock()
		},
	}
	require.ErrorIs(t, p.Run(ctx), context.Canceled)
	require.Equal(t, []string{"back"}, delivered)
}

func TestNextDelayBounded(t *testing.T) {
	max := 8 * time.Second
	d := time.Second
	seen := []time.Duration{}
	for i := 0; i < 6; i++ {
		d = nextDelay(d, max)
		seen = append(seen, d)
	}
	require.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second,
		8 * time.Second, 8 * time.Second, 8 * time.Second,
	}, seen)
}
