package directory

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process ThreadDirectory for development and tests. Message
// positions are zero-padded sequence numbers, so cursor ordering is plain
// string comparison.
type Memory struct {
	mu      sync.Mutex
	seq     int
	threads map[string][]Message

	// FailNext, when set, is returned by the next directory call and cleared.
	FailNext error
}

// NewMemory builds an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{threads: make(map[string][]Message)}
}

func (m *Memory) next() string {
	m.seq++
	return fmt.Sprintf("%010d", m.seq)
}

func (m *Memory) takeFault() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func threadKey(ref ThreadRef) string { return ref.Channel + "/" + ref.Thread }

func (m *Memory) CreateThread(ctx context.Context, channel string, header PostInput) (ThreadRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFault(); err != nil {
		return ThreadRef{}, err
	}
	ref := ThreadRef{Channel: channel, Thread: m.next()}
	m.threads[threadKey(ref)] = []Message{{
		ID:        ref.Thread,
		Text:      header.Text,
		TS:        ref.Thread,
		Role:      header.Role,
		SessionID: header.SessionID,
	}}
	return ref, nil
}

func (m *Memory) PostMessage(ctx context.Context, ref ThreadRef, in PostInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFault(); err != nil {
		return "", err
	}
	key := threadKey(ref)
	if _, ok := m.threads[key]; !ok {
		return "", &Error{Kind: KindNotFound, Code: "thread_not_found"}
	}
	ts := m.next()
	m.threads[key] = append(m.threads[key], Message{
		ID:        ts,
		Text:      in.Text,
		TS:        ts,
		Role:      in.Role,
		SessionID: in.SessionID,
	})
	return ts, nil
}

func (m *Memory) Replies(ctx context.Context, ref ThreadRef, cursor string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFault(); err != nil {
		return nil, err
	}
	msgs, ok := m.threads[threadKey(ref)]
	if !ok {
		return nil, &Error{Kind: KindNotFound, Code: "thread_not_found"}
	}
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.TS == ref.Thread {
			continue
		}
		if cursor != "" && msg.TS <= cursor {
			continue
		}
		out = append(out, msg)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// AppendOperator appends an operator reply directly into a thread, bypassing
// the relay path. Test hook for the polling side.
func (m *Memory) AppendOperator(ref ThreadRef, text string) string {
	ts, err := m.PostMessage(context.Background(), ref, PostInput{Text: text})
	if err != nil {
		panic(err)
	}
	return ts
}
