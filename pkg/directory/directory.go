// Package directory abstracts the messaging backend that hosts visitor
// conversation threads: create a thread in a channel, append messages to it,
// and read replies incrementally from a cursor.
package directory

import (
	"context"
	"errors"
	"fmt"
)

// RoleVisitor tags messages relayed on behalf of the visitor so polling can
// filter them out; operator posts carry no role.
const RoleVisitor = "visitor"

// Kind classifies directory failures. Callers branch on the tag, never on
// backend error text.
type Kind int

const (
	// KindUnavailable covers transport failures and unclassified backend errors.
	KindUnavailable Kind = iota
	// KindNotReady means the thread exists but is not queryable yet
	// (eventually-consistent indexing after creation). Retryable.
	KindNotReady
	// KindNotFound means the channel or thread is gone.
	KindNotFound
	// KindAuth means the backend rejected our credential.
	KindAuth
	// KindRateLimited means the backend asked us to slow down. Retryable.
	KindRateLimited
)

// Error is a tagged directory failure. Code carries the backend's enumerated
// error code (e.g. Slack's "thread_not_found") for logging.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("directory: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("directory: %s", e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err. ok is false when err carries no
// directory tag; such errors should be treated as KindUnavailable.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return KindUnavailable, false
}

// ThreadRef identifies a conversation thread inside a channel.
type ThreadRef struct {
	Channel string
	Thread  string
}

// Message is one thread entry in append order. TS is the message's position
// marker and doubles as the poll cursor; within a thread, positions are
// strictly increasing in append order.
type Message struct {
	ID        string
	Text      string
	TS        string
	Role      string
	SessionID string
}

// PostInput is the payload for a thread post: text plus sender-role metadata
// that survives the round trip through the backend.
type PostInput struct {
	Text      string
	Role      string
	SessionID string
}

// ThreadDirectory is the messaging backend contract used by the relay.
type ThreadDirectory interface {
	// CreateThread posts the header message into channel; the returned ref's
	// Thread is the new thread's root position.
	CreateThread(ctx context.Context, channel string, header PostInput) (ThreadRef, error)
	// PostMessage appends into an existing thread and returns the position of
	// the appended message.
	PostMessage(ctx context.Context, ref ThreadRef, in PostInput) (string, error)
	// Replies returns thread messages with position strictly after cursor, in
	// append order, up to limit (0 means the backend default). An empty
	// cursor reads from the beginning of the thread.
	Replies(ctx context.Context, ref ThreadRef, cursor string, limit int) ([]Message, error)
}
