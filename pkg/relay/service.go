// Package relay orchestrates the session-token chat protocol: it turns a
// visitor message into a conversation-thread post, mints refreshed capability
// tokens, and serves cursor-based polls for operator replies.
package relay

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"chatrelay/pkg/directory"
	"chatrelay/pkg/logger"
	"chatrelay/pkg/token"
)

const (
	// DefaultMaxMessageLen caps relayed message length in runes.
	DefaultMaxMessageLen = 2000
	// DefaultPollLimit bounds one poll's directory read.
	DefaultPollLimit = 200

	defaultIdempotencyTTL  = 30 * time.Second
	defaultIdempotencySize = 4096
)

// Service is the stateless relay orchestrator. The signing secret and the
// per-session creation cache are its only server-side state; the capability
// token held by the client is the durable record of a thread binding.
type Service struct {
	dir     directory.ThreadDirectory
	secret  []byte
	channel string

	maxLen    int
	pollLimit int
	sessions  *sessionCache
}

// Options tunes a Service; zero values select the defaults.
type Options struct {
	MaxMessageLen  int
	PollLimit      int
	IdempotencyTTL time.Duration
}

// New builds a relay service posting into channel via dir, signing tokens
// with secret.
func New(dir directory.ThreadDirectory, secret []byte, channel string, opts Options) *Service {
	if opts.MaxMessageLen <= 0 {
		opts.MaxMessageLen = DefaultMaxMessageLen
	}
	if opts.PollLimit <= 0 {
		opts.PollLimit = DefaultPollLimit
	}
	if opts.IdempotencyTTL <= 0 {
		opts.IdempotencyTTL = defaultIdempotencyTTL
	}
	return &Service{
		dir:       dir,
		secret:    secret,
		channel:   channel,
		maxLen:    opts.MaxMessageLen,
		pollLimit: opts.PollLimit,
		sessions:  newSessionCache(opts.IdempotencyTTL, defaultIdempotencySize),
	}
}

// RelayInput is one visitor message submission.
type RelayInput struct {
	Message   string
	SessionID string
	Token     string
	Timestamp string
	PageURL   string
}

// RelayResult carries the refreshed capability back to the client.
type RelayResult struct {
	Token    string
	ThreadID string
}

// Relay validates the message, binds the session to its thread (creating one
// lazily on first contact), posts the message tagged with the visitor role,
// and returns a re-minted token. Directory failures are not retried here;
// retry is the caller's decision.
func (s *Service) Relay(ctx context.Context, in RelayInput) (RelayResult, error) {
	if err := s.configured(); err != nil {
		return RelayResult{}, err
	}
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return RelayResult{}, errf(CodeInvalidInput, "empty message", nil)
	}
	if utf8.RuneCountInString(msg) > s.maxLen {
		return RelayResult{}, errf(CodeInvalidInput, fmt.Sprintf("message exceeds %d characters", s.maxLen), nil)
	}
	if strings.TrimSpace(in.SessionID) == "" {
		return RelayResult{}, errf(CodeInvalidInput, "missing session id", nil)
	}

	ref, ok := s.bindingFromToken(in.Token, in.SessionID)
	if !ok {
		var err error
		ref, err = s.sessions.bind(ctx, in.SessionID, func() (directory.ThreadRef, error) {
			return s.createThread(ctx, in)
		})
		if err != nil {
			if _, tagged := err.(*Error); tagged {
				return RelayResult{}, err
			}
			logger.Error("thread create failed", "session", in.SessionID, "err", err.Error())
			return RelayResult{}, errf(CodeRelayUnavailable, "chat backend unavailable", err)
		}
	}

	if _, err := s.dir.PostMessage(ctx, ref, directory.PostInput{
		Text:      msg,
		Role:      directory.RoleVisitor,
		SessionID: in.SessionID,
	}); err != nil {
		logger.Error("relay post failed", "session", in.SessionID, "thread", ref.Thread, "err", err.Error())
		return RelayResult{}, errf(CodeRelayUnavailable, "chat backend unavailable", err)
	}

	tok, err := token.Sign(token.Claims{
		SessionID: in.SessionID,
		ChannelID: ref.Channel,
		ThreadID:  ref.Thread,
	}, s.secret)
	if err != nil {
		return RelayResult{}, errf(CodeNotConfigured, "chat relay not configured", err)
	}
	return RelayResult{Token: tok, ThreadID: ref.Thread}, nil
}

// bindingFromToken recovers the thread binding from a presented token. A
// token that fails verification or is bound to a different session is treated
// as absent, never as an error.
func (s *Service) bindingFromToken(tok, sessionID string) (directory.ThreadRef, bool) {
	if tok == "" {
		return directory.ThreadRef{}, false
	}
	claims, ok := token.Verify(tok, s.secret)
	if !ok || claims.SessionID != sessionID {
		return directory.ThreadRef{}, false
	}
	return directory.ThreadRef{Channel: claims.ChannelID, Thread: claims.ThreadID}, true
}

func (s *Service) createThread(ctx context.Context, in RelayInput) (directory.ThreadRef, error) {
	started := in.Timestamp
	if started == "" {
		started = time.Now().UTC().Format(time.RFC3339)
	}
	header := fmt.Sprintf("New chat session %s started %s", in.SessionID, started)
	if in.PageURL != "" {
		header += fmt.Sprintf(" (page: %s)", in.PageURL)
	}
	return s.dir.CreateThread(ctx, s.channel, directory.PostInput{
		Text:      header,
		Role:      directory.RoleVisitor,
		SessionID: in.SessionID,
	})
}

// ReplyMessage is one operator reply delivered to the client.
type ReplyMessage struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	TS   string `json:"ts"`
}

// PollResult is the undelivered-replies window plus the advanced cursor.
type PollResult struct {
	Messages []ReplyMessage
	Cursor   string
}

// Poll returns operator replies positioned strictly after cursor, in append
// order, and the cursor to use next. Visitor-authored messages are filtered
// out; the cursor only advances past messages actually returned.
func (s *Service) Poll(ctx context.Context, tok, cursor string) (PollResult, error) {
	if err := s.configured(); err != nil {
		return PollResult{}, err
	}
	claims, ok := token.Verify(tok, s.secret)
	if !ok {
		return PollResult{}, errf(CodeUnauthorized, "invalid token", nil)
	}
	ref := directory.ThreadRef{Channel: claims.ChannelID, Thread: claims.ThreadID}

	msgs, err := s.dir.Replies(ctx, ref, cursor, s.pollLimit)
	if err != nil {
		return PollResult{}, mapPollErr(err, claims.SessionID)
	}

	out := PollResult{Messages: []ReplyMessage{}, Cursor: cursor}
	for _, m := range msgs {
		if m.Role == directory.RoleVisitor {
			continue
		}
		out.Messages = append(out.Messages, ReplyMessage{ID: m.ID, Text: m.Text, TS: m.TS})
		out.Cursor = m.TS
	}
	return out, nil
}

func mapPollErr(err error, session string) error {
	kind, _ := directory.KindOf(err)
	switch kind {
	case directory.KindNotReady, directory.KindRateLimited:
		return errf(CodeRetry, "thread not ready", err)
	case directory.KindNotFound:
		return errf(CodeUnauthorized, "conversation no longer available", err)
	default:
		logger.Error("poll failed", "session", session, "err", err.Error())
		return errf(CodePollUnavailable, "chat backend unavailable", err)
	}
}

func (s *Service) configured() error {
	if len(s.secret) == 0 || s.channel == "" {
		return errf(CodeNotConfigured, "chat relay not configured", nil)
	}
	return nil
}
