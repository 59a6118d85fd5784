package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chatrelay/pkg/metrics"
)

// DefaultSlackAPIBase is the production Slack Web API root.
const DefaultSlackAPIBase = "https://slack.com/api"

// metadataEventType tags messages posted by the relay so role and session
// survive the round trip through Slack.
const metadataEventType = "chat_relay_message"

// Slack implements ThreadDirectory on the Slack Web API. Threads map to
// message threads in a channel; the thread id is the root message's ts.
type Slack struct {
	token string
	base  string
	httpc *http.Client
}

// SlackOption customises a Slack client.
type SlackOption func(*Slack)

// WithAPIBase points the client at an alternate API root (tests).
func WithAPIBase(base string) SlackOption {
	return func(s *Slack) { s.base = strings.TrimRight(base, "/") }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(c *http.Client) SlackOption {
	return func(s *Slack) { s.httpc = c }
}

// NewSlack builds a Slack-backed thread directory using a bot token.
func NewSlack(token string, opts ...SlackOption) *Slack {
	s := &Slack{
		token: token,
		base:  DefaultSlackAPIBase,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type slackMetadata struct {
	EventType    string            `json:"event_type"`
	EventPayload map[string]string `json:"event_payload"`
}

type postMessageRequest struct {
	Channel  string         `json:"channel"`
	Text     string         `json:"text"`
	ThreadTS string         `json:"thread_ts,omitempty"`
	Metadata *slackMetadata `json:"metadata,omitempty"`
}

type postMessageResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

type repliesMessage struct {
	TS       string        `json:"ts"`
	Text     string        `json:"text"`
	Metadata slackMetadata `json:"metadata"`
}

type repliesResponse struct {
	OK       bool             `json:"ok"`
	Error    string           `json:"error"`
	Messages []repliesMessage `json:"messages"`
}

// CreateThread posts the header message to channel; the returned ref carries
// the canonical channel id and the root ts as the thread id.
func (s *Slack) CreateThread(ctx context.Context, channel string, header PostInput) (ThreadRef, error) {
	defer metrics.ObserveDirectory("create_thread", time.Now())
	out, err := s.postMessage(ctx, channel, "", header)
	if err != nil {
		return ThreadRef{}, err
	}
	metrics.ThreadsCreated.Inc()
	return ThreadRef{Channel: out.Channel, Thread: out.TS}, nil
}

// PostMessage appends into ref's thread and returns the new message's ts.
func (s *Slack) PostMessage(ctx context.Context, ref ThreadRef, in PostInput) (string, error) {
	defer metrics.ObserveDirectory("post_message", time.Now())
	out, err := s.postMessage(ctx, ref.Channel, ref.Thread, in)
	if err != nil {
		return "", err
	}
	return out.TS, nil
}

// Announce posts a standalone channel message outside any thread. Used for
// operator notifications (new leads).
func (s *Slack) Announce(ctx context.Context, channel, text string) error {
	defer metrics.ObserveDirectory("announce", time.Now())
	_, err := s.postMessage(ctx, channel, "", PostInput{Text: text})
	return err
}

func (s *Slack) postMessage(ctx context.Context, channel, threadTS string, in PostInput) (postMessageResponse, error) {
	req := postMessageRequest{Channel: channel, Text: in.Text, ThreadTS: threadTS}
	if in.Role != "" {
		req.Metadata = &slackMetadata{
			EventType: metadataEventType,
			EventPayload: map[string]string{
				"role":       in.Role,
				"session_id": in.SessionID,
			},
		}
	}
	var out postMessageResponse
	if err := s.post(ctx, "chat.postMessage", req, &out); err != nil {
		return postMessageResponse{}, err
	}
	if !out.OK {
		return postMessageResponse{}, classify(out.Error)
	}
	return out, nil
}

// Replies fetches thread messages strictly after cursor in append order. The
// parent message is filtered out; Slack returns it regardless of oldest.
func (s *Slack) Replies(ctx context.Context, ref ThreadRef, cursor string, limit int) ([]Message, error) {
	defer metrics.ObserveDirectory("replies", time.Now())
	q := url.Values{}
	q.Set("channel", ref.Channel)
	q.Set("ts", ref.Thread)
	q.Set("include_all_metadata", "true")
	if cursor != "" {
		q.Set("oldest", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out repliesResponse
	if err := s.get(ctx, "conversations.replies", q, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, classify(out.Error)
	}
	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		if m.TS == ref.Thread {
			continue
		}
		// oldest is inclusive on exact ts matches; the cursor itself has
		// already been delivered.
		if cursor != "" && !tsAfter(m.TS, cursor) {
			continue
		}
		msg := Message{ID: m.TS, TS: m.TS, Text: m.Text}
		if m.Metadata.EventType == metadataEventType {
			msg.Role = m.Metadata.EventPayload["role"]
			msg.SessionID = m.Metadata.EventPayload["session_id"]
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *Slack) post(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Kind: KindUnavailable, Code: "encode", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/"+method, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindUnavailable, Code: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return s.do(req, out)
}

func (s *Slack) get(ctx context.Context, method string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/"+method+"?"+q.Encode(), nil)
	if err != nil {
		return &Error{Kind: KindUnavailable, Code: "request", Err: err}
	}
	return s.do(req, out)
}

func (s *Slack) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+s.token)
	resp, err := s.httpc.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Code: "transport", Err: err}
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Code: "http_429", Err: retryAfterErr(resp)}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindUnavailable, Code: fmt.Sprintf("http_%d", resp.StatusCode)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindUnavailable, Code: "bad_response", Err: err}
	}
	return nil
}

func retryAfterErr(resp *http.Response) error {
	if v := resp.Header.Get("Retry-After"); v != "" {
		return fmt.Errorf("retry after %ss", v)
	}
	return nil
}

// classify maps Slack's enumerated error codes onto failure kinds. Unknown
// codes degrade to KindUnavailable; free-form error text is never inspected.
func classify(code string) *Error {
	switch code {
	case "thread_not_found", "message_not_found":
		return &Error{Kind: KindNotReady, Code: code}
	case "channel_not_found", "is_archived":
		return &Error{Kind: KindNotFound, Code: code}
	case "invalid_auth", "not_authed", "account_inactive", "token_revoked", "missing_scope":
		return &Error{Kind: KindAuth, Code: code}
	case "ratelimited", "rate_limited":
		return &Error{Kind: KindRateLimited, Code: code}
	default:
		return &Error{Kind: KindUnavailable, Code: code}
	}
}

// tsAfter reports whether Slack timestamp a sorts strictly after b. Both look
// like "1712345678.000100"; compare numerically to avoid float rounding.
func tsAfter(a, b string) bool {
	as, af, _ := strings.Cut(a, ".")
	bs, bf, _ := strings.Cut(b, ".")
	ai, _ := strconv.ParseInt(as, 10, 64)
	bi, _ := strconv.ParseInt(bs, 10, 64)
	if ai != bi {
		return ai > bi
	}
	return pad(af) > pad(bf)
}

func pad(frac string) string {
	if len(frac) >= 9 {
		return frac
	}
	return frac + strings.Repeat("0", 9-len(frac))
}
