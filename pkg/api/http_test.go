package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"chatrelay/pkg/directory"
	"chatrelay/pkg/notify"
	"chatrelay/pkg/relay"
	"chatrelay/pkg/store"
)

type recordingNotifier struct {
	texts []string
	err   error
}

func (r *recordingNotifier) Notify(ctx context.Context, text string) error {
	r.texts = append(r.texts, text)
	return r.err
}

type fixture struct {
	router   http.Handler
	dir      *directory.Memory
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := directory.NewMemory()
	st, err := store.Open("file", filepath.Join(t.TempDir(), "content"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	n := &recordingNotifier{}
	return &fixture{
		router:   NewRouter(Deps{Relay: relay.New(dir, []byte("api-secret"), "C-OUT", relay.Options{}), Store: st, Notifier: n}),
		dir:      dir,
		notifier: n,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any, admin bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if admin {
		req.Header.Set("X-Role-Name", "admin")
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	var out map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	return rr, out
}

func TestRelayPollWireContract(t *testing.T) {
	f := newFixture(t)

	rr, out := f.do(t, http.MethodPost, "/v1/chat/relay", map[string]any{
		"message": "Hello", "sessionId": "sess-1", "timestamp": "2026-09-01T10:00:00Z",
	}, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("relay status %d: %s", rr.Code, rr.Body.String())
	}
	if out["success"] != true || out["token"] == "" || out["threadId"] == "" {
		t.Fatalf("relay response %v", out)
	}
	tok := out["token"].(string)
	threadID := out["threadId"].(string)

	f.dir.AppendOperator(directory.ThreadRef{Channel: "C-OUT", Thread: threadID}, "Hi there")

	rr, out = f.do(t, http.MethodGet, "/v1/chat/poll?token="+tok, nil, false)
	if rr.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("poll status %d: %s", rr.Code, rr.Body.String())
	}
	msgs := out["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages %v", msgs)
	}
	cursor := out["cursor"].(string)

	// Re-poll with the advanced cursor: empty window, same cursor.
	rr, out = f.do(t, http.MethodGet, "/v1/chat/poll?token="+tok+"&cursor="+cursor, nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("re-poll status %d", rr.Code)
	}
	if len(out["messages"].([]any)) != 0 || out["cursor"] != cursor {
		t.Fatalf("re-poll response %v", out)
	}
}

func TestRelayErrorStatuses(t *testing.T) {
	f := newFixture(t)

	rr, _ := f.do(t, http.MethodPost, "/v1/chat/relay", map[string]any{"message": "", "sessionId": "s"}, false)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty message status %d", rr.Code)
	}

	f.dir.FailNext = &directory.Error{Kind: directory.KindUnavailable, Code: "boom"}
	rr, _ = f.do(t, http.MethodPost, "/v1/chat/relay", map[string]any{"message": "hi", "sessionId": "s2"}, false)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("backend failure status %d", rr.Code)
	}

	rr, _ = f.do(t, http.MethodGet, "/v1/chat/poll?token=bogus", nil, false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status %d", rr.Code)
	}
}

func TestPollTransientIsRetryTrue(t *testing.T) {
	f := newFixture(t)
	_, out := f.do(t, http.MethodPost, "/v1/chat/relay", map[string]any{"message": "hi", "sessionId": "s"}, false)
	tok := out["token"].(string)

	f.dir.FailNext = &directory.Error{Kind: directory.KindNotReady, Code: "thread_not_found"}
	rr, out := f.do(t, http.MethodGet, "/v1/chat/poll?token="+tok, nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("transient poll status %d", rr.Code)
	}
	if out["success"] != false || out["retry"] != true {
		t.Fatalf("transient poll response %v", out)
	}
}

func TestNotConfiguredIs500(t *testing.T) {
	f := newFixture(t)
	router := NewRouter(Deps{
		Relay:    relay.New(f.dir, nil, "", relay.Options{}),
		Store:    nil,
		Notifier: notify.Noop{},
	})
	body := bytes.NewBufferString(`{"message":"hi","sessionId":"s"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/relay", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestLeadCapture(t *testing.T) {
	f := newFixture(t)

	rr, out := f.do(t, http.MethodPost, "/v1/leads", map[string]any{
		"name": "Jane", "email": "jane@example.com", "company": "Acme", "message": "Need a site",
	}, false)
	if rr.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("lead status %d: %s", rr.Code, rr.Body.String())
	}
	if len(f.notifier.texts) != 1 {
		t.Fatalf("notifications %v", f.notifier.texts)
	}

	rr, _ = f.do(t, http.MethodPost, "/v1/leads", map[string]any{"name": "", "email": "jane@example.com"}, false)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid lead status %d", rr.Code)
	}
	if len(f.notifier.texts) != 1 {
		t.Fatal("invalid lead must not notify")
	}
}

func TestAdminContentCRUD(t *testing.T) {
	f := newFixture(t)

	// Role header is required even on a bare router.
	rr, _ := f.do(t, http.MethodGet, "/v1/admin/content/projects", nil, false)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("no role status %d", rr.Code)
	}

	rr, _ = f.do(t, http.MethodPut, "/v1/admin/content/projects/p1", map[string]any{"title": "Relaunch"}, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status %d: %s", rr.Code, rr.Body.String())
	}

	rr, out := f.do(t, http.MethodGet, "/v1/admin/content/projects", nil, true)
	if rr.Code != http.StatusOK || len(out["items"].([]any)) != 1 {
		t.Fatalf("list: %s", rr.Body.String())
	}

	rr, _ = f.do(t, http.MethodGet, "/v1/admin/content/projects/p1", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status %d", rr.Code)
	}

	// Unknown kinds are rejected.
	rr, _ = f.do(t, http.MethodPut, "/v1/admin/content/secrets/s1", map[string]any{}, true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown kind status %d", rr.Code)
	}

	rr, out = f.do(t, http.MethodGet, "/v1/admin/stats", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats status %d", rr.Code)
	}
	counts := out["counts"].(map[string]any)
	if counts["projects"].(float64) != 1 {
		t.Fatalf("stats %v", counts)
	}

	rr, _ = f.do(t, http.MethodDelete, "/v1/admin/content/projects/p1", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status %d", rr.Code)
	}
	rr, _ = f.do(t, http.MethodGet, "/v1/admin/content/projects/p1", nil, true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete status %d", rr.Code)
	}
}
