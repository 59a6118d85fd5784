package conversation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	s := State{
		Version: StateVersion, SessionID: "sess-1", Token: "tok.sig",
		QuestionnaireComplete: true,
		Answers:               []string{"New website"},
		Name:                  "Jane", Email: "jane@example.com",
	}
	got, ok := DecodeState(s.Encode())
	require.True(t, ok)
	require.Equal(t, s, got)
}

func TestDecodeStateFallsBackFresh(t *testing.T) {
	cases := map[string][]byte{
		"corrupt":         []byte("{not json"),
		"empty":           nil,
		"unknown version": []byte(`{"version":99,"sessionId":"s","token":"t"}`),
		"pre-versioning":  []byte(`{"sessionId":"s","token":"t"}`),
		"missing session": []byte(`{"version":1,"token":"t"}`),
	}
	for name, data := range cases {
		got, ok := DecodeState(data)
		require.False(t, ok, name)
		require.Equal(t, Fresh(), got, name)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat-state.json")
	fs := NewFileStore(path)

	_, ok := fs.Load()
	require.False(t, ok)

	s := Fresh()
	s.SessionID = "sess-1"
	s.Token = "tok"
	s.QuestionnaireComplete = true
	require.NoError(t, fs.Save(s))

	got, ok := fs.Load()
	require.True(t, ok)
	require.Equal(t, s, got)

	require.NoError(t, fs.Reset())
	_, ok = fs.Load()
	require.False(t, ok)
	// Reset on a missing file is not an error.
	require.NoError(t, fs.Reset())
}
