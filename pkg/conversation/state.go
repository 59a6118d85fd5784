package conversation

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// StateVersion is bumped whenever the persisted shape changes incompatibly.
// Loaders fall back to a fresh conversation on any other version instead of
// guessing at a migration.
const StateVersion = 1

// State is the client-side conversation record persisted across reloads: the
// session identity, the capability token, and enough intake context to skip
// straight back into free chat.
type State struct {
	Version               int      `json:"version"`
	SessionID             string   `json:"sessionId"`
	Token                 string   `json:"token"`
	QuestionnaireComplete bool     `json:"questionnaireComplete"`
	Answers               []string `json:"answers,omitempty"`
	Name                  string   `json:"name,omitempty"`
	Email                 string   `json:"email,omitempty"`
}

// Fresh returns an empty current-version state.
func Fresh() State { return State{Version: StateVersion} }

// DecodeState parses a persisted record. Corrupt data, an unknown version, or
// a record missing its session binding all yield (fresh, false): an old
// client starts over rather than crashing on a shape it predates.
func DecodeState(data []byte) (State, bool) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return Fresh(), false
	}
	if s.Version != StateVersion || s.SessionID == "" {
		return Fresh(), false
	}
	return s, true
}

// Encode serialises s at the current version.
func (s State) Encode() []byte {
	s.Version = StateVersion
	b, _ := json.Marshal(s)
	return b
}

// FileStore persists conversation state to a single JSON file. It stands in
// for browser local storage in the CLI client and in tests.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// Load reads and decodes the persisted state; ok is false when no usable
// record exists.
func (f *FileStore) Load() (State, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Fresh(), false
	}
	return DecodeState(data)
}

// Save writes the state atomically via a temp file rename.
func (f *FileStore) Save(s State) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, s.Encode(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Reset discards any persisted state.
func (f *FileStore) Reset() error {
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
