// Package store provides the content persistence used by the lead and admin
// surfaces: a small keyed record store with interchangeable backends selected
// at startup by configuration.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned when no record exists under the requested id.
var ErrNotFound = errors.New("record not found")

var errInvalidBody = errors.New("record body is not valid JSON")

// Record is one stored content item. Data is kept opaque; the store never
// interprets record bodies beyond requiring valid JSON.
type Record struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// ContentStore is the persistence contract the relay's collaborators depend
// on. Implementations must be safe for concurrent use.
type ContentStore interface {
	Get(kind, id string) (Record, error)
	List(kind string) ([]Record, error)
	Put(kind, id string, data json.RawMessage) error
	Delete(kind, id string) error
	Close() error
}

// kinds and ids appear in storage keys and file paths; keep them flat.
var keyPartRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

func validateKey(kind, id string) error {
	if !keyPartRe.MatchString(kind) {
		return fmt.Errorf("invalid kind %q", kind)
	}
	if id != "" && !keyPartRe.MatchString(id) {
		return fmt.Errorf("invalid id %q", id)
	}
	return nil
}

// Open builds the configured backend: "pebble" for the embedded KV store,
// "file" for flat JSON files under path.
func Open(backend, path string) (ContentStore, error) {
	switch backend {
	case "pebble":
		return OpenPebble(path)
	case "file":
		return OpenFile(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
