package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// File stores records as flat JSON files: <root>/<kind>/<id>.json. It is the
// zero-dependency fallback backend for deployments without a writable KV
// volume.
type File struct {
	mu   sync.RWMutex
	root string
}

// OpenFile roots a file-backed store at dir, creating it if needed.
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &File{root: dir}, nil
}

func (f *File) path(kind, id string) string {
	return filepath.Join(f.root, kind, id+".json")
}

func (f *File) Get(kind, id string) (Record, error) {
	if err := validateKey(kind, id); err != nil {
		return Record{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, err := os.ReadFile(f.path(kind, id))
	if os.IsNotExist(err) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return Record{ID: id, Data: data}, nil
}

func (f *File) List(kind string) ([]Record, error) {
	if err := validateKey(kind, ""); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	entries, err := os.ReadDir(filepath.Join(f.root, kind))
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := []Record{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		data, err := os.ReadFile(f.path(kind, id))
		if err != nil {
			return nil, err
		}
		out = append(out, Record{ID: id, Data: data})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *File) Put(kind, id string, data json.RawMessage) error {
	if err := validateKey(kind, id); err != nil {
		return err
	}
	if !json.Valid(data) {
		return errInvalidBody
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	dir := filepath.Join(f.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp := f.path(kind, id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(kind, id))
}

func (f *File) Delete(kind, id string) error {
	if err := validateKey(kind, id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path(kind, id))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}

func (f *File) Close() error { return nil }
