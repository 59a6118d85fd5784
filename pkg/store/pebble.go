package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"chatrelay/pkg/logger"
)

// Pebble stores records in an embedded Pebble database under keys of the
// form content:<kind>:<id>. Listing a kind is a prefix scan, so records come
// back ordered by id.
type Pebble struct {
	db *pebble.DB
}

// OpenPebble opens (or creates) the database at path.
func OpenPebble(path string) (*Pebble, error) {
	logger.Info("opening content store", "backend", "pebble", "path", path)
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("content store open failed", "path", path, "err", err.Error())
		return nil, err
	}
	return &Pebble{db: db}, nil
}

func contentKey(kind, id string) []byte {
	return []byte(fmt.Sprintf("content:%s:%s", kind, id))
}

func (p *Pebble) Get(kind, id string) (Record, error) {
	if err := validateKey(kind, id); err != nil {
		return Record{}, err
	}
	val, closer, err := p.db.Get(contentKey(kind, id))
	if err == pebble.ErrNotFound {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()
	data := make([]byte, len(val))
	copy(data, val)
	return Record{ID: id, Data: data}, nil
}

func (p *Pebble) List(kind string) ([]Record, error) {
	if err := validateKey(kind, ""); err != nil {
		return nil, err
	}
	prefix := []byte("content:" + kind + ":")
	iter, err := p.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := []Record{}
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		id := string(iter.Key()[len(prefix):])
		data := make([]byte, len(iter.Value()))
		copy(data, iter.Value())
		out = append(out, Record{ID: id, Data: data})
	}
	return out, iter.Error()
}

func (p *Pebble) Put(kind, id string, data json.RawMessage) error {
	if err := validateKey(kind, id); err != nil {
		return err
	}
	if !json.Valid(data) {
		return errInvalidBody
	}
	return p.db.Set(contentKey(kind, id), data, pebble.Sync)
}

func (p *Pebble) Delete(kind, id string) error {
	if err := validateKey(kind, id); err != nil {
		return err
	}
	if _, err := p.Get(kind, id); err != nil {
		return err
	}
	return p.db.Delete(contentKey(kind, id), pebble.Sync)
}

func (p *Pebble) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
