// Package storage is a small pebble-backed key-value layer for the handful
// of blobs that survive a restart (user preferences, exported calendar
// ids). Values are stored as JSON.
package storage

import (
	"encoding/json"
	"errors"

	"github.com/cockroachdb/pebble"
	log "github.com/sirupsen/logrus"
)

type KV struct {
	db   *pebble.DB
	path string
}

// Open opens (or creates) the pebble database at path.
func Open(path string) (*KV, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		log.WithError(err).WithField("path", path).Error("failed to open local store")
		return nil, err
	}
	log.WithField("path", path).Info("local store opened")
	return &KV{db: db, path: path}, nil
}

func (kv *KV) Close() error {
	if kv.db == nil {
		return nil
	}
	err := kv.db.Close()
	kv.db = nil
	return err
}

// PutJSON marshals v and writes it synchronously under key.
func (kv *KV) PutJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kv.db.Set([]byte(key), data, pebble.Sync)
}

// GetJSON unmarshals the value under key into out. Returns false with no
// error when the key does not exist.
func (kv *KV) GetJSON(key string, out any) (bool, error) {
	data, closer, err := kv.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer closer.Close()
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}
