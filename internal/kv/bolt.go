package kv

import (
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

var settingsBucket = []byte("settings")

// BoltStore is a Store backed by a bolt database file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the database at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open settings db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(settingsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create settings bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// get returns a copy of the value stored under key, or nil.
// Values returned by bolt are only valid inside the transaction.
func (s *BoltStore) get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(settingsBucket).Get([]byte(key))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

// GetUint implements Store.
func (s *BoltStore) GetUint(key string, def uint64) (uint64, error) {
	v, err := s.get(key)
	if err != nil {
		return def, fmt.Errorf("get %q: %w", key, err)
	}
	if v == nil {
		return def, nil
	}
	n, err := decodeUint(key, v)
	if err != nil {
		return def, err
	}
	return n, nil
}

// GetString implements Store.
func (s *BoltStore) GetString(key string, def string) (string, error) {
	v, err := s.get(key)
	if err != nil {
		return def, fmt.Errorf("get %q: %w", key, err)
	}
	if v == nil {
		return def, nil
	}
	return string(v), nil
}

// Put implements Store. All entries are written in one bolt transaction.
func (s *BoltStore) Put(entries ...Entry) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(settingsBucket)
		for _, e := range entries {
			if err := b.Put([]byte(e.Key), e.Value); err != nil {
				return fmt.Errorf("put %q: %w", e.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
