// Package kv provides the persistent key-value store that holds the
// device's settings across power loss.
package kv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrBadValue is returned when a stored value cannot be decoded
// as the requested type.
var ErrBadValue = errors.New("kv: malformed value")

// Store is a persistent key-value store.
type Store interface {
	// GetUint returns the unsigned value stored under key, or def if
	// the key is absent.
	GetUint(key string, def uint64) (uint64, error)

	// GetString returns the string stored under key, or def if the
	// key is absent.
	GetString(key string, def string) (string, error)

	// Put stores all entries in a single atomic write: after a
	// failure none of them are visible.
	Put(entries ...Entry) error
}

// Entry is a single key/value pair handed to Store.Put.
type Entry struct {
	Key   string
	Value []byte
}

// Uint returns an entry holding v.
func Uint(key string, v uint64) Entry {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return Entry{Key: key, Value: buf}
}

// String returns an entry holding s.
func String(key string, s string) Entry {
	return Entry{Key: key, Value: []byte(s)}
}

func decodeUint(key string, data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: key %q has %d bytes", ErrBadValue, key, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
