package kv

// MemStore is an in-memory Store for tests.
type MemStore struct {
	Data map[string][]byte

	// PutError, if set, is returned by Put and nothing is written.
	PutError error

	// Puts counts successful Put calls.
	Puts int
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{Data: make(map[string][]byte)}
}

// GetUint implements Store.
func (m *MemStore) GetUint(key string, def uint64) (uint64, error) {
	v, ok := m.Data[key]
	if !ok {
		return def, nil
	}
	n, err := decodeUint(key, v)
	if err != nil {
		return def, err
	}
	return n, nil
}

// GetString implements Store.
func (m *MemStore) GetString(key string, def string) (string, error) {
	v, ok := m.Data[key]
	if !ok {
		return def, nil
	}
	return string(v), nil
}

// Put implements Store.
func (m *MemStore) Put(entries ...Entry) error {
	if m.PutError != nil {
		return m.PutError
	}
	for _, e := range entries {
		m.Data[e.Key] = append([]byte(nil), e.Value...)
	}
	m.Puts++
	return nil
}
