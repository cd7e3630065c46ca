package device

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sweeney/airmon/internal/kv"
)

// IDKey is the persisted key of the device identifier.
const IDKey = "device_id"

// EnsureID returns the persisted device identifier, generating and
// storing a new random one on first use. If it cannot be stored the
// generated identifier is still returned along with the error.
func EnsureID(s kv.Store) (string, error) {
	id, err := s.GetString(IDKey, "")
	if err == nil && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.Put(kv.String(IDKey, id)); err != nil {
		return id, fmt.Errorf("store device id: %w", err)
	}
	return id, nil
}
