// Package rtc provides the device's wall-clock time source and the
// recovery of wall-clock time after the clock loses power.
package rtc

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/kv"
)

// Clock is a real-time clock.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() (time.Time, error)

	// Adjust sets the clock.
	Adjust(t time.Time) error

	// LostPower reports whether the clock stopped since it was last set.
	LostPower() (bool, error)
}

// CheckpointKey is the key under which the last-active timestamp is
// persisted, in seconds since the epoch.
const CheckpointKey = "last_active"

// SaveCheckpoint persists t as the last-active timestamp.
func SaveCheckpoint(s kv.Store, t time.Time) error {
	if err := s.Put(kv.Uint(CheckpointKey, uint64(t.Unix()))); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Checkpoint returns the persisted last-active timestamp. ok is false if
// none has been saved.
func Checkpoint(s kv.Store) (t time.Time, ok bool, err error) {
	secs, err := s.GetUint(CheckpointKey, 0)
	if err != nil || secs == 0 {
		return time.Time{}, false, err
	}
	return time.Unix(int64(secs), 0), true, nil
}

// TimeSource is an external source of the current time.
type TimeSource interface {
	Time(ctx context.Context) (time.Time, error)
}

// Recover checks the clock at startup. If the clock lost power it is set
// from src (when non-nil and reachable) or else from the persisted
// checkpoint. An unreadable clock is a fatal initialization error.
func Recover(ctx context.Context, c Clock, store kv.Store, src TimeSource) error {
	lost, err := c.LostPower()
	if err != nil {
		return fault.New(fault.FatalInit, "rtc", err)
	}
	if !lost {
		return nil
	}
	if src != nil {
		t, err := src.Time(ctx)
		if err == nil {
			log.Printf("rtc: lost power, set from time source to %s", t.Format(time.RFC3339))
			return c.Adjust(t)
		}
		log.Printf("rtc: lost power, time source unavailable: %v", err)
	}
	t, ok, err := Checkpoint(store)
	if err != nil {
		log.Printf("rtc: read checkpoint: %v", err)
	}
	if !ok {
		log.Printf("rtc: lost power and no checkpoint, time is not valid until set")
		return nil
	}
	log.Printf("rtc: lost power, restored last-active time %s", t.Format(time.RFC3339))
	return c.Adjust(t)
}
