// Package mqtt publishes log rows and lifecycle events to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/airmon/internal/datalog"
)

// DefaultPrefix is the first topic level.
const DefaultPrefix = "airmon"

// Topics are the topics one device publishes to.
type Topics struct {
	Readings string
	System   string
}

// NewTopics returns the topics for a device: <prefix>/<id>/readings and
// <prefix>/<id>/system.
func NewTopics(prefix, deviceID string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	base := prefix + "/" + deviceID
	return Topics{Readings: base + "/readings", System: base + "/system"}
}

// Publisher publishes device data to MQTT.
type Publisher interface {
	// PublishRecord sends one log row. A failure must not stop the
	// scheduler; callers log it.
	PublishRecord(rec datalog.Record) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event such as STARTUP or SHUTDOWN.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string
	Reason     string
	RawPayload []byte // if set, sent as is
	Retained   bool
}

// ReadingPayload is the JSON payload of a log row.
type ReadingPayload struct {
	Reading ReadingInner `json:"reading"`
}

// ReadingInner contains one row of readings.
type ReadingInner struct {
	Timestamp string     `json:"timestamp"`
	PM        PMPayload  `json:"pm"`
	Gas       GasPayload `json:"gas"`
}

// PMPayload holds the particulate values.
type PMPayload struct {
	MC1p0       float64 `json:"mc1_0"`
	MC2p5       float64 `json:"mc2_5"`
	MC4p0       float64 `json:"mc4_0"`
	MC10p0      float64 `json:"mc10_0"`
	NC0p5       float64 `json:"nc0_5"`
	NC1p0       float64 `json:"nc1_0"`
	NC2p5       float64 `json:"nc2_5"`
	NC4p0       float64 `json:"nc4_0"`
	NC10p0      float64 `json:"nc10_0"`
	TypicalSize float64 `json:"typical_size"`
}

// GasPayload holds the gas values.
type GasPayload struct {
	CO2         float64 `json:"co2"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// FormatRecordPayload creates the JSON payload for a log row.
func FormatRecordPayload(rec datalog.Record) ([]byte, error) {
	p := rec.PM
	g := rec.Gas
	return json.Marshal(ReadingPayload{Reading: ReadingInner{
		Timestamp: rec.Time.UTC().Format(time.RFC3339),
		PM: PMPayload{
			MC1p0: p.MC1p0, MC2p5: p.MC2p5, MC4p0: p.MC4p0, MC10p0: p.MC10p0,
			NC0p5: p.NC0p5, NC1p0: p.NC1p0, NC2p5: p.NC2p5, NC4p0: p.NC4p0, NC10p0: p.NC10p0,
			TypicalSize: p.TypicalSize,
		},
		Gas: GasPayload{CO2: g.CO2, Temperature: g.Temperature, Humidity: g.Humidity},
	}})
}

// SystemPayload is the payload of simple system events (LWT, RECONNECTED)
// that carry no status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set it is returned directly.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{System: SystemPayloadInner{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     event.Event,
		Reason:    event.Reason,
	}})
}
