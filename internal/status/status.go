// Package status provides a point-in-time view of the device for the web
// pages and MQTT system events.
package status

import (
	"time"

	"github.com/sweeney/airmon/internal/interval"
	"github.com/sweeney/airmon/internal/sensor"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/wifi from status.
type NetworkInfo struct {
	Status string
	SSID   string
	IP     string
}

// Config contains daemon configuration for display.
type Config struct {
	DeviceID string
	HTTPAddr string
	Broker   string
	LogFile  string
}

// Counts tracks activity since startup.
type Counts struct {
	PMReads     int
	PMFailures  int
	GasReads    int
	GasFailures int
	LogRows     int
	LogFailures int
}

// Snapshot is a point-in-time view of device state.
// It is a value type, safe to use after the scheduler pass that built it.
type Snapshot struct {
	PM      sensor.PMSample
	HavePM  bool
	Gas     sensor.GasSample
	HaveGas bool

	Page      string
	Intervals interval.Set

	// Timestamp is the wall-clock time of the pass that built the snapshot.
	Timestamp time.Time
	Uptime    time.Duration

	MQTTConnected bool
	Network       *NetworkInfo
	Counts        Counts
	Config        Config
}
