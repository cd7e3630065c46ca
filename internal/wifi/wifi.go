// Package wifi joins a wireless network, asking the operator on the
// console the first time.
package wifi

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/sweeney/airmon/internal/status"
)

// MaxNetworks caps how many scanned networks are offered.
const MaxNetworks = 20

// ConnectTimeout bounds one association attempt.
const ConnectTimeout = 30 * time.Second

// ErrNoNetworks is returned by Scan when nothing is in range.
var ErrNoNetworks = errors.New("wifi: no networks found")

// Network is one scanned access point.
type Network struct {
	SSID     string
	Signal   int // percent
	Security string
}

// Status is the association state of the wireless interface.
type Status struct {
	State string
	SSID  string
	IP    string
}

// Connected reports whether the interface is associated.
func (s Status) Connected() bool {
	return s.State == "connected"
}

// Info converts s for status reporting.
func (s Status) Info() *status.NetworkInfo {
	return &status.NetworkInfo{Status: s.State, SSID: s.SSID, IP: s.IP}
}

// Manager controls the wireless interface.
type Manager interface {
	Scan(ctx context.Context) ([]Network, error)
	Connect(ctx context.Context, ssid, password string) error
	Status(ctx context.Context) (Status, error)
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkStatus   = "NETWORK_STATUS"
	envNetworkIP       = "NETWORK_IP"
	envNetworkWifiSSID = "NETWORK_WIFI_SSID"
)

// FromEnv returns the network state exported by pi-helper, or nil if it
// is not set. It is used when the interface is managed outside airmon.
func FromEnv() *Status {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &Status{
		State: s,
		SSID:  os.Getenv(envNetworkWifiSSID),
		IP:    os.Getenv(envNetworkIP),
	}
}
