package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/airmon/internal/interval"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string           `json:"event,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	DeviceID      string           `json:"device_id"`
	Timestamp     string           `json:"timestamp"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Page          string           `json:"page"`
	PM            *PMJSON          `json:"pm,omitempty"`
	Gas           *GasJSON         `json:"gas,omitempty"`
	Intervals     map[string]int64 `json:"intervals_ms"`
	MQTT          MQTTStatus       `json:"mqtt"`
	Counts        CountsJSON       `json:"counts"`
	Network       *NetworkJSON     `json:"network,omitempty"`
}

// PMJSON is the JSON representation of a particulate sample.
type PMJSON struct {
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

// GasJSON is the JSON representation of a gas sample.
type GasJSON struct {
	CO2         float64 `json:"co2"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	PMReads     int `json:"pm_reads"`
	PMFailures  int `json:"pm_failures"`
	GasReads    int `json:"gas_reads"`
	GasFailures int `json:"gas_failures"`
	LogRows     int `json:"log_rows"`
	LogFailures int `json:"log_failures"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Status string `json:"status"`
	SSID   string `json:"ssid"`
	IP     string `json:"ip"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		DeviceID:      snap.Config.DeviceID,
		Timestamp:     snap.Timestamp.Format(time.RFC3339),
		UptimeSeconds: int64(snap.Uptime.Truncate(time.Second).Seconds()),
		Page:          snap.Page,
		Intervals:     make(map[string]int64),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PMReads:     snap.Counts.PMReads,
			PMFailures:  snap.Counts.PMFailures,
			GasReads:    snap.Counts.GasReads,
			GasFailures: snap.Counts.GasFailures,
			LogRows:     snap.Counts.LogRows,
			LogFailures: snap.Counts.LogFailures,
		},
	}
	for _, f := range interval.Fields {
		inner.Intervals[f.Key] = snap.Intervals.Get(f.Name).Milliseconds()
	}
	if snap.HavePM {
		p := snap.PM
		inner.PM = &PMJSON{
			MC1p0: p.MC1p0, MC2p5: p.MC2p5, MC4p0: p.MC4p0, MC10p0: p.MC10p0,
			NC0p5: p.NC0p5, NC1p0: p.NC1p0, NC2p5: p.NC2p5, NC4p0: p.NC4p0, NC10p0: p.NC10p0,
			TypicalSize: p.TypicalSize,
		}
	}
	if snap.HaveGas {
		inner.Gas = &GasJSON{CO2: snap.Gas.CO2, Temperature: snap.Gas.Temperature, Humidity: snap.Gas.Humidity}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Status: snap.Network.Status,
			SSID:   snap.Network.SSID,
			IP:     snap.Network.IP,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
