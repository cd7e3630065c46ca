// Package config loads the daemon's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the static configuration of the daemon. User-tunable
// timing lives in the interval store, not here.
type Config struct {
	HTTPAddr string `yaml:"http"`
	Timezone string `yaml:"timezone"`
	Simulate bool   `yaml:"simulate"`

	// Tick is the idle yield between scheduler passes.
	Tick time.Duration `yaml:"tick"`

	DataDir string `yaml:"data_dir"`
	LogFile string `yaml:"log_file"`
	KVPath  string `yaml:"kv_path"`

	MQTT    MQTT    `yaml:"mqtt"`
	I2C     I2C     `yaml:"i2c"`
	GPIO    GPIO    `yaml:"gpio"`
	NTP     NTP     `yaml:"ntp"`
	WiFi    WiFi    `yaml:"wifi"`
	Display Display `yaml:"display"`
}

// MQTT configures telemetry. An empty Broker disables it.
type MQTT struct {
	Broker  string        `yaml:"broker"`
	Prefix  string        `yaml:"prefix"`
	Backlog int           `yaml:"backlog"`
	Timeout time.Duration `yaml:"timeout"`
}

// I2C names the bus shared by the sensors and the RTC.
type I2C struct {
	Bus string `yaml:"bus"`
}

// GPIO pins are BCM numbers on Chip; -1 disables a line.
type GPIO struct {
	Chip     string `yaml:"chip"`
	ReadyPin int    `yaml:"ready_pin"`
	LEDPin   int    `yaml:"led_pin"`
}

// NTP is consulted when the RTC lost power. An empty Host disables it.
type NTP struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

// WiFi enables interactive association at startup.
type WiFi struct {
	Setup     bool   `yaml:"setup"`
	Interface string `yaml:"interface"`
}

// Display drivers.
const (
	DisplayText    = "text"
	DisplaySSD1306 = "ssd1306"
)

// Display selects the screen. The text display writes frames to Output,
// or to standard output when Output is empty; the ssd1306 panel sits on
// the I2C bus at Address.
type Display struct {
	Driver  string `yaml:"driver"`
	ANSI    bool   `yaml:"ansi"`
	Output  string `yaml:"output"`
	Address uint16 `yaml:"address"`
}

// SharesConsole reports whether frames go to the same standard output as
// the wifi setup console.
func (d Display) SharesConsole() bool {
	return d.Driver == DisplayText && d.Output == ""
}

// Default returns the configuration used for every field a file omits.
func Default() Config {
	return Config{
		HTTPAddr: ":80",
		Timezone: "Local",
		Tick:     10 * time.Millisecond,
		DataDir:  "/var/lib/airmon",
		LogFile:  "datalog.csv",
		KVPath:   "airmon.db",
		MQTT: MQTT{
			Broker:  "tcp://192.168.1.200:1883",
			Prefix:  "airmon",
			Backlog: 256,
			Timeout: 500 * time.Millisecond,
		},
		I2C:     I2C{Bus: "/dev/i2c-1"},
		GPIO:    GPIO{Chip: "gpiochip0", ReadyPin: 17, LEDPin: 27},
		NTP:     NTP{Host: "pool.ntp.org", Timeout: 5 * time.Second},
		WiFi:    WiFi{Interface: "wlan0"},
		Display: Display{Driver: DisplayText, ANSI: true, Address: 0x3c},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Tick <= 0 {
		return errors.New("config: tick must be positive")
	}
	if c.DataDir == "" {
		return errors.New("config: data_dir is required")
	}
	if c.LogFile == "" || filepath.Base(c.LogFile) != c.LogFile {
		return fmt.Errorf("config: log_file %q must be a plain file name", c.LogFile)
	}
	if c.KVPath == "" {
		return errors.New("config: kv_path is required")
	}
	if c.I2C.Bus == "" && !c.Simulate {
		return errors.New("config: i2c.bus is required")
	}
	if c.GPIO.ReadyPin < -1 || c.GPIO.LEDPin < -1 {
		return errors.New("config: gpio pins must be -1 or a BCM number")
	}
	if c.MQTT.Broker != "" {
		u, err := url.Parse(c.MQTT.Broker)
		if err != nil {
			return fmt.Errorf("config: mqtt.broker: %w", err)
		}
		switch u.Scheme {
		case "tcp", "ssl", "tls", "ws", "wss", "mqtt", "mqtts":
		default:
			return fmt.Errorf("config: mqtt.broker: unsupported scheme %q", u.Scheme)
		}
		if c.MQTT.Prefix == "" {
			return errors.New("config: mqtt.prefix is required")
		}
	}
	if c.MQTT.Backlog < 0 || c.MQTT.Timeout < 0 || c.NTP.Timeout < 0 {
		return errors.New("config: negative backlog or timeout")
	}
	switch c.Display.Driver {
	case DisplayText:
	case DisplaySSD1306:
		if c.Simulate {
			return errors.New("config: display.driver ssd1306 needs the I2C bus, not simulate")
		}
	default:
		return fmt.Errorf("config: display.driver: unknown driver %q", c.Display.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone.
func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	return loc, nil
}

// KVFile is the settings database path. A relative KVPath is inside
// DataDir.
func (c Config) KVFile() string {
	if filepath.IsAbs(c.KVPath) {
		return c.KVPath
	}
	return filepath.Join(c.DataDir, c.KVPath)
}
