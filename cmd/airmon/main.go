// Command airmon runs the air-quality monitor: it polls the particulate
// and gas sensors, rotates the status pages on the display, logs a CSV
// row at a fixed interval and serves the configuration pages over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/airmon/internal/config"
	"github.com/sweeney/airmon/internal/datalog"
	"github.com/sweeney/airmon/internal/device"
	"github.com/sweeney/airmon/internal/display"
	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/kv"
	"github.com/sweeney/airmon/internal/metrics"
	"github.com/sweeney/airmon/internal/mqtt"
	"github.com/sweeney/airmon/internal/rtc"
	"github.com/sweeney/airmon/internal/ssd1306"
	"github.com/sweeney/airmon/internal/status"
	"github.com/sweeney/airmon/internal/web"
	"github.com/sweeney/airmon/internal/wifi"
)

var version = "dev"

type flags struct {
	config   string
	http     string
	simulate bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:           "airmon",
		Short:         "Air-quality monitor daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	root.PersistentFlags().StringVar(&f.config, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&f.http, "http", "", `HTTP address, overrides the config file ("off" disables)`)
	root.PersistentFlags().BoolVar(&f.simulate, "simulate", false, "Use simulated sensors and the system clock")

	root.AddCommand(newReadCmd(&f), newIntervalsCmd(&f), newVersionCmd())
	return root
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("http") {
		cfg.HTTPAddr = f.http
		if f.http == "off" {
			cfg.HTTPAddr = ""
		}
	}
	if f.simulate {
		cfg.Simulate = true
	}
	return cfg, cfg.Validate()
}

func run(cfg config.Config) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	out, err := displayOutput(cfg.Display.Output)
	if err != nil {
		return err
	}
	defer out.Close()
	text := display.NewText(out, cfg.Display.ANSI)
	var disp display.Display = text

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	hw, err := openHardware(cfg, loc)
	defer hw.Close()
	if err != nil {
		return halt(hw.led, disp, err, sigCh)
	}
	if cfg.Display.Driver == config.DisplaySSD1306 {
		panel, err := ssd1306.New(hw.bus, cfg.Display.Address)
		if err != nil {
			return halt(hw.led, disp, fault.New(fault.FatalInit, "display", err), sigCh)
		}
		disp = panel
	}

	store, err := kv.OpenBolt(cfg.KVFile())
	if err != nil {
		return halt(hw.led, disp, fault.New(fault.FatalInit, "settings", err), sigCh)
	}
	defer store.Close()

	var src rtc.TimeSource
	if cfg.NTP.Host != "" {
		src = rtc.NTP{Host: cfg.NTP.Host, Timeout: cfg.NTP.Timeout}
	}
	if err := rtc.Recover(context.Background(), hw.clock, store, src); err != nil {
		return halt(hw.led, disp, err, sigCh)
	}

	id, err := device.EnsureID(store)
	if err != nil {
		log.Printf("device id: %v", err)
	}

	m := metrics.New()

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: clientID(id),
			Topics:   mqtt.NewTopics(cfg.MQTT.Prefix, id),
			Backlog:  cfg.MQTT.Backlog,
			Timeout:  cfg.MQTT.Timeout,
		})
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	dev, err := device.New(device.Config{
		Clock:    hw.clock,
		Display:  disp,
		Storage:  datalog.Dir{Root: cfg.DataDir},
		LogFile:  cfg.LogFile,
		KV:       store,
		PM:       hw.pm,
		Gas:      hw.gas,
		Metrics:  m,
		OnRecord: recordPublisher(publisher, m),
		MQTTConnected: func() bool {
			return mqttStatus != nil && mqttStatus.IsConnected()
		},
		Info: status.Config{
			DeviceID: id,
			HTTPAddr: cfg.HTTPAddr,
			Broker:   cfg.MQTT.Broker,
		},
	}, time.Now())
	if err != nil {
		return halt(hw.led, disp, err, sigCh)
	}
	if hw.led != nil {
		if err := hw.led.Set(false); err != nil {
			log.Printf("led: %v", err)
		}
	}

	if n := wifi.FromEnv(); n != nil {
		dev.SetNetwork(n.Info())
	}
	netCh := make(chan *status.NetworkInfo, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.WiFi.Setup {
		var p pauser
		if cfg.Display.SharesConsole() {
			p = text
		}
		go watchNetwork(ctx, wifi.NewNMCLI(cfg.WiFi.Interface), store, wifi.NewTerminal(), p, netCh)
	}

	publishSystem(publisher, m, mqtt.SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(dev.Status(), "STARTUP", ""),
	})

	queue := web.NewQueue(16)
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, dev, queue, m)
		srv.Location = loc
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http server listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: id=%s simulate=%v data=%s broker=%s tick=%v", id, cfg.Simulate, cfg.DataDir, cfg.MQTT.Broker, cfg.Tick)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	return runLoop(dev, queue, publisher, m, time.Now, ticker.C, netCh, sigCh)
}

// displayOutput opens the text display's output. An empty path is
// standard output, which is not closed.
func displayOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fault.New(fault.FatalInit, "display output", err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func clientID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("airmon-%s", id)
}

// recordPublisher sends each logged row to MQTT. p may be nil.
func recordPublisher(p mqtt.Publisher, m *metrics.Metrics) func(datalog.Record) {
	if p == nil {
		return nil
	}
	return func(rec datalog.Record) {
		err := p.PublishRecord(rec)
		m.Publish("reading", err)
		if err != nil {
			log.Printf("publish reading: %v", err)
		}
	}
}

func publishSystem(p mqtt.Publisher, m *metrics.Metrics, event mqtt.SystemEvent) {
	if p == nil {
		return
	}
	err := p.PublishSystem(event)
	m.Publish("system", err)
	if err != nil {
		log.Printf("failed to publish %s event: %v", event.Event, err)
		return
	}
	log.Printf("published %s event", event.Event)
}
