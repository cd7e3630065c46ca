package main

import (
	"context"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/airmon/internal/device"
	"github.com/sweeney/airmon/internal/display"
	"github.com/sweeney/airmon/internal/gpio"
	"github.com/sweeney/airmon/internal/kv"
	"github.com/sweeney/airmon/internal/metrics"
	"github.com/sweeney/airmon/internal/mqtt"
	"github.com/sweeney/airmon/internal/status"
	"github.com/sweeney/airmon/internal/wifi"
)

// runLoop runs one scheduler pass per tick until a signal arrives.
// Network updates are applied between passes.
func runLoop(dev *device.Device, reqs device.RequestSource, publisher mqtt.Publisher, m *metrics.Metrics, now func() time.Time, tick <-chan time.Time, netCh <-chan *status.NetworkInfo, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			reason := signalName(s)
			publishSystem(publisher, m, mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     reason,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(dev.Status(), "SHUTDOWN", reason),
			})
			return nil

		case n := <-netCh:
			dev.SetNetwork(n)

		case <-tick:
			start := time.Now()
			dev.Pass(now(), reqs)
			m.Pass(time.Since(start))
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// halt shows a fatal initialization error and waits for a signal. The
// scheduler is never started. led and d may be nil.
func halt(led gpio.Output, d display.Display, err error, sig <-chan os.Signal) error {
	log.Printf("halted: %v", err)
	if led != nil {
		if lerr := led.Set(true); lerr != nil {
			log.Printf("led: %v", lerr)
		}
	}
	if d != nil {
		if derr := display.Fatal(d, err.Error()); derr != nil {
			log.Printf("display: %v", derr)
		}
	}
	s := <-sig
	log.Printf("received %v while halted", s)
	return err
}

// NetworkRefresh is how often the association state is re-read.
const NetworkRefresh = 30 * time.Second

// pauser holds a display's output while the console is in use.
type pauser interface {
	Pause()
	Resume()
}

// watchNetwork associates with a network, asking on the console when
// needed, then reports the association state until ctx ends. If p is not
// nil it is paused for as long as setup may prompt.
func watchNetwork(ctx context.Context, m wifi.Manager, store kv.Store, c *wifi.Console, p pauser, out chan<- *status.NetworkInfo) {
	send := func(st wifi.Status) {
		select {
		case out <- st.Info():
		case <-ctx.Done():
		}
	}

	if p != nil {
		p.Pause()
	}
	st, err := wifi.Setup(ctx, m, store, c)
	if p != nil {
		p.Resume()
	}
	if err != nil {
		log.Printf("wifi: setup: %v", err)
		return
	}
	send(st)

	t := time.NewTicker(NetworkRefresh)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st, err := m.Status(ctx)
			if err != nil {
				log.Printf("wifi: %v", err)
				continue
			}
			send(st)
		}
	}
}
