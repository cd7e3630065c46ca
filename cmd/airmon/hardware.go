package main

import (
	"log"
	"time"

	"github.com/sweeney/airmon/internal/config"
	"github.com/sweeney/airmon/internal/fault"
	"github.com/sweeney/airmon/internal/gpio"
	"github.com/sweeney/airmon/internal/i2c"
	"github.com/sweeney/airmon/internal/rtc"
	"github.com/sweeney/airmon/internal/scd30"
	"github.com/sweeney/airmon/internal/sensor"
	"github.com/sweeney/airmon/internal/sps30"
)

// hardware holds the peripherals the device is built from.
type hardware struct {
	pm    sensor.PMDriver
	gas   sensor.GasDriver
	clock rtc.Clock

	// Optional; nil when disabled or unavailable.
	bus   i2c.Bus
	ready gpio.Input
	led   gpio.Output
}

// openHardware opens the bus, sensors, clock and GPIO lines. A missing
// bus is fatal; missing GPIO lines are logged and skipped. The returned
// hardware is never nil so the LED can show a fatal error.
func openHardware(cfg config.Config, loc *time.Location) (*hardware, error) {
	hw := &hardware{}
	if cfg.GPIO.LEDPin >= 0 && !cfg.Simulate {
		led, err := gpio.NewRealOutput(cfg.GPIO.Chip, cfg.GPIO.LEDPin)
		if err != nil {
			log.Printf("gpio: led: %v", err)
		} else {
			hw.led = led
		}
	}

	if cfg.Simulate {
		seed := time.Now().UnixNano()
		hw.pm = sensor.NewSimulatedPM(seed)
		hw.gas = sensor.NewSimulatedGas(seed)
		hw.clock = rtc.NewSystem(time.Now)
		return hw, nil
	}

	bus, err := i2c.Open(cfg.I2C.Bus)
	if err != nil {
		return hw, fault.New(fault.FatalInit, "i2c", err)
	}
	hw.bus = bus
	hw.pm = sps30.New(bus)
	var gas sensor.GasDriver = scd30.New(bus)
	if cfg.GPIO.ReadyPin >= 0 {
		in, err := gpio.NewRealInput(cfg.GPIO.Chip, cfg.GPIO.ReadyPin)
		if err != nil {
			log.Printf("gpio: ready line: %v", err)
		} else {
			hw.ready = in
			gas = sensor.WithReadyLine(gas, in)
		}
	}
	hw.gas = gas
	hw.clock = rtc.NewDS3231(bus, loc)
	return hw, nil
}

// Close releases whatever was opened. The LED is left as it is.
func (hw *hardware) Close() {
	if hw.ready != nil {
		hw.ready.Close()
	}
	if hw.led != nil {
		hw.led.Close()
	}
	if hw.bus != nil {
		hw.bus.Close()
	}
}
