package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/airmon/internal/datalog"
	"github.com/sweeney/airmon/internal/interval"
	"github.com/sweeney/airmon/internal/kv"
	"github.com/sweeney/airmon/internal/sensor"
)

// ReadTimeout bounds how long the read command waits for both sensors.
const ReadTimeout = 10 * time.Second

func newReadCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Read both sensors once, print a log row and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			hw, err := openHardware(cfg, loc)
			defer hw.Close()
			if err != nil {
				return err
			}
			if err := sensor.Init(hw.pm, hw.gas); err != nil {
				return err
			}
			rec, err := readOnce(hw.pm, hw.gas, hw.clock.Now, ReadTimeout, time.Sleep)
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), rec)
		},
	}
}

var errReadTimeout = errors.New("sensors not ready")

// readOnce waits until both sensors have data and reads them.
func readOnce(pm sensor.PMDriver, gas sensor.GasDriver, clock func() (time.Time, error), timeout time.Duration, sleep func(time.Duration)) (datalog.Record, error) {
	const step = 100 * time.Millisecond
	var (
		rec             datalog.Record
		havePM, haveGas bool
	)
	for waited := time.Duration(0); waited <= timeout; waited += step {
		if !havePM {
			ok, err := pm.DataReady()
			if err != nil {
				return rec, fmt.Errorf("%s: %w", pm.Name(), err)
			}
			if ok {
				if rec.PM, err = pm.ReadPM(); err != nil {
					return rec, fmt.Errorf("%s: %w", pm.Name(), err)
				}
				havePM = true
			}
		}
		if !haveGas {
			ok, err := gas.DataReady()
			if err != nil {
				return rec, fmt.Errorf("%s: %w", gas.Name(), err)
			}
			if ok {
				if rec.Gas, err = gas.ReadGas(); err != nil {
					return rec, fmt.Errorf("%s: %w", gas.Name(), err)
				}
				haveGas = true
			}
		}
		if havePM && haveGas {
			t, err := clock()
			if err != nil {
				return rec, fmt.Errorf("clock: %w", err)
			}
			rec.Time = t
			return rec, nil
		}
		sleep(step)
	}
	return rec, errReadTimeout
}

func printRecord(w io.Writer, rec datalog.Record) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n", datalog.Header, rec.CSV())
	return err
}

func newIntervalsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "intervals",
		Short: "Print the persisted intervals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}
			store, err := kv.OpenBolt(cfg.KVFile())
			if err != nil {
				return err
			}
			defer store.Close()
			printIntervals(cmd.OutOrStdout(), interval.NewStore(store).Load())
			return nil
		},
	}
}

func printIntervals(w io.Writer, set interval.Set) {
	for _, f := range interval.Fields {
		fmt.Fprintf(w, "%-12s %8d ms  (%s)\n", f.Key, set.Get(f.Name).Milliseconds(), f.Label)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "airmon %s\n", version)
		},
	}
}
