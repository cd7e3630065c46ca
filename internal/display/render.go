package display

import (
	"fmt"
	"time"

	"github.com/sweeney/airmon/internal/sensor"
	"github.com/sweeney/airmon/internal/status"
)

// TimestampLayout is the date/time header shown on every page.
const TimestampLayout = "02-01-2006 15:04:05"

// View is the data available to the page renderer.
type View struct {
	PM      sensor.PMSample
	HavePM  bool
	Gas     sensor.GasSample
	HaveGas bool
	Network *status.NetworkInfo
}

// Render draws page for timestamp ts and presents it.
func Render(d Display, page Page, ts time.Time, v View) error {
	d.Clear()
	d.DrawText(0, ts.Format(TimestampLayout))
	for i, line := range body(page, v) {
		d.DrawText(i+1, line)
	}
	return d.Present()
}

func value(have bool, format string, x float64) string {
	if !have {
		return "--"
	}
	return fmt.Sprintf(format, x)
}

func body(page Page, v View) []string {
	switch page {
	case PageMass:
		return []string{
			"PM1.0  " + value(v.HavePM, "%6.1f", v.PM.MC1p0) + " ug/m3",
			"PM2.5  " + value(v.HavePM, "%6.1f", v.PM.MC2p5) + " ug/m3",
			"PM4.0  " + value(v.HavePM, "%6.1f", v.PM.MC4p0) + " ug/m3",
			"PM10   " + value(v.HavePM, "%6.1f", v.PM.MC10p0) + " ug/m3",
			"Size   " + value(v.HavePM, "%6.2f", v.PM.TypicalSize) + " um",
		}
	case PageCount:
		return []string{
			"NC0.5 " + value(v.HavePM, "%6.1f", v.PM.NC0p5) + " #/cm3",
			"NC1.0 " + value(v.HavePM, "%6.1f", v.PM.NC1p0) + " #/cm3",
			"NC2.5 " + value(v.HavePM, "%6.1f", v.PM.NC2p5) + " #/cm3",
			"NC4.0 " + value(v.HavePM, "%6.1f", v.PM.NC4p0) + " #/cm3",
			"NC10  " + value(v.HavePM, "%6.1f", v.PM.NC10p0) + " #/cm3",
		}
	case PageGas:
		return []string{
			"CO2  " + value(v.HaveGas, "%6.0f", v.Gas.CO2) + " ppm",
			"Temp " + value(v.HaveGas, "%6.1f", v.Gas.Temperature) + " C",
			"RH   " + value(v.HaveGas, "%6.1f", v.Gas.Humidity) + " %",
		}
	case PageNetwork:
		n := v.Network
		if n == nil {
			return []string{"WiFi: not configured"}
		}
		lines := []string{"WiFi: " + n.Status}
		if n.SSID != "" {
			lines = append(lines, "SSID: "+n.SSID)
		}
		if n.IP != "" {
			lines = append(lines, "IP: "+n.IP)
		}
		return lines
	}
	return nil
}

// FatalWidth is the number of characters per line of a Fatal message.
const FatalWidth = 20

// Fatal shows an initialization error on d. It is used before halting.
func Fatal(d Display, msg string) error {
	d.Clear()
	d.DrawText(0, "ERROR")
	r := []rune(msg)
	for i := 0; i*FatalWidth < len(r) && i+1 < Lines; i++ {
		end := min((i+1)*FatalWidth, len(r))
		d.DrawText(i+1, string(r[i*FatalWidth:end]))
	}
	return d.Present()
}
