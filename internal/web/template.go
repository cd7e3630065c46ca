package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/airmon/internal/display"
)

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			return "--"
		}
		return t.Format(display.TimestampLayout)
	},
	"f1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"ms": func(d time.Duration) int64 { return d.Milliseconds() },
}).Parse(pagesHTML))

const pagesHTML = `
{{define "header"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Air Monitor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.connected, .ok { color: green; }
.disconnected, .err { color: red; }
nav a { margin-right: 1em; }
</style>
</head>
<body>
<h1>Air Monitor</h1>
<nav><a href="/">Status</a><a href="/clock">Clock</a><a href="/calibration">Calibration</a><a href="/tempoffset">Temp offset</a><a href="/intervals">Intervals</a><a href="/log.csv">Log</a></nav>
{{end}}

{{define "footer"}}</body>
</html>
{{end}}

{{define "messages"}}{{if .Message}}<p class="ok">{{.Message}}</p>{{end}}{{if .Error}}<p class="err">{{.Error}}</p>{{end}}{{end}}

{{define "index"}}{{template "header"}}
<h2>{{stamp .Timestamp}}</h2>

<h2>Particulates</h2>
<table>
{{if .HavePM}}<tr><th>PM1.0</th><td>{{f1 .PM.MC1p0}} ug/m3</td></tr>
<tr><th>PM2.5</th><td>{{f1 .PM.MC2p5}} ug/m3</td></tr>
<tr><th>PM4.0</th><td>{{f1 .PM.MC4p0}} ug/m3</td></tr>
<tr><th>PM10</th><td>{{f1 .PM.MC10p0}} ug/m3</td></tr>
<tr><th>NC0.5</th><td>{{f1 .PM.NC0p5}} #/cm3</td></tr>
<tr><th>NC1.0</th><td>{{f1 .PM.NC1p0}} #/cm3</td></tr>
<tr><th>NC2.5</th><td>{{f1 .PM.NC2p5}} #/cm3</td></tr>
<tr><th>NC4.0</th><td>{{f1 .PM.NC4p0}} #/cm3</td></tr>
<tr><th>NC10</th><td>{{f1 .PM.NC10p0}} #/cm3</td></tr>
<tr><th>Typical size</th><td>{{f2 .PM.TypicalSize}} um</td></tr>
{{else}}<tr><th>Readings</th><td>--</td></tr>{{end}}
</table>

<h2>Gas</h2>
<table>
{{if .HaveGas}}<tr><th>CO2</th><td>{{printf "%.0f" .Gas.CO2}} ppm</td></tr>
<tr><th>Temperature</th><td>{{f1 .Gas.Temperature}} C</td></tr>
<tr><th>Humidity</th><td>{{f1 .Gas.Humidity}} %</td></tr>
{{else}}<tr><th>Readings</th><td>--</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}}{{if .Network.SSID}} ({{.Network.SSID}}){{end}}</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Device</th><td>{{.Config.DeviceID}}</td></tr>
<tr><th>Page</th><td>{{.Page}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Log file</th><td>{{.Config.LogFile}}</td></tr>
<tr><th>Log rows</th><td>{{.Counts.LogRows}} ({{.Counts.LogFailures}} failed)</td></tr>
<tr><th>PM reads</th><td>{{.Counts.PMReads}} ({{.Counts.PMFailures}} failed)</td></tr>
<tr><th>Gas reads</th><td>{{.Counts.GasReads}} ({{.Counts.GasFailures}} failed)</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{template "footer"}}{{end}}

{{define "clock"}}{{template "header"}}
<h2>Clock</h2>
{{template "messages" .}}
<p>Current: {{stamp .Now}}</p>
<form method="post" action="/clock">
<input type="date" name="date" required>
<input type="time" name="time" step="1" required>
<input type="submit" value="Set">
</form>
{{template "footer"}}{{end}}

{{define "value"}}{{template "header"}}
<h2>{{.Title}}</h2>
{{template "messages" .}}
<p>Current: {{if .Value}}{{.Value}} {{.Unit}}{{else}}--{{end}}</p>
<form method="post" action="{{.Action}}">
<input type="text" name="{{.Field}}" inputmode="decimal" required> {{.Unit}}
<input type="submit" value="Apply">
</form>
{{template "footer"}}{{end}}

{{define "intervals"}}{{template "header"}}
<h2>Intervals</h2>
{{template "messages" .}}
<form method="post" action="/intervals">
<table>
{{range .Rows}}<tr><th>{{.Label}}</th><td><input type="number" name="{{.Form}}" value="{{.Value}}" min="{{ms .Min}}" max="{{ms .Max}}" required> ms</td></tr>
{{end}}</table>
<input type="submit" value="Save">
</form>
{{template "footer"}}{{end}}
`

func render(w io.Writer, name string, data any) {
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("web: render %s: %v", name, err)
	}
}
