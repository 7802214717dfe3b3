package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/water-system/internal/logic"
	"github.com/sweeney/water-system/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
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
	"percent": func(l logic.Level) string {
		return fmt.Sprintf("%.2f%%", float64(l)*100)
	},
	"bar": func(l logic.Level) int {
		return int(float64(l)*200 + 0.5)
	},
	"ms": func(ms int64) string {
		if ms == 0 {
			return "disabled"
		}
		return (time.Duration(ms) * time.Millisecond).String()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Water System</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.warn { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.bar { display: inline-block; height: 8px; background: steelblue; vertical-align: middle; margin-right: 6px; }
</style>
</head>
<body>
<h1>Water System</h1>

<h2>Tanks</h2>
<table>
<tr><th>Tank A</th><td id="tank-a"><span class="bar" style="width: {{bar .Reading.LevelA}}px"></span>{{percent .Reading.LevelA}}{{if .CondA}} <span class="warn">{{.CondA}}</span>{{end}}</td></tr>
<tr><th>Tank B</th><td id="tank-b"><span class="bar" style="width: {{bar .Reading.LevelB}}px"></span>{{percent .Reading.LevelB}}{{if .CondB}} <span class="warn">{{.CondB}}</span>{{end}}</td></tr>
<tr><th>Pump</th><td id="pump-state" class="{{if eq .Pump "ON"}}on{{else if eq .Pump "OFF"}}off{{else}}unknown{{end}}">{{.Pump}}</td></tr>
<tr><th>Pump flow</th><td>{{printf "%.2f" .PumpFlow}} mm³/s</td></tr>
<tr><th>Drain flow</th><td>{{printf "%.2f" .DrainFlow}} mm³/s</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Steps</th><td>{{.Counts.Steps}}</td></tr>
<tr><th>Pump ON</th><td>{{.Counts.PumpOn}}</td></tr>
<tr><th>Pump OFF</th><td>{{.Counts.PumpOff}}</td></tr>
<tr><th>Overflows</th><td>{{.Counts.Overflows}}</td></tr>
<tr><th>Underflows</th><td>{{.Counts.Underflows}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Run</h2>
<table>
<tr><th>Run ID</th><td>{{.RunID}}</td></tr>
<tr><th>Simulated</th><td>{{uptime .SimTime}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{ms .Config.TickMs}}</td></tr>
<tr><th>Duration</th><td>{{if eq .Config.DurationMs 0}}until signalled{{else}}{{ms .Config.DurationMs}}{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{ms .Config.HeartbeatMs}}</td></tr>
<tr><th>Integration</th><td>{{.Config.Integration}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	pump := string(snap.Reading.Pump)
	if pump == "" {
		pump = "UNKNOWN"
	}
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime    time.Duration
		Pump      string
		PumpFlow  float64
		DrainFlow float64
	}{
		Snapshot:  snap,
		Uptime:    snap.Uptime(),
		Pump:      pump,
		PumpFlow:  float64(snap.Reading.PumpFlow),
		DrainFlow: float64(snap.Reading.DrainFlow),
	}
	indexTmpl.Execute(w, data)
}
