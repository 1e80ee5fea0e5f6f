package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"math"
	"time"

	"github.com/sweeney/hotcirc/internal/status"
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
	"temp": func(v float64) string {
		if math.IsNaN(v) {
			return "—"
		}
		return fmt.Sprintf("%.1f°C", v)
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"cell": func(v int) template.CSS {
		// Intensity 0..255 mapped to a warm background.
		return template.CSS(fmt.Sprintf("background: rgba(220, 80, 20, %.2f)", float64(v)/255.0))
	},
	"dayName": func(d int) string {
		return dayNames[d]
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Hot Water Circulation</title>
<style>
body { font-family: monospace; max-width: 900px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; margin-top: 1.5em; }
table { border-collapse: collapse; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.status th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: orange; font-weight: bold; }
.matrix td { width: 12px; height: 14px; padding: 0; border: 1px solid #eee; }
.matrix th { padding: 0 6px; font-weight: normal; }
.controls form { display: inline; }
.controls button { font-family: monospace; margin: 2px; }
</style>
</head>
<body>
<h1>Hot Water Circulation</h1>
<table class="status">
<tr><th>Pump</th><td class="{{if .PumpRunning}}on{{else}}off{{end}}">{{onOff .PumpRunning}}{{if .PumpRunning}} ({{.Trigger}}){{end}}</td></tr>
<tr><th>Automatic operation</th><td>{{if .PumpEnabled}}enabled{{else}}<span class="warn">disabled</span>{{end}}</td></tr>
<tr><th>Learning</th><td>{{if .LearningEnabled}}enabled{{else}}<span class="warn">disabled</span>{{end}}</td></tr>
<tr><th>Vacation mode</th><td>{{if .Vacation}}<span class="warn">YES</span>{{else}}no{{end}}</td></tr>
<tr><th>Outlet</th><td>{{temp .Outlet}}</td></tr>
<tr><th>Return</th><td>{{temp .Return}}</td></tr>
<tr><th>Baseline outlet</th><td>{{temp .BaselineOutlet}}</td></tr>
<tr><th>Last cycle</th><td>{{.LastCycleSeconds}}s / {{printf "%.4f" .LastCycleKWh}} kWh</td></tr>
<tr><th>Draws confirmed</th><td>{{.Counts.DrawsConfirmed}}</td></tr>
<tr><th>Pump starts / stops</th><td>{{.Counts.PumpStarts}} / {{.Counts.PumpStops}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}on{{else}}off{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
</table>

<div class="controls">
<form method="post" action="/api/pump/start"><button>Run pump</button></form>
<form method="post" action="/api/pump/stop"><button>Stop pump</button></form>
<form method="post" action="/api/pump/enable"><button>Enable</button></form>
<form method="post" action="/api/pump/disable"><button>Disable</button></form>
<form method="post" action="/api/learning/on"><button>Learning on</button></form>
<form method="post" action="/api/learning/off"><button>Learning off</button></form>
<form method="post" action="/api/matrix/save"><button>Save matrix</button></form>
<form method="post" action="/api/matrix/reset"><button>Reset matrix</button></form>
</div>

<h2>Learning matrix (ECO threshold {{.Config.EcoThreshold}})</h2>
<table class="matrix">
{{range $d, $row := .MatrixRows}}<tr><th>{{dayName $d}}</th>{{range $row}}<td style="{{cell .}}" title="{{.}}"></td>{{end}}</tr>
{{end}}</table>
<p>Slots: 48 × 30 min, 00:00 → 23:59</p>
</body>
</html>
`

// templateData flattens the snapshot for the template.
type templateData struct {
	status.Snapshot
	MatrixRows [][]int
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := templateData{Snapshot: snap}
	for d := 0; d < 7; d++ {
		row := make([]int, 48)
		for s := 0; s < 48; s++ {
			row[s] = int(snap.Matrix[d][s])
		}
		data.MatrixRows = append(data.MatrixRows, row)
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render template: %v", err)
	}
}
