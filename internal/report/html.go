package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/leca/ci-smoke/internal/model"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"ms": func(d time.Duration) string {
		return fmt.Sprintf("%.0f ms", float64(d)/float64(time.Millisecond))
	},
	"ts": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05 MST")
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Run.Suite}} report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; vertical-align: top; }
th { background: #f4f4f4; }
tr.passed td.status { color: #1a7f37; }
tr.failed td.status, tr.error td.status { color: #cf222e; font-weight: bold; }
tr.skipped td.status { color: #9a6700; }
pre { margin: 0; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>{{.Run.Suite}}</h1>
<table class="summary">
<tr><th>Run</th><td>{{.Run.ID}}</td></tr>
<tr><th>Target</th><td>{{.Run.Target}}</td></tr>
<tr><th>Started</th><td>{{ts .Run.Started}}</td></tr>
<tr><th>Duration</th><td>{{ms .Duration}}</td></tr>
<tr><th>Result</th><td>{{.Summary}}</td></tr>
</table>
<table class="results">
<thead><tr><th>Check</th><th>Status</th><th>Duration</th><th>Tags</th><th>Message</th></tr></thead>
<tbody>
{{- range .Run.Results}}
<tr class="{{.Status}}"><td>{{.Name}}</td><td class="status">{{.Status}}</td><td>{{ms .Duration}}</td><td>{{range $i, $t := .Tags}}{{if $i}}, {{end}}{{$t}}{{end}}</td><td><pre>{{.Message}}</pre></td></tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

// HTML writes a self-contained HTML report.
func HTML(w io.Writer, run *model.Run) error {
	return htmlTemplate.Execute(w, struct {
		Run      *model.Run
		Duration time.Duration
		Summary  string
	}{
		Run:      run,
		Duration: run.Duration(),
		Summary:  SummaryLine(run),
	})
}
