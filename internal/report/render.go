package report

import (
	"fmt"
	"html/template"
	"os"
	"strings"

	"health-agents/internal/retrieval"
)

// HTMLRenderer writes the report page and a standalone SVG line chart.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		tmpl: template.Must(template.New("report").Parse(reportTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(path string, data *PageData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.tmpl.Execute(f, data)
}

const (
	chartWidth  = 840
	chartHeight = 360
	chartPad    = 48
)

// RenderChart draws the series as an SVG polyline with min/max labels.
func (r *HTMLRenderer) RenderChart(path, title string, points []retrieval.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(chartSVG(title, points))
	return err
}

func chartSVG(title string, points []retrieval.Point) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		chartWidth, chartHeight, chartWidth, chartHeight)
	b.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>`)
	fmt.Fprintf(&b, `<text x="%d" y="24" font-family="sans-serif" font-size="16">%s</text>`,
		chartPad, template.HTMLEscapeString(title))

	if len(points) >= 2 {
		minV, maxV := points[0].Value, points[0].Value
		for _, p := range points[1:] {
			if p.Value < minV {
				minV = p.Value
			}
			if p.Value > maxV {
				maxV = p.Value
			}
		}
		span := maxV - minV
		if span == 0 {
			span = 1
		}

		plotW := float64(chartWidth - 2*chartPad)
		plotH := float64(chartHeight - 2*chartPad)
		coords := make([]string, 0, len(points))
		for i, p := range points {
			x := float64(chartPad) + plotW*float64(i)/float64(len(points)-1)
			y := float64(chartHeight-chartPad) - plotH*(p.Value-minV)/span
			coords = append(coords, fmt.Sprintf("%.1f,%.1f", x, y))
		}
		fmt.Fprintf(&b, `<polyline fill="none" stroke="#1f77b4" stroke-width="2" points="%s"/>`,
			strings.Join(coords, " "))

		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" fill="#666">%s</text>`,
			chartPad, chartHeight-chartPad+28, points[0].Date)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" fill="#666" text-anchor="end">%s</text>`,
			chartWidth-chartPad, chartHeight-chartPad+28, points[len(points)-1].Date)
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="11" fill="#666">max %.2f</text>`,
			chartPad, chartPad-8, maxV)
	} else {
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-family="sans-serif" font-size="13" fill="#666">Not enough data to plot.</text>`,
			chartPad, chartHeight/2)
	}

	b.WriteString(`</svg>`)
	return b.String()
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 60rem; color: #222; }
h1 { font-size: 1.5rem; }
table { border-collapse: collapse; margin: 1rem 0; }
td, th { border: 1px solid #ccc; padding: 0.3rem 0.8rem; font-size: 0.9rem; }
.note { color: #8a6d3b; background: #fcf8e3; padding: 0.6rem 1rem; border-radius: 4px; }
.disclaimer { color: #666; font-size: 0.85rem; margin-top: 2rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Period: {{.DateFrom}} to {{.DateTo}}</p>
<p>{{.Summary}}</p>
{{if .Note}}<p class="note">{{.Note}}</p>{{end}}
<p><img src="{{.ChartFile}}" alt="Trend chart for {{.Disease}} in {{.Region}}"></p>
{{if .Insights}}
<h2>Insights</h2>
<ul>
{{if .Insights.WeeklyIncrease}}<li>Reported weekly change: {{.Insights.WeeklyIncrease}}%</li>{{end}}
{{if .Insights.TopRegion}}<li>Most affected area: {{.Insights.TopRegion}}</li>{{end}}
{{range .Insights.Anomalies}}<li>{{.}}</li>{{end}}
</ul>
{{end}}
<h2>Data</h2>
<table>
<tr><th>Date</th><th>Value</th></tr>
{{range .Points}}<tr><td>{{.Date}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
{{if .Sources}}
<h2>Sources</h2>
<ul>
{{range .Sources}}<li><a href="{{.URL}}">{{.Name}}</a>{{if .Date}} ({{.Date}}){{end}}</li>
{{end}}</ul>
{{end}}
<p class="disclaimer">{{.Disclaimer}}</p>
</body>
</html>
`
