package report

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"health-agents/internal/common/config"
	commonerrors "health-agents/internal/common/errors"
	"health-agents/internal/common/logger"
	"health-agents/internal/retrieval"
	"health-agents/internal/timeseries"
)

// Disclaimer accompanies every generated report.
const Disclaimer = "Automated report for informational purposes only; not medical advice. Verify figures with the cited sources."

// Insights carry optional free-text-derived highlights into the report.
type Insights struct {
	WeeklyIncrease float64  `json:"weekly_increase,omitempty"`
	TopRegion      string   `json:"top_region,omitempty"`
	Anomalies      []string `json:"anomalies,omitempty"`
}

// Visual describes one rendered artifact.
type Visual struct {
	Type string `json:"type"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

// Request is a fully structured report order.
type Request struct {
	Disease  string
	Region   string
	DateFrom time.Time
	DateTo   time.Time
	Points   []retrieval.Point
	Sources  []retrieval.Source
	Insights *Insights
	Format   string // "html" (default) or "pdf"
}

// Artifact is the assembled report with its provenance.
type Artifact struct {
	Summary    string             `json:"summary"`
	ChangePct  float64            `json:"change_pct"`
	Mode       timeseries.Mode    `json:"series_mode"`
	Visuals    []Visual           `json:"visuals"`
	ReportURL  string             `json:"report_url"`
	PDFURL     string             `json:"pdf_url,omitempty"`
	Disclaimer string             `json:"disclaimer"`
	Sources    []retrieval.Source `json:"sources"`
}

// PageData is what the HTML renderer receives.
type PageData struct {
	Title      string
	Disease    string
	Region     string
	DateFrom   string
	DateTo     string
	Summary    string
	ChartFile  string
	Points     []retrieval.Point
	Sources    []retrieval.Source
	Insights   *Insights
	Disclaimer string
	Note       string
}

// Renderer produces the on-disk artifacts. The default implementation
// writes an HTML page and an SVG chart; PDF output is not wired in.
type Renderer interface {
	RenderHTML(path string, data *PageData) error
	RenderChart(path, title string, points []retrieval.Point) error
}

// Assembler reconciles the series, computes the headline change, renders
// artifacts, and reuses files already on disk for the same slug.
type Assembler struct {
	reconciler *timeseries.Reconciler
	renderer   Renderer
	dir        string
	baseURL    string
	logger     logger.Logger
}

func NewAssembler(rec *timeseries.Reconciler, renderer Renderer, cfg *config.Config, log logger.Logger) *Assembler {
	return &Assembler{
		reconciler: rec,
		renderer:   renderer,
		dir:        cfg.Artifacts.Dir,
		baseURL:    strings.TrimRight(cfg.Artifacts.BaseURL, "/"),
		logger: log.With(map[string]interface{}{
			"agent": "report",
		}),
	}
}

// Slugify lowercases and collapses anything non-alphanumeric to single
// hyphens.
func Slugify(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// Slug is the deterministic artifact identity for one report order. Two
// identical orders share artifacts.
func Slug(disease, region string, from, to time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%s",
		Slugify(disease), Slugify(region),
		from.Format("20060102"), to.Format("20060102"))
}

// PercentChange is the first-to-last relative change, one decimal. A
// series starting at zero reports 0.0 rather than dividing by it.
func PercentChange(points []retrieval.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	first := points[0].Value
	last := points[len(points)-1].Value
	if first == 0 {
		return 0
	}
	return math.Round((last-first)/first*1000) / 10
}

// Summary is the fixed narrative line for the report window.
func Summary(disease, region string, from, to time.Time, changePct float64) string {
	return fmt.Sprintf(
		"In %s, %s trends were analyzed from %s to %s. Reported change over the period is %.1f%%. Figures are based on supplied inputs; please verify with the cited sources.",
		region, strings.ToUpper(disease),
		from.Format("2006-01-02"), to.Format("2006-01-02"), changePct)
}

// Generate builds (or reuses) the artifacts for a report request.
func (a *Assembler) Generate(ctx context.Context, req Request) (*Artifact, error) {
	changeHint := PercentChange(req.Points)
	series := a.reconciler.Resolve(ctx, timeseries.Request{
		Disease:   strings.ToLower(req.Disease),
		Region:    req.Region,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		Provided:  req.Points,
		ChangePct: changeHint,
	})

	changePct := PercentChange(series.Points)
	summary := Summary(req.Disease, req.Region, req.DateFrom, req.DateTo, changePct)
	if series.Mode == timeseries.ModeSynthetic || series.Mode == timeseries.ModeInterpolated {
		summary = summary + " " + series.Note
	}

	sources := append([]retrieval.Source{}, req.Sources...)
	sources = append(sources, series.Sources...)

	slug := Slug(req.Disease, req.Region, req.DateFrom, req.DateTo)
	chartFile := slug + ".svg"
	htmlFile := slug + ".html"
	chartPath := filepath.Join(a.dir, chartFile)
	htmlPath := filepath.Join(a.dir, htmlFile)

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return nil, commonerrors.NewReportRenderFailedError("create artifacts dir", err)
	}

	if _, err := os.Stat(chartPath); err != nil {
		title := fmt.Sprintf("%s in %s", strings.ToUpper(req.Disease), req.Region)
		if err := a.renderer.RenderChart(chartPath, title, series.Points); err != nil {
			return nil, commonerrors.NewReportRenderFailedError("render chart", err)
		}
	} else {
		a.logger.Info("reusing existing chart", map[string]interface{}{"path": chartPath})
	}

	if _, err := os.Stat(htmlPath); err != nil {
		page := &PageData{
			Title:      fmt.Sprintf("%s Report: %s", strings.ToUpper(req.Disease), req.Region),
			Disease:    strings.ToUpper(req.Disease),
			Region:     req.Region,
			DateFrom:   req.DateFrom.Format("2006-01-02"),
			DateTo:     req.DateTo.Format("2006-01-02"),
			Summary:    summary,
			ChartFile:  chartFile,
			Points:     series.Points,
			Sources:    sources,
			Insights:   req.Insights,
			Disclaimer: Disclaimer,
			Note:       series.Note,
		}
		if err := a.renderer.RenderHTML(htmlPath, page); err != nil {
			return nil, commonerrors.NewReportRenderFailedError("render html", err)
		}
	} else {
		a.logger.Info("reusing existing report", map[string]interface{}{"path": htmlPath})
	}

	pdfURL := ""
	if strings.EqualFold(req.Format, "pdf") {
		// PDF rendering has no backend yet; callers get the HTML page.
		a.logger.Warn("pdf output requested but not supported", map[string]interface{}{"slug": slug})
	}

	return &Artifact{
		Summary:   summary,
		ChangePct: changePct,
		Mode:      series.Mode,
		Visuals: []Visual{
			{Type: "chart", Path: chartPath, URL: a.baseURL + "/" + chartFile},
		},
		ReportURL:  a.baseURL + "/" + htmlFile,
		PDFURL:     pdfURL,
		Disclaimer: Disclaimer,
		Sources:    sources,
	}, nil
}
