package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-agents/internal/common/config"
	"health-agents/internal/common/logger"
	"health-agents/internal/retrieval"
	"health-agents/internal/timeseries"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "sri-lanka", Slugify("Sri Lanka"))
	assert.Equal(t, "covid-19", Slugify("COVID-19"))
	assert.Equal(t, "dengue", Slugify("  dengue!  "))
	assert.Equal(t, "a-b-c", Slugify("a  b--c"))
}

func TestSlugIsDeterministic(t *testing.T) {
	from, _ := time.Parse("2006-01-02", "2024-01-01")
	to, _ := time.Parse("2006-01-02", "2024-03-01")

	s := Slug("Dengue", "Sri Lanka", from, to)
	assert.Equal(t, "dengue_sri-lanka_20240101_20240301", s)
	assert.Equal(t, s, Slug("Dengue", "Sri Lanka", from, to))
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0.0, PercentChange(nil))
	assert.Equal(t, 0.0, PercentChange([]retrieval.Point{{Date: "2024-01-01", Value: 5}}))
	assert.Equal(t, 0.0, PercentChange([]retrieval.Point{
		{Date: "2024-01-01", Value: 0},
		{Date: "2024-02-01", Value: 50},
	}), "a zero start means no defined change")
	assert.Equal(t, 50.0, PercentChange([]retrieval.Point{
		{Date: "2024-01-01", Value: 10},
		{Date: "2024-02-01", Value: 15},
	}))
	assert.Equal(t, -25.0, PercentChange([]retrieval.Point{
		{Date: "2024-01-01", Value: 100},
		{Date: "2024-02-01", Value: 75},
	}))
}

func TestSummaryWording(t *testing.T) {
	from, _ := time.Parse("2006-01-02", "2024-01-01")
	to, _ := time.Parse("2006-01-02", "2024-03-01")

	got := Summary("dengue", "Sri Lanka", from, to, 12.5)

	assert.Equal(t,
		"In Sri Lanka, DENGUE trends were analyzed from 2024-01-01 to 2024-03-01. Reported change over the period is 12.5%. Figures are based on supplied inputs; please verify with the cited sources.",
		got)
}

func newTestAssembler(t *testing.T) (*Assembler, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Artifacts.Dir = dir
	cfg.Artifacts.BaseURL = "/artifacts"
	cfg.Upstreams.DiseaseSh.BaseURL = "http://127.0.0.1:0"
	cfg.Upstreams.DiseaseSh.Timeout = 500
	cfg.Upstreams.WorldBank.BaseURL = "http://127.0.0.1:0"
	cfg.Upstreams.WorldBank.Timeout = 500

	log := logger.NewTestLogger(t)
	rec := timeseries.NewReconciler(cfg, log)
	return NewAssembler(rec, NewHTMLRenderer(), cfg, log), dir
}

func reportOrder() Request {
	from, _ := time.Parse("2006-01-02", "2024-01-01")
	to, _ := time.Parse("2006-01-02", "2024-03-01")
	return Request{
		Disease:  "dengue",
		Region:   "Sri Lanka",
		DateFrom: from,
		DateTo:   to,
		Points: []retrieval.Point{
			{Date: "2024-01-01", Value: 120},
			{Date: "2024-02-01", Value: 150},
			{Date: "2024-03-01", Value: 180},
		},
	}
}

func TestGenerateWritesArtifacts(t *testing.T) {
	asm, dir := newTestAssembler(t)

	artifact, err := asm.Generate(context.Background(), reportOrder())
	require.NoError(t, err)

	assert.Equal(t, timeseries.ModeProvided, artifact.Mode)
	assert.Equal(t, 50.0, artifact.ChangePct)
	assert.Equal(t, "/artifacts/dengue_sri-lanka_20240101_20240301.html", artifact.ReportURL)
	assert.Empty(t, artifact.PDFURL)
	assert.Equal(t, Disclaimer, artifact.Disclaimer)

	html, err := os.ReadFile(filepath.Join(dir, "dengue_sri-lanka_20240101_20240301.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "DENGUE")
	assert.Contains(t, string(html), "2024-01-01")

	svg, err := os.ReadFile(filepath.Join(dir, "dengue_sri-lanka_20240101_20240301.svg"))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<polyline")
}

func TestGenerateReusesExistingArtifacts(t *testing.T) {
	asm, dir := newTestAssembler(t)

	_, err := asm.Generate(context.Background(), reportOrder())
	require.NoError(t, err)

	htmlPath := filepath.Join(dir, "dengue_sri-lanka_20240101_20240301.html")
	require.NoError(t, os.WriteFile(htmlPath, []byte("sentinel"), 0o644))

	_, err = asm.Generate(context.Background(), reportOrder())
	require.NoError(t, err)

	content, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "sentinel", string(content), "existing artifacts are reused, not rewritten")
}

func TestGenerateSyntheticCarriesDisclosure(t *testing.T) {
	asm, _ := newTestAssembler(t)

	order := reportOrder()
	order.Points = nil

	artifact, err := asm.Generate(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, timeseries.ModeSynthetic, artifact.Mode)
	assert.Contains(t, artifact.Summary, "illustrative trend")

	names := make([]string, 0, len(artifact.Sources))
	for _, s := range artifact.Sources {
		names = append(names, s.Name)
	}
	assert.Contains(t, strings.Join(names, "|"), "Illustrative trend (no official data found)")
}
