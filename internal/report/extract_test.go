package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchorNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestExtractReportRequestExplicit(t *testing.T) {
	req := ExtractReportRequest(
		"Generate a malaria report for Kenya from 2023-01-01 to 2023-06-30", anchorNow)

	assert.Equal(t, "malaria", req.Disease)
	assert.Equal(t, "Kenya", req.Region)
	assert.Equal(t, "2023-01-01", req.DateFrom.Format("2006-01-02"))
	assert.Equal(t, "2023-06-30", req.DateTo.Format("2006-01-02"))
}

func TestExtractReportRequestDefaults(t *testing.T) {
	req := ExtractReportRequest("please make a new report", anchorNow)

	assert.Equal(t, "dengue", req.Disease)
	assert.Equal(t, "Sri Lanka", req.Region)
	assert.Equal(t, anchorNow, req.DateTo)
	assert.Equal(t, anchorNow.AddDate(0, 0, -defaultWindowDays), req.DateFrom)
}

func TestExtractReportRequestLastNWeeks(t *testing.T) {
	req := ExtractReportRequest("dengue chart for the last 4 weeks", anchorNow)

	assert.Equal(t, anchorNow.AddDate(0, 0, -28), req.DateFrom)
	assert.Equal(t, anchorNow, req.DateTo)
}

func TestExtractReportRequestSources(t *testing.T) {
	req := ExtractReportRequest(
		"dengue report, see https://www.who.int/data and https://example.org/stats.", anchorNow)

	require.Len(t, req.Sources, 2)
	assert.Equal(t, "WHO", req.Sources[0].Name)
	assert.Equal(t, "https://www.who.int/data", req.Sources[0].URL)
	assert.Equal(t, "example.org", req.Sources[1].Name)
	assert.Equal(t, "https://example.org/stats", req.Sources[1].URL, "trailing punctuation is stripped")
}

func TestExtractReportRequestInsights(t *testing.T) {
	req := ExtractReportRequest(
		"Dengue report for Colombo: cases increased by 23% with an outbreak cluster, worst area is Colombo", anchorNow)

	require.NotNil(t, req.Insights)
	assert.Equal(t, 23.0, req.Insights.WeeklyIncrease)
	assert.Equal(t, "Colombo", req.Insights.TopRegion)
	assert.NotEmpty(t, req.Insights.Anomalies)
}

func TestExtractReportRequestDecrease(t *testing.T) {
	req := ExtractReportRequest("flu report, infections dropped by 8.5%", anchorNow)

	require.NotNil(t, req.Insights)
	assert.Equal(t, -8.5, req.Insights.WeeklyIncrease)
}

func TestExtractReportRequestNoInsights(t *testing.T) {
	req := ExtractReportRequest("plain dengue report for Sri Lanka", anchorNow)
	assert.Nil(t, req.Insights)
}
