package timeseries

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-agents/internal/common/config"
	"health-agents/internal/common/logger"
	"health-agents/internal/retrieval"
)

func newTestReconciler(t *testing.T, covidURL, wbURL string) *Reconciler {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upstreams.DiseaseSh.BaseURL = covidURL
	cfg.Upstreams.DiseaseSh.Timeout = 2000
	cfg.Upstreams.WorldBank.BaseURL = wbURL
	cfg.Upstreams.WorldBank.Timeout = 2000
	return NewReconciler(cfg, logger.NewTestLogger(t))
}

func window() (time.Time, time.Time) {
	from, _ := time.Parse("2006-01-02", "2024-01-01")
	to, _ := time.Parse("2006-01-02", "2024-03-01")
	return from, to
}

func TestResolveKeepsProvidedSeriesWithVariance(t *testing.T) {
	r := newTestReconciler(t, "http://127.0.0.1:0", "http://127.0.0.1:0")
	from, to := window()

	res := r.Resolve(context.Background(), Request{
		Disease:  "dengue",
		Region:   "Sri Lanka",
		DateFrom: from,
		DateTo:   to,
		Provided: []retrieval.Point{
			{Date: "2024-01-01", Value: 10},
			{Date: "2024-02-01", Value: 25},
		},
	})

	assert.Equal(t, ModeProvided, res.Mode)
	assert.Len(t, res.Points, 2)
}

func TestResolveRejectsFlatProvidedSeries(t *testing.T) {
	r := newTestReconciler(t, "http://127.0.0.1:0", "http://127.0.0.1:0")
	from, to := window()

	res := r.Resolve(context.Background(), Request{
		Disease:  "dengue", // no real feed, no indicator: falls to synthetic
		Region:   "Sri Lanka",
		DateFrom: from,
		DateTo:   to,
		Provided: []retrieval.Point{
			{Date: "2024-01-01", Value: 7},
			{Date: "2024-02-01", Value: 7},
			{Date: "2024-03-01", Value: 7},
		},
	})

	assert.Equal(t, ModeSynthetic, res.Mode, "flat provided data must not be trusted")
}

func TestResolveSyntheticDisclosesProvenance(t *testing.T) {
	r := newTestReconciler(t, "http://127.0.0.1:0", "http://127.0.0.1:0")
	from, to := window()

	res := r.Resolve(context.Background(), Request{
		Disease:  "dengue",
		Region:   "Sri Lanka",
		DateFrom: from,
		DateTo:   to,
	})

	require.Equal(t, ModeSynthetic, res.Mode)
	require.NotEmpty(t, res.Sources)
	assert.Equal(t, "Illustrative trend (no official data found)", res.Sources[0].Name)
	assert.Equal(t, "about:blank", res.Sources[0].URL)
}

func TestSyntheticSeriesShape(t *testing.T) {
	r := newTestReconciler(t, "http://127.0.0.1:0", "http://127.0.0.1:0")
	from, to := window()

	res := r.synthesize(Request{Disease: "dengue", Region: "Sri Lanka", DateFrom: from, DateTo: to})

	require.Len(t, res.Points, synthPoints)
	assert.Equal(t, from.Format("2006-01-02"), res.Points[0].Date)
	assert.Equal(t, to.Format("2006-01-02"), res.Points[len(res.Points)-1].Date)
	for _, p := range res.Points {
		assert.GreaterOrEqual(t, p.Value, 0.0)
	}

	// deterministic per window
	again := r.synthesize(Request{Disease: "dengue", Region: "Sri Lanka", DateFrom: from, DateTo: to})
	assert.Equal(t, res.Points, again.Points)
}

func TestResolveRealCovidSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/historical/LK", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country":"Sri Lanka","timeline":{"cases":{
			"1/1/24": 100, "1/15/24": 150, "2/1/24": 210, "12/1/23": 90
		}}}`))
	}))
	defer srv.Close()

	r := newTestReconciler(t, srv.URL, "http://127.0.0.1:0")
	from, to := window()

	res := r.Resolve(context.Background(), Request{
		Disease:  "covid",
		Region:   "Sri Lanka",
		DateFrom: from,
		DateTo:   to,
	})

	require.Equal(t, ModeReal, res.Mode)
	require.Len(t, res.Points, 3, "points outside the window are dropped")
	assert.Equal(t, "2024-01-01", res.Points[0].Date)
	assert.Equal(t, 210.0, res.Points[2].Value)
}

func TestResolveAllZeroRealSeriesFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country":"Sri Lanka","timeline":{"cases":{"1/1/24": 0, "2/1/24": 0}}}`))
	}))
	defer srv.Close()

	r := newTestReconciler(t, srv.URL, "http://127.0.0.1:0")
	from, to := window()

	res := r.Resolve(context.Background(), Request{
		Disease: "covid", Region: "Sri Lanka", DateFrom: from, DateTo: to,
	})

	assert.Equal(t, ModeSynthetic, res.Mode)
}

func TestResolveConstantRealSeriesFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country":"Sri Lanka","timeline":{"cases":{"1/1/24": 5, "1/15/24": 5, "2/1/24": 5}}}`))
	}))
	defer srv.Close()

	r := newTestReconciler(t, srv.URL, "http://127.0.0.1:0")
	from, to := window()

	res := r.Resolve(context.Background(), Request{
		Disease: "covid", Region: "Sri Lanka", DateFrom: from, DateTo: to,
	})

	assert.Equal(t, ModeSynthetic, res.Mode, "a flat upstream series is as useless as a flat provided one")
}

func TestResolveConstantInterpolatedSeriesFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"total": 2}, [{"date":"2021","value":10},{"date":"2019","value":10}]]`))
	}))
	defer srv.Close()

	r := newTestReconciler(t, "http://127.0.0.1:0", srv.URL)
	from, _ := time.Parse("2006-01-02", "2020-01-01")
	to, _ := time.Parse("2006-01-02", "2020-03-31")

	res := r.Resolve(context.Background(), Request{
		Disease: "malaria", Region: "India", DateFrom: from, DateTo: to,
	})

	assert.Equal(t, ModeSynthetic, res.Mode)
}

func TestResolveInterpolatesYearlyIndicator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/country/IND/indicator/SH.MLR.INCD.P3", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"total": 2}, [{"date":"2021","value":30},{"date":"2019","value":10}]]`))
	}))
	defer srv.Close()

	r := newTestReconciler(t, "http://127.0.0.1:0", srv.URL)
	from, _ := time.Parse("2006-01-02", "2020-01-01")
	to, _ := time.Parse("2006-01-02", "2020-03-31")

	res := r.Resolve(context.Background(), Request{
		Disease: "malaria", Region: "India", DateFrom: from, DateTo: to,
	})

	require.Equal(t, ModeInterpolated, res.Mode)
	require.Len(t, res.Points, 3)
	assert.Equal(t, "2020-01-01", res.Points[0].Date)
	assert.Equal(t, 20.0, res.Points[0].Value, "January of the midpoint year is exactly halfway")
	assert.NotEmpty(t, res.Sources)
	assert.Contains(t, res.Sources[0].Name, "interpolated")
}

func TestInterpolateMonthlyClampsOutsideAnchors(t *testing.T) {
	anchors := []anchor{{year: 2019, value: 10}, {year: 2021, value: 30}}
	from, _ := time.Parse("2006-01-02", "2017-01-01")
	to, _ := time.Parse("2006-01-02", "2017-02-28")

	points := interpolateMonthly(anchors, from, to)

	require.Len(t, points, 2)
	for _, p := range points {
		assert.Equal(t, 10.0, p.Value, "months before the first anchor clamp to it")
	}
}
