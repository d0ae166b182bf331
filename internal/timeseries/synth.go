package timeseries

import (
	"math"
	"math/rand"
	"time"

	"health-agents/internal/retrieval"
)

const (
	synthPoints    = 24
	synthBase      = 100.0
	synthTrendPct  = 12.0 // default overall change when no hint is given
	synthSeasonAmp = 0.06 // fraction of base
	synthNoiseAmp  = 0.025
	seasonPeriod   = 30 * 24 * time.Hour
)

// synthesize fabricates an illustrative series when no real or
// interpolated data exists. The mode and source records make the
// fabrication explicit; stripping them off downstream is not allowed.
func (r *Reconciler) synthesize(req Request) *Result {
	trend := req.ChangePct
	if trend == 0 {
		trend = synthTrendPct
	}

	from, to := req.DateFrom, req.DateTo
	if !to.After(from) {
		to = from.AddDate(0, 0, synthPoints-1)
	}
	window := to.Sub(from)

	// Deterministic for a given request window so repeated report runs
	// produce the same chart.
	rng := rand.New(rand.NewSource(from.Unix() ^ to.Unix()))

	points := make([]retrieval.Point, 0, synthPoints)
	for i := 0; i < synthPoints; i++ {
		frac := float64(i) / float64(synthPoints-1)
		d := from.Add(time.Duration(frac * float64(window)))
		if i == synthPoints-1 {
			d = to
		}

		value := synthBase * (1 + trend/100*frac)
		value += synthBase * synthSeasonAmp * math.Sin(2*math.Pi*float64(d.Sub(from))/float64(seasonPeriod))
		value += synthBase * synthNoiseAmp * (2*rng.Float64() - 1)
		if value < 0 {
			value = 0
		}

		points = append(points, retrieval.Point{
			Date:  d.Format("2006-01-02"),
			Value: round2(value),
		})
	}

	return &Result{
		Points: points,
		Mode:   ModeSynthetic,
		Sources: []retrieval.Source{
			{Name: "Illustrative trend (no official data found)", URL: "about:blank"},
			{Name: "WHO", URL: "https://www.who.int"},
		},
		Note: "No official data found for this disease and region; the series is an illustrative trend.",
	}
}
