package timeseries

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"health-agents/internal/retrieval"
	"health-agents/internal/vocab"
)

// anchor is one yearly indicator observation.
type anchor struct {
	year  int
	value float64
}

// fromIndicator upsamples a yearly development indicator into a monthly
// series over the requested window. The result is real data, linearly
// interpolated between yearly observations; the source records say so.
func (r *Reconciler) fromIndicator(ctx context.Context, req Request) *Result {
	topic := vocab.DetectTopic(req.Disease)
	if topic == "" {
		return nil
	}
	ind, ok := vocab.Indicators[topic]
	if !ok {
		return nil
	}

	anchors, err := r.fetchYearly(ctx, vocab.ToISO3(req.Region), ind.Code)
	if err != nil || len(anchors) < 2 {
		if err != nil {
			r.logger.Warn("indicator fetch failed", map[string]interface{}{
				"indicator": ind.Code,
				"region":    req.Region,
				"error":     err.Error(),
			})
		}
		return nil
	}

	points := interpolateMonthly(anchors, req.DateFrom, req.DateTo)
	if !hasVariance(points) {
		return nil
	}

	return &Result{
		Points: points,
		Mode:   ModeInterpolated,
		Sources: []retrieval.Source{
			{
				Name: fmt.Sprintf("World Bank indicator %s (yearly, interpolated monthly)", ind.Code),
				URL:  fmt.Sprintf("https://data.worldbank.org/indicator/%s", ind.Code),
			},
		},
		Note: "Monthly values interpolated linearly between yearly observations.",
	}
}

func (r *Reconciler) fetchYearly(ctx context.Context, iso3, indicator string) ([]anchor, error) {
	endpoint := fmt.Sprintf("%s/country/%s/indicator/%s?format=json&per_page=70",
		r.wbBaseURL, iso3, indicator)

	var raw []json.RawMessage
	if err := r.wbClient.GetJSON(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("unexpected response shape")
	}

	var rows []struct {
		Date  string   `json:"date"`
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(raw[1], &rows); err != nil {
		return nil, err
	}

	anchors := make([]anchor, 0, len(rows))
	for _, row := range rows {
		if row.Value == nil {
			continue
		}
		var year int
		if _, err := fmt.Sscanf(row.Date, "%d", &year); err != nil || year < 1900 {
			continue
		}
		anchors = append(anchors, anchor{year: year, value: *row.Value})
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].year < anchors[j].year })
	return anchors, nil
}

// interpolateMonthly emits one point per calendar month in [from, to],
// valued by linear interpolation between the bracketing yearly anchors.
// Months outside the anchor range clamp to the nearest anchor so the
// series never extrapolates.
func interpolateMonthly(anchors []anchor, from, to time.Time) []retrieval.Point {
	if len(anchors) == 0 {
		return nil
	}

	var points []retrieval.Point
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		// Month positions map onto the year axis as year + (m-1)/12 so
		// January of an anchor year lands exactly on the anchor.
		t := float64(cur.Year()) + float64(cur.Month()-1)/12.0
		points = append(points, retrieval.Point{
			Date:  cur.Format("2006-01-02"),
			Value: round2(valueAt(anchors, t)),
		})
		cur = cur.AddDate(0, 1, 0)
	}
	return points
}

func valueAt(anchors []anchor, t float64) float64 {
	first := anchors[0]
	last := anchors[len(anchors)-1]
	if t <= float64(first.year) {
		return first.value
	}
	if t >= float64(last.year) {
		return last.value
	}
	for i := 1; i < len(anchors); i++ {
		lo, hi := anchors[i-1], anchors[i]
		if t > float64(hi.year) {
			continue
		}
		span := float64(hi.year - lo.year)
		if span == 0 {
			return hi.value
		}
		frac := (t - float64(lo.year)) / span
		return lo.value + frac*(hi.value-lo.value)
	}
	return last.value
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
