package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"health-agents/internal/common/httpclient"
	"health-agents/internal/vocab"
)

// WorldBankAdapter answers health-indicator questions (TB incidence,
// under-5 mortality, immunization coverage, ...) from the World Bank
// indicators API, keyed by the shared topic trigger table.
type WorldBankAdapter struct {
	client  *httpclient.Client
	baseURL string
}

func NewWorldBankAdapter(client *httpclient.Client, baseURL string) *WorldBankAdapter {
	return &WorldBankAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (a *WorldBankAdapter) Name() string { return "worldbank" }

func (a *WorldBankAdapter) Supports(q *ParsedQuery) bool {
	return vocab.DetectTopic(q.Question) != ""
}

func (a *WorldBankAdapter) Fetch(ctx context.Context, q *ParsedQuery) (*Payload, error) {
	topic := vocab.DetectTopic(q.Question)
	if topic == "" {
		return &Payload{
			Type:    "worldbank",
			Summary: "No indicator matched.",
			Data:    map[string]interface{}{},
			Sources: []Source{},
		}, nil
	}

	ind := vocab.Indicators[topic]
	country := q.Country
	if country == "" {
		country = q.Region
	}
	iso3 := vocab.ToISO3(country)

	sourceURL := fmt.Sprintf("%s/country/%s/indicator/%s?format=json", a.baseURL, iso3, ind.Code)

	series, err := a.fetchSeries(ctx, iso3, ind.Code)
	if err != nil {
		return errorPayload(
			"worldbank_error",
			fmt.Sprintf("%s data for %s could not be fetched.", ind.Title, iso3),
			err,
			[]Source{{Name: "World Bank API", URL: sourceURL}},
		), nil
	}

	start, end, changePct := firstLastChange(series)
	latestYear, latestVal, hasLatest := latestNonZero(series)

	var summary string
	if hasLatest {
		summary = fmt.Sprintf("%s: %s = %g (%s). Change across series: %g%%.", iso3, ind.Title, latestVal, latestYear, changePct)
	} else {
		summary = fmt.Sprintf("%s: %s — no recent non-zero data.", iso3, ind.Title)
	}

	data := map[string]interface{}{
		"country":    iso3,
		"indicator":  ind.Code,
		"title":      ind.Title,
		"series":     series, // oldest → newest
		"start":      start,
		"end":        end,
		"change_pct": changePct,
	}
	if hasLatest {
		data["latest"] = map[string]interface{}{"year": latestYear, "value": latestVal}
	}

	return &Payload{
		Type:    "worldbank_" + strings.ToLower(ind.Code),
		Summary: summary,
		Data:    data,
		Sources: []Source{{Name: "World Bank API", URL: sourceURL}},
	}, nil
}

// fetchSeries pulls the indicator series and returns it as
// {date: "YYYY-01-01", value} points, oldest first. Null values map to 0.
func (a *WorldBankAdapter) fetchSeries(ctx context.Context, iso3, indicator string) ([]Point, error) {
	url := fmt.Sprintf("%s/country/%s/indicator/%s?format=json&per_page=70", a.baseURL, iso3, indicator)

	// Response shape: [meta, rows]
	var raw []json.RawMessage
	if err := a.client.GetJSON(ctx, url, &raw); err != nil {
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

	series := make([]Point, 0, len(rows))
	for _, row := range rows {
		if row.Date == "" {
			continue
		}
		v := 0.0
		if row.Value != nil {
			v = *row.Value
		}
		series = append(series, Point{Date: row.Date + "-01-01", Value: v})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series, nil
}

// firstLastChange computes (start, end, change_pct) across the series
// window. A zero start yields a 0.0% change.
func firstLastChange(series []Point) (float64, float64, float64) {
	if len(series) == 0 {
		return 0, 0, 0
	}
	start := series[0].Value
	end := series[len(series)-1].Value
	if start == 0 {
		return start, end, 0
	}
	change := math.Round((end-start)/start*1000) / 10
	return start, end, change
}

// latestNonZero returns the most recent non-zero (year, value).
func latestNonZero(series []Point) (string, float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Value != 0 {
			return strings.SplitN(series[i].Date, "-", 2)[0], series[i].Value, true
		}
	}
	return "", 0, false
}
