package retrieval

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"health-agents/internal/common/config"
	"health-agents/internal/common/httpclient"
	"health-agents/internal/vocab"
)

// Fetchers groups the built-in data fetchers the router falls back to when
// no adapter matches: disease.sh case counts, openFDA side effects, USDA
// nutrition. Every method returns a normalized payload and converts its
// own upstream failures into a *_error payload.
type Fetchers struct {
	cfg config.UpstreamsConfig

	covidClient     *httpclient.Client
	medicineClient  *httpclient.Client
	nutritionClient *httpclient.Client
}

func NewFetchers(cfg config.UpstreamsConfig) *Fetchers {
	return &Fetchers{
		cfg:             cfg,
		covidClient:     httpclient.NewClient(time.Duration(cfg.DiseaseSh.Timeout) * time.Millisecond),
		medicineClient:  httpclient.NewClient(time.Duration(cfg.OpenFDA.Timeout) * time.Millisecond),
		nutritionClient: httpclient.NewClient(time.Duration(cfg.USDA.Timeout) * time.Millisecond),
	}
}

var covidSources = []Source{{Name: "disease.sh (JHU)", URL: "https://disease.sh/"}}

type covidCountry struct {
	Country     string  `json:"country"`
	Cases       float64 `json:"cases"`
	TodayCases  float64 `json:"todayCases"`
	Deaths      float64 `json:"deaths"`
	TodayDeaths float64 `json:"todayDeaths"`
	Recovered   float64 `json:"recovered"`
}

// FetchCovid looks up current COVID numbers for a country and shapes them
// by the requested info type. A failed name lookup is retried once with a
// strict ISO2 code before giving up.
func (f *Fetchers) FetchCovid(ctx context.Context, country string, infoType vocab.InfoType) *Payload {
	if strings.TrimSpace(country) == "" {
		country = "World"
	}
	base := strings.TrimRight(f.cfg.DiseaseSh.BaseURL, "/")

	var data covidCountry
	err := f.covidClient.GetJSON(ctx, base+"/countries/"+url.PathEscape(strings.TrimSpace(country)), &data)
	if err != nil {
		iso2 := vocab.ToISO2OrOriginal(country)
		err = f.covidClient.GetJSON(ctx, base+"/countries/"+url.PathEscape(iso2)+"?strict=true", &data)
	}
	if err != nil {
		return errorPayload(
			"covid_error",
			fmt.Sprintf("COVID-19 data for %s could not be fetched.", country),
			err,
			covidSources,
		)
	}

	name := data.Country
	if name == "" {
		name = country
	}

	switch infoType {
	case vocab.InfoCases:
		return &Payload{
			Type:    "covid_cases",
			Summary: fmt.Sprintf("%s — %.0f total COVID cases (%.0f today).", name, data.Cases, data.TodayCases),
			Data: map[string]interface{}{
				"country":    name,
				"cases":      data.Cases,
				"todayCases": data.TodayCases,
			},
			Sources: covidSources,
		}
	case vocab.InfoDeaths:
		return &Payload{
			Type:    "covid_deaths",
			Summary: fmt.Sprintf("%s — %.0f total COVID deaths (%.0f today).", name, data.Deaths, data.TodayDeaths),
			Data: map[string]interface{}{
				"country":     name,
				"deaths":      data.Deaths,
				"todayDeaths": data.TodayDeaths,
			},
			Sources: covidSources,
		}
	case vocab.InfoRecovered:
		return &Payload{
			Type:    "covid_recovered",
			Summary: fmt.Sprintf("%s — %.0f recovered.", name, data.Recovered),
			Data: map[string]interface{}{
				"country":   name,
				"recovered": data.Recovered,
			},
			Sources: covidSources,
		}
	}

	return &Payload{
		Type:    "covid_all",
		Summary: fmt.Sprintf("COVID-19 data for %s retrieved.", name),
		Data: map[string]interface{}{
			"country":     name,
			"cases":       data.Cases,
			"todayCases":  data.TodayCases,
			"deaths":      data.Deaths,
			"todayDeaths": data.TodayDeaths,
			"recovered":   data.Recovered,
		},
		Sources: covidSources,
	}
}

var medicineSources = []Source{{Name: "FDA (openFDA)", URL: "https://open.fda.gov/apis/drug/event/"}}

var whitespaceRe = regexp.MustCompile(`\s+`)

// FetchMedicine aggregates the most commonly reported adverse reactions
// for a medicine from the openFDA drug event API.
func (f *Fetchers) FetchMedicine(ctx context.Context, medicine string) *Payload {
	if medicine == "" {
		return &Payload{
			Type:    "medicine_error",
			Summary: "No medicine specified.",
			Data:    map[string]interface{}{},
			Sources: []Source{},
		}
	}

	medQuery := whitespaceRe.ReplaceAllString(medicine, "+")
	reqURL := fmt.Sprintf("%s?search=patient.drug.medicinalproduct:%s&limit=20", strings.TrimRight(f.cfg.OpenFDA.BaseURL, "?&"), medQuery)

	var resp struct {
		Results []struct {
			Patient struct {
				Reaction []struct {
					ReactionMeddraPT string `json:"reactionmeddrapt"`
				} `json:"reaction"`
			} `json:"patient"`
		} `json:"results"`
	}
	if err := f.medicineClient.GetJSON(ctx, reqURL, &resp); err != nil {
		return errorPayload(
			"medicine_error",
			fmt.Sprintf("Could not fetch medicine info for %s.", medicine),
			err,
			medicineSources,
		)
	}

	var reactions []string
	counts := map[string]int{}
	for _, result := range resp.Results {
		for _, r := range result.Patient.Reaction {
			name := strings.TrimSpace(r.ReactionMeddraPT)
			if name == "" {
				continue
			}
			reactions = append(reactions, name)
			counts[strings.ToLower(name)]++
		}
	}

	top := topReactions(counts, 6)
	pretty := "No common side effects found."
	if len(top) > 0 {
		pretty = strings.Join(top, ", ")
	}

	return &Payload{
		Type:    "medicine_side_effects",
		Summary: fmt.Sprintf("Commonly reported side effects for %s: %s.", medicine, pretty),
		Data: map[string]interface{}{
			"medicine":     medicine,
			"side_effects": sortedUnique(reactions),
		},
		Sources: medicineSources,
	}
}

// topReactions returns the n most frequent reaction names, ties broken
// alphabetically for determinism.
func topReactions(counts map[string]int, n int) []string {
	type kv struct {
		name  string
		count int
	}
	items := make([]kv, 0, len(counts))
	for k, v := range counts {
		items = append(items, kv{k, v})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].name < items[j].name
	})
	if len(items) > n {
		items = items[:n]
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.name
	}
	return out
}

func sortedUnique(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

// Key nutrients the nutrition summary ranks foods by.
var keyNutrients = []string{
	"Vitamin C, total ascorbic acid",
	"Protein",
	"Calcium, Ca",
	"Iron, Fe",
	"Vitamin A, RAE",
}

type usdaFood struct {
	Description   string `json:"description"`
	FoodNutrients []struct {
		NutrientName string   `json:"nutrientName"`
		Value        *float64 `json:"value"`
	} `json:"foodNutrients"`
}

// FetchNutrition looks up foods from USDA FoodData Central and builds a
// summary listing the top 3 foods for several key nutrients. When the
// primary query has no hits, a simpler fallback keyword is tried once.
func (f *Fetchers) FetchNutrition(ctx context.Context, queryText string) *Payload {
	foods, err := f.usdaSearch(ctx, queryText)
	if err != nil {
		return &Payload{
			Type:    "nutrition_error",
			Summary: "USDA query failed (check key/limit/network).",
			Data:    map[string]interface{}{"error": err.Error()},
			Sources: []Source{},
		}
	}

	if len(foods) == 0 {
		if fallback := nutritionFallbackKeyword(queryText); fallback != "" {
			foods, err = f.usdaSearch(ctx, fallback)
			if err != nil {
				return &Payload{
					Type:    "nutrition_error",
					Summary: "USDA query failed (check key/limit/network).",
					Data:    map[string]interface{}{"error": err.Error()},
					Sources: []Source{},
				}
			}
		}
	}

	results := make([]map[string]interface{}, 0, len(foods))
	nutrientsByFood := make([]map[string]float64, 0, len(foods))
	for _, item := range foods {
		nutrients := map[string]float64{}
		for _, n := range item.FoodNutrients {
			if n.NutrientName == "" || n.Value == nil {
				continue
			}
			nutrients[n.NutrientName] = *n.Value
		}
		results = append(results, map[string]interface{}{
			"food_name": item.Description,
			"nutrients": nutrients,
		})
		nutrientsByFood = append(nutrientsByFood, nutrients)
	}

	if len(results) == 0 {
		return &Payload{
			Type:    "nutrition",
			Summary: "No USDA foods matched that query.",
			Data: map[string]interface{}{
				"results":       []interface{}{},
				"summary_table": []interface{}{},
			},
			Sources: []Source{},
		}
	}

	type topFood struct {
		FoodName string  `json:"food_name"`
		Amount   float64 `json:"amount"`
	}
	type tableRow struct {
		Nutrient string    `json:"Nutrient"`
		TopFoods []topFood `json:"Top Foods"`
	}

	var table []tableRow
	for _, nutrient := range keyNutrients {
		var ranked []topFood
		for i, food := range foods {
			amount := nutrientsByFood[i][nutrient]
			if amount > 0 {
				ranked = append(ranked, topFood{FoodName: food.Description, Amount: amount})
			}
		}
		sort.Slice(ranked, func(i, j int) bool { return ranked[i].Amount > ranked[j].Amount })
		if len(ranked) > 3 {
			ranked = ranked[:3]
		}
		if len(ranked) > 0 {
			table = append(table, tableRow{Nutrient: nutrient, TopFoods: ranked})
		}
	}

	summary := "USDA results found, but no notable amounts for the selected nutrients."
	if len(table) > 0 {
		var lines []string
		for _, row := range table {
			parts := make([]string, len(row.TopFoods))
			for i, tf := range row.TopFoods {
				parts[i] = fmt.Sprintf("%s (%g)", tf.FoodName, tf.Amount)
			}
			lines = append(lines, fmt.Sprintf("%s: %s", row.Nutrient, strings.Join(parts, ", ")))
		}
		summary = "Top nutrient-rich foods:\n" + strings.Join(lines, "\n")
	}

	return &Payload{
		Type:    "nutrition",
		Summary: summary,
		Data: map[string]interface{}{
			"results":       results,
			"summary_table": table,
		},
		Sources: []Source{},
	}
}

func (f *Fetchers) usdaSearch(ctx context.Context, query string) ([]usdaFood, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", f.cfg.USDA.APIKey)
	params.Set("pageSize", "8")

	var resp struct {
		Foods []usdaFood `json:"foods"`
	}
	if err := f.nutritionClient.GetJSON(ctx, f.cfg.USDA.BaseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Foods, nil
}

func nutritionFallbackKeyword(queryText string) string {
	qlow := strings.ToLower(queryText)
	switch {
	case strings.Contains(qlow, "vitamin c") || strings.Contains(qlow, "ascorbic"):
		return "vitamin c"
	case strings.Contains(qlow, "protein"):
		return "protein"
	case strings.Contains(qlow, "iron"):
		return "iron"
	case strings.Contains(qlow, "calcium"):
		return "calcium"
	}
	return ""
}
