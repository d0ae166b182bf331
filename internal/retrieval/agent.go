package retrieval

import (
	"context"
	"fmt"
	"strings"

	commonerrors "health-agents/internal/common/errors"
	"health-agents/internal/common/logger"
	"health-agents/internal/common/metrics"
	"health-agents/internal/vocab"
)

// Envelope is the outer normalized wrapper the router returns to callers.
// The payload travels under the facts key regardless of which adapter or
// built-in produced it.
type Envelope struct {
	Type    string       `json:"type"`
	Query   *ParsedQuery `json:"query"`
	Facts   *Payload     `json:"facts"`
	Summary string       `json:"summary"`
	Sources []Source     `json:"sources"`
}

// SearchItem is one normalized web-search result.
type SearchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

// SearchEnvelope is the unified web_search response.
type SearchEnvelope struct {
	Type    string       `json:"type"`
	Query   string       `json:"query"`
	Summary string       `json:"summary"`
	Items   []SearchItem `json:"items"`
	Sources []Source     `json:"sources"`
}

// builtinRoute is one (predicate, handler) pair of the built-in fallback
// chain. Routes are evaluated in slice order; ordering is a data
// structure here, not buried control flow.
type builtinRoute struct {
	name   string
	match  func(q *ParsedQuery) bool
	handle func(ctx context.Context, q *ParsedQuery) *Payload
}

// Agent is the retrieval router: adapter chain first (first Supports
// wins), then built-ins, then a generic fallback envelope. It never
// raises to the caller.
type Agent struct {
	adapters []FactsAdapter
	routes   []builtinRoute
	ner      EntityRecognizer
	wiki     *WikiClient
	logger   logger.Logger
}

// NewAgent wires the router. The adapter slice order is the configured
// priority order and is preserved exactly: two adapters may both support
// an ambiguous query and the earliest one must win.
func NewAgent(adapters []FactsAdapter, fetchers *Fetchers, wiki *WikiClient, ner EntityRecognizer, log logger.Logger) *Agent {
	a := &Agent{
		adapters: adapters,
		ner:      ner,
		wiki:     wiki,
		logger: log.With(map[string]interface{}{
			"agent": "retrieval",
		}),
	}

	a.routes = []builtinRoute{
		{
			name:  "covid",
			match: func(q *ParsedQuery) bool { return q.Disease == "covid" },
			handle: func(ctx context.Context, q *ParsedQuery) *Payload {
				country := q.Country
				if country == "" {
					country = "World"
				}
				return fetchers.FetchCovid(ctx, country, q.InfoType)
			},
		},
		{
			name:  "medicine",
			match: func(q *ParsedQuery) bool { return q.Medicine != "" },
			handle: func(ctx context.Context, q *ParsedQuery) *Payload {
				return fetchers.FetchMedicine(ctx, q.Medicine)
			},
		},
		{
			name:  "nutrition",
			match: func(q *ParsedQuery) bool { return q.InfoType == vocab.InfoNutrition },
			handle: func(ctx context.Context, q *ParsedQuery) *Payload {
				return fetchers.FetchNutrition(ctx, q.Question)
			},
		},
	}

	return a
}

// safeFetch guards an adapter Fetch call so that even an adapter that
// violates the catch-your-own-errors contract cannot crash the router.
func safeFetch(ctx context.Context, adapter FactsAdapter, q *ParsedQuery) (payload *Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()
	return adapter.Fetch(ctx, q)
}

// Search routes a question through the adapter chain and built-ins and
// returns the retrieval envelope. An error from an adapter Fetch produces
// an error envelope immediately; there is no fail-over to the next
// adapter.
func (a *Agent) Search(ctx context.Context, question string) *Envelope {
	q := ExtractQuery(question, a.ner)

	// 1) Adapters, in configured order
	for _, adapter := range a.adapters {
		if !adapter.Supports(q) {
			continue
		}
		payload, err := safeFetch(ctx, adapter, q)
		if err != nil {
			metrics.AdapterFetches.WithLabelValues(adapter.Name(), "error").Inc()
			se := commonerrors.NewAdapterFailedError(adapter.Name(), err)
			a.logger.Error("adapter fetch failed", map[string]interface{}{
				"adapter": adapter.Name(),
				"error":   se.Error(),
				"details": se.Details,
			})
			return &Envelope{
				Type:  "retrieval",
				Query: q,
				Facts: &Payload{
					Type:    "adapter_error",
					Summary: "",
					Data:    map[string]interface{}{"error": se.Details, "code": string(se.Code)},
					Sources: []Source{},
				},
				Summary: se.Message + ".",
				Sources: []Source{},
			}
		}
		metrics.AdapterFetches.WithLabelValues(adapter.Name(), "ok").Inc()
		return &Envelope{
			Type:    "retrieval",
			Query:   q,
			Facts:   payload,
			Summary: payload.Summary,
			Sources: payload.Sources,
		}
	}

	// 2) Built-ins, in fixed order
	for _, route := range a.routes {
		if !route.match(q) {
			continue
		}
		payload := route.handle(ctx, q)
		metrics.AdapterFetches.WithLabelValues("builtin_"+route.name, "ok").Inc()
		return &Envelope{
			Type:    "retrieval",
			Query:   q,
			Facts:   payload,
			Summary: payload.Summary,
			Sources: payload.Sources,
		}
	}

	// 3) Fallback
	return &Envelope{
		Type:  "retrieval",
		Query: q,
		Facts: &Payload{
			Type:    "general_health",
			Summary: "No structured adapter matched.",
			Data:    map[string]interface{}{"info": "No structured adapter matched."},
			Sources: []Source{},
		},
		Summary: "I couldn't match that to a real-world data source, but I can try a general answer.",
		Sources: []Source{},
	}
}

// WebSearch reuses the adapter chain but normalizes results into search
// items, falling back to the encyclopedic summary lookup. Adapter and
// fallback errors are swallowed and treated as "no result"; this path
// never surfaces an error.
func (a *Agent) WebSearch(ctx context.Context, question string, filters map[string]interface{}) *SearchEnvelope {
	q := strings.TrimSpace(question)
	items := []SearchItem{}
	sources := []Source{}

	parsed := ExtractQuery(q, a.ner)
	for _, adapter := range a.adapters {
		if !adapter.Supports(parsed) {
			continue
		}
		payload, err := safeFetch(ctx, adapter, parsed)
		if err != nil || payload == nil {
			// ignore adapter errors here; the fallback will answer
			continue
		}

		title := payload.Type
		if t, ok := payload.Data["title"].(string); ok && t != "" {
			title = t
		}
		if title == "" {
			title = "Result"
		}
		snippet := payload.Summary
		if snippet == "" {
			snippet = "Data retrieved."
		}
		firstURL := ""
		sourceName := "Data source"
		if len(payload.Sources) > 0 {
			firstURL = payload.Sources[0].URL
			sourceName = payload.Sources[0].Name
		}

		items = append(items, SearchItem{
			Title:   title,
			Snippet: snippet,
			URL:     firstURL,
			Source:  sourceName,
		})
		sources = append(sources, payload.Sources...)
		break
	}

	if len(items) == 0 && a.wiki != nil {
		if summary, err := a.wiki.Lookup(ctx, q); err == nil {
			items = append(items, SearchItem{
				Title:   summary.Title,
				Snippet: summary.Extract,
				URL:     summary.PageURL,
				Source:  "Wikipedia",
			})
			sources = append(sources, Source{Name: "Wikipedia", URL: summary.PageURL})
		}
	}

	var summaryText string
	if len(items) > 0 {
		first := items[0]
		extra := ""
		if len(items) > 1 {
			extra = " and additional sources"
		}
		summaryText = fmt.Sprintf(
			"Here's what I found about %q. %s I included a primary reference from %s%s. Open the links below for full details.",
			q, first.Snippet, first.Source, extra,
		)
	} else {
		summaryText = fmt.Sprintf(
			"I looked for reliable sources about %q but didn't find a good match. Try rephrasing or be more specific (e.g., add a country, year, or health topic).",
			q,
		)
	}

	return &SearchEnvelope{
		Type:    "search",
		Query:   q,
		Summary: summaryText,
		Items:   items,
		Sources: sources,
	}
}

// MaxSuggestions caps the suggest list.
const MaxSuggestions = 15

// Suggest returns human-friendly "<disease> in <country>" completions for
// a partial query: prefix-filtered first, substring-filtered when the
// prefix yields nothing, static defaults when q is empty.
func (a *Agent) Suggest(q string) []string {
	prefix := strings.ToLower(strings.TrimSpace(q))

	templates := make([]string, 0, len(vocab.SuggestDiseases)*len(vocab.SuggestCountries))
	for _, d := range vocab.SuggestDiseases {
		for _, c := range vocab.SuggestCountries {
			templates = append(templates, fmt.Sprintf("%s in %s", d, c))
		}
	}

	var out []string
	if prefix != "" {
		for _, s := range templates {
			if strings.HasPrefix(strings.ToLower(s), prefix) {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			for _, s := range templates {
				if strings.Contains(strings.ToLower(s), prefix) {
					out = append(out, s)
				}
			}
		}
	} else {
		out = append(out, vocab.DefaultSuggestions...)
	}

	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	if out == nil {
		out = []string{}
	}
	return out
}
