package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"health-agents/internal/common/config"
	"health-agents/internal/common/httpclient"
	"health-agents/internal/common/logger"
)

type fakeAdapter struct {
	name     string
	supports bool
	payload  *Payload
	err      error
	panics   bool
	called   bool
}

func (f *fakeAdapter) Name() string                { return f.name }
func (f *fakeAdapter) Supports(_ *ParsedQuery) bool { return f.supports }
func (f *fakeAdapter) Fetch(_ context.Context, _ *ParsedQuery) (*Payload, error) {
	f.called = true
	if f.panics {
		panic("boom")
	}
	return f.payload, f.err
}

func okPayload(typ string) *Payload {
	return &Payload{
		Type:    typ,
		Summary: "data retrieved",
		Data:    map[string]interface{}{"k": "v"},
		Sources: []Source{{Name: "src", URL: "https://example.com"}},
	}
}

func newTestAgent(t *testing.T, adapters []FactsAdapter, cfg config.UpstreamsConfig, wiki *WikiClient) *Agent {
	t.Helper()
	return NewAgent(adapters, NewFetchers(cfg), wiki, NewGazetteerRecognizer(), logger.NewTestLogger(t))
}

func TestSearchFirstMatchingAdapterWins(t *testing.T) {
	first := &fakeAdapter{name: "first", supports: true, payload: okPayload("first_data")}
	second := &fakeAdapter{name: "second", supports: true, payload: okPayload("second_data")}
	agent := newTestAgent(t, []FactsAdapter{first, second}, config.UpstreamsConfig{}, nil)

	env := agent.Search(context.Background(), "anything at all")

	require.NotNil(t, env.Facts)
	assert.Equal(t, "first_data", env.Facts.Type)
	assert.True(t, first.called)
	assert.False(t, second.called, "later adapters must not run once one matched")
}

func TestSearchSkipsNonSupportingAdapters(t *testing.T) {
	skipped := &fakeAdapter{name: "skipped", supports: false, payload: okPayload("skipped_data")}
	hit := &fakeAdapter{name: "hit", supports: true, payload: okPayload("hit_data")}
	agent := newTestAgent(t, []FactsAdapter{skipped, hit}, config.UpstreamsConfig{}, nil)

	env := agent.Search(context.Background(), "anything")

	assert.False(t, skipped.called)
	assert.Equal(t, "hit_data", env.Facts.Type)
}

func TestSearchAdapterErrorFailsFast(t *testing.T) {
	failing := &fakeAdapter{name: "failing", supports: true, err: assert.AnError}
	next := &fakeAdapter{name: "next", supports: true, payload: okPayload("next_data")}
	agent := newTestAgent(t, []FactsAdapter{failing, next}, config.UpstreamsConfig{}, nil)

	env := agent.Search(context.Background(), "anything")

	assert.Equal(t, "adapter_error", env.Facts.Type)
	assert.Equal(t, "failing failed to fetch data.", env.Summary)
	assert.False(t, next.called, "an adapter error must not fail over to the next adapter")
}

func TestSearchAdapterPanicIsRecovered(t *testing.T) {
	panicking := &fakeAdapter{name: "panicking", supports: true, panics: true}
	agent := newTestAgent(t, []FactsAdapter{panicking}, config.UpstreamsConfig{}, nil)

	env := agent.Search(context.Background(), "anything")

	assert.Equal(t, "adapter_error", env.Facts.Type)
	assert.Contains(t, env.Facts.Data["error"], "panic")
}

func TestSearchFallbackEnvelope(t *testing.T) {
	agent := newTestAgent(t, nil, config.UpstreamsConfig{}, nil)

	env := agent.Search(context.Background(), "tell me something interesting")

	assert.Equal(t, "retrieval", env.Type)
	assert.Equal(t, "general_health", env.Facts.Type)
	assert.Equal(t, "I couldn't match that to a real-world data source, but I can try a general answer.", env.Summary)
	assert.NotNil(t, env.Sources)
}

func TestSearchCovidBuiltin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/countries/"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country":"India","cases":45000000,"todayCases":120,"deaths":530000,"todayDeaths":2,"recovered":44000000}`))
	}))
	defer srv.Close()

	cfg := config.UpstreamsConfig{
		DiseaseSh: config.UpstreamConfig{BaseURL: srv.URL, Timeout: 2000},
	}
	agent := newTestAgent(t, nil, cfg, nil)

	env := agent.Search(context.Background(), "covid cases in India")

	require.NotNil(t, env.Facts)
	assert.Equal(t, "covid_cases", env.Facts.Type)
	assert.Contains(t, env.Summary, "India")
	assert.Equal(t, "covid", env.Query.Disease)
	assert.Equal(t, "India", env.Query.Country)
}

func TestSearchPayloadShape(t *testing.T) {
	adapter := &fakeAdapter{name: "shaped", supports: true, payload: okPayload("shaped_data")}
	agent := newTestAgent(t, []FactsAdapter{adapter}, config.UpstreamsConfig{}, nil)

	env := agent.Search(context.Background(), "anything")

	assert.NotEmpty(t, env.Facts.Summary)
	assert.NotNil(t, env.Facts.Data)
	assert.NotNil(t, env.Facts.Sources)
}

func TestWebSearchWikiFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/What_is_chikungunya", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Chikungunya","extract":"Chikungunya is a viral disease.","content_urls":{"desktop":{"page":"https://en.wikipedia.org/wiki/Chikungunya"}}}`))
	}))
	defer srv.Close()

	wiki := NewWikiClient(httpclient.NewClient(2*time.Second), srv.URL, nil, time.Hour)
	agent := newTestAgent(t, nil, config.UpstreamsConfig{}, wiki)

	env := agent.WebSearch(context.Background(), "What is chikungunya?", nil)

	require.Len(t, env.Items, 1)
	assert.Equal(t, "Chikungunya", env.Items[0].Title)
	assert.Equal(t, "Wikipedia", env.Items[0].Source)
	assert.Contains(t, env.Summary, "Chikungunya is a viral disease.")
}

func TestWebSearchNoResults(t *testing.T) {
	agent := newTestAgent(t, nil, config.UpstreamsConfig{}, nil)

	env := agent.WebSearch(context.Background(), "zxqv", nil)

	assert.Empty(t, env.Items)
	assert.Contains(t, env.Summary, "didn't find a good match")
}

func TestSuggestPrefixThenSubstring(t *testing.T) {
	agent := newTestAgent(t, nil, config.UpstreamsConfig{}, nil)

	byPrefix := agent.Suggest("dengue")
	require.NotEmpty(t, byPrefix)
	for _, s := range byPrefix {
		assert.True(t, strings.HasPrefix(strings.ToLower(s), "dengue"))
	}

	bySubstring := agent.Suggest("sri lanka")
	require.NotEmpty(t, bySubstring)
	for _, s := range bySubstring {
		assert.Contains(t, strings.ToLower(s), "sri lanka")
	}
}

func TestSuggestDefaultsAndCap(t *testing.T) {
	agent := newTestAgent(t, nil, config.UpstreamsConfig{}, nil)

	defaults := agent.Suggest("")
	assert.NotEmpty(t, defaults)

	broad := agent.Suggest("in ")
	assert.LessOrEqual(t, len(broad), MaxSuggestions)
}
