package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"health-agents/internal/common/httpclient"
)

// WikiSummary is the encyclopedic-summary collaborator result: a short
// extract and a canonical page URL for a topic string.
type WikiSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	PageURL string `json:"page_url"`
}

// WikiClient looks up topic summaries, with an optional fail-open redis
// cache in front: cache outages degrade to a direct lookup, never to an
// error.
type WikiClient struct {
	client  *httpclient.Client
	baseURL string
	cache   *redis.Client
	ttl     time.Duration
}

func NewWikiClient(client *httpclient.Client, baseURL string, cache *redis.Client, ttl time.Duration) *WikiClient {
	return &WikiClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		ttl:     ttl,
	}
}

var (
	ErrEmptyTopic = errors.New("WIKI_EMPTY_TOPIC")
	ErrNoSummary  = errors.New("WIKI_NO_SUMMARY")
)

var topicSpaceRe = regexp.MustCompile(`\s+`)

// Lookup fetches the summary for a topic. The topic is squashed to a
// title-ish form: whitespace collapsed, anything after a '?' dropped.
func (w *WikiClient) Lookup(ctx context.Context, topic string) (*WikiSummary, error) {
	title := strings.TrimSpace(topicSpaceRe.ReplaceAllString(topic, " "))
	title = strings.TrimSpace(strings.SplitN(title, "?", 2)[0])
	if title == "" {
		return nil, ErrEmptyTopic
	}

	cacheKey := "wiki:" + strings.ToLower(title)
	if w.cache != nil {
		if raw, err := w.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached WikiSummary
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	apiTitle := strings.ReplaceAll(title, " ", "_")
	var resp struct {
		Title       string `json:"title"`
		Extract     string `json:"extract"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := w.client.GetJSON(ctx, w.baseURL+"/"+url.PathEscape(apiTitle), &resp); err != nil {
		return nil, err
	}
	if resp.Extract == "" || resp.ContentURLs.Desktop.Page == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoSummary, title)
	}

	out := &WikiSummary{
		Title:   resp.Title,
		Extract: resp.Extract,
		PageURL: resp.ContentURLs.Desktop.Page,
	}
	if out.Title == "" {
		out.Title = title
	}

	if w.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			w.cache.Set(ctx, cacheKey, raw, w.ttl)
		}
	}
	return out, nil
}
