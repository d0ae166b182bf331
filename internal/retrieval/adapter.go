// Package retrieval implements the facts-retrieval agent: a query
// extractor, an ordered chain of source adapters, built-in fetchers and a
// generic encyclopedic fallback, all returning one normalized payload shape.
package retrieval

import (
	"context"

	commonerrors "health-agents/internal/common/errors"
	"health-agents/internal/vocab"
)

// ParsedQuery is the structured form of a user question. Derived once per
// request and immutable thereafter. Country and Region intentionally carry
// the same value so downstream adapters needn't agree on a key name.
type ParsedQuery struct {
	Question string         `json:"question"`
	Disease  string         `json:"disease,omitempty"`
	Medicine string         `json:"medicine,omitempty"`
	InfoType vocab.InfoType `json:"info_type"`
	Country  string         `json:"country,omitempty"`
	Region   string         `json:"region,omitempty"`
}

// Source records provenance for a payload. When data is synthesized the
// appended record names the synthetic/illustrative status explicitly; that
// disclosure is a contract, not optional metadata.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Date string `json:"date,omitempty"`
}

// Point is one timeseries observation. Series are ordered by date,
// oldest first, with unique dates.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Payload is the normalized shape every adapter and built-in fetcher
// returns; it is the lingua franca of the system. Summary is non-empty
// whenever Type does not end in "_error". Sources may be empty, never nil.
type Payload struct {
	Type    string                 `json:"type"`
	Summary string                 `json:"summary"`
	Data    map[string]interface{} `json:"data"`
	Sources []Source               `json:"sources"`
}

// FactsAdapter is the pluggable data-source capability.
//
// Supports must be a pure, side-effect-free predicate. Fetch may perform
// network I/O and must catch its own upstream errors, returning a payload
// whose Type ends in _error instead of failing; a non-nil error return is
// a contract violation that the router answers with an error envelope
// immediately (fail-fast, not fail-over).
type FactsAdapter interface {
	Name() string
	Supports(q *ParsedQuery) bool
	Fetch(ctx context.Context, q *ParsedQuery) (*Payload, error)
}

// errorPayload builds the normalized *_error payload used by fetchers
// that recover their own upstream failures.
func errorPayload(typ, summary string, err error, sources []Source) *Payload {
	if sources == nil {
		sources = []Source{}
	}
	se := commonerrors.NewUpstreamUnavailableError(typ, err)
	return &Payload{
		Type:    typ,
		Summary: summary,
		Data: map[string]interface{}{
			"error":     err.Error(),
			"code":      string(se.Code),
			"retryable": se.Retryable,
		},
		Sources: sources,
	}
}
