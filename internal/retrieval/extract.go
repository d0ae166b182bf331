package retrieval

import (
	"regexp"
	"strings"

	"health-agents/internal/vocab"
)

// EntityRecognizer is the external named-entity capability: given text,
// return candidate location spans. The default implementation is a
// gazetteer over the shared country vocabulary; a caller may plug in a
// real NER service behind the same interface.
type EntityRecognizer interface {
	Locations(text string) []string
}

type gazetteerRecognizer struct {
	patterns []gazetteerEntry
}

type gazetteerEntry struct {
	name string
	re   *regexp.Regexp
}

// NewGazetteerRecognizer builds the default recognizer from the shared
// country list. Matching is case-insensitive on word boundaries.
func NewGazetteerRecognizer() EntityRecognizer {
	g := &gazetteerRecognizer{}
	for _, name := range vocab.CountryNames() {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		g.patterns = append(g.patterns, gazetteerEntry{name: name, re: re})
	}
	return g
}

func (g *gazetteerRecognizer) Locations(text string) []string {
	var out []string
	for _, p := range g.patterns {
		if p.re.MatchString(text) {
			out = append(out, p.name)
		}
	}
	return out
}

// ExtractQuery turns free text into a ParsedQuery. Deterministic and
// idempotent: fixed vocabulary scans, first match wins per category, no
// disambiguation beyond that.
func ExtractQuery(question string, ner EntityRecognizer) *ParsedQuery {
	q := &ParsedQuery{
		Question: question,
		InfoType: vocab.ClassifyInfoType(question),
	}

	ql := strings.ToLower(question)

	for _, d := range vocab.KnownDiseases {
		if strings.Contains(ql, d) {
			q.Disease = d
			break
		}
	}

	for _, m := range vocab.KnownMedicines {
		if strings.Contains(ql, m) {
			q.Medicine = m
			break
		}
	}

	if ner != nil {
		if locs := ner.Locations(question); len(locs) > 0 {
			q.Country = locs[len(locs)-1]
			q.Region = q.Country
		}
	}

	return q
}
