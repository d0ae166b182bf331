package report

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"health-agents/internal/retrieval"
	"health-agents/internal/vocab"
)

// Defaults applied when free text doesn't pin the field down.
const (
	defaultDisease    = "dengue"
	defaultRegion     = "Sri Lanka"
	defaultWindowDays = 56
)

var (
	reportForRe  = regexp.MustCompile(`(?i)report\s+(?:for|on|about)\s+([a-zA-Z][a-zA-Z-]*)`)
	regionRe     = regexp.MustCompile(`\b(?:in|for)\s+([A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*)*)`)
	isoDateRe    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	lastNDaysRe  = regexp.MustCompile(`(?i)last\s+(\d+)\s+(day|week|month)s?`)
	urlRe        = regexp.MustCompile(`https?://[^\s<>"']+`)
	increaseRe   = regexp.MustCompile(`(?i)\b(increas|ris|grow|surg)\w*\s+(?:of\s+|by\s+)?(\d+(?:\.\d+)?)\s*%`)
	decreaseRe   = regexp.MustCompile(`(?i)\b(decreas|fall|fell|drop|declin)\w*\s+(?:of\s+|by\s+)?(\d+(?:\.\d+)?)\s*%`)
	topRegionRe  = regexp.MustCompile(`\b(?i:top|worst|most affected|highest)\s+(?i:region|area|district|city)?\s*(?i:is|was|:)?\s+([A-Z][A-Za-z]*(?:\s+[A-Z][A-Za-z]*)*)`)
	anomalyTerms = []string{"outbreak", "spike", "anomaly", "unusual", "cluster"}
)

// ExtractReportRequest turns a free-text description into a structured
// report order, filling gaps with conservative defaults rather than
// refusing. now anchors the default window so callers can pin it in
// tests.
func ExtractReportRequest(text string, now time.Time) Request {
	lower := strings.ToLower(text)

	disease := ""
	for _, d := range vocab.KnownDiseases {
		if strings.Contains(lower, d) {
			disease = d
			break
		}
	}
	if disease == "" {
		if m := reportForRe.FindStringSubmatch(text); m != nil {
			disease = strings.ToLower(m[1])
		}
	}
	if disease == "" {
		disease = defaultDisease
	}

	region := defaultRegion
	if m := regionRe.FindStringSubmatch(text); m != nil {
		region = strings.TrimSpace(m[1])
	}

	from, to := extractWindow(text, now)

	return Request{
		Disease:  disease,
		Region:   region,
		DateFrom: from,
		DateTo:   to,
		Sources:  extractSources(text),
		Insights: extractInsights(text),
		Format:   "html",
	}
}

func extractWindow(text string, now time.Time) (time.Time, time.Time) {
	dates := isoDateRe.FindAllString(text, 2)
	if len(dates) == 2 {
		from, err1 := time.Parse("2006-01-02", dates[0])
		to, err2 := time.Parse("2006-01-02", dates[1])
		if err1 == nil && err2 == nil && !to.Before(from) {
			return from, to
		}
	}
	if m := lastNDaysRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			days := n
			switch strings.ToLower(m[2]) {
			case "week":
				days = n * 7
			case "month":
				days = n * 30
			}
			return now.AddDate(0, 0, -days), now
		}
	}
	return now.AddDate(0, 0, -defaultWindowDays), now
}

func extractSources(text string) []retrieval.Source {
	var out []retrieval.Source
	for _, raw := range urlRe.FindAllString(text, -1) {
		u, err := url.Parse(strings.TrimRight(raw, ".,;)"))
		if err != nil {
			continue
		}
		name := u.Host
		switch {
		case strings.Contains(u.Host, "who.int"):
			name = "WHO"
		case strings.Contains(u.Host, "health.gov"), strings.Contains(strings.ToLower(raw), "moh"):
			name = "Ministry of Health"
		}
		out = append(out, retrieval.Source{Name: name, URL: u.String()})
	}
	return out
}

func extractInsights(text string) *Insights {
	ins := &Insights{}
	found := false

	if m := increaseRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			ins.WeeklyIncrease = v
			found = true
		}
	} else if m := decreaseRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			ins.WeeklyIncrease = -v
			found = true
		}
	}

	if m := topRegionRe.FindStringSubmatch(text); m != nil {
		ins.TopRegion = strings.TrimSpace(m[1])
		found = true
	}

	lower := strings.ToLower(text)
	for _, term := range anomalyTerms {
		if strings.Contains(lower, term) {
			ins.Anomalies = append(ins.Anomalies, "Text mentions: "+term)
			found = true
		}
	}

	if !found {
		return nil
	}
	return ins
}
