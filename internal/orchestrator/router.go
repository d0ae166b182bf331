// Package orchestrator routes each inbound message to exactly one of the
// downstream agents: report generation, data retrieval, small talk, or a
// security block.
package orchestrator

import (
	"context"
	"regexp"
	"strings"
	"time"

	"health-agents/internal/common/config"
	commonerrors "health-agents/internal/common/errors"
	"health-agents/internal/common/logger"
	"health-agents/internal/common/metrics"
	"health-agents/internal/report"
	"health-agents/internal/retrieval"
	"health-agents/internal/security"
	"health-agents/internal/vocab"
)

// Decision is the routing outcome for one message.
type Decision string

const (
	DecisionReport    Decision = "report"
	DecisionRetrieval Decision = "retrieval"
	DecisionChat      Decision = "chat"
	DecisionBlocked   Decision = "blocked"
)

// reportKeywords win over retrieval keywords: "covid trend chart" is a
// report order even though "covid" alone would route to retrieval.
var reportKeywords = []string{
	"report", "graph", "chart", "trend", "visualize", "visualise",
	"time series", "timeseries", "plot",
}

var retrievalKeywords = []string{
	"cases", "deaths", "recovered", "infected", "statistics", "stats",
	"side effect", "adverse", "nutrition", "diet", "vitamin",
	"prevalence", "incidence", "mortality", "tuberculosis",
	"immunization", "immunisation", "life expectancy", "symptoms",
	"treatment",
}

var retrievalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bunder[- ]?5\b.*\bmortality\b`),
	regexp.MustCompile(`(?i)\bhow many\b.*\b(cases|deaths)\b`),
}

// ChatRequest is one inbound message. History is accepted for forward
// compatibility and currently unused.
type ChatRequest struct {
	Message string                   `json:"message"`
	History []map[string]interface{} `json:"history,omitempty"`
}

// Response is the unified reply shape for every decision.
type Response struct {
	Type          string                 `json:"type"`
	Summary       string                 `json:"summary,omitempty"`
	Reply         string                 `json:"reply,omitempty"`
	Query         *retrieval.ParsedQuery `json:"query,omitempty"`
	Facts         *retrieval.Payload     `json:"facts,omitempty"`
	Visuals       []report.Visual        `json:"visuals,omitempty"`
	ReportURL     string                 `json:"report_url,omitempty"`
	PDFURL        string                 `json:"pdf_url,omitempty"`
	Disclaimer    string                 `json:"disclaimer,omitempty"`
	Sources       []retrieval.Source     `json:"sources,omitempty"`
	SummaryMasked string                 `json:"summary_masked,omitempty"`
	Encrypted     string                 `json:"encrypted,omitempty"`
}

// ChatEngine is the small-talk fallback.
type ChatEngine interface {
	Reply(message string) string
}

// Router owns the decision and dispatch for one message. The oracle
// credentials come from configuration, never from the chat body.
type Router struct {
	oracle          security.Oracle
	securityEnabled bool
	username        string
	password        string
	retrieval       *retrieval.Agent
	assembler       *report.Assembler
	chat            ChatEngine
	now             func() time.Time
	logger          logger.Logger
}

func NewRouter(oracle security.Oracle, sec config.SecurityConfig, ra *retrieval.Agent, asm *report.Assembler, chat ChatEngine, log logger.Logger) *Router {
	return &Router{
		oracle:          oracle,
		securityEnabled: sec.Enabled,
		username:        sec.Username,
		password:        sec.Password,
		retrieval:       ra,
		assembler:       asm,
		chat:            chat,
		now:             time.Now,
		logger: log.With(map[string]interface{}{
			"agent": "orchestrator",
		}),
	}
}

// Classify picks the decision from keywords alone; the security verdict
// is handled before classification in Chat. Report keywords are checked
// first on purpose.
func Classify(message string) Decision {
	lower := strings.ToLower(message)

	for _, kw := range reportKeywords {
		if strings.Contains(lower, kw) {
			return DecisionReport
		}
	}

	for _, kw := range retrievalKeywords {
		if strings.Contains(lower, kw) {
			return DecisionRetrieval
		}
	}
	for _, re := range retrievalPatterns {
		if re.MatchString(message) {
			return DecisionRetrieval
		}
	}
	for _, d := range vocab.KnownDiseases {
		if strings.Contains(lower, d) {
			return DecisionRetrieval
		}
	}
	for _, m := range vocab.KnownMedicines {
		if strings.Contains(lower, m) {
			return DecisionRetrieval
		}
	}

	return DecisionChat
}

// Chat runs the full pipeline for one message: precheck, classify,
// dispatch, postcheck.
func (r *Router) Chat(ctx context.Context, req ChatRequest) *Response {
	if r.securityEnabled {
		pre := r.oracle.Precheck(ctx, r.username, r.password, req.Message)
		switch {
		case pre.Available && !pre.OK:
			metrics.RouteDecisions.WithLabelValues(string(DecisionBlocked)).Inc()
			msg := pre.Message
			if msg == "" {
				msg = security.BlockedMessage
			}
			r.logger.Warn("message blocked by precheck", map[string]interface{}{
				"error": commonerrors.NewSecurityBlockedError(msg).Error(),
			})
			return &Response{Type: string(DecisionBlocked), Reply: msg}
		case !pre.Available:
			r.logger.Warn("precheck unavailable, continuing unchecked", nil)
		}
	}

	decision := Classify(req.Message)
	metrics.RouteDecisions.WithLabelValues(string(decision)).Inc()

	var resp *Response
	switch decision {
	case DecisionReport:
		resp = r.handleReport(ctx, req.Message)
	case DecisionRetrieval:
		env := r.retrieval.Search(ctx, req.Message)
		resp = &Response{
			Type:    env.Type,
			Summary: env.Summary,
			Query:   env.Query,
			Facts:   env.Facts,
			Sources: env.Sources,
		}
	default:
		resp = &Response{Type: string(DecisionChat), Reply: r.chat.Reply(req.Message)}
	}

	if r.securityEnabled {
		outbound := resp.Summary
		if outbound == "" {
			outbound = resp.Reply
		}
		if outbound != "" {
			post := r.oracle.Postcheck(ctx, outbound)
			if post.Available {
				resp.SummaryMasked = post.Masked
				resp.Encrypted = post.Encrypted
			} else {
				r.logger.Warn("postcheck unavailable, returning unmasked", nil)
			}
		}
	}

	return resp
}

func (r *Router) handleReport(ctx context.Context, message string) *Response {
	order := report.ExtractReportRequest(message, r.now())
	artifact, err := r.assembler.Generate(ctx, order)
	if err != nil {
		r.logger.Error("report generation failed", map[string]interface{}{"error": err.Error()})
		return &Response{
			Type:    "error",
			Summary: "Report generation failed. Please try again with explicit dates, e.g. \"dengue report for Sri Lanka from 2024-01-01 to 2024-03-01\".",
		}
	}
	return &Response{
		Type:       string(DecisionReport),
		Summary:    artifact.Summary,
		Visuals:    artifact.Visuals,
		ReportURL:  artifact.ReportURL,
		PDFURL:     artifact.PDFURL,
		Disclaimer: artifact.Disclaimer,
		Sources:    artifact.Sources,
	}
}
