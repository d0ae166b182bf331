// Package gateway exposes the agent pipeline over HTTP.
package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"health-agents/internal/common/config"
	"health-agents/internal/common/logger"
	"health-agents/internal/common/observability"
	"health-agents/internal/orchestrator"
	"health-agents/internal/report"
	"health-agents/internal/retrieval"
	"health-agents/internal/security"
)

// Server ties the HTTP surface to the agents.
type Server struct {
	cfg       *config.Config
	logger    logger.Logger
	obs       *observability.Observability
	router    *orchestrator.Router
	retrieval *retrieval.Agent
	assembler *report.Assembler
	oracle    security.Oracle
	mux       *http.ServeMux
}

func NewServer(
	cfg *config.Config,
	log logger.Logger,
	obs *observability.Observability,
	router *orchestrator.Router,
	ra *retrieval.Agent,
	asm *report.Assembler,
	oracle security.Oracle,
) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    log.With(map[string]interface{}{"component": "gateway"}),
		obs:       obs,
		router:    router,
		retrieval: ra,
		assembler: asm,
		oracle:    oracle,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /search", s.handleSearch)
	s.mux.HandleFunc("GET /suggest", s.handleSuggest)
	s.mux.HandleFunc("POST /report", s.handleReport)
	s.mux.HandleFunc("POST /report_from_text", s.handleReportFromText)
	s.mux.HandleFunc("POST /route/chat", s.handleChat)
	s.mux.HandleFunc("POST /precheck", s.handlePrecheck)
	s.mux.HandleFunc("POST /postcheck", s.handlePostcheck)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.Handle("GET /artifacts/", http.StripPrefix("/artifacts/",
		http.FileServer(http.Dir(s.cfg.Artifacts.Dir))))
}

// Handler returns the mux wrapped in the standard middleware chain.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.withRecovery(s.withInstrumentation(s.mux)))
}
