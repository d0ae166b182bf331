package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	commonerrors "health-agents/internal/common/errors"
	"health-agents/internal/common/validation"
	"health-agents/internal/orchestrator"
	"health-agents/internal/report"
	"health-agents/internal/retrieval"
)

const maxBodyBytes = 1 << 20

// reportSchema validates the structured report endpoint body.
const reportSchema = `{
  "type": "object",
  "required": ["disease", "region", "date_from", "date_to"],
  "properties": {
    "disease":   {"type": "string", "minLength": 1},
    "region":    {"type": "string", "minLength": 1},
    "date_from": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "date_to":   {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
    "format":    {"type": "string", "enum": ["html", "pdf"]},
    "timeseries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["date", "value"],
        "properties": {
          "date":  {"type": "string"},
          "value": {"type": "number"}
        }
      }
    },
    "insights": {
      "type": "object",
      "properties": {
        "weekly_increase": {"type": "number"},
        "top_region":      {"type": "string"},
        "anomalies":       {"type": "array", "items": {"type": "string"}}
      }
    },
    "sources": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "url":  {"type": "string"},
          "date": {"type": "string"}
        }
      }
    }
  }
}`

// maxReportSpan limits how wide a report window can be.
const maxReportSpan = 5 * 365 * 24 * time.Hour

type searchRequest struct {
	Question string                 `json:"question"`
	Mode     string                 `json:"mode"`
	Filters  map[string]interface{} `json:"filters"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, commonerrors.NewValidationError("invalid JSON body"))
		return
	}
	if req.Question == "" {
		writeError(w, commonerrors.NewValidationError("question must not be empty"))
		return
	}

	if req.Mode == "web" {
		writeJSON(w, http.StatusOK, s.retrieval.WebSearch(r.Context(), req.Question, req.Filters))
		return
	}
	writeJSON(w, http.StatusOK, s.retrieval.Search(r.Context(), req.Question))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": s.retrieval.Suggest(q),
	})
}

type reportRequest struct {
	Disease    string             `json:"disease"`
	Region     string             `json:"region"`
	DateFrom   string             `json:"date_from"`
	DateTo     string             `json:"date_to"`
	Format     string             `json:"format"`
	Timeseries []retrieval.Point  `json:"timeseries"`
	Insights   *report.Insights   `json:"insights"`
	Sources    []retrieval.Source `json:"sources"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, commonerrors.NewValidationError("unreadable body"))
		return
	}

	result, err := validation.Validate(reportSchema, body)
	if err != nil {
		writeError(w, commonerrors.NewValidationError("invalid JSON body"))
		return
	}
	if !result.Valid {
		writeError(w, commonerrors.NewValidationError(result.FirstError()))
		return
	}

	var req reportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, commonerrors.NewValidationError("invalid JSON body"))
		return
	}

	from, err := time.Parse("2006-01-02", req.DateFrom)
	if err != nil {
		writeError(w, commonerrors.NewValidationError("date_from must be YYYY-MM-DD"))
		return
	}
	to, err := time.Parse("2006-01-02", req.DateTo)
	if err != nil {
		writeError(w, commonerrors.NewValidationError("date_to must be YYYY-MM-DD"))
		return
	}
	if to.Before(from) {
		writeError(w, commonerrors.NewValidationError("date_to must not precede date_from"))
		return
	}
	if to.Sub(from) > maxReportSpan {
		writeError(w, commonerrors.NewValidationError("report window must not exceed 5 years"))
		return
	}

	artifact, err := s.assembler.Generate(r.Context(), report.Request{
		Disease:  req.Disease,
		Region:   req.Region,
		DateFrom: from,
		DateTo:   to,
		Points:   req.Timeseries,
		Insights: req.Insights,
		Sources:  req.Sources,
		Format:   req.Format,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

type reportFromTextRequest struct {
	Query string `json:"query"`
}

// handleReportFromText extracts a structured order from free text and
// answers with the same artifact shape as the structured endpoint.
func (s *Server) handleReportFromText(w http.ResponseWriter, r *http.Request) {
	var req reportFromTextRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, commonerrors.NewValidationError("invalid JSON body"))
		return
	}
	if utf8.RuneCountInString(req.Query) < 8 {
		writeError(w, commonerrors.NewValidationError("query must be at least 8 characters"))
		return
	}

	order := report.ExtractReportRequest(req.Query, time.Now())
	artifact, err := s.assembler.Generate(r.Context(), order)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.ChatRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, commonerrors.NewValidationError("invalid JSON body"))
		return
	}
	if req.Message == "" {
		writeError(w, commonerrors.NewValidationError("message must not be empty"))
		return
	}
	writeJSON(w, http.StatusOK, s.router.Chat(r.Context(), req))
}

type precheckRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Message  string `json:"message"`
}

func (s *Server) handlePrecheck(w http.ResponseWriter, r *http.Request) {
	var req precheckRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, commonerrors.NewValidationError("invalid JSON body"))
		return
	}
	writeJSON(w, http.StatusOK, s.oracle.Precheck(r.Context(), req.Username, req.Password, req.Message))
}

type postcheckRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePostcheck(w http.ResponseWriter, r *http.Request) {
	var req postcheckRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, commonerrors.NewValidationError("invalid JSON body"))
		return
	}
	writeJSON(w, http.StatusOK, s.oracle.Postcheck(r.Context(), req.Text))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   s.cfg.App.Name,
		"version":   s.cfg.App.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func readJSON(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]interface{}{
		"error":   "INTERNAL_ERROR",
		"message": err.Error(),
	}
	if se, ok := err.(*commonerrors.StandardError); ok {
		status = se.HTTPStatus()
		body["error"] = se.Code
		body["message"] = se.Message
		if se.Details != "" {
			body["details"] = se.Details
		}
	}
	writeJSON(w, status, body)
}
