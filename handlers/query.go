package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/logging"
	"github.com/serisow/autbot/pipeline_type"
	"github.com/serisow/autbot/ratelimit"
)

const maxBodyBytes = 16 << 10

type QueryRequest struct {
	Query *string `json:"query"`
}

type ResponseMetadata struct {
	CorrelationID string          `json:"correlation_id"`
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	RateLimit     ratelimit.Stats `json:"rate_limit"`
}

type QueryResponse struct {
	Response string                          `json:"response"`
	Context  []string                        `json:"context"`
	Answer   *pipeline_type.StructuredAnswer `json:"answer,omitempty"`
	Metadata ResponseMetadata                `json:"metadata"`
}

// Query validates the request, applies the rate limit and asks the agent.
// Validation failures never count against the caller's quota.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, apperror.InvalidQuery("request body must be a JSON object with a query string"))
		return
	}
	if req.Query == nil {
		h.writeError(w, r, apperror.InvalidQuery("query is required"))
		return
	}

	query, err := ValidateQuery(*req.Query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	stats, ok := h.admit(w, r, "query")
	if !ok {
		return
	}

	if h.opts.Agent == nil {
		h.writeError(w, r, h.unavailable())
		return
	}

	h.logger.InfoContext(r.Context(), "Received query", slog.String("query", query))

	answer, err := h.opts.Agent.Answer(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, QueryResponse{
		Response: answer.Text,
		Context:  answer.Sources,
		Answer:   answer.Structured,
		Metadata: ResponseMetadata{
			CorrelationID: logging.CorrelationID(r.Context()),
			Timestamp:     h.timestamp(),
			Version:       h.opts.Version,
			RateLimit:     stats,
		},
	})
}

// unavailable reports why there is no agent. A categorized startup failure
// keeps its kind; anything else is a configuration problem.
func (h *Handler) unavailable() error {
	if startupErr, ok := apperror.As(h.opts.AgentErr); ok {
		return startupErr
	}
	appErr := apperror.Configuration("the question answering service is not available")
	if h.opts.AgentErr != nil {
		appErr = appErr.WithDetail("reason", h.opts.AgentErr.Error())
	}
	return appErr
}
