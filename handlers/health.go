package handlers

import (
	"net/http"

	"github.com/serisow/autbot/logging"
	"github.com/serisow/autbot/version"
)

type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Details   map[string]interface{} `json:"details"`
}

func (h *Handler) healthDetails() map[string]interface{} {
	details := map[string]interface{}{
		"environment":       h.opts.Environment,
		"llm_available":     h.opts.Agent != nil,
		"openai_configured": h.opts.OpenAIConfigured,
	}
	if h.opts.AgentErr != nil {
		details["agent_error"] = h.opts.AgentErr.Error()
	}
	return details
}

// Health is the liveness probe. The process is up, so it always answers 200;
// a missing agent only degrades the status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.opts.Agent == nil {
		status = "degraded"
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:    status,
		Version:   h.opts.Version,
		Timestamp: h.timestamp(),
		Details:   h.healthDetails(),
	})
}

// Ready is the readiness gate: 503 until the agent can serve queries.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if h.opts.Agent == nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	h.writeJSON(w, r, code, HealthResponse{
		Status:    status,
		Version:   h.opts.Version,
		Timestamp: h.timestamp(),
		Details:   h.healthDetails(),
	})
}

func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"version":     h.opts.Version,
		"changelog":   version.Changelog(),
		"environment": h.opts.Environment,
	})
}

// Test is a rate-limited smoke endpoint for clients.
func (h *Handler) Test(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.admit(w, r, "test")
	if !ok {
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":        "AutBot server is running!",
		"version":        h.opts.Version,
		"environment":    h.opts.Environment,
		"timestamp":      h.timestamp(),
		"correlation_id": logging.CorrelationID(r.Context()),
		"rate_limit":     stats,
	})
}
