package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/logging"
)

type ErrorResponse struct {
	Error         string                 `json:"error"`
	Message       string                 `json:"message"`
	Details       map[string]interface{} `json:"details,omitempty"`
	CorrelationID string                 `json:"correlation_id"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode response",
			slog.String("error", err.Error()))
	}
}

// writeError maps err to its kind's status. Uncategorized errors are logged
// in full and reported with a generic message only.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{CorrelationID: logging.CorrelationID(r.Context())}

	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Wrap(apperror.KindInternal, err, "an unexpected error occurred")
	}

	resp.Error = appErr.Kind.String()
	resp.Message = appErr.Message
	if appErr.Kind != apperror.KindInternal {
		resp.Details = appErr.Details
	}

	status := appErr.Kind.Status()
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "Request failed",
		slog.String("error_kind", resp.Error),
		slog.Int("status", status),
		slog.String("error", err.Error()))

	h.writeJSON(w, r, status, resp)
}
