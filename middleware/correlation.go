package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/serisow/autbot/logging"
)

const CorrelationHeader = "X-Correlation-ID"

// Correlation gives every request a fresh ID, echoes it in the response
// header and stores it on the request context for logging.
func Correlation(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	id := uuid.NewString()
	w.Header().Set(CorrelationHeader, id)
	next(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
}
