package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/negroni"
)

// RequestLogger logs one line per request once the response is written.
type RequestLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	return &RequestLogger{logger: logger, now: time.Now}
}

func (l *RequestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	start := l.now()
	next(w, r)

	status := http.StatusOK
	size := 0
	if rw, ok := w.(negroni.ResponseWriter); ok {
		status = rw.Status()
		size = rw.Size()
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	} else if status >= http.StatusBadRequest {
		level = slog.LevelWarn
	}

	l.logger.Log(r.Context(), level, "Request completed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Int("size", size),
		slog.String("client_ip", ClientIP(r)),
		slog.Duration("duration", l.now().Sub(start)))
}
