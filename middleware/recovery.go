package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/logging"
	"github.com/urfave/negroni"
)

// Recovery wraps negroni's recovery so the client gets the standard
// InternalServerError envelope. Negroni writes the 500 status before the
// formatter runs, so the JSON content type is set as the panic passes
// through. The raw stack goes to the debug log.
type Recovery struct {
	*negroni.Recovery
}

func NewRecovery(logger *slog.Logger) *Recovery {
	recovery := negroni.NewRecovery()
	recovery.PrintStack = false
	recovery.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)
	recovery.Formatter = &panicFormatter{logger: logger}
	return &Recovery{Recovery: recovery}
}

func (rec *Recovery) ServeHTTP(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	rec.Recovery.ServeHTTP(rw, r, func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				w.Header().Set("Content-Type", "application/json")
				panic(p)
			}
		}()
		next(w, r)
	})
}

type panicFormatter struct {
	logger *slog.Logger
}

func (f *panicFormatter) FormatPanicError(w http.ResponseWriter, r *http.Request, infos *negroni.PanicInformation) {
	f.logger.ErrorContext(r.Context(), "Recovered from panic",
		slog.String("panic", fmt.Sprint(infos.RecoveredPanic)),
		slog.String("request", infos.RequestDescription()))

	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":          apperror.KindInternal.String(),
		"message":        "an unexpected error occurred",
		"correlation_id": logging.CorrelationID(r.Context()),
	})
}
