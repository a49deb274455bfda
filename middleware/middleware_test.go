package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/serisow/autbot/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/negroni"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		expected  string
	}{
		{"forwarded first entry", "203.0.113.7, 10.0.0.1", "198.51.100.2", "10.0.0.9:5555", "203.0.113.7"},
		{"real ip", "", "198.51.100.2", "10.0.0.9:5555", "198.51.100.2"},
		{"remote addr", "", "", "10.0.0.9:5555", "10.0.0.9"},
		{"remote addr without port", "", "", "10.0.0.9", "10.0.0.9"},
		{"blank forwarded entry", " , 10.0.0.1", "198.51.100.2", "10.0.0.9:1", "198.51.100.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.expected, ClientIP(r))
		})
	}
}

func TestCorrelation(t *testing.T) {
	var seen string
	n := negroni.New(negroni.HandlerFunc(Correlation))
	n.UseHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.CorrelationID(r.Context())
	})

	first := httptest.NewRecorder()
	n.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	n.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	id := first.Header().Get(CorrelationHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, second.Header().Get(CorrelationHeader))
	assert.Equal(t, second.Header().Get(CorrelationHeader), seen)
}

func TestRecoveryWritesErrorEnvelope(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	n := negroni.New(negroni.HandlerFunc(Correlation), NewRecovery(logger))
	n.UseHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	n.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/query", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "InternalServerError", body["error"])
	assert.Equal(t, rec.Header().Get(CorrelationHeader), body["correlation_id"])
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.Contains(t, buf.String(), "panic=boom")
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	n := negroni.New(NewRequestLogger(logger))
	n.UseHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	r := httptest.NewRequest(http.MethodPost, "/api/query", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	n.ServeHTTP(httptest.NewRecorder(), r)

	logs := buf.String()
	assert.Contains(t, logs, "level=WARN")
	assert.Contains(t, logs, "status=429")
	assert.Contains(t, logs, "client_ip=203.0.113.7")
	assert.Contains(t, logs, "path=/api/query")
}

func TestCORS(t *testing.T) {
	n := negroni.New(NewCORS([]string{"https://autbot.example.org"}))
	n.UseHandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	r := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	r.Header.Set("Origin", "https://autbot.example.org")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	n.ServeHTTP(rec, r)
	assert.Equal(t, "https://autbot.example.org", rec.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	r.Header.Set("Origin", "https://evil.example")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	n.ServeHTTP(rec, r)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
