package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/logging"
	"github.com/serisow/autbot/pipeline_type"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain", "Where did Autumn work last?", "Where did Autumn work last?", false},
		{"collapses whitespace", "  what   are\n\tAutumn's hobbies  ", "what are Autumn's hobbies", false},
		{"collapses unicode spaces", "where\u00a0\u00a0did\u2003Autumn\u3000work", "where did Autumn work", false},
		{"only unicode spaces", "\u00a0\u2002\u3000", "", true},
		{"exactly max length", strings.Repeat("é", MaxQueryLength), strings.Repeat("é", MaxQueryLength), false},
		{"empty", "", "", true},
		{"only whitespace", " \n\t ", "", true},
		{"too long", strings.Repeat("a", MaxQueryLength+1), "", true},
		{"too long before trimming", strings.Repeat(" ", MaxQueryLength) + "hi", "", true},
		{"script tag", "hello <ScRiPt>alert(1)</script>", "", true},
		{"javascript url", "JAVASCRIPT:alert(1)", "", true},
		{"onload handler", "<body onload=x>", "", true},
		{"onerror handler", "<img onerror=x>", "", true},
		{"eval call", "eval(1+1)", "", true},
		{"exec call", "please exec(rm)", "", true},
		{"pattern split by whitespace", "eval (1)", "eval (1)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQuery(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperror.KindInvalidQuery, apperror.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	h := New(Options{}, logging.Discard())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(logging.WithCorrelationID(req.Context(), "abc"))
	h.writeError(rec, req, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"InternalServerError","message":"an unexpected error occurred","correlation_id":"abc"}`, rec.Body.String())
}

func TestWriteErrorKeepsDetailsForKnownKinds(t *testing.T) {
	h := New(Options{}, logging.Discard())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.writeError(rec, req, apperror.InvalidQuery("query must be at most 500 characters").WithDetail("max_length", 500))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"max_length":500`)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

type stubAnswerer struct {
	answer pipeline_type.Answer
	err    error
}

func (s stubAnswerer) Answer(ctx context.Context, query string) (pipeline_type.Answer, error) {
	return s.answer, s.err
}

func TestQueryIncludesStructuredAnswer(t *testing.T) {
	h := New(Options{
		Agent: stubAnswerer{answer: pipeline_type.Answer{
			Text:       `{"summary":"Automattic"}`,
			Sources:    []string{"chunk"},
			Structured: &pipeline_type.StructuredAnswer{Summary: "Automattic"},
		}},
		RateLimitRequests: 10,
		RateLimitWindow:   time.Minute,
		Version:           "9.9.9",
	}, logging.Discard())
	h.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	rec := httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"where?"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"answer":{"summary":"Automattic"}`)
	assert.Contains(t, body, `"timestamp":"2025-01-02T03:04:05Z"`)
	assert.Contains(t, body, `"version":"9.9.9"`)
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestQueryRejectsOversizedBody(t *testing.T) {
	h := New(Options{Agent: stubAnswerer{}, RateLimitRequests: 10, RateLimitWindow: time.Minute}, logging.Discard())

	rec := httptest.NewRecorder()
	body := `{"query":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	h.Query(rec, httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryReportsStartupErrorKind(t *testing.T) {
	startupErr := apperror.New(apperror.KindVectorStore, "failed to build the document index")
	h := New(Options{AgentErr: startupErr, RateLimitRequests: 10, RateLimitWindow: time.Minute}, logging.Discard())

	rec := httptest.NewRecorder()
	h.Query(rec, httptest.NewRequest(http.MethodPost, "/api/query", strings.NewReader(`{"query":"where?"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"VectorStoreException"`)
}
