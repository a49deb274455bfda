package llm_service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// apiErrorBody covers the error envelopes of OpenAI, Anthropic and Gemini.
type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Status  string `json:"status"`
	} `json:"error"`
}

// HTTPError is a non-200 reply from a model backend.
type HTTPError struct {
	Provider   string
	StatusCode int
	Message    string
	ErrorType  string
	RawBody    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s API error (HTTP %d): %s (Type: %s)", e.Provider, e.StatusCode, e.Message, e.ErrorType)
}

// Retryable reports whether another attempt could succeed. Quota and auth
// errors will not clear up within a request.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500
}

// newHTTPError reads resp.Body and extracts whatever error detail the provider sent.
func newHTTPError(provider string, resp *http.Response) *HTTPError {
	httpErr := &HTTPError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    "Unknown error",
		ErrorType:  "unknown",
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return httpErr
	}
	httpErr.RawBody = string(body)

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		httpErr.Message = parsed.Error.Message
		httpErr.ErrorType = parsed.Error.Type
		if httpErr.ErrorType == "" {
			httpErr.ErrorType = parsed.Error.Status
		}
	}
	return httpErr
}
