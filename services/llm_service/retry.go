package llm_service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// callWithRetries runs call once plus config["max_retries"] more times.
// Client errors (4xx) are returned without retrying, and the wait between
// attempts ends early when ctx is done.
func callWithRetries(ctx context.Context, logger *slog.Logger, provider string, config map[string]interface{}, call func() (string, error)) (string, error) {
	attempts := 1 + int(safeParseFloat(config["max_retries"], 1))
	if attempts < 1 {
		attempts = 1
	}
	delay := retryDelay(config)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		response, err := call()
		if err == nil {
			return response, nil
		}
		lastErr = err

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			logger.ErrorContext(ctx, provider+" API error",
				slog.Int("attempt", attempt),
				slog.Int("status_code", httpErr.StatusCode),
				slog.String("error_type", httpErr.ErrorType),
				slog.String("error_message", httpErr.Message))
			if !httpErr.Retryable() {
				return "", err
			}
		}

		if ctx.Err() != nil {
			return "", fmt.Errorf("%s call cancelled: %w", provider, err)
		}

		if attempt == attempts {
			break
		}

		logger.WarnContext(ctx, "Attempt failed, retrying",
			slog.String("provider", provider),
			slog.Int("attempt", attempt),
			slog.Duration("retry_delay", delay),
			slog.String("error", err.Error()))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", fmt.Errorf("%s call cancelled: %w", provider, ctx.Err())
		case <-timer.C:
		}
	}

	logger.ErrorContext(ctx, "Error calling "+provider+" API after multiple attempts",
		slog.Int("attempts", attempts),
		slog.String("error", lastErr.Error()))
	return "", fmt.Errorf("failed to call %s API after %d attempts: %w", provider, attempts, lastErr)
}
