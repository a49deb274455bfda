package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/serisow/autbot/pipeline_type"
	"github.com/serisow/autbot/ratelimit"
	"github.com/serisow/autbot/version"
)

// Answerer is the question answering pipeline behind /api/query.
type Answerer interface {
	Answer(ctx context.Context, query string) (pipeline_type.Answer, error)
}

type Options struct {
	// Agent is nil when startup could not build the pipeline; AgentErr then
	// says why.
	Agent    Answerer
	AgentErr error

	Limiter           *ratelimit.Limiter
	RateLimitRequests int
	RateLimitWindow   time.Duration

	Environment      string
	OpenAIConfigured bool
	Version          string
}

type Handler struct {
	opts   Options
	now    func() time.Time
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Handler {
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New()
	}
	if opts.Version == "" {
		opts.Version = version.Version
	}
	return &Handler{
		opts:   opts,
		now:    time.Now,
		logger: logger,
	}
}

func (h *Handler) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}
