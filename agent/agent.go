package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/pipeline_type"
)

// UserMessage is the only failure text shown to API clients; the cause goes
// to the log and the error details.
const UserMessage = "failed to process query, try again later"

type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]pipeline_type.ScoredChunk, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, query string, chunks []pipeline_type.ScoredChunk) (pipeline_type.Synthesis, error)
}

type Options struct {
	TopK    int
	Timeout time.Duration
}

// Agent answers a query by retrieving weighted context and synthesizing
// a reply from it.
type Agent struct {
	retriever   Retriever
	synthesizer Synthesizer
	opts        Options
	logger      *slog.Logger
}

func New(retriever Retriever, synthesizer Synthesizer, opts Options, logger *slog.Logger) *Agent {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	return &Agent{
		retriever:   retriever,
		synthesizer: synthesizer,
		opts:        opts,
		logger:      logger,
	}
}

// Answer runs retrieval then synthesis within the configured timeout. Any
// failure comes back as a KindLLMService error.
func (a *Agent) Answer(ctx context.Context, query string) (pipeline_type.Answer, error) {
	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	chunks, err := a.retriever.Retrieve(ctx, query, a.opts.TopK)
	if err != nil {
		return pipeline_type.Answer{}, a.fail(ctx, "retrieve", query, err)
	}

	synthesis, err := a.synthesizer.Synthesize(ctx, query, chunks)
	if err != nil {
		return pipeline_type.Answer{}, a.fail(ctx, "synthesize", query, err)
	}

	answer := pipeline_type.Answer{
		Text:       synthesis.Text,
		Sources:    synthesis.UsedChunks,
		Structured: synthesis.Structured,
	}
	if answer.Sources == nil {
		answer.Sources = []string{}
	}

	a.audit(ctx, query, answer, time.Since(start))
	return answer, nil
}

// audit writes the query, response and every context chunk as separate
// records so an evaluation run can rebuild the triple from logs.
func (a *Agent) audit(ctx context.Context, query string, answer pipeline_type.Answer, elapsed time.Duration) {
	a.logger.InfoContext(ctx, "Agent query", slog.String("query", query))
	a.logger.InfoContext(ctx, "Agent response",
		slog.String("response", answer.Text),
		slog.Bool("structured", answer.Structured != nil),
		slog.Duration("elapsed", elapsed))
	a.logger.InfoContext(ctx, "Agent context", slog.Int("context_count", len(answer.Sources)))
	for i, chunk := range answer.Sources {
		a.logger.InfoContext(ctx, "Agent context chunk",
			slog.Int("context_index", i),
			slog.String("context", chunk))
	}
}

func (a *Agent) fail(ctx context.Context, stage, query string, err error) error {
	timedOut := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)

	a.logger.ErrorContext(ctx, "Error in agent",
		slog.String("stage", stage),
		slog.String("query", query),
		slog.Bool("timed_out", timedOut),
		slog.String("error", err.Error()))

	appErr := apperror.Wrap(apperror.KindLLMService, err, UserMessage).
		WithDetail("stage", stage).
		WithDetail("error", err.Error())
	if timedOut {
		appErr = appErr.WithDetail("timeout", fmt.Sprintf("exceeded %s", a.opts.Timeout))
	}
	return appErr
}
