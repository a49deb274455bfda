package rag_service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/serisow/autbot/pipeline_type"
	"github.com/serisow/autbot/services/llm_service"
)

// ErrMalformedSynthesis means a structured prompt got a reply that is not
// the expected JSON object.
var ErrMalformedSynthesis = errors.New("malformed structured synthesis")

// Synthesizer renders the prompt from retrieved chunks and asks the model
// for an answer. It does not retry; the LLM service owns retries.
type Synthesizer struct {
	llm       llm_service.LLMService
	llmConfig map[string]interface{}
	prompt    PromptTemplate
	logger    *slog.Logger
}

func NewSynthesizer(llm llm_service.LLMService, llmConfig map[string]interface{}, prompt PromptTemplate, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		llm:       llm,
		llmConfig: llmConfig,
		prompt:    prompt,
		logger:    logger,
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []pipeline_type.ScoredChunk) (pipeline_type.Synthesis, error) {
	used := make([]string, len(chunks))
	for i, c := range chunks {
		used[i] = c.Chunk.Text
	}

	text, err := s.llm.CallLLM(ctx, s.llmConfig, s.prompt.Render(query, used))
	if err != nil {
		return pipeline_type.Synthesis{}, fmt.Errorf("synthesis failed: %w", err)
	}

	synthesis := pipeline_type.Synthesis{
		Text:       strings.TrimSpace(text),
		UsedChunks: used,
	}

	if s.prompt.Structured {
		structured, err := ParseStructuredAnswer(text)
		if err != nil {
			s.logger.WarnContext(ctx, "Falling back to raw synthesis text",
				slog.String("prompt", s.prompt.Name),
				slog.String("error", err.Error()))
		} else {
			synthesis.Structured = structured
		}
	}

	return synthesis, nil
}

// ParseStructuredAnswer decodes the JSON object a structured prompt asks for.
// A surrounding ```json fence is tolerated.
func ParseStructuredAnswer(text string) (*pipeline_type.StructuredAnswer, error) {
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
		body = strings.TrimSpace(body)
	}

	var answer pipeline_type.StructuredAnswer
	decoder := json.NewDecoder(strings.NewReader(body))
	if err := decoder.Decode(&answer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSynthesis, err)
	}
	if decoder.More() {
		return nil, fmt.Errorf("%w: trailing content after JSON object", ErrMalformedSynthesis)
	}
	if strings.TrimSpace(answer.Summary) == "" {
		return nil, fmt.Errorf("%w: missing summary", ErrMalformedSynthesis)
	}
	return &answer, nil
}
