package rag_service

import (
	"regexp"
	"strings"

	"github.com/serisow/autbot/pipeline_type"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
// Line breaks end a sentence too, so résumé bullets without punctuation
// are kept as their own sentences.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|\n|$)`),
	}
}

func (c *SentenceChunker) Chunk(document pipeline_type.Document) []pipeline_type.Chunk {
	var sentences []string
	for _, s := range c.splitter.FindAllString(document.Content, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return nil
	}

	meta := document.Meta
	var chunks []pipeline_type.Chunk
	for i, idx := 0, 0; i < len(sentences); idx++ {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, pipeline_type.Chunk{
			DocumentID: document.Identity,
			Index:      idx,
			Text:       strings.Join(sentences[i:end], " "),
			Meta:       &meta,
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks
}
