package pipeline_type

import "strings"

// Category classifies a source document by how much its content should count.
type Category string

const (
	CategoryResume   Category = "resume"
	CategoryKudos    Category = "kudos"
	CategoryFunFacts Category = "funfacts"
)

// Weight returns the importance multiplier applied to retrieval scores.
func (c Category) Weight() float64 {
	switch c {
	case CategoryResume:
		return 2.0
	case CategoryKudos, CategoryFunFacts:
		return 0.5
	}
	return 1.0
}

// ClassifyIdentity derives the category from a document identity (its file name).
// The résumé check runs first, so "resume_kudos.txt" is a résumé.
func ClassifyIdentity(identity string) Category {
	lower := strings.ToLower(identity)
	switch {
	case strings.Contains(lower, "resume") || strings.HasSuffix(lower, ResumeExtension):
		return CategoryResume
	case strings.Contains(lower, "kudos"):
		return CategoryKudos
	default:
		return CategoryFunFacts
	}
}

// ResumeExtension is the file extension the résumé is published in.
const ResumeExtension = ".pdf"

type DocumentMeta struct {
	Category Category `json:"category"`
	Weight   float64  `json:"weight"`
}

// Document is one ingested source file. It is never mutated after loading.
type Document struct {
	Identity string
	Content  string
	Meta     DocumentMeta
}

// Chunk is a retrieval-sized slice of a Document. Meta points at the parent
// document's metadata; a nil Meta means the weight is unknown.
type Chunk struct {
	DocumentID string
	Index      int
	Text       string
	Meta       *DocumentMeta
}

// SearchHit is a raw similarity result returned by a vector store.
type SearchHit struct {
	Chunk Chunk
	Score float64
}

// ScoredChunk pairs a chunk with its raw and weight-adjusted similarity.
type ScoredChunk struct {
	Chunk         Chunk
	RawScore      float64
	WeightedScore float64
}

// StructuredAnswer is the JSON shape requested by the structured prompt variant.
type StructuredAnswer struct {
	Summary  string `json:"summary" yaml:"summary"`
	Details  string `json:"details,omitempty" yaml:"details"`
	FunFacts string `json:"fun_facts,omitempty" yaml:"fun_facts"`
}

type Synthesis struct {
	Text       string
	UsedChunks []string
	Structured *StructuredAnswer
}

// Answer is what the agent hands back to the HTTP layer.
type Answer struct {
	Text       string
	Sources    []string
	Structured *StructuredAnswer
}
