package rag_service

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/serisow/autbot/apperror"
	"github.com/serisow/autbot/pipeline_type"
)

// Loader reads the source corpus once at startup and tags every document
// with its category and weight.
type Loader struct {
	extractor *DocumentExtractor
	logger    *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{
		extractor: NewDocumentExtractor(logger),
		logger:    logger,
	}
}

// Load reads every regular, non-hidden file directly under dir in lexical
// order. Any unreadable file aborts the whole load.
func (l *Loader) Load(dir string) ([]pipeline_type.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDocumentLoading, err, "failed to read document directory").
			WithDetail("directory", dir)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	docs, err := l.LoadFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperror.New(apperror.KindDocumentLoading, "no documents found").
			WithDetail("directory", dir)
	}
	return docs, nil
}

// LoadFiles reads paths in the given order. The identity of a document is its
// base file name, and only the first file with a given identity is kept.
func (l *Loader) LoadFiles(paths []string) ([]pipeline_type.Document, error) {
	docs := make([]pipeline_type.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindDocumentLoading, err, "failed to read document").
				WithDetail("path", path)
		}

		identity := filepath.Base(path)
		text, err := l.extractor.ExtractText(identity, data)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindDocumentLoading, err, "failed to extract document text").
				WithDetail("path", path)
		}

		docs = append(docs, pipeline_type.Document{Identity: identity, Content: text})
	}

	return l.weigh(Dedup(docs, l.logger)), nil
}

func (l *Loader) weigh(docs []pipeline_type.Document) []pipeline_type.Document {
	for i := range docs {
		category := pipeline_type.ClassifyIdentity(docs[i].Identity)
		docs[i].Meta = pipeline_type.DocumentMeta{
			Category: category,
			Weight:   category.Weight(),
		}
		l.logger.Info("Loaded document",
			slog.String("identity", docs[i].Identity),
			slog.String("category", string(category)),
			slog.Float64("weight", category.Weight()),
			slog.Int("content_length", len(docs[i].Content)))
	}
	return docs
}

// Dedup keeps the first document seen for each identity and drops the rest.
func Dedup(docs []pipeline_type.Document, logger *slog.Logger) []pipeline_type.Document {
	seen := make(map[string]struct{}, len(docs))
	out := make([]pipeline_type.Document, 0, len(docs))
	for _, doc := range docs {
		if _, ok := seen[doc.Identity]; ok {
			logger.Info("Skipping duplicate document", slog.String("identity", doc.Identity))
			continue
		}
		seen[doc.Identity] = struct{}{}
		out = append(out, doc)
	}
	return out
}
