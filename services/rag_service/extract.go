package rag_service

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

type DocumentExtractor struct {
	logger *slog.Logger
}

func NewDocumentExtractor(logger *slog.Logger) *DocumentExtractor {
	return &DocumentExtractor{
		logger: logger,
	}
}

// ExtractText picks an extractor from the file extension of identity. Files
// without a known binary format are read as UTF-8 text.
func (e *DocumentExtractor) ExtractText(identity string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(identity)) {
	case ".pdf":
		return e.ExtractTextFromPDF(data)
	case ".doc", ".docx":
		return e.ExtractTextFromWord(data, wordMIMEType(identity))
	case ".html", ".htm":
		return e.ExtractTextFromHTML(data)
	default:
		return string(data), nil
	}
}

func (e *DocumentExtractor) ExtractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		e.logger.Error("Failed to create PDF reader",
			slog.String("error", err.Error()),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	totalPage := reader.NumPage()
	e.logger.Debug("Starting PDF text extraction",
		slog.Int("total_pages", totalPage))

	var fullText strings.Builder
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			e.logger.Warn("Null page encountered",
				slog.Int("page_number", pageIndex))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Error("Failed to extract text from page",
				slog.Int("page_number", pageIndex),
				slog.String("error", err.Error()))
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}
		fullText.WriteString(text)
	}

	if fullText.Len() == 0 {
		return "", fmt.Errorf("no text content extracted from PDF")
	}

	e.logger.Debug("Extracted text from PDF",
		slog.Int("total_pages", totalPage),
		slog.Int("total_text_length", fullText.Len()))

	return fullText.String(), nil
}

// wordMIMEType tells docconv which Word format identity holds.
func wordMIMEType(identity string) string {
	if strings.ToLower(filepath.Ext(identity)) == ".doc" {
		return "application/msword"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

func (e *DocumentExtractor) ExtractTextFromWord(data []byte, mimeType string) (string, error) {
	result, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		e.logger.Error("Failed to convert Word document",
			slog.String("error", err.Error()),
			slog.String("mime_type", mimeType),
			slog.Int("data_size", len(data)))
		return "", fmt.Errorf("failed to convert Word document: %w", err)
	}

	if len(result.Body) == 0 {
		return "", fmt.Errorf("no text content extracted from Word document")
	}

	return result.Body, nil
}

const htmlBlocks = "h1, h2, h3, h4, h5, h6, p, li, td, blockquote"

// ExtractTextFromHTML returns the visible text of an HTML page, one block per line.
func (e *DocumentExtractor) ExtractTextFromHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML document: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var blocks []string
	doc.Find(htmlBlocks).Each(func(i int, s *goquery.Selection) {
		// A block nested in another block is already part of its text.
		if s.ParentsFiltered(htmlBlocks).Length() > 0 {
			return
		}
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		if text := strings.Join(strings.Fields(doc.Text()), " "); text != "" {
			blocks = append(blocks, text)
		}
	}
	if len(blocks) == 0 {
		return "", fmt.Errorf("no text content extracted from HTML document")
	}

	return strings.Join(blocks, "\n"), nil
}
