// Package extract provides page-oriented text extraction from document files.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Page is one unit of extracted text with its 1-based position in the source:
// a PDF page, a spreadsheet sheet, or the whole body for single-page formats.
// Page numbers flow into chunk metadata, so extractors preserve them even for
// pages that turn out to be empty.
type Page struct {
	Number int
	Text   string
}

// Extractor extracts text from document files, page by page.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractFile reads the file at path and extracts its pages.
func (e *Extractor) ExtractFile(path string) ([]Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.Extract(filepath.Base(path), content)
}

// Extract extracts pages from content based on filename's extension.
// PDF yields one page per document page, presentations one per slide, and
// spreadsheets one per sheet; plain text (.txt, .md) and DOCX yield a single
// page. Unsupported extensions are an error.
func (e *Extractor) Extract(filename string, content []byte) ([]Page, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".pptx":
		return extractPPTX(content)
	case ".odp":
		return extractODP(content)
	case ".ods":
		return extractODS(content)
	case ".txt", ".md":
		return extractPlain(content)
	default:
		return nil, fmt.Errorf("unsupported file extension %q", ext)
	}
}
