package e2e

import (
	"strings"
	"testing"

	"github.com/hyperjump/kioku/internal/extract"
)

func TestFileBytes_AllExtensionsExtractable(t *testing.T) {
	e := extract.NewExtractor()
	sample := "searchable fixture content"
	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			content := FileBytes(ext, sample)
			if len(content) == 0 {
				t.Fatal("empty content")
			}
			pages, err := e.Extract("sample"+ext, content)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(pages) == 0 {
				t.Fatal("no pages extracted")
			}
			if !strings.Contains(pages[0].Text, sample) {
				t.Errorf("extracted text %q does not contain %q", pages[0].Text, sample)
			}
			if pages[0].Number != 1 {
				t.Errorf("first page number = %d, want 1", pages[0].Number)
			}
		})
	}
}
