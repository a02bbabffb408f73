package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pptxSlidePathPrefix is the path prefix for slide XML files inside a .pptx zip.
const pptxSlidePathPrefix = "ppt/slides/slide"

// atTag matches <a:t>text</a:t> or <a:t xml:space="preserve">text</a:t> (and any other attributes).
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// extractPPTX extracts text from .pptx bytes, one page per slide. PPTX is a
// ZIP containing ppt/slides/slideN.xml (Office Open XML) and text lives in
// <a:t>...</a:t> nodes. Zip entry order is not guaranteed, so pages are
// ordered by slide number.
func extractPPTX(content []byte) ([]Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: not a zip: %w", err)
	}
	type slide struct {
		number int
		text   string
	}
	var slides []slide
	for _, f := range zr.File {
		num, ok := slideNumber(f.Name)
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: read %s: %w", f.Name, err)
		}
		var b strings.Builder
		for _, m := range atTag.FindAllStringSubmatch(string(data), -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(m[1]))
		}
		slides = append(slides, slide{number: num, text: strings.TrimSpace(b.String())})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })
	pages := make([]Page, len(slides))
	for i, s := range slides {
		pages[i] = Page{Number: i + 1, Text: s.text}
	}
	return pages, nil
}

// slideNumber parses N out of ppt/slides/slideN.xml entry names.
func slideNumber(name string) (int, bool) {
	if !strings.HasPrefix(name, pptxSlidePathPrefix) || !strings.HasSuffix(name, ".xml") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, pptxSlidePathPrefix), ".xml"))
	if err != nil {
		return 0, false
	}
	return n, true
}
