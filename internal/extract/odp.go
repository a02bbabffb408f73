package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// odContentPath is the path to the main content inside OpenDocument zips.
const odContentPath = "content.xml"

// OpenDocument text elements (with optional attributes), shared by the .odp
// and .ods extractors. Separate patterns keep opening and closing tags paired.
var (
	odTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odTextSpan = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
	odTextH    = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)
)

// drawPageTag matches a whole <draw:page>...</draw:page> slide, attributes included.
var drawPageTag = regexp.MustCompile(`(?s)<draw:page[ >].*?</draw:page>`)

// scanTextTags collects the trimmed inner text of every match of each
// pattern, space separated, pattern by pattern.
func scanTextTags(s string, patterns ...*regexp.Regexp) string {
	var b strings.Builder
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.TrimSpace(m[1]))
		}
	}
	return strings.TrimSpace(b.String())
}

// extractODP extracts text from .odp bytes, one page per slide. ODP is a ZIP
// containing content.xml (OpenDocument); slides are draw:page elements and
// text lives in text:p, text:span, and text:h.
func extractODP(content []byte) ([]Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODP: not a zip: %w", err)
	}
	contentXML, err := readZipPart(zr, odContentPath)
	if err != nil {
		return nil, fmt.Errorf("extract ODP: %w", err)
	}
	s := string(contentXML)
	var pages []Page
	for i, slide := range drawPageTag.FindAllString(s, -1) {
		pages = append(pages, Page{Number: i + 1, Text: scanTextTags(slide, odTextP, odTextSpan, odTextH)})
	}
	if pages == nil {
		// No slide markup at all; scan the whole body as a single page.
		pages = []Page{{Number: 1, Text: scanTextTags(s, odTextP, odTextSpan, odTextH)}}
	}
	return pages, nil
}
