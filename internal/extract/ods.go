package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
)

// tableTag matches a whole <table:table>...</table:table> sheet, attributes included.
var tableTag = regexp.MustCompile(`(?s)<table:table[ >].*?</table:table>`)

// extractODS extracts text from .ods bytes, one page per sheet. ODS is a ZIP
// containing content.xml (OpenDocument); sheets are table:table elements and
// cell text lives in text:p and text:span.
func extractODS(content []byte) ([]Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract ODS: not a zip: %w", err)
	}
	contentXML, err := readZipPart(zr, odContentPath)
	if err != nil {
		return nil, fmt.Errorf("extract ODS: %w", err)
	}
	s := string(contentXML)
	var pages []Page
	for i, sheet := range tableTag.FindAllString(s, -1) {
		pages = append(pages, Page{Number: i + 1, Text: scanTextTags(sheet, odTextP, odTextSpan)})
	}
	if pages == nil {
		// No sheet markup at all; scan the whole body as a single page.
		pages = []Page{{Number: 1, Text: scanTextTags(s, odTextP, odTextSpan)}}
	}
	return pages, nil
}
