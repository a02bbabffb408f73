package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// singlePage asserts the extraction produced exactly one page and returns it.
func singlePage(t *testing.T, pages []Page, err error) Page {
	t.Helper()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	return pages[0]
}

func TestExtract_plain(t *testing.T) {
	e := NewExtractor()
	pages, err := e.Extract("notes.txt", []byte("Hello world\nLine 2"))
	page := singlePage(t, pages, err)
	if page.Number != 1 {
		t.Errorf("page number = %d, want 1", page.Number)
	}
	if page.Text != "Hello world\nLine 2" {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtract_plainUTF8(t *testing.T) {
	e := NewExtractor()
	pages, err := e.Extract("readme.md", []byte("caf\xc3\xa9")) // valid UTF-8
	page := singlePage(t, pages, err)
	if page.Text != "café" {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtract_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	pages, err := e.Extract("data.txt", []byte("hello\x80world")) // invalid UTF-8
	page := singlePage(t, pages, err)
	if page.Text != "hello�world" {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtract_excelSheetPerPage(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	if _, err := f.NewSheet("Costs"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	f.SetCellValue("Costs", "A1", "Budget")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	pages, err := e.Extract("data.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if pages[0].Number != 1 || pages[0].Text != "Title\nValue 1\tValue 2" {
		t.Errorf("page 1 = %+v", pages[0])
	}
	if pages[1].Number != 2 || pages[1].Text != "Budget" {
		t.Errorf("page 2 = %+v", pages[1])
	}
}

// minimalDocx returns .docx zip bytes whose word/document.xml body holds the
// given OOXML fragment.
func minimalDocx(body string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + body + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtract_docxParagraphs(t *testing.T) {
	e := NewExtractor()
	content := minimalDocx(`<w:p w:rsidR="00AB12"><w:r><w:t>First paragraph.</w:t></w:r></w:p><w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>`)
	pages, err := e.Extract("report.docx", content)
	page := singlePage(t, pages, err)
	if page.Text != "First paragraph.\n\nSecond paragraph." {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtract_docxRunsConcatenate(t *testing.T) {
	e := NewExtractor()
	content := minimalDocx(`<w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p>`)
	pages, err := e.Extract("report.docx", content)
	page := singlePage(t, pages, err)
	if page.Text != "Hello world" {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtract_docxFlatFallback(t *testing.T) {
	e := NewExtractor()
	// Text nodes outside any <w:p> element still get picked up.
	content := minimalDocx(`<w:t>orphan text</w:t>`)
	pages, err := e.Extract("report.docx", content)
	page := singlePage(t, pages, err)
	if page.Text != "orphan text" {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtract_docxNotZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("broken.docx", []byte("not a zip")); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestExtract_docxMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	e := NewExtractor()
	if _, err := e.Extract("empty.docx", buf.Bytes()); err == nil {
		t.Error("expected error when word/document.xml missing")
	}
}

func TestExtract_unsupportedExtension(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("archive.xyz", []byte("raw content")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestExtractFile_plain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	pages, err := e.ExtractFile(path)
	page := singlePage(t, pages, err)
	if page.Text != "File content" {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtractFile_excel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Searchable text")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	e := NewExtractor()
	pages, err := e.ExtractFile(path)
	page := singlePage(t, pages, err)
	if page.Text != "Searchable text" {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtractFile_nonexistent(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractFile("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

// pptxSlide returns minimal slide XML with the given text in an <a:t> tag.
func pptxSlide(text string) []byte {
	return []byte(`<p:sld><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
}

func TestExtract_pptxSlidePerPage(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	// Written out of order on purpose; pages must follow slide numbers.
	slide2, _ := w.Create("ppt/slides/slide2.xml")
	_, _ = slide2.Write(pptxSlide("Second slide"))
	slide1, _ := w.Create("ppt/slides/slide1.xml")
	_, _ = slide1.Write(pptxSlide("First slide"))
	_ = w.Close()

	e := NewExtractor()
	pages, err := e.Extract("deck.pptx", buf.Bytes())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if pages[0].Number != 1 || pages[0].Text != "First slide" {
		t.Errorf("page 1 = %+v", pages[0])
	}
	if pages[1].Number != 2 || pages[1].Text != "Second slide" {
		t.Errorf("page 2 = %+v", pages[1])
	}
}

func TestExtract_pptxNotZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("deck.pptx", []byte("not a zip")); err == nil {
		t.Error("expected error for invalid pptx")
	}
}

// minimalOd returns OpenDocument zip bytes with the given content.xml body.
func minimalOd(contentXML string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("content.xml")
	_, _ = fw.Write([]byte(contentXML))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtract_odpSlidePerPage(t *testing.T) {
	contentXML := `<office:document><office:body>` +
		`<draw:page draw:name="page1"><draw:text-box><text:p>Opening slide</text:p></draw:text-box></draw:page>` +
		`<draw:page draw:name="page2"><text:h>Details</text:h></draw:page>` +
		`</office:body></office:document>`
	e := NewExtractor()
	pages, err := e.Extract("pres.odp", minimalOd(contentXML))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if pages[0].Text != "Opening slide" {
		t.Errorf("page 1 = %q", pages[0].Text)
	}
	if pages[1].Text != "Details" {
		t.Errorf("page 2 = %q", pages[1].Text)
	}
}

func TestExtract_odpFlatFallback(t *testing.T) {
	contentXML := `<office:document><office:body><text:h>Slide title</text:h><text:p>Body text</text:p></office:body></office:document>`
	e := NewExtractor()
	pages, err := e.Extract("pres.odp", minimalOd(contentXML))
	page := singlePage(t, pages, err)
	// Patterns run in p, span, h order, so the heading trails the body.
	if page.Text != "Body text Slide title" {
		t.Errorf("got %q", page.Text)
	}
}

func TestExtract_odsSheetPerPage(t *testing.T) {
	contentXML := `<office:document><office:body>` +
		`<table:table table:name="S1"><table:table-row><table:table-cell><text:p>Cell A</text:p></table:table-cell><table:table-cell><text:span>Cell B</text:span></table:table-cell></table:table-row></table:table>` +
		`<table:table table:name="S2"><table:table-row><table:table-cell><text:p>Other sheet</text:p></table:table-cell></table:table-row></table:table>` +
		`</office:body></office:document>`
	e := NewExtractor()
	pages, err := e.Extract("sheet.ods", minimalOd(contentXML))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if pages[0].Text != "Cell A Cell B" {
		t.Errorf("page 1 = %q", pages[0].Text)
	}
	if pages[1].Text != "Other sheet" {
		t.Errorf("page 2 = %q", pages[1].Text)
	}
}

func TestExtract_odContentNotFound(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	e := NewExtractor()
	if _, err := e.Extract("pres.odp", buf.Bytes()); err == nil {
		t.Error("expected error when content.xml missing")
	}
	if _, err := e.Extract("sheet.ods", buf.Bytes()); err == nil {
		t.Error("expected error when content.xml missing")
	}
}
