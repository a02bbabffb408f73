// Package e2e runs the whole pipeline against a live server: corpus files on
// disk, extraction, chunking, storing over TCP, and search.
package e2e

import (
	"fmt"
	"path/filepath"
)

// CorpusDocument is one file in the e2e corpus. The filename extension selects
// the extraction path, so the corpus covers every supported file type.
type CorpusDocument struct {
	Filename string
	Text     string
}

// QueryTestCase defines a query and the file(s) whose chunks must appear in
// the results. When TopRank is set, the first result must come from the first
// expected file.
type QueryTestCase struct {
	Query         string
	ExpectedFiles []string
	TopRank       bool
	Description   string
}

// Corpus holds documents and query test cases for the e2e suite.
type Corpus struct {
	Documents []CorpusDocument
	TestCases []QueryTestCase
}

// fillerCount pads the corpus with unrelated documents so that the search
// limit is smaller than the corpus and containment checks mean something.
const fillerCount = 40

// BuildCorpus returns the e2e corpus. Every signature document carries a few
// words that appear nowhere else in the corpus, so queries built from those
// words have exactly one right answer.
func BuildCorpus() *Corpus {
	docs := []CorpusDocument{
		{"aurora_observatory.txt", "The aurora observatory logs every borealis display over the fjord. Researchers grade each aurora by brightness and the observatory archives the borealis photographs."},
		{"sourdough_bakery.md", "The bakery feeds its sourdough starter twice a day. A slow fermentation gives the sourdough crumb its airy texture and the bakery its morning queue."},
		{"glacier_survey.docx", "The survey team mapped the glacier from the terminal moraine to the upper icefall. Deep crevasse fields forced the glacier team onto the western ridge."},
		{"beekeeping_notes.txt", "A healthy hive stacks nectar above the brood and packs pollen beside it. Inspect the hive often while nectar flows and note the pollen shade."},
		{"violin_luthier.md", "The luthier shapes each violin plate by ear and thickness. An amber varnish seals the violin after the luthier signs the inner label."},
		{"espresso_manual.docx", "Dose the portafilter evenly before pulling espresso. A steady crema on the espresso signals a clean portafilter and a fresh roast."},
		{"orchard_ledger.xlsx", "The orchard pressing records track every cider batch by tree row. Late apples give the cider body and the orchard its reputation."},
		{"sailmaking_notes.pptx", "Cut the spinnaker from light sailcloth and tape every seam. Check the rigging before hoisting the spinnaker in a building breeze."},
		{"fossil_dig.odp", "The dig exposed a trilobite bed in gray shale. Wrap each fossil in burlap and mark the trilobite layer before moving the shale blocks."},
		{"cheese_cave.ods", "Turn each gouda wheel during affinage and brush the rind twice. The cave keeps affinage steady so the gouda rind never cracks."},
		{"pottery_kiln.md", "Fire the bisque slowly before any glaze touches the kiln shelf. A patient kiln schedule keeps the glaze from crawling off the bisque."},
		{"lighthouse_journal.docx", "The keeper polishes the lighthouse lens at dusk. Fog rolled past the lighthouse while the keeper wound the clockwork lens."},
		{"canal_barge.pptx", "The barge waits below the lock while horses walk the towpath. Fenders guard the barge hull as the lock gates swing."},
		{"falconry_notes.odp", "Check the jesses each morning before the falcon leaves the mews. A calm falcon returns to the mews when the lure drops."},
		{"weather_balloon.txt", "The radiosonde rides the balloon into the stratosphere at dawn. Track the balloon until the stratosphere winds burst it."},
		{"tannery_manual.txt", "Soak the hides while oak bark steeps in the tanning pits. The tannery stirs each tanning pit before the bark loses strength."},
		{"bonsai_journal.txt", "Expose the nebari before wiring the bonsai trunk. Remove the wiring each spring so the bonsai bark never scars."},
		{"printing_press.docx", "Lock the typeface into the chase before the platen closes. The letterpress inks each typeface form as the platen kisses the sheet."},
	}
	for i := 0; i < fillerCount; i++ {
		docs = append(docs, CorpusDocument{
			Filename: fmt.Sprintf("filler_%03d.txt", i),
			Text:     fmt.Sprintf("Routine memo number %d drones on about corridor cleaning rotas, stationery restocks, and the minutes of yet another scheduling committee.", i),
		})
	}

	cases := []QueryTestCase{
		{"aurora borealis observatory", []string{"aurora_observatory.txt"}, true, "plain text by signature words"},
		{"sourdough starter bakery", []string{"sourdough_bakery.md"}, true, "markdown by signature words"},
		{"glacier moraine crevasse", []string{"glacier_survey.docx"}, true, "docx by signature words"},
		{"hive nectar pollen", []string{"beekeeping_notes.txt"}, true, "repeated signature words"},
		{"violin varnish luthier", []string{"violin_luthier.md"}, true, "markdown corpus entry"},
		{"espresso portafilter crema", []string{"espresso_manual.docx"}, true, "second docx entry"},
		{"orchard cider pressing", []string{"orchard_ledger.xlsx"}, true, "xlsx sheet content"},
		{"spinnaker rigging sailcloth", []string{"sailmaking_notes.pptx"}, true, "pptx slide content"},
		{"trilobite fossil shale", []string{"fossil_dig.odp"}, true, "odp slide content"},
		{"gouda rind affinage", []string{"cheese_cave.ods"}, true, "ods sheet content"},
		{"kiln glaze bisque", []string{"pottery_kiln.md"}, true, "all three words unique to one doc"},
		{"lighthouse keeper lens", []string{"lighthouse_journal.docx"}, true, "signature words appear twice each"},
		{"lock gates towpath", []string{"canal_barge.pptx"}, true, "barge doc despite lock appearing elsewhere"},
		{"radiosonde stratosphere balloon", []string{"weather_balloon.txt"}, true, "weather balloon entry"},
		{"letterpress platen typeface", []string{"printing_press.docx"}, true, "printing entry"},
		{"bark", []string{"tannery_manual.txt", "bonsai_journal.txt"}, false, "single shared word matches both docs"},
	}

	return &Corpus{Documents: docs, TestCases: cases}
}

// Extensions returns the distinct file extensions used by the corpus.
func (c *Corpus) Extensions() []string {
	seen := map[string]bool{}
	var exts []string
	for _, d := range c.Documents {
		ext := filepath.Ext(d.Filename)
		if !seen[ext] {
			seen[ext] = true
			exts = append(exts, ext)
		}
	}
	return exts
}
