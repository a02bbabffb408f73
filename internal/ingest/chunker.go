package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/kioku/internal/extract"
)

const (
	// DefaultChunkTokens is the target chunk size in estimated tokens.
	DefaultChunkTokens = 1500
	// DefaultOverlapSentences is how many trailing sentences carry over
	// into the next chunk.
	DefaultOverlapSentences = 2
	// minPageChars filters out pages that are effectively empty, such as
	// scanned or image-only PDF pages.
	minPageChars = 50
)

// Chunk is one sentence-boundary-aware piece of a document.
type Chunk struct {
	ChunkID     string
	DocID       string
	Text        string
	Filename    string
	PageStart   int
	PageEnd     int
	Index       int
	TotalChunks int
	CharCount   int
}

// Chunker splits extracted pages into overlapping chunks. Chunks never
// break mid-sentence: sentences accumulate until the token target would
// be exceeded, then the last overlap sentences start the next chunk.
type Chunker struct {
	chunkTokens      int
	overlapSentences int
}

// NewChunker creates a chunker with the given token target and sentence
// overlap. Non-positive values fall back to the defaults.
func NewChunker(chunkTokens, overlapSentences int) *Chunker {
	if chunkTokens <= 0 {
		chunkTokens = DefaultChunkTokens
	}
	if overlapSentences < 0 {
		overlapSentences = DefaultOverlapSentences
	}
	return &Chunker{
		chunkTokens:      chunkTokens,
		overlapSentences: overlapSentences,
	}
}

// taggedSentence is a sentence with the page it came from.
type taggedSentence struct {
	text string
	page int
}

// Split chunks the pages of the named file. Pages with fewer than
// minPageChars of trimmed text are skipped. Returns nil when no page has
// usable text.
func (c *Chunker) Split(filename string, pages []extract.Page) []Chunk {
	var sentences []taggedSentence
	for _, page := range pages {
		if utf8.RuneCountInString(strings.TrimSpace(page.Text)) < minPageChars {
			continue
		}
		for _, para := range strings.Split(page.Text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			for _, sent := range splitSentences(para) {
				sentences = append(sentences, taggedSentence{text: sent, page: page.Number})
			}
		}
	}
	if len(sentences) == 0 {
		return nil
	}

	docID := DocID(filename)
	var chunks []Chunk
	var current []taggedSentence
	currentTokens := 0
	// grew tracks whether current holds anything beyond carried overlap;
	// without it a sentence larger than the target would loop forever.
	grew := false

	emit := func() {
		parts := make([]string, len(current))
		pageStart, pageEnd := current[0].page, current[0].page
		for i, s := range current {
			parts[i] = s.text
			if s.page < pageStart {
				pageStart = s.page
			}
			if s.page > pageEnd {
				pageEnd = s.page
			}
		}
		text := strings.Join(parts, " ")
		chunks = append(chunks, Chunk{
			ChunkID:   ChunkID(docID, len(chunks)),
			DocID:     docID,
			Text:      text,
			Filename:  filename,
			PageStart: pageStart,
			PageEnd:   pageEnd,
			Index:     len(chunks),
			CharCount: utf8.RuneCountInString(text),
		})
	}

	for i := 0; i < len(sentences); {
		sent := sentences[i]
		sentTokens := estimateTokens(sent.text)

		if currentTokens+sentTokens > c.chunkTokens && grew {
			emit()
			n := c.overlapSentences
			if n > len(current) {
				n = len(current)
			}
			current = append([]taggedSentence(nil), current[len(current)-n:]...)
			currentTokens = 0
			for _, o := range current {
				currentTokens += estimateTokens(o.text)
			}
			grew = false
			// Re-check the same sentence against the fresh chunk.
			continue
		}

		current = append(current, sent)
		currentTokens += sentTokens
		grew = true
		i++
	}
	if len(current) > 0 {
		emit()
	}

	for i := range chunks {
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}

// estimateTokens estimates token count with a word-count heuristic,
// roughly one token per 0.75 words.
func estimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) / 0.75)
}

// splitSentences splits text into sentences. A sentence ends at a run of
// '.', '!' or '?' followed by whitespace or the end of the text.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i
		for j+1 < len(runes) && isTerminal(runes[j+1]) {
			j++
		}
		if j+1 >= len(runes) || unicode.IsSpace(runes[j+1]) {
			if s := strings.TrimSpace(string(runes[start : j+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = j + 1
		}
		i = j
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
