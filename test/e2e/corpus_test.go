package e2e

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuildCorpus_DocumentsAreValid(t *testing.T) {
	c := BuildCorpus()
	if len(c.Documents) <= e2eSearchLimit {
		t.Errorf("corpus has %d documents; needs more than the search limit %d for containment checks to mean anything",
			len(c.Documents), e2eSearchLimit)
	}

	supported := map[string]bool{}
	for _, ext := range SupportedFileExtensions {
		supported[ext] = true
	}
	seen := map[string]bool{}
	for _, d := range c.Documents {
		if seen[d.Filename] {
			t.Errorf("duplicate filename %q", d.Filename)
		}
		seen[d.Filename] = true
		if ext := filepath.Ext(d.Filename); !supported[ext] {
			t.Errorf("%s: unsupported extension %q", d.Filename, ext)
		}
		// Shorter pages are dropped by the chunker and would never be stored.
		if utf8.RuneCountInString(strings.TrimSpace(d.Text)) < 50 {
			t.Errorf("%s: text too short to chunk (%d runes)", d.Filename, utf8.RuneCountInString(d.Text))
		}
		// Fixture XML embeds the text verbatim.
		if strings.ContainsAny(d.Text, "<>&") {
			t.Errorf("%s: text contains XML markup characters", d.Filename)
		}
	}
}

func TestBuildCorpus_QueryTestCasesExist(t *testing.T) {
	c := BuildCorpus()
	if len(c.TestCases) == 0 {
		t.Fatal("expected at least one query test case")
	}
	byName := map[string]bool{}
	for _, d := range c.Documents {
		byName[d.Filename] = true
	}
	for i, tc := range c.TestCases {
		if tc.Query == "" {
			t.Errorf("test case %d: empty query", i)
		}
		if len(tc.ExpectedFiles) == 0 {
			t.Errorf("test case %d: no expected files", i)
		}
		for _, f := range tc.ExpectedFiles {
			if !byName[f] {
				t.Errorf("test case %d: expected file %q not in corpus", i, f)
			}
		}
	}
}

func TestBuildCorpus_QueryWordsAppearInExpectedDocs(t *testing.T) {
	c := BuildCorpus()
	docByName := map[string]CorpusDocument{}
	for _, d := range c.Documents {
		docByName[d.Filename] = d
	}
	for _, tc := range c.TestCases {
		for _, f := range tc.ExpectedFiles {
			doc, ok := docByName[f]
			if !ok {
				continue
			}
			text := strings.ToLower(doc.Text)
			for _, word := range strings.Fields(strings.ToLower(tc.Query)) {
				if !strings.Contains(text, word) {
					t.Errorf("doc %q does not contain query word %q (query %q)", f, word, tc.Query)
				}
			}
		}
	}
}

// Every top-rank query needs at least one word found in no other document, or
// ranking first cannot be promised.
func TestBuildCorpus_TopRankQueriesHaveUniqueWord(t *testing.T) {
	c := BuildCorpus()
	for _, tc := range c.TestCases {
		if !tc.TopRank {
			continue
		}
		expected := map[string]bool{}
		for _, f := range tc.ExpectedFiles {
			expected[f] = true
		}
		unique := false
		for _, word := range strings.Fields(strings.ToLower(tc.Query)) {
			holders := 0
			for _, d := range c.Documents {
				if strings.Contains(strings.ToLower(d.Text), word) {
					holders++
				}
			}
			if holders == 1 {
				unique = true
				break
			}
		}
		if !unique {
			t.Errorf("query %q has no word unique to its expected document", tc.Query)
		}
	}
}
