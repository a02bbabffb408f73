package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kioku/pkg/client"
)

func TestWriteSearchResults_JSON(t *testing.T) {
	results := []client.Result{
		{ChunkID: "doc_ab12cd34_chunk_0000", Score: 0.9132, Text: "Content here"},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "test query", results, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	out := buf.String()
	var decoded struct {
		Query   string          `json:"query"`
		Results []client.Result `json:"results"`
	}
	if err := json.NewDecoder(strings.NewReader(out)).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if decoded.Query != "test query" {
		t.Errorf("decoded query = %q", decoded.Query)
	}
	if len(decoded.Results) != 1 || decoded.Results[0].ChunkID != "doc_ab12cd34_chunk_0000" {
		t.Errorf("decoded results: %+v", decoded.Results)
	}
	if !strings.Contains(out, `"chunk_id"`) {
		t.Errorf("JSON should use wire field names:\n%s", out)
	}
}

func TestWriteSearchResults_JSON_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "q", nil, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	if !strings.Contains(buf.String(), `"results": []`) {
		t.Errorf("empty results should encode as [], got:\n%s", buf.String())
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	results := []client.Result{
		{ChunkID: "c1", Score: 0.91329, Text: "short text"},
		{ChunkID: "c2", Score: 0.5, Text: strings.Repeat("x", 300)},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "q", results, OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Found 2 results") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "Rank: 1 | Score: 0.9133") {
		t.Errorf("missing formatted score:\n%s", out)
	}
	if !strings.Contains(out, "ID: c1") {
		t.Errorf("missing chunk ID:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("x", 200)+"...") {
		t.Errorf("long text should be truncated:\n%s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 201)) {
		t.Errorf("text should not exceed the truncation limit:\n%s", out)
	}
}

func TestWriteSearchResults_TextFlattensMultilineChunks(t *testing.T) {
	results := []client.Result{
		{ChunkID: "c1", Score: 0.5, Text: "first line\nsecond line\n\nthird line"},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, "q", results, OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	if !strings.Contains(buf.String(), "first line second line third line") {
		t.Errorf("chunk text should render on one line:\n%s", buf.String())
	}
}

func TestParseMetaFlags(t *testing.T) {
	meta, err := ParseMetaFlags([]string{"source=manual", "note=a=b"})
	if err != nil {
		t.Fatalf("ParseMetaFlags: %v", err)
	}
	if got, ok := meta["source"].(string); !ok || got != "manual" {
		t.Errorf("source = %v", meta["source"])
	}
	if got, ok := meta["note"].(string); !ok || got != "a=b" {
		t.Errorf("value should keep everything after the first '=': %v", meta["note"])
	}

	if _, err := ParseMetaFlags([]string{"noequals"}); err == nil {
		t.Error("expected error for entry without '='")
	}
	if _, err := ParseMetaFlags([]string{"=value"}); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestMetaFlags_Set(t *testing.T) {
	var m MetaFlags
	_ = m.Set("a=1")
	_ = m.Set("b=2")
	if len(m) != 2 || m[0] != "a=1" || m[1] != "b=2" {
		t.Errorf("MetaFlags = %v", m)
	}
	if m.String() != "a=1,b=2" {
		t.Errorf("String() = %q", m.String())
	}
}

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"flags_after_query", []string{"hello", "world", "-k", "3"}, []string{"-k", "3", "hello", "world"}},
		{"flags_first", []string{"-k", "3", "hello"}, []string{"-k", "3", "hello"}},
		{"no_flags", []string{"hello", "world"}, []string{"hello", "world"}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchArgsReorder(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
