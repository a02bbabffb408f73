// Package cli provides output formatting and argument helpers for the kioku command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kioku/pkg/client"
	"github.com/hyperjump/kioku/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// searchOutput is the JSON shape for machine-readable results.
type searchOutput struct {
	Query   string          `json:"query"`
	Results []client.Result `json:"results"`
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, query string, results []client.Result, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		if results == nil {
			results = []client.Result{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(searchOutput{Query: query, Results: results})
	default:
		writeSearchResultsText(w, query, results)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, query string, results []client.Result) {
	fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(results), query)
	for i, result := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, result.Score)
		fmt.Fprintf(w, "ID: %s\n", result.ChunkID)
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(utils.CollapseWhitespace(result.Text), 200))
		fmt.Fprintln(w)
	}
}

// MetaFlags collects repeatable -meta key=value flags.
type MetaFlags []string

func (m *MetaFlags) String() string { return strings.Join(*m, ",") }

// Set appends one key=value entry. Validation happens in ParseMetaFlags so
// all bad entries are reported the same way.
func (m *MetaFlags) Set(value string) error {
	*m = append(*m, value)
	return nil
}

// ParseMetaFlags parses key=value metadata entries. Values keep everything
// after the first '='. Entries without '=' or with an empty key are an error.
func ParseMetaFlags(entries []string) (map[string]any, error) {
	meta := make(map[string]any, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, want key=value", entry)
		}
		meta[key] = value
	}
	return meta, nil
}

// SearchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument, so `kioku search "query" -k 3`
// would otherwise leave -k unparsed.
func SearchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}
