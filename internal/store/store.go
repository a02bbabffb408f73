// Package store provides the in-memory vector store: entries keyed by chunk ID,
// a secondary document index, and exhaustive inner product search.
package store

import (
	"sort"
	"sync"

	"github.com/hyperjump/kioku/pkg/utils"
)

// Entry is a stored chunk: identity, original text, caller-supplied metadata,
// and the embedding it is searched by. Text and metadata are opaque to the store.
type Entry struct {
	ChunkID   string
	DocID     string
	Text      string
	Metadata  map[string]any
	Embedding []float32
}

// SearchResult is a single search hit.
type SearchResult struct {
	ChunkID string
	Score   float64
	Text    string
}

// Store is an in-memory vector store with upsert and brute-force inner product
// search. Entries live for the process lifetime; there is no delete and no
// persistence. The doc index maps each doc ID to the chunk IDs belonging to it
// and never lags the entry map: both mutate under the same lock, and a doc
// with no remaining chunks is dropped immediately.
type Store struct {
	entries  map[string]*Entry
	docIndex map[string][]string
	mu       sync.RWMutex
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries:  make(map[string]*Entry),
		docIndex: make(map[string][]string),
	}
}

// Upsert inserts or overwrites the entry for chunkID. A chunk that previously
// belonged to another document is unlinked from it first. The embedding is
// copied, so the caller may reuse its slice.
func (s *Store) Upsert(chunkID, docID, text string, metadata map[string]any, embedding []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[chunkID]; ok {
		s.unlink(old.DocID, chunkID)
	}

	vec := make([]float32, len(embedding))
	copy(vec, embedding)
	s.entries[chunkID] = &Entry{
		ChunkID:   chunkID,
		DocID:     docID,
		Text:      text,
		Metadata:  metadata,
		Embedding: vec,
	}
	s.docIndex[docID] = append(s.docIndex[docID], chunkID)
}

// unlink removes chunkID from docID's bucket, dropping the bucket when it
// empties. Caller must hold mu.
func (s *Store) unlink(docID, chunkID string) {
	bucket := s.docIndex[docID]
	for i, id := range bucket {
		if id == chunkID {
			s.docIndex[docID] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(s.docIndex[docID]) == 0 {
		delete(s.docIndex, docID)
	}
}

// Search scores candidates by inner product with query and returns at most
// topK results, highest score first. Equal scores order by chunk ID ascending;
// that is this implementation's rule, not a protocol guarantee. A non-empty
// docFilter restricts candidates to that document's chunks, and an unknown
// document simply yields no results. topK <= 0 yields an empty list. The
// returned slice is never nil.
func (s *Store) Search(query []float32, topK int, docFilter string) []SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 {
		return []SearchResult{}
	}

	var candidates []*Entry
	if docFilter != "" {
		ids := s.docIndex[docFilter]
		candidates = make([]*Entry, 0, len(ids))
		for _, id := range ids {
			if e, ok := s.entries[id]; ok {
				candidates = append(candidates, e)
			}
		}
	} else {
		candidates = make([]*Entry, 0, len(s.entries))
		for _, e := range s.entries {
			candidates = append(candidates, e)
		}
	}

	scored := make([]SearchResult, 0, len(candidates))
	for _, e := range candidates {
		scored = append(scored, SearchResult{
			ChunkID: e.ChunkID,
			Score:   utils.InnerProduct(query, e.Embedding),
			Text:    e.Text,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ChunkID < scored[j].ChunkID
	})

	if topK < len(scored) {
		scored = scored[:topK]
	}
	return scored
}

// Size returns the number of stored entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// DocChunks returns a copy of the chunk IDs registered under docID, in
// insertion order. Nil when the document is unknown.
func (s *Store) DocChunks(docID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket, ok := s.docIndex[docID]
	if !ok {
		return nil
	}
	out := make([]string, len(bucket))
	copy(out, bucket)
	return out
}
