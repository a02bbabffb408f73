package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/extract"
)

// ChunkStore is the part of the protocol client the ingestor needs.
type ChunkStore interface {
	Store(ctx context.Context, chunkID, docID, text string, metadata map[string]any) error
}

// Stats summarizes one ingested file.
type Stats struct {
	Pages  int
	Chunks int
	Stored int
	Failed int
}

// Ingestor runs the extract, chunk, store pipeline for document files.
type Ingestor struct {
	extractor *extract.Extractor
	chunker   *Chunker
	store     ChunkStore
	logger    *zap.Logger // optional; when set, logs per-file events
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithLogger sets a logger for per-file debug output and store warnings.
func WithLogger(l *zap.Logger) IngestorOption {
	return func(ing *Ingestor) { ing.logger = l }
}

// NewIngestor creates an ingestor with the given dependencies.
func NewIngestor(extractor *extract.Extractor, chunker *Chunker, store ChunkStore, opts ...IngestorOption) *Ingestor {
	ing := &Ingestor{
		extractor: extractor,
		chunker:   chunker,
		store:     store,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// IngestFile extracts the file at path, chunks it, and stores every chunk.
// Store failures are counted and logged, not fatal: the remaining chunks
// still go through. Extraction failures are fatal for the file.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (*Stats, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	if ing.logger != nil {
		ing.logger.Debug("ingesting file", zap.String("path", absPath))
	}

	pages, err := ing.extractor.ExtractFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}
	chunks := ing.chunker.Split(filepath.Base(absPath), pages)
	stats := &Stats{Pages: len(pages), Chunks: len(chunks)}

	for _, chunk := range chunks {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		meta := map[string]any{
			"filename":     chunk.Filename,
			"page_start":   chunk.PageStart,
			"page_end":     chunk.PageEnd,
			"chunk_index":  chunk.Index,
			"total_chunks": chunk.TotalChunks,
			"char_count":   chunk.CharCount,
		}
		if err := ing.store.Store(ctx, chunk.ChunkID, chunk.DocID, chunk.Text, meta); err != nil {
			stats.Failed++
			if ing.logger != nil {
				ing.logger.Warn("failed to store chunk",
					zap.String("chunk_id", chunk.ChunkID), zap.Error(err))
			}
			continue
		}
		stats.Stored++
	}

	if ing.logger != nil {
		ing.logger.Debug("file ingested",
			zap.String("path", absPath),
			zap.Int("pages", stats.Pages),
			zap.Int("chunks", stats.Chunks),
			zap.Int("stored", stats.Stored))
	}
	return stats, nil
}
