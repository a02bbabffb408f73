// Package ingest turns document files into stored chunks: extract pages,
// split them on sentence boundaries, and push each chunk to the server.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DocID returns a stable short document ID for the given source filename.
// Same filename always yields the same ID, so re-ingesting a file updates
// its existing chunks instead of duplicating them.
func DocID(filename string) string {
	hash := sha256.Sum256([]byte(filename))
	return "doc_" + hex.EncodeToString(hash[:])[:8]
}

// ChunkID names one chunk inside the document identified by docID.
func ChunkID(docID string, index int) string {
	return fmt.Sprintf("%s_chunk_%04d", docID, index)
}
