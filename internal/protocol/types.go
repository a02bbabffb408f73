package protocol

// Actions understood by the server.
const (
	ActionStore  = "store"
	ActionSearch = "search"
)

// Response statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// DefaultTopK is the number of search results returned when top_k is absent.
const DefaultTopK = 5

// Envelope carries the action discriminator of a request; the full body is
// decoded a second time into the action's request type.
type Envelope struct {
	Action string `json:"action"`
}

// StoreRequest upserts one chunk under a document. Metadata is optional and
// opaque to the server.
type StoreRequest struct {
	Action   string         `json:"action"`
	ChunkID  string         `json:"chunk_id"`
	DocID    string         `json:"doc_id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchRequest queries the store. TopK is a pointer so an absent field
// (default applies) is distinguishable from an explicit zero. A non-empty
// DocID restricts results to that document.
type SearchRequest struct {
	Action string `json:"action"`
	Query  string `json:"query"`
	TopK   *int   `json:"top_k,omitempty"`
	DocID  string `json:"doc_id,omitempty"`
}

// SearchResult is one search hit on the wire. Stored metadata is deliberately
// not echoed back; clients get chunk_id, score, and text only.
type SearchResult struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// StoreResponse acknowledges a successful store.
type StoreResponse struct {
	Status string `json:"status"`
}

// SearchResponse carries ranked results. Results is always a JSON array,
// never null, so encoders must hand it a non-nil slice.
type SearchResponse struct {
	Status  string         `json:"status"`
	Results []SearchResult `json:"results"`
}

// ErrorResponse reports a request-local failure.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Response is the union shape clients decode: Status is always set, Message
// accompanies errors, Results accompanies successful searches.
type Response struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Results []SearchResult `json:"results,omitempty"`
}
