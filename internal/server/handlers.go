package server

import (
	"encoding/json"

	"github.com/hyperjump/kioku/internal/protocol"
	"github.com/hyperjump/kioku/pkg/utils"
	"go.uber.org/zap"
)

// dispatch decodes one request body, routes it by action, and returns the
// encoded response. Every failure below the framing layer produces a
// structured error response rather than an aborted connection.
func (s *Server) dispatch(body []byte) []byte {
	var env protocol.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return s.encode(errorResponse("invalid JSON: " + err.Error()))
	}

	switch env.Action {
	case protocol.ActionStore:
		return s.encode(s.handleStore(body))
	case protocol.ActionSearch:
		return s.encode(s.handleSearch(body))
	case "":
		return s.encode(errorResponse("Missing or invalid 'action' field"))
	default:
		return s.encode(errorResponse("Unknown action: " + env.Action))
	}
}

func (s *Server) handleStore(body []byte) any {
	var req protocol.StoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse("invalid JSON: " + err.Error())
	}
	if req.ChunkID == "" || req.DocID == "" || req.Text == "" {
		return errorResponse("store requires chunk_id, doc_id, and text")
	}

	emb := s.embedder.Embed(req.Text)
	s.store.Upsert(req.ChunkID, req.DocID, req.Text, req.Metadata, emb)

	s.logger.Debug("stored chunk",
		zap.String("chunk_id", req.ChunkID),
		zap.String("doc_id", req.DocID),
		zap.Int("total", s.store.Size()))
	return protocol.StoreResponse{Status: protocol.StatusOK}
}

func (s *Server) handleSearch(body []byte) any {
	var req protocol.SearchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse("invalid JSON: " + err.Error())
	}
	if req.Query == "" {
		return errorResponse("search requires query")
	}

	topK := protocol.DefaultTopK
	if req.TopK != nil {
		topK = *req.TopK
	}

	query := s.embedder.Embed(req.Query)
	hits := s.store.Search(query, topK, req.DocID)

	results := make([]protocol.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, protocol.SearchResult{
			ChunkID: h.ChunkID,
			Score:   h.Score,
			Text:    h.Text,
		})
	}

	s.logger.Debug("search",
		zap.String("query", utils.Truncate(req.Query, 80)),
		zap.Int("top_k", topK),
		zap.String("doc_id", req.DocID),
		zap.Int("results", len(results)))
	return protocol.SearchResponse{Status: protocol.StatusOK, Results: results}
}

// encode marshals a response value. Responses are plain structs, so a marshal
// failure indicates a bug; it degrades to a generic error body.
func (s *Server) encode(resp any) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
		return []byte(`{"status":"error","message":"internal encoding error"}`)
	}
	return data
}

func errorResponse(message string) protocol.ErrorResponse {
	return protocol.ErrorResponse{Status: protocol.StatusError, Message: message}
}
