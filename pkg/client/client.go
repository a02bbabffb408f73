// Package client provides a Go client for the kioku protocol server.
//
// The server answers exactly one request per connection, so the client dials a
// fresh connection for every call and keeps no persistent socket.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/hyperjump/kioku/internal/protocol"
)

// Default connection timeouts, overridable per client.
const (
	DefaultDialTimeout    = 2 * time.Second
	DefaultRequestTimeout = 30 * time.Second
)

// Result is one search hit.
type Result struct {
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// Client talks to a kioku server over the framed TCP protocol.
type Client struct {
	addr           string
	dialTimeout    time.Duration
	requestTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDialTimeout sets the timeout for establishing a connection.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// WithRequestTimeout sets the timeout for one full request/response exchange.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// New creates a client for the server at host:port.
func New(host string, port int, opts ...Option) *Client {
	c := &Client{
		addr:           net.JoinHostPort(host, strconv.Itoa(port)),
		dialTimeout:    DefaultDialTimeout,
		requestTimeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the server address this client targets.
func (c *Client) Addr() string {
	return c.addr
}

// Ping reports whether the server is reachable. It dials and immediately
// closes without sending a request; the server's accept loop treats the
// resulting empty connection as a dropped peer.
func (c *Client) Ping(ctx context.Context) bool {
	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Store upserts one chunk under a document. A nil metadata map is sent as an
// empty object. A response with error status is returned as an error carrying
// the server's message.
func (c *Client) Store(ctx context.Context, chunkID, docID, text string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	req := protocol.StoreRequest{
		Action:   protocol.ActionStore,
		ChunkID:  chunkID,
		DocID:    docID,
		Text:     text,
		Metadata: metadata,
	}
	_, err := c.send(ctx, req)
	return err
}

// Search returns up to topK chunks ranked by similarity to query. A non-empty
// docID restricts results to that document; an empty one searches everything
// and is omitted from the request.
func (c *Client) Search(ctx context.Context, query string, topK int, docID string) ([]Result, error) {
	req := protocol.SearchRequest{
		Action: protocol.ActionSearch,
		Query:  query,
		TopK:   &topK,
		DocID:  docID,
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, Result{ChunkID: r.ChunkID, Score: r.Score, Text: r.Text})
	}
	return results, nil
}

// send performs one request/response exchange on a fresh connection.
func (c *Client) send(ctx context.Context, req any) (*protocol.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.requestTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	if err := protocol.WriteMessage(conn, payload); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	body, err := protocol.ReadMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp protocol.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Status == protocol.StatusError {
		return nil, fmt.Errorf("server error: %s", resp.Message)
	}
	return &resp, nil
}
