package server

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/protocol"
	"github.com/hyperjump/kioku/internal/store"
	"go.uber.org/zap"
)

// startTestServer listens on an ephemeral port and serves until the test ends.
func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	srv := newTestServer()
	if err := srv.Listen(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx); err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv, srv.Addr().String()
}

func roundTrip(t *testing.T, addr string, body []byte) protocol.Response {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if err := protocol.WriteMessage(conn, body); err != nil {
		t.Fatal(err)
	}
	data, err := protocol.ReadMessage(conn)
	if err != nil {
		t.Fatal(err)
	}
	return decodeResponse(t, data)
}

func TestServer_StoreSearchOverTCP(t *testing.T) {
	_, addr := startTestServer(t)

	resp := roundTrip(t, addr, []byte(`{"action":"store","chunk_id":"c1","doc_id":"d1","text":"cat sat on mat"}`))
	if resp.Status != protocol.StatusOK {
		t.Fatalf("store: %+v", resp)
	}
	resp = roundTrip(t, addr, []byte(`{"action":"store","chunk_id":"c2","doc_id":"d2","text":"dog ran in park"}`))
	if resp.Status != protocol.StatusOK {
		t.Fatalf("store: %+v", resp)
	}

	resp = roundTrip(t, addr, []byte(`{"action":"search","query":"cat sat","top_k":1}`))
	if resp.Status != protocol.StatusOK || len(resp.Results) != 1 || resp.Results[0].ChunkID != "c1" {
		t.Fatalf("search: %+v", resp)
	}
}

func TestServer_OneRequestPerConnection(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if err := protocol.WriteMessage(conn, []byte(`{"action":"search","query":"q"}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := protocol.ReadMessage(conn); err != nil {
		t.Fatal(err)
	}

	// The server closes the connection after one response; the next read
	// observes EOF rather than another frame.
	var buf [1]byte
	if _, err := conn.Read(buf[:]); err != io.EOF {
		t.Errorf("expected EOF after response, got %v", err)
	}
}

func TestServer_FramingZeroLength(t *testing.T) {
	srv, addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Write([]byte{0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}

	// The connection is dropped without a response.
	var buf [1]byte
	if _, err := conn.Read(buf[:]); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
	conn.Close()

	if srv.store.Size() != 0 {
		t.Errorf("framing error mutated the store: size = %d", srv.store.Size())
	}

	// Subsequent connections are served normally.
	resp := roundTrip(t, addr, []byte(`{"action":"store","chunk_id":"c1","doc_id":"d1","text":"still works"}`))
	if resp.Status != protocol.StatusOK {
		t.Errorf("follow-up request failed: %+v", resp)
	}
}

func TestServer_FramingOversized(t *testing.T) {
	srv, addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 11*1024*1024)
	if _, err := conn.Write(header[:]); err != nil {
		t.Fatal(err)
	}

	var buf [1]byte
	if _, err := conn.Read(buf[:]); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
	conn.Close()

	if srv.store.Size() != 0 {
		t.Errorf("framing error mutated the store: size = %d", srv.store.Size())
	}

	resp := roundTrip(t, addr, []byte(`{"action":"search","query":"anything"}`))
	if resp.Status != protocol.StatusOK {
		t.Errorf("follow-up request failed: %+v", resp)
	}
}

func TestServer_TruncatedBody(t *testing.T) {
	_, addr := startTestServer(t)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], 100)
	_, _ = conn.Write(header[:])
	_, _ = conn.Write([]byte("only a few bytes"))
	conn.Close() // give the server a short read

	// The server must survive and keep serving.
	resp := roundTrip(t, addr, []byte(`{"action":"search","query":"anything"}`))
	if resp.Status != protocol.StatusOK {
		t.Errorf("follow-up request failed: %+v", resp)
	}
}

func TestServer_InvalidJSONGetsResponse(t *testing.T) {
	_, addr := startTestServer(t)
	resp := roundTrip(t, addr, []byte("this is not json"))
	if resp.Status != protocol.StatusError {
		t.Errorf("got %+v", resp)
	}
}

func TestServer_ShutdownClosesListener(t *testing.T) {
	srv := newTestServer()
	if err := srv.Listen(); err != nil {
		t.Fatal(err)
	}
	addr := srv.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	if _, err := net.DialTimeout("tcp", addr, 500*time.Millisecond); err == nil {
		t.Error("listener still accepting after shutdown")
	}
}

func TestServer_ServeRequiresListen(t *testing.T) {
	srv := newTestServer()
	if err := srv.Serve(context.Background()); err == nil {
		t.Error("Serve without Listen should fail")
	}
}

func TestServer_ListenFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer occupied.Close()
	port := occupied.Addr().(*net.TCPAddr).Port

	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: port}
	srv := New(cfg, embedding.NewHashEmbedder(16), store.New(), zap.NewNop())
	if err := srv.Listen(); err == nil {
		t.Error("Listen on an occupied port should fail")
		srv.listener.Close()
	}
}
