// Package protocol defines the wire protocol: length-prefixed JSON framing
// and the request/response message shapes.
//
// One message is a 4-byte big-endian unsigned length followed by exactly that
// many bytes of UTF-8 JSON. The server answers one request per connection.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxMessageSize is the largest accepted message body, in bytes.
const MaxMessageSize = 10 * 1024 * 1024

// ErrInvalidLength reports a framing violation: a declared body length of zero
// or greater than MaxMessageSize.
var ErrInvalidLength = errors.New("invalid message length")

// ReadMessage reads one framed message body from r. It blocks until the full
// declared length has been read or the reader errors out.
func ReadMessage(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read message length: %w", err)
	}
	length := binary.BigEndian.Uint32(header[:])
	if length == 0 || length > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}
	return body, nil
}

// WriteMessage writes body to w as one framed message.
func WriteMessage(w io.Writer, body []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write message length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write message body: %w", err)
	}
	return nil
}
