// Package protocol implements the newline-delimited JSON wire format spoken
// between players and the server.
package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/mcoot/rpsduel/internal/model"
)

// DefaultMaxLineBytes bounds a single inbound line
const DefaultMaxLineBytes = 64 * 1024

// Reader splits a byte stream into one message per line
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader creates a Reader that rejects lines longer than maxLineBytes
func NewReader(r io.Reader, maxLineBytes int) *Reader {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(4096, maxLineBytes)), maxLineBytes)
	return &Reader{scanner: scanner}
}

// ReadLine returns the next non-blank line without its terminator.
// It returns io.EOF when the stream ends and model.ErrMessageTooLarge when
// a line exceeds the limit; the stream is unusable after either.
func (r *Reader) ReadLine() ([]byte, error) {
	for r.scanner.Scan() {
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return bytes.Clone(line), nil
	}
	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, model.ErrMessageTooLarge
		}
		return nil, err
	}
	return nil, io.EOF
}

// Writer writes one message per line. It is not safe for concurrent use;
// each connection has a single writer.
type Writer struct {
	w io.Writer
}

// NewWriter creates a Writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame writes an already encoded message followed by a newline
func (w *Writer) WriteFrame(frame []byte) error {
	if bytes.ContainsAny(frame, "\r\n") {
		return fmt.Errorf("%w: frame contains a line break", model.ErrMalformedMessage)
	}
	buf := make([]byte, 0, len(frame)+1)
	buf = append(buf, frame...)
	buf = append(buf, '\n')
	_, err := w.w.Write(buf)
	return err
}

// WriteMessage encodes v and writes it as a single line
func (w *Writer) WriteMessage(v any) error {
	frame, err := Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteFrame(frame)
}

// Marshal encodes v as a single-line JSON object. Line breaks inside string
// values are escaped by the JSON encoder, so the result never spans lines.
func Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}
