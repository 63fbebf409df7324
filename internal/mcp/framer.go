// ABOUTME: Line-oriented message framing for the stdio JSON-RPC transport.
// ABOUTME: One JSON object per newline-terminated line, flushed after every write.

package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// writeMessage serializes msg as a single line terminated by '\n' and
// flushes the writer so the child process is not starved by buffering.
func writeMessage(w *bufio.Writer, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing message terminator: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing message: %w", err)
	}

	return nil
}

// readMessage reads one newline-terminated line and decodes it as a
// Response. A closed stream or empty line yields ErrNoResponse (the peer
// is gone); a line that is not valid JSON yields a *ParseError carrying
// the raw content. Invalid UTF-8 sequences are replaced rather than
// treated as fatal.
func readMessage(r *bufio.Reader) (*Response, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		// Stream closed or the peer exited without writing a reply.
		return nil, ErrNoResponse
	}

	// One malformed byte must not abort an otherwise valid exchange.
	line = strings.ToValidUTF8(line, "�")

	var resp Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, &ParseError{Raw: line, Err: err}
	}

	return &resp, nil
}
