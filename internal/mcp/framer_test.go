// ABOUTME: Tests for line-oriented JSON-RPC message framing.
// ABOUTME: Covers write flushing, EOF vs parse-error classification, and UTF-8 repair.

package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMessage_SingleLineTerminated(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	req := Request{JSONRPC: "2.0", ID: 1, Method: "initialize", Params: map[string]any{}}
	require.NoError(t, writeMessage(w, req))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"), "message must be newline-terminated")
	assert.Equal(t, 1, strings.Count(out, "\n"), "exactly one line per message")
	assert.Contains(t, out, `"method":"initialize"`)
}

func TestWriteMessage_FlushesImmediately(t *testing.T) {
	var buf bytes.Buffer
	// Large buffer so nothing reaches the underlying writer unless flushed.
	w := bufio.NewWriterSize(&buf, 1<<16)

	require.NoError(t, writeMessage(w, Notification{JSONRPC: "2.0", Method: "notifications/initialized"}))
	assert.NotZero(t, buf.Len(), "write must flush so the peer is not starved")
}

func TestReadMessage_Result(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}` + "\n"))

	resp, err := readMessage(r)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Result))
}

func TestReadMessage_ErrorObject(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(`{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"method not found"}}` + "\n"))

	resp, err := readMessage(r)
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)
	assert.Equal(t, "method not found", resp.Error.Message)
}

func TestReadMessage_ClosedStream(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(""))

	_, err := readMessage(r)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestReadMessage_BlankLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("\n"))

	_, err := readMessage(r)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestReadMessage_MalformedLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("this is not json\n"))

	_, err := readMessage(r)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "this is not json", parseErr.Raw, "raw content kept for diagnostics")
	assert.NotErrorIs(t, err, ErrNoResponse, "parse error is distinct from a closed stream")
}

func TestReadMessage_MissingTrailingNewline(t *testing.T) {
	// A final line without a terminator still parses.
	r := bufio.NewReader(strings.NewReader(`{"jsonrpc":"2.0","id":3,"result":null}`))

	resp, err := readMessage(r)
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.ID)
}

func TestReadMessage_InvalidUTF8Replaced(t *testing.T) {
	// An illegal byte inside a string value is replaced, not fatal.
	line := []byte(`{"jsonrpc":"2.0","id":4,"result":{"text":"a`)
	line = append(line, 0xff)
	line = append(line, []byte(`b"}}`+"\n")...)

	resp, err := readMessage(bufio.NewReader(bytes.NewReader(line)))
	require.NoError(t, err)

	var result struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, "a�b", result.Text)
}
