// Package mcp implements the process-backed JSON-RPC session at the heart
// of the gateway.
//
// # Overview
//
// Each tool server is an independent child process speaking JSON-RPC 2.0
// over its standard input/output, one message per line. The gateway turns
// a stateless HTTP request into a correctly sequenced exchange with a
// freshly spawned process and guarantees the process is torn down
// afterward regardless of outcome.
//
// # Components
//
//   - framer.go: line framing — encode one request per newline-terminated
//     line, decode one response, flush after every write
//   - process.go: Supervisor — spawn with piped stdio and a UTF-8
//     environment, terminate with graceful-then-forced teardown
//   - session.go: Session — monotone request ids, mutex-serialized
//     write-then-read exchanges, the initialize handshake
//   - client.go: Client — the three gateway operations (list, call,
//     describe), each on a fresh process
//
// # Protocol
//
// A session must complete the two-phase handshake before any tool
// operation:
//
//	-> {"jsonrpc":"2.0","id":1,"method":"initialize","params":{...}}
//	<- {"jsonrpc":"2.0","id":1,"result":{...}}
//	-> {"jsonrpc":"2.0","method":"notifications/initialized"}
//
// Tool servers implement three methods: initialize, tools/list, and
// tools/call. tools/call results are sequences of typed content parts;
// only "text" parts are surfaced.
//
// # Lifecycle
//
// Every operation follows the same shape:
//
//	resolve path -> Spawn -> Initialize -> one request -> Terminate
//
// There is no pooling and no reuse: concurrent HTTP requests get
// independent processes, so no resource is ever shared between
// operations. This trades process-creation overhead for the complete
// absence of cross-request interference.
//
// # Errors
//
// Failures are classified so callers can tell them apart:
//
//   - *SpawnError: the executable is missing or would not start; no
//     process exists
//   - *HandshakeError: the initialize sequence failed
//   - ErrNoResponse: the child closed its output stream, or the read
//     timed out
//   - *ParseError: a response line was not valid JSON (raw content kept
//     for diagnostics)
//   - *RPCError: the child returned an error object; code and message
//     are carried verbatim
//   - ErrToolNotFound: healthy server, unknown tool name
//
// Terminate never fails upward; teardown errors are logged and swallowed.
package mcp
