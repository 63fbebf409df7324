// ABOUTME: Tests for the process supervisor's spawn and teardown guarantees.
// ABOUTME: Covers spawn failures, idempotent terminate, and the kill fallback.

package mcp

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisor_SpawnMissingExecutable(t *testing.T) {
	sup := NewSupervisor(testLogger())

	proc, err := sup.Spawn(filepath.Join(t.TempDir(), "does-not-exist.py"))

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Nil(t, proc, "no process is created on spawn failure")
}

func TestSupervisor_SpawnDirectory(t *testing.T) {
	sup := NewSupervisor(testLogger())

	_, err := sup.Spawn(t.TempDir())

	var spawnErr *SpawnError
	assert.ErrorAs(t, err, &spawnErr)
}

func TestSupervisor_SpawnAndExchange(t *testing.T) {
	path := writeToolServer(t, "echo-server", `read line
`+initReply+`
`)

	sup := NewSupervisor(testLogger())
	proc, err := sup.Spawn(path)
	require.NoError(t, err)
	defer proc.Terminate()

	w := bufio.NewWriter(proc.Stdin)
	require.NoError(t, writeMessage(w, Request{JSONRPC: "2.0", ID: 1, Method: "initialize", Params: newInitializeParams()}))

	resp, err := readMessage(bufio.NewReader(proc.Stdout))
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
}

func TestChildProcess_TerminateIdempotent(t *testing.T) {
	path := writeToolServer(t, "sleeper", "sleep 60\n")

	sup := NewSupervisor(testLogger())
	proc, err := sup.Spawn(path)
	require.NoError(t, err)

	// Calling terminate twice must not error or panic, and the second
	// call must not interact with the process again.
	done := make(chan struct{})
	go func() {
		proc.Terminate()
		proc.Terminate()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("terminate did not complete")
	}
}

func TestChildProcess_KillAfterGrace(t *testing.T) {
	// Trap TERM so the process only dies to the forced kill. The script
	// reports readiness so TERM cannot arrive before the trap is set.
	path := writeToolServer(t, "stubborn", `trap '' TERM
echo ready
sleep 60
`)

	sup := NewSupervisor(testLogger())
	sup.Grace = 200 * time.Millisecond

	proc, err := sup.Spawn(path)
	require.NoError(t, err)

	_, err = bufio.NewReader(proc.Stdout).ReadString('\n')
	require.NoError(t, err, "waiting for the trap to be installed")

	start := time.Now()
	proc.Terminate()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond, "grace period honored")
	assert.Less(t, elapsed, 5*time.Second, "forced kill, not a full sleep")
}

func TestSupervisor_UTF8Environment(t *testing.T) {
	path := writeToolServer(t, "env-probe", `read line
printf '{"jsonrpc":"2.0","id":1,"result":{"encoding":"%s"}}\n' "$PYTHONIOENCODING"
`)

	sup := NewSupervisor(testLogger())
	proc, err := sup.Spawn(path)
	require.NoError(t, err)
	defer proc.Terminate()

	w := bufio.NewWriter(proc.Stdin)
	require.NoError(t, writeMessage(w, Request{JSONRPC: "2.0", ID: 1, Method: "initialize"}))

	resp, err := readMessage(bufio.NewReader(proc.Stdout))
	require.NoError(t, err)
	assert.Contains(t, string(resp.Result), "utf-8")
}

func TestSupervisor_PythonFilesUseInterpreter(t *testing.T) {
	// A .py file must run under the interpreter, not execute directly.
	// Point PythonBin at sh so the test does not depend on python.
	dir := t.TempDir()
	path := filepath.Join(dir, "server.py")
	require.NoError(t, os.WriteFile(path, []byte(`read line
`+initReply+`
`), 0o644)) // deliberately not executable

	sup := NewSupervisor(testLogger())
	sup.PythonBin = "sh"

	proc, err := sup.Spawn(path)
	require.NoError(t, err)
	defer proc.Terminate()
}
