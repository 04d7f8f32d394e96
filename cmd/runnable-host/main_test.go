package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/runnable-dev/runnable-sdk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("os/signal.loop"))
}

// execute runs the root command with args and returns stdout, stderr, and the
// command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun(t *testing.T) {
	guest := writeFile(t, "hello.wasm", testutil.StaticGuest(`{"output":"aGk="}`, "greeting"))

	stdout, _, err := execute(t, "run", "--input", "ping", guest)
	require.NoError(t, err)
	assert.Equal(t, "hi", stdout)
}

func TestRun_Metrics(t *testing.T) {
	guest := writeFile(t, "hello.wasm", testutil.StaticGuest(`{"output":"aGk="}`, "greeting"))

	_, stderr, err := execute(t, "run", "--metrics", guest)
	require.NoError(t, err)
	assert.Contains(t, stderr, `runnable_host_calls_total{op="cache_get",outcome="not_found"} 1`)
}

func TestRun_DisabledCapability(t *testing.T) {
	guest := writeFile(t, "hello.wasm", testutil.StaticGuest(`{"output":"aGk="}`, "greeting"))
	cfg := writeFile(t, "host.yaml", []byte("capabilities:\n  cache:\n    enabled: false\n"))

	stdout, stderr, err := execute(t, "run", "--config", cfg, "--metrics", guest)
	require.NoError(t, err)
	assert.Equal(t, "hi", stdout)
	assert.Contains(t, stderr, `runnable_host_calls_total{op="cache_get",outcome="denied"} 1`)
	assert.Contains(t, stderr, "capability not enabled: cache")
}

func TestRun_InputFile(t *testing.T) {
	guest := writeFile(t, "hello.wasm", testutil.StaticGuest(`{"output":"b2s="}`, ""))
	input := writeFile(t, "input.json", []byte(`{"id":1}`))

	stdout, _, err := execute(t, "run", "--input-file", input, guest)
	require.NoError(t, err)
	assert.Equal(t, "ok", stdout)

	_, _, err = execute(t, "run", "--input", "x", "--input-file", input, guest)
	assert.Error(t, err, "input flags are mutually exclusive")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	guest := writeFile(t, "failing.wasm", testutil.StaticGuest(`{"error":{"message":"boom","type":"internal"}}`, ""))
	badCfg := writeFile(t, "host.yaml", []byte("log:\n  level: loud\n"))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"guest error", []string{"run", guest}, "boom"},
		{"missing module", []string{"run", filepath.Join(dir, "missing.wasm")}, "failed to read module"},
		{"invalid module", []string{"run", writeFile(t, "junk.wasm", []byte("not wasm"))}, ""},
		{"invalid config", []string{"run", "--config", badCfg, guest}, "log.level"},
		{"missing export", []string{"run", "--export", "main", guest}, "main"},
		{"no module", []string{"run"}, "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := writeFile(t, "host.toml", []byte(`
[capabilities.db]
enabled = true
dsn = "users.db"

[[capabilities.db.queries]]
name = "listUsers"
type = "select"
query = "SELECT * FROM users"
`))

	stdout, _, err := execute(t, "validate", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "ok (cache=false db=true graphql=false file=false, 1 queries)")

	bad := writeFile(t, "host.json", []byte(`{"capabilities":{"db":{"enabled":true}}}`))
	_, _, err = execute(t, "validate", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capabilities.db.dsn")
}

func TestSchema(t *testing.T) {
	stdout, _, err := execute(t, "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "runnable host configuration")
}
