package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spounge-ai/reqauth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startEngineSignature = "bf03f727fa85ae7057b890ddb73dfacb87d3c2e5f4823fa01dd222aa31fcb0ce"

func newCLI(stdin string) (*cli, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &cli{stdin: strings.NewReader(stdin), stdout: &stdout, stderr: &stderr}, &stdout, &stderr
}

func writeFiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	keys := filepath.Join(dir, "keys.yaml")
	require.NoError(t, os.WriteFile(keys, []byte("keys:\n  foo:\n    secret: ABCDEFGHIJK\n"), 0o600))
	cfg := filepath.Join(dir, "config.yaml")
	body := "keystore:\n  type: file\n  file:\n    path: " + keys + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))
	return cfg
}

func TestSignProducesKnownSignature(t *testing.T) {
	c, stdout, stderr := newCLI("")
	code := c.run(context.Background(), []string{"sign", "--key-id", "foo", "--secret", "ABCDEFGHIJK", "--timestamp", "0", "--payload", "start-engine"})
	require.Equal(t, exitAccepted, code, stderr.String())

	var req domain.Request
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &req))
	assert.Equal(t, int64(0), req.Timestamp)
	assert.Equal(t, []byte("start-engine"), req.Payload)
	assert.Equal(t, "foo", req.Authorization.KeyID)
	assert.Equal(t, startEngineSignature, req.Authorization.Signature)
}

func TestSignReadsPayloadFromStdin(t *testing.T) {
	t.Setenv(secretEnv, "4142434445464748494a4b")
	c, stdout, stderr := newCLI("start-engine")
	code := c.run(context.Background(), []string{"sign", "--key-id", "foo", "--secret-encoding", "hex", "--timestamp", "0"})
	require.Equal(t, exitAccepted, code, stderr.String())
	assert.Contains(t, stdout.String(), startEngineSignature)
}

func TestSignFailures(t *testing.T) {
	cases := map[string][]string{
		"no key id":     {"sign", "--secret", "s", "--payload", "p"},
		"no secret":     {"sign", "--key-id", "foo", "--payload", "p"},
		"empty payload": {"sign", "--key-id", "foo", "--secret", "s", "--payload", ""},
		"bad encoding":  {"sign", "--key-id", "foo", "--secret", "zz", "--secret-encoding", "hex", "--payload", "p"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(secretEnv, "")
			c, _, _ := newCLI("")
			assert.Equal(t, exitFailure, c.run(context.Background(), args))
		})
	}
}

func TestVerifyExitCodes(t *testing.T) {
	cfg := writeFiles(t)
	signed := `{"timestamp":0,"payload":"c3RhcnQtZW5naW5l","authorization":{"key_id":"foo","signature":"` + startEngineSignature + `"}}`

	cases := []struct {
		name  string
		input string
		now   string
		code  int
		out   string
	}{
		{name: "accepted", input: signed, now: "0", code: exitAccepted, out: "accepted"},
		{name: "edge accepted", input: signed, now: "500", code: exitAccepted, out: "accepted"},
		{name: "stale", input: signed, now: "501", code: exitRejected, out: "rejected"},
		{name: "unknown key", input: strings.Replace(signed, `"foo"`, `"bar"`, 1), now: "0", code: exitRejected, out: "rejected"},
		{name: "unsigned", input: `{"timestamp":0,"payload":"c3RhcnQtZW5naW5l","authorization":{"key_id":"foo"}}`, now: "0", code: exitMalformed, out: "malformed"},
		{name: "not json", input: `timestamp=0`, now: "0", code: exitMalformed, out: "malformed"},
		{name: "string timestamp", input: strings.Replace(signed, `"timestamp":0`, `"timestamp":"0"`, 1), now: "0", code: exitMalformed, out: "malformed"},
		{name: "trailing data", input: signed + " trailing-garbage", now: "0", code: exitMalformed, out: "malformed"},
		{name: "two requests", input: signed + signed, now: "0", code: exitMalformed, out: "malformed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, stdout, stderr := newCLI(tc.input)
			code := c.run(context.Background(), []string{"verify", "--config", cfg, "--now", tc.now})
			assert.Equal(t, tc.code, code, stderr.String())
			assert.Contains(t, stdout.String(), tc.out)
		})
	}
}

func TestVerifyWindowFlag(t *testing.T) {
	cfg := writeFiles(t)
	signed := `{"timestamp":0,"payload":"c3RhcnQtZW5naW5l","authorization":{"key_id":"foo","signature":"` + startEngineSignature + `"}}`

	c, _, stderr := newCLI(signed)
	code := c.run(context.Background(), []string{"verify", "--config", cfg, "--now", "1000", "--max-delta-ms", "1000"})
	assert.Equal(t, exitAccepted, code, stderr.String())
}

func TestVerifyRequestFile(t *testing.T) {
	cfg := writeFiles(t)
	path := filepath.Join(t.TempDir(), "req.json")
	signed := `{"timestamp":0,"payload":"c3RhcnQtZW5naW5l","authorization":{"key_id":"foo","signature":"` + startEngineSignature + `"}}`
	require.NoError(t, os.WriteFile(path, []byte(signed), 0o600))

	c, stdout, _ := newCLI("")
	assert.Equal(t, exitAccepted, c.run(context.Background(), []string{"verify", "--config", cfg, "--now", "0", "--request", path}))
	assert.Equal(t, "accepted\n", stdout.String())
}

func TestSignThenVerify(t *testing.T) {
	cfg := writeFiles(t)

	signer, signed, _ := newCLI("")
	require.Equal(t, exitAccepted, signer.run(context.Background(), []string{"sign", "--key-id", "foo", "--secret", "ABCDEFGHIJK", "--payload", `{"cmd":"stop"}`}))

	verifier, stdout, stderr := newCLI(signed.String())
	assert.Equal(t, exitAccepted, verifier.run(context.Background(), []string{"verify", "--config", cfg, "--max-delta-ms", "60000"}), stderr.String())
	assert.Equal(t, "accepted\n", stdout.String())
}

func TestUnknownCommand(t *testing.T) {
	c, _, stderr := newCLI("")
	assert.Equal(t, exitFailure, c.run(context.Background(), []string{"serve"}))
	assert.Contains(t, stderr.String(), "unknown command")

	assert.Equal(t, exitFailure, c.run(context.Background(), nil))
}

func TestAuditRejectsInvalidQuery(t *testing.T) {
	c, _, stderr := newCLI("")
	assert.Equal(t, exitFailure, c.run(context.Background(), []string{"audit", "--limit", "5"}))
	assert.Contains(t, stderr.String(), "key_id is required")
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	c, _, stderr := newCLI("")
	cfg := writeFiles(t)
	assert.Equal(t, exitFailure, c.run(context.Background(), []string{"migrate", "--config", cfg}))
	assert.Contains(t, stderr.String(), "no database url configured")
}
