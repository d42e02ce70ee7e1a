package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-merklekv/anchor"
	"github.com/forestrie/go-merklekv/integrity"
	"github.com/forestrie/go-merklekv/leaf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes a fresh command tree so flag state does not carry over
// between invocations.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewMerkleKVCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// setupWorkspace runs init in a temporary directory and returns the
// configuration file path.
func setupWorkspace(t *testing.T) string {
	dir := t.TempDir()
	_, err := runCommand(t, "init", "--dir", dir)
	require.NoError(t, err)
	conf := filepath.Join(dir, DefaultConfigFile)
	require.FileExists(t, conf)
	require.FileExists(t, filepath.Join(dir, "signing.pem"))
	return conf
}

func writeRecords(t *testing.T, dir string, kv ...string) string {
	var records []map[string]string
	for i := 0; i+1 < len(kv); i += 2 {
		records = append(records, map[string]string{"key": kv[i], "value": kv[i+1]})
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)
	file := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(file, data, 0644))
	return file
}

func query(t *testing.T, conf, key string) integrity.QueryResult {
	out, err := runCommand(t, "query", key, "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	var r integrity.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	return r
}

func TestCommandsEndToEnd(t *testing.T) {
	conf := setupWorkspace(t)
	records := writeRecords(t, filepath.Dir(conf), "k1", "a", "k2", "b", "k3", "c")

	out, err := runCommand(t, "commit", records, "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	var cp anchor.Checkpoint
	require.NoError(t, json.Unmarshal([]byte(out), &cp))
	assert.Equal(t, uint64(3), cp.LeafCount)
	assert.Equal(t, "sha256", cp.Algorithm)
	require.NoError(t, cp.Validate())
	root, err := cp.RootDigest()
	require.NoError(t, err)

	got := query(t, conf, "k1")
	assert.Equal(t, "a", got.Value)
	assert.True(t, got.Verified)
	assert.Equal(t, root, got.Root)

	// commit and query print the root in the same hex form
	var printed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	assert.Equal(t, got.Root.String(), printed["root"])

	// proofs are served from the saved snapshot by a new process
	proofOut, err := runCommand(t, "proof", "k2", "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	proofFile := filepath.Join(filepath.Dir(conf), "k2.proof.json")
	require.NoError(t, os.WriteFile(proofFile, []byte(proofOut), 0644))

	out, err = runCommand(t, "verify", "k2", "b", "--proof", proofFile, "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	var verified integrity.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &verified))
	assert.True(t, verified.Verified)

	out, err = runCommand(t, "verify", "k2", "forged", "--proof", proofFile, "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &verified))
	assert.False(t, verified.Verified)

	_, err = runCommand(t, "tamper", "k1", "zzz", "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)

	got = query(t, conf, "k1")
	assert.Equal(t, "zzz", got.Value)
	assert.True(t, got.Found)
	assert.False(t, got.Verified)

	got = query(t, conf, "k3")
	assert.True(t, got.Verified)

	got = query(t, conf, "missing")
	assert.False(t, got.Found)
	assert.False(t, got.Verified)

	// a second commit replaces the first, both stay in the history
	records = writeRecords(t, filepath.Dir(conf), "k1", "a2", "k4", "d")
	_, err = runCommand(t, "commit", records, "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)

	out, err = runCommand(t, "history", "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	var history []anchor.Checkpoint
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 2)
	assert.Equal(t, cp.CommitmentID, history[0].CommitmentID)
	assert.Equal(t, uint64(2), history[1].LeafCount)

	got = query(t, conf, "k1")
	assert.Equal(t, "a2", got.Value)
	assert.True(t, got.Verified)
	got = query(t, conf, "k4")
	assert.True(t, got.Verified)
	// k3 is still in the store but no longer committed
	got = query(t, conf, "k3")
	assert.True(t, got.Found)
	assert.False(t, got.Verified)
}

func TestProofCommandCBOR(t *testing.T) {
	conf := setupWorkspace(t)
	records := writeRecords(t, filepath.Dir(conf), "k1", "a", "k2", "b", "k3", "c")
	_, err := runCommand(t, "commit", records, "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)

	out, err := runCommand(t, "proof", "k3", "--format", "cbor", "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	assert.Regexp(t, "^[0-9a-f]+$", strings.TrimSpace(out))

	_, err = runCommand(t, "proof", "k3", "--format", "xml", "-c", conf, "--log-level", "NOOP")
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	conf := setupWorkspace(t)

	// nothing committed yet
	_, err := runCommand(t, "proof", "k1", "-c", conf, "--log-level", "NOOP")
	assert.ErrorIs(t, err, integrity.ErrNoCommitment)

	out, err := runCommand(t, "history", "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	got := query(t, conf, "k1")
	assert.False(t, got.Found)

	// duplicate keys are rejected before anything is written
	records := writeRecords(t, filepath.Dir(conf), "k1", "a", "k1", "b")
	_, err = runCommand(t, "commit", records, "-c", conf, "--log-level", "NOOP")
	assert.ErrorIs(t, err, integrity.ErrDuplicateKey)

	// init refuses to overwrite
	_, err = runCommand(t, "init", "--dir", filepath.Dir(conf))
	assert.Error(t, err)

	_, err = runCommand(t, "query", "k1", "-c", filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

// downAnchor refuses every publish.
type downAnchor struct {
	anchor.Anchor
}

func (downAnchor) Publish(context.Context, anchor.Checkpoint) error {
	return fmt.Errorf("%w: ledger offline", anchor.ErrAnchorUnavailable)
}

func TestRetryCommand(t *testing.T) {
	conf := setupWorkspace(t)
	pendingFile := filepath.Join(filepath.Dir(conf), "pending.cbor")

	cfg, err := LoadConfig(conf)
	require.NoError(t, err)
	logger.New("NOOP")
	app, err := OpenApp(cfg, logger.Sugar.WithServiceName("merklekv"))
	require.NoError(t, err)
	app.Protocol = integrity.NewProtocol(app.Log, app.Store, downAnchor{Anchor: app.Anchor})
	_, err = app.Commit(context.Background(), []leaf.Record{{Key: "k1", Value: "a"}, {Key: "k2", Value: "b"}})
	assert.ErrorIs(t, err, anchor.ErrAnchorUnavailable)
	app.Close()
	require.FileExists(t, pendingFile)

	// uploaded but not anchored
	got := query(t, conf, "k1")
	assert.True(t, got.Found)
	assert.False(t, got.Verified)

	out, err := runCommand(t, "retry", "-c", conf, "--log-level", "NOOP")
	require.NoError(t, err)
	var cp anchor.Checkpoint
	require.NoError(t, json.Unmarshal([]byte(out), &cp))
	assert.Equal(t, uint64(2), cp.LeafCount)
	assert.NoFileExists(t, pendingFile)

	got = query(t, conf, "k1")
	assert.True(t, got.Verified)
	assert.Equal(t, cp.CommitmentID, got.CommitmentID)

	_, err = runCommand(t, "retry", "-c", conf, "--log-level", "NOOP")
	assert.ErrorIs(t, err, integrity.ErrNothingToRetry)
}

func TestDemoCommand(t *testing.T) {
	out, err := runCommand(t, "demo")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "committed 3 records")
	assert.Equal(t, `k1 = "a" verified=true`, lines[1])
	assert.Equal(t, "store overwrote k1", lines[2])
	assert.Equal(t, `k1 = "zzz" verified=false`, lines[3])
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "merklekv v"+Version+"\n", out)
}
