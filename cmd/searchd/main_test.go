package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchd/internal/datareader"
	"github.com/kailas-cloud/searchd/internal/repository/segment"
	"github.com/kailas-cloud/searchd/internal/varint"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCmd(t *testing.T) {
	out, err := run(t, "", "parse", "SELECT * FROM idx WHERE gid=1 OR gid=2")
	require.NoError(t, err)

	var stmts []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stmts))
	require.Len(t, stmts, 1)
	assert.Equal(t, "select", stmts[0]["kind"])
}

func TestParseCmd_Stdin(t *testing.T) {
	out, err := run(t, "SHOW TABLES;\nOPTIMIZE INDEX t\n", "parse")
	require.NoError(t, err)

	var stmts []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stmts))
	require.Len(t, stmts, 2)
	assert.Equal(t, "show_tables", stmts[0]["kind"])
	assert.Equal(t, "optimize_index", stmts[1]["kind"])
}

func TestParseCmd_Error(t *testing.T) {
	_, err := run(t, "", "parse", "SELECT * FROM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sphinxql: syntax error")
}

func TestInspectCmd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, segment.WriteChunk(dir, 0, []varint.RowID{3, 9, 40}))
	path := filepath.Join(dir, "0"+segment.ChunkExt)

	for _, access := range []string{"file", "mmap"} {
		t.Run(access, func(t *testing.T) {
			out, err := run(t, "", "inspect", path, "--access", access, "--show", "2")
			require.NoError(t, err)

			var rep inspectReport
			require.NoError(t, json.Unmarshal([]byte(out), &rep))
			assert.Equal(t, 3, rep.Rows)
			assert.Equal(t, uint64(3), rep.Unique)
			assert.Equal(t, []uint32{3, 9}, rep.First)
			assert.Equal(t, access, rep.Access)
			assert.Equal(t, "docs", rep.Kind)
		})
	}
}

func TestInspectCmd_ExplicitCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.spd")
	data := append([]byte{0xff}, datareader.AppendDocList(nil, []varint.RowID{1, 2, 5})...)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := run(t, "", "inspect", path, "--offset", "1", "--count", "3", "--kind", "hits")
	require.NoError(t, err)

	var rep inspectReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, []uint32{1, 2, 5}, rep.First)
	assert.Equal(t, "hits", rep.Kind)

	_, err = run(t, "", "inspect", path, "--offset", "1", "--count", "10")
	require.Error(t, err)
}

func TestInspectCmd_BadFlags(t *testing.T) {
	_, err := run(t, "", "inspect", "x", "--kind", "words")
	require.Error(t, err)
	_, err = run(t, "", "inspect", "x", "--access", "direct")
	require.Error(t, err)
}

func TestOptimizeCmd(t *testing.T) {
	t.Setenv("ENV", "test")
	data := t.TempDir()
	idxDir := filepath.Join(data, "products")
	require.NoError(t, os.Mkdir(idxDir, 0o755))
	require.NoError(t, segment.WriteChunk(idxDir, 0, []varint.RowID{1}))
	require.NoError(t, segment.WriteChunk(idxDir, 1, []varint.RowID{2}))

	cfgPath := filepath.Join(t.TempDir(), "searchd.yaml")
	cfg := "http:\n  port: 9308\nreader:\n  access: file\noptimize:\n  data_dir: " + data + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	out, err := run(t, "", "optimize", "products", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "products: 2 -> 1 chunks\n", out)
	assert.NoFileExists(t, filepath.Join(idxDir, "1"+segment.ChunkExt))
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "searchd "))
}
