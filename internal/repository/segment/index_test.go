package segment

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchd/internal/datareader"
	"github.com/kailas-cloud/searchd/internal/varint"
)

var testAccess = []datareader.Access{datareader.AccessFile, datareader.AccessMmap}

func writeIndex(t *testing.T, chunks map[int][]varint.RowID) string {
	t.Helper()
	dir := t.TempDir()
	for id, rows := range chunks {
		require.NoError(t, WriteChunk(dir, id, rows))
	}
	return dir
}

func TestOpen_Docs(t *testing.T) {
	dir := writeIndex(t, map[int][]varint.RowID{
		2: {5, 6, 100},
		0: {1, 5},
		7: {},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.spd"), []byte("x"), 0o600))

	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			idx, err := Open("products", dir, Options{Access: access})
			require.NoError(t, err)
			t.Cleanup(func() { _ = idx.Close() })

			assert.Equal(t, "products", idx.Name())
			assert.Equal(t, []int{0, 2, 7}, idx.Chunks())

			docs, err := idx.Docs()
			require.NoError(t, err)
			assert.Equal(t, []uint32{1, 5, 6, 100}, docs.ToArray())
		})
	}
}

func TestOpen_TruncatedChunk(t *testing.T) {
	dir := t.TempDir()
	data := varint.Append(nil, 3)
	data = datareader.AppendDocList(data, []varint.RowID{1, 2})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.spd"), data, 0o600))

	idx, err := Open("t", dir, Options{Access: datareader.AccessFile})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	_, err = idx.Docs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index t chunk 0")
}

func TestOpen_MissingDir(t *testing.T) {
	_, err := Open("t", filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
}

func TestOptimize_MergesRange(t *testing.T) {
	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			dir := writeIndex(t, map[int][]varint.RowID{
				0: {1, 2},
				1: {2, 3},
				2: {10},
				3: {20},
			})
			idx, err := Open("t", dir, Options{Access: access})
			require.NoError(t, err)
			t.Cleanup(func() { _ = idx.Close() })

			idx.Lock()
			err = idx.Optimize(context.Background(), 1, 2)
			idx.Unlock()
			require.NoError(t, err)

			assert.Equal(t, []int{0, 1, 3}, idx.Chunks())
			assert.NoFileExists(t, filepath.Join(dir, "2.spd"))
			assert.NoFileExists(t, filepath.Join(dir, "1.spd.tmp"))

			docs, err := idx.Docs()
			require.NoError(t, err)
			assert.Equal(t, []uint32{1, 2, 3, 10, 20}, docs.ToArray())
		})
	}
}

func TestOptimize_All(t *testing.T) {
	dir := writeIndex(t, map[int][]varint.RowID{0: {4}, 5: {1}, 9: {4, 8}})
	idx, err := Open("t", dir, Options{Access: datareader.AccessFile})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	idx.Lock()
	require.NoError(t, idx.Optimize(context.Background(), -1, -1))
	idx.Unlock()

	assert.Equal(t, []int{0}, idx.Chunks())

	reopened, err := Open("t", dir, Options{Access: datareader.AccessFile})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	docs, err := reopened.Docs()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 4, 8}, docs.ToArray())
}

func TestOptimize_NoOp(t *testing.T) {
	dir := writeIndex(t, map[int][]varint.RowID{0: {1}, 3: {2}})
	idx, err := Open("t", dir, Options{Access: datareader.AccessFile})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	require.NoError(t, idx.Optimize(context.Background(), 1, 2))
	require.NoError(t, idx.Optimize(context.Background(), 3, -1))
	assert.Equal(t, []int{0, 3}, idx.Chunks())

	empty, err := Open("e", t.TempDir(), Options{})
	require.NoError(t, err)
	require.NoError(t, empty.Optimize(context.Background(), -1, -1))
}

func TestOptimize_Canceled(t *testing.T) {
	dir := writeIndex(t, map[int][]varint.RowID{0: {1}, 1: {2}})
	idx, err := Open("t", dir, Options{Access: datareader.AccessFile})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, idx.Optimize(ctx, -1, -1), context.Canceled)
	assert.Equal(t, []int{0, 1}, idx.Chunks())
}

func TestOptimize_InstallFailureKeepsSources(t *testing.T) {
	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			dir := writeIndex(t, map[int][]varint.RowID{0: {1, 2}, 1: {10, 11}})
			idx, err := Open("t", dir, Options{Access: access})
			require.NoError(t, err)
			t.Cleanup(func() { _ = idx.Close() })

			// A non-empty directory at the target path makes the rename fail.
			target := filepath.Join(dir, "0.spd")
			require.NoError(t, os.Remove(target))
			require.NoError(t, os.Mkdir(target, 0o755))
			require.NoError(t, os.WriteFile(filepath.Join(target, "x"), []byte("x"), 0o600))

			idx.Lock()
			err = idx.Optimize(context.Background(), -1, -1)
			idx.Unlock()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "install chunk 0")

			assert.Equal(t, []int{0, 1}, idx.Chunks())
			assert.FileExists(t, filepath.Join(dir, "1.spd"))
			assert.NoFileExists(t, filepath.Join(dir, "0.spd.tmp"))

			docs, err := idx.Docs()
			require.NoError(t, err)
			assert.Equal(t, []uint32{1, 2, 10, 11}, docs.ToArray())
		})
	}
}

type countingProfiler struct{ bytes int }

func (p *countingProfiler) ObserveRead(_ datareader.Kind, bytes int, _ time.Duration) {
	p.bytes += bytes
}

func TestOpen_Profiler(t *testing.T) {
	dir := writeIndex(t, map[int][]varint.RowID{0: {1, 2, 3}})
	prof := &countingProfiler{}

	idx, err := Open("t", dir, Options{Access: datareader.AccessFile, ReaderBuffer: 2, Profiler: prof})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	_, err = idx.Docs()
	require.NoError(t, err)
	assert.Positive(t, prof.bytes)
}
