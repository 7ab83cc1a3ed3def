// Package segment serves on-disk indexes made of numbered doclist chunks.
//
// An index lives in <data_dir>/<name>/ and holds one file per disk chunk,
// named <chunk id>.spd. A chunk file is a varint row count followed by the
// delta-coded row ids read by datareader.DecodeDocList.
package segment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/datareader"
	"github.com/kailas-cloud/searchd/internal/varint"
)

// ChunkExt is the chunk file extension.
const ChunkExt = ".spd"

// ErrNotFound is returned for an unknown index name.
var ErrNotFound = errors.New("segment: index not found")

// Options configures how chunk files are opened.
type Options struct {
	Access datareader.Access
	// FactoryBuffer and ReaderBuffer size the staging buffers of file
	// access; zero picks the datareader defaults.
	FactoryBuffer int
	ReaderBuffer  int
	Profiler      datareader.Profiler
	Logger        *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

type chunk struct {
	id   int
	rows int
	docs datareader.Factory
}

// Index is one served index. Readers take the read lock through Docs;
// Optimize must be called with the write lock held.
type Index struct {
	mu     sync.RWMutex
	name   string
	dir    string
	opts   Options
	chunks []*chunk
}

// Open opens every chunk file in dir.
func Open(name, dir string, opts Options) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", name, err)
	}

	idx := &Index{name: name, dir: dir, opts: opts}
	for _, e := range entries {
		id, ok := chunkID(e.Name())
		if !ok || e.IsDir() {
			continue
		}
		c, err := idx.openChunk(id)
		if err != nil {
			_ = idx.Close()
			return nil, err
		}
		idx.chunks = append(idx.chunks, c)
	}
	sort.Slice(idx.chunks, func(i, j int) bool { return idx.chunks[i].id < idx.chunks[j].id })
	return idx, nil
}

func chunkID(file string) (int, bool) {
	base, ok := strings.CutSuffix(file, ChunkExt)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(base)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func (idx *Index) chunkPath(id int) string {
	return filepath.Join(idx.dir, strconv.Itoa(id)+ChunkExt)
}

func (idx *Index) openChunk(id int) (*chunk, error) {
	path := idx.chunkPath(id)
	f, err := datareader.NewReader(path, datareader.KindDocs, idx.opts.FactoryBuffer, idx.opts.Access,
		datareader.WithLogger(idx.opts.logger()))
	if err != nil {
		return nil, fmt.Errorf("index %s chunk %d: %w", idx.name, id, err)
	}
	if idx.opts.Profiler != nil {
		f.SetProfiler(idx.opts.Profiler)
	}

	r := f.MakeReader(nil)
	rows := r.UnzipInt()
	if err := r.Err(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("index %s chunk %d: read header: %w", idx.name, id, err)
	}
	f.SeekTo(r.Pos())
	return &chunk{id: id, rows: int(rows), docs: f}, nil
}

// Name returns the index name.
func (idx *Index) Name() string { return idx.name }

// Lock takes the index write lock.
func (idx *Index) Lock() { idx.mu.Lock() }

// Unlock releases the write lock.
func (idx *Index) Unlock() { idx.mu.Unlock() }

// Chunks lists the chunk ids in ascending order.
func (idx *Index) Chunks() []int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]int, len(idx.chunks))
	for i, c := range idx.chunks {
		ids[i] = c.id
	}
	return ids
}

// Docs returns the union of all chunk doclists.
func (idx *Index) Docs() (*roaring.Bitmap, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.union(context.Background(), idx.chunks)
}

func (idx *Index) union(ctx context.Context, chunks []*chunk) (*roaring.Bitmap, error) {
	var buf []byte
	if !idx.opts.Access.Mapped() && idx.opts.ReaderBuffer > 0 {
		buf = make([]byte, idx.opts.ReaderBuffer)
	}

	out := roaring.New()
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bm, err := datareader.DecodeDocList(c.docs.MakeReader(buf), c.rows)
		if err != nil {
			return nil, fmt.Errorf("index %s chunk %d: %w", idx.name, c.id, err)
		}
		out.Or(bm)
	}
	return out, nil
}

// Optimize merges the chunks whose ids fall in [from, to] into the first of
// them. A negative bound means the first or last chunk. Fewer than two
// chunks in range is a no-op. The caller holds the write lock.
func (idx *Index) Optimize(ctx context.Context, from, to int) error {
	if len(idx.chunks) == 0 {
		return nil
	}
	if from < 0 {
		from = idx.chunks[0].id
	}
	if to < 0 {
		to = idx.chunks[len(idx.chunks)-1].id
	}

	var sel, keep []*chunk
	for _, c := range idx.chunks {
		if c.id >= from && c.id <= to {
			sel = append(sel, c)
		} else {
			keep = append(keep, c)
		}
	}
	log := idx.opts.logger().With(zap.String("index", idx.name), zap.Int("from", from), zap.Int("to", to))
	if len(sel) < 2 {
		log.Debug("nothing to merge", zap.Int("chunks", len(sel)))
		return nil
	}

	merged, err := idx.union(ctx, sel)
	if err != nil {
		return err
	}

	target := sel[0].id
	tmp := idx.chunkPath(target) + ".tmp"
	rows := make([]varint.RowID, 0, merged.GetCardinality())
	for it := merged.Iterator(); it.HasNext(); {
		rows = append(rows, varint.RowID(it.Next()))
	}
	if err := writeChunkFile(tmp, rows); err != nil {
		return fmt.Errorf("index %s: %w", idx.name, err)
	}

	// Source chunks stay on disk and in service until the merged chunk is
	// installed and readable.
	if err := os.Rename(tmp, idx.chunkPath(target)); err != nil {
		if rerr := os.Remove(tmp); rerr != nil {
			log.Warn("remove temporary chunk", zap.Error(rerr))
		}
		return fmt.Errorf("index %s: install chunk %d: %w", idx.name, target, err)
	}
	c, err := idx.openChunk(target)
	if err != nil {
		return err
	}

	for _, old := range sel {
		if err := old.docs.Close(); err != nil {
			log.Warn("close chunk", zap.Int("chunk", old.id), zap.Error(err))
		}
	}
	for _, old := range sel[1:] {
		if err := os.Remove(idx.chunkPath(old.id)); err != nil {
			log.Warn("remove merged chunk", zap.Int("chunk", old.id), zap.Error(err))
		}
	}
	idx.chunks = append(keep, c)
	sort.Slice(idx.chunks, func(i, j int) bool { return idx.chunks[i].id < idx.chunks[j].id })

	log.Info("chunks merged", zap.Int("merged", len(sel)), zap.Int("chunk", target), zap.Int("rows", len(rows)))
	return nil
}

// Close releases every chunk.
func (idx *Index) Close() error {
	var errs []error
	for _, c := range idx.chunks {
		if err := c.docs.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	idx.chunks = nil
	return errors.Join(errs...)
}

// WriteChunk writes a chunk file with the given ascending row ids.
func WriteChunk(dir string, id int, rows []varint.RowID) error {
	return writeChunkFile(filepath.Join(dir, strconv.Itoa(id)+ChunkExt), rows)
}

func writeChunkFile(path string, rows []varint.RowID) error {
	buf := varint.Append(nil, uint64(len(rows)))
	buf = datareader.AppendDocList(buf, rows)
	if err := os.WriteFile(path, buf, 0o644); err != nil { //nolint:gosec // index files are world-readable
		return fmt.Errorf("write chunk %s: %w", path, err)
	}
	return nil
}
