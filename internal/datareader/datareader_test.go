package datareader

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kailas-cloud/searchd/internal/varint"
)

var testAccess = []Access{AccessFile, AccessMmap, AccessMmapPreread}

type recordingProfiler struct {
	mu    sync.Mutex
	calls int
	bytes int
	kinds []Kind
}

func (p *recordingProfiler) ObserveRead(kind Kind, bytes int, _ time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.bytes += bytes
	p.kinds = append(p.kinds, kind)
}

func writeStream(t *testing.T, data []byte) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "seg.spd")
	require.NoError(t, os.WriteFile(name, data, 0o644))
	return name
}

func open(t *testing.T, name string, access Access) Factory {
	t.Helper()
	f, err := NewReader(name, KindDocs, ReadNoSizeHint, access, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestReader_DecodesAllTypes(t *testing.T) {
	var data []byte
	data = varint.Append(data, 7)
	data = varint.Append(data, 1<<40+3)
	data = varint.Append(data, 123456)
	data = varint.Append(data, 0xdeadbeefcafe)

	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			f := open(t, writeStream(t, data), access)
			assert.Equal(t, int64(len(data)), f.FileSize())
			assert.Equal(t, access, f.Access())

			r := f.MakeReader(nil)
			assert.Equal(t, uint32(7), r.UnzipInt())
			assert.Equal(t, uint64(1<<40+3), r.UnzipOffset())
			assert.Equal(t, varint.RowID(123456), r.UnzipRowID())
			assert.Equal(t, varint.WordID(0xdeadbeefcafe), r.UnzipWordID())
			require.NoError(t, r.Err())
			assert.Equal(t, int64(len(data)), r.Pos())
		})
	}
}

func TestReader_SeekAndReset(t *testing.T) {
	var data []byte
	offsets := make([]int64, 0, 100)
	for i := range 100 {
		offsets = append(offsets, int64(len(data)))
		data = varint.Append(data, uint64(i*1000))
	}

	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			f := open(t, writeStream(t, data), access)
			r := f.MakeReader(make([]byte, 8))

			r.SeekTo(offsets[57], ReadNoSizeHint)
			assert.Equal(t, offsets[57], r.Pos())
			assert.Equal(t, uint32(57000), r.UnzipInt())

			// backwards, inside and outside the staging window
			r.SeekTo(offsets[56], 2)
			assert.Equal(t, uint32(56000), r.UnzipInt())
			r.SeekTo(offsets[3], ReadNoSizeHint)
			assert.Equal(t, uint32(3000), r.UnzipInt())

			r.Reset()
			assert.Equal(t, int64(0), r.Pos())
			assert.Equal(t, uint32(0), r.UnzipInt())
			assert.Equal(t, uint32(1000), r.UnzipInt())
		})
	}
}

func TestReader_TinyBufferRefillsAcrossValues(t *testing.T) {
	var data []byte
	for i := range 500 {
		data = varint.Append(data, uint64(i)*uint64(i)*977)
	}

	f := open(t, writeStream(t, data), AccessFile)
	r := f.MakeReader(make([]byte, 3))
	for i := range 500 {
		require.Equal(t, uint64(i)*uint64(i)*977, r.UnzipOffset(), "value %d", i)
	}
	require.NoError(t, r.Err())
}

func TestReader_PastEnd(t *testing.T) {
	data := varint.Append(nil, 300)

	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			f := open(t, writeStream(t, data), access)
			r := f.MakeReader(nil)

			assert.Equal(t, uint32(300), r.UnzipInt())
			assert.Equal(t, uint32(0), r.UnzipInt())
			require.Error(t, r.Err())
			assert.True(t, errors.Is(r.Err(), io.ErrUnexpectedEOF))

			// sticky until reset
			assert.Equal(t, uint32(0), r.UnzipInt())
			assert.Error(t, r.Err())
			r.Reset()
			assert.NoError(t, r.Err())
			assert.Equal(t, uint32(300), r.UnzipInt())
		})
	}
}

func TestReader_EmptyFile(t *testing.T) {
	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			f := open(t, writeStream(t, nil), access)
			assert.Equal(t, int64(0), f.FileSize())

			r := f.MakeReader(nil)
			assert.Equal(t, uint32(0), r.UnzipInt())
			assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
		})
	}
}

func TestFactory_StartPosition(t *testing.T) {
	data := varint.Append(varint.Append(nil, 1), 2)

	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			f := open(t, writeStream(t, data), access)
			f.SeekTo(1)
			assert.Equal(t, int64(1), f.Pos())

			r := f.MakeReader(nil)
			assert.Equal(t, int64(1), r.Pos())
			assert.Equal(t, uint32(2), r.UnzipInt())
		})
	}
}

func TestFactory_IndependentReaders(t *testing.T) {
	var data []byte
	for i := range 1000 {
		data = varint.Append(data, uint64(i))
	}

	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			f := open(t, writeStream(t, data), access)

			var wg sync.WaitGroup
			errs := make(chan error, 8)
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					r := f.MakeReader(make([]byte, 64))
					for i := range 1000 {
						if got := r.UnzipInt(); got != uint32(i) {
							errs <- errors.New("mismatch")
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatal(err)
			}
		})
	}
}

func TestFactory_Profiler(t *testing.T) {
	data := make([]byte, 0, 64)
	for i := range 20 {
		data = varint.Append(data, uint64(i))
	}

	p := &recordingProfiler{}
	f, err := NewReader(writeStream(t, data), KindHits, ReadNoSizeHint, AccessFile)
	require.NoError(t, err)
	defer f.Close()
	f.SetProfiler(p)

	r := f.MakeReader(make([]byte, 4))
	for range 20 {
		r.UnzipInt()
	}
	require.NoError(t, r.Err())

	assert.Equal(t, 5, p.calls)
	assert.Equal(t, len(data), p.bytes)
	assert.Equal(t, KindHits, p.kinds[0])
}

func TestFactory_Refcount(t *testing.T) {
	for _, access := range testAccess {
		t.Run(access.String(), func(t *testing.T) {
			f, err := NewReader(writeStream(t, []byte{1}), KindDocs, ReadNoSizeHint, access)
			require.NoError(t, err)

			f.Retain()
			require.NoError(t, f.Close())

			// still open after the first close
			r := f.MakeReader(nil)
			assert.Equal(t, uint32(1), r.UnzipInt())
			assert.NoError(t, r.Err())

			require.NoError(t, f.Close())
			assert.ErrorIs(t, f.MakeReader(nil).Err(), ErrClosed)
			assert.Panics(t, func() { _ = f.Close() })
		})
	}
}

func TestNewReader_MissingFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "missing.spd")
	for _, access := range []Access{AccessFile, AccessMmap, AccessMlock} {
		t.Run(access.String(), func(t *testing.T) {
			_, err := NewReader(name, KindDocs, ReadNoSizeHint, access)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "missing.spd")
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestNewReader_UnknownAccess(t *testing.T) {
	_, err := NewReader(writeStream(t, nil), KindDocs, ReadNoSizeHint, Access(42))
	require.Error(t, err)
}

func TestNewReader_Mlock(t *testing.T) {
	// mlock may be refused by RLIMIT_MEMLOCK; setup still succeeds
	f := open(t, writeStream(t, []byte{0x81, 0x00}), AccessMlock)
	assert.Equal(t, uint32(128), f.MakeReader(nil).UnzipInt())
}

func TestParseAccessAndKind(t *testing.T) {
	for _, a := range []Access{AccessFile, AccessMmap, AccessMmapPreread, AccessMlock} {
		got, err := ParseAccess(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err := ParseAccess("directio")
	assert.Error(t, err)
	assert.True(t, AccessMlock.Mapped())
	assert.False(t, AccessFile.Mapped())

	k, err := ParseKind("HITS")
	require.NoError(t, err)
	assert.Equal(t, KindHits, k)
	_, err = ParseKind("skiplist")
	assert.Error(t, err)
}
