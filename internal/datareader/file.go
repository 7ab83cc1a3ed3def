package datareader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// fileFactory serves readers that pread into their own staging buffers.
type fileFactory struct {
	common
	bufSize int

	mu sync.Mutex
	f  *os.File
}

func newFileFactory(name string, kind Kind, bufSize int) (*fileFactory, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}

	ff := &fileFactory{bufSize: bufSize, f: f}
	ff.init(name, kind, AccessFile, st.Size())
	return ff, nil
}

func (ff *fileFactory) MakeReader(buf []byte) Reader {
	if len(buf) == 0 {
		buf = make([]byte, min(DefaultReaderBuffer, ff.bufSize))
	}

	ff.mu.Lock()
	src := ff.f
	ff.mu.Unlock()

	r := &fileReader{
		src:      src,
		kind:     ff.kind,
		size:     ff.size,
		profiler: ff.currentProfiler(),
		buf:      buf,
		bufPos:   ff.Pos(),
	}
	if src == nil {
		r.err = ErrClosed
	}
	r.cursor = cursor{src: r}
	return r
}

func (ff *fileFactory) Close() error {
	if !ff.release() {
		return nil
	}
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if ff.f == nil {
		return nil
	}
	err := ff.f.Close()
	ff.f = nil
	return err
}

// fileReader keeps a window [bufPos, bufPos+n) of the file in buf.
type fileReader struct {
	cursor

	src      io.ReaderAt
	kind     Kind
	size     int64
	profiler Profiler

	buf    []byte
	bufPos int64
	n      int
	off    int
	hint   int
	err    error
}

func (r *fileReader) Pos() int64 { return r.bufPos + int64(r.off) }

func (r *fileReader) SeekTo(pos int64, sizeHint int) {
	if pos >= r.bufPos && pos < r.bufPos+int64(r.n) {
		r.off = int(pos - r.bufPos)
		return
	}
	r.bufPos = pos
	r.n = 0
	r.off = 0
	r.hint = sizeHint
}

func (r *fileReader) Reset() {
	r.bufPos = 0
	r.n = 0
	r.off = 0
	r.hint = 0
	if !errors.Is(r.err, ErrClosed) {
		r.err = nil
	}
}

func (r *fileReader) Err() error { return r.err }

// NextByte implements varint.ByteSource.
func (r *fileReader) NextByte() byte {
	if r.off >= r.n {
		if !r.fill() {
			return 0
		}
	}
	b := r.buf[r.off]
	r.off++
	return b
}

func (r *fileReader) fill() bool {
	if r.err != nil {
		return false
	}

	pos := r.Pos()
	if pos >= r.size {
		r.err = fmt.Errorf("read at %d past end of file (size %d): %w", pos, r.size, io.ErrUnexpectedEOF)
		return false
	}

	want := len(r.buf)
	if r.hint > 0 && r.hint < want {
		want = r.hint
	}
	r.hint = 0

	start := time.Now()
	n, err := r.src.ReadAt(r.buf[:want], pos)
	if r.profiler != nil {
		r.profiler.ObserveRead(r.kind, n, time.Since(start))
	}

	r.bufPos = pos
	r.off = 0
	r.n = n
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		r.err = fmt.Errorf("read at %d: %w", pos, err)
		return false
	}
	return true
}
