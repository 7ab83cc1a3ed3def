package datareader

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/mmap"
)

const pageSize = 4096

// mappedFactory serves readers decoding straight from a shared mapping.
type mappedFactory struct {
	common

	mu  sync.Mutex
	buf *mmap.Buffer[byte]
}

func newMappedFactory(name string, kind Kind, access Access, logger *zap.Logger) (*mappedFactory, error) {
	buf := &mmap.Buffer[byte]{}
	buf.SetLogger(logger)
	if err := buf.Setup(name, false); err != nil {
		return nil, err
	}

	switch access {
	case AccessMmapPreread:
		preread(buf.Bytes())
	case AccessMlock:
		if err := buf.MemLock(); err != nil {
			logger.Warn("mlock failed, continuing with unpinned mapping",
				zap.String("file", name),
				zap.Stringer("kind", kind),
				zap.Error(err),
			)
		}
	}

	mf := &mappedFactory{buf: buf}
	mf.init(name, kind, access, buf.LengthBytes())
	return mf, nil
}

var prereadSink byte

// preread faults in every page of the mapping.
func preread(data []byte) {
	var acc byte
	for i := 0; i < len(data); i += pageSize {
		acc ^= data[i]
	}
	prereadSink = acc
}

func (mf *mappedFactory) MakeReader([]byte) Reader {
	mf.mu.Lock()
	defer mf.mu.Unlock()

	r := &mappedReader{pos: mf.Pos()}
	if mf.buf == nil {
		r.err = ErrClosed
	} else {
		r.data = mf.buf.Bytes()
	}
	r.cursor = cursor{src: r}
	return r
}

func (mf *mappedFactory) Close() error {
	if !mf.release() {
		return nil
	}
	mf.mu.Lock()
	defer mf.mu.Unlock()
	if mf.buf != nil {
		mf.buf.Reset()
		mf.buf = nil
	}
	return nil
}

// mappedReader has no staging buffer; its window is the whole mapping.
type mappedReader struct {
	cursor

	data []byte
	pos  int64
	err  error
}

func (r *mappedReader) Pos() int64 { return r.pos }

func (r *mappedReader) SeekTo(pos int64, _ int) { r.pos = pos }

func (r *mappedReader) Reset() {
	r.pos = 0
	if r.err != ErrClosed {
		r.err = nil
	}
}

func (r *mappedReader) Err() error { return r.err }

// NextByte implements varint.ByteSource.
func (r *mappedReader) NextByte() byte {
	if r.pos < 0 || r.pos >= int64(len(r.data)) {
		if r.err == nil {
			r.err = fmt.Errorf("read at %d past end of mapping (size %d): %w", r.pos, len(r.data), io.ErrUnexpectedEOF)
		}
		return 0
	}
	b := r.data[r.pos]
	r.pos++
	return b
}
