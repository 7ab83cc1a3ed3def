// Package datareader hands out sequential decoders over doclist and hitlist
// files. A Factory owns the open file (or its mapping) and is shared between
// goroutines; each goroutine gets its own Reader from MakeReader.
package datareader

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchd/internal/varint"
)

// ReadNoSizeHint asks for the default buffer size.
const ReadNoSizeHint = 0

// Default buffer sizes.
const (
	DefaultFactoryBuffer = 256 << 10
	DefaultReaderBuffer  = 32 << 10
)

// Kind names the logical stream a factory reads.
type Kind int

const (
	KindDocs Kind = iota
	KindHits
)

func (k Kind) String() string {
	switch k {
	case KindDocs:
		return "docs"
	case KindHits:
		return "hits"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses "docs" or "hits".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "docs", "doclist":
		return KindDocs, nil
	case "hits", "hitlist":
		return KindHits, nil
	}
	return 0, fmt.Errorf("unknown reader kind %q (known values are docs, hits)", s)
}

// Access selects how a factory reaches file bytes.
type Access int

const (
	// AccessFile reads through a staging buffer with positioned reads.
	AccessFile Access = iota
	// AccessMmap decodes straight from a read-only mapping.
	AccessMmap
	// AccessMmapPreread maps and touches every page once up front.
	AccessMmapPreread
	// AccessMlock maps and pins the mapping in RAM.
	AccessMlock
)

var accessNames = []string{"file", "mmap", "mmap_preread", "mlock"}

func (a Access) String() string {
	if a >= 0 && int(a) < len(accessNames) {
		return accessNames[a]
	}
	return fmt.Sprintf("access(%d)", int(a))
}

// Mapped reports whether the strategy decodes from a mapping.
func (a Access) Mapped() bool { return a != AccessFile }

// ParseAccess parses an access strategy name.
func ParseAccess(s string) (Access, error) {
	for i, name := range accessNames {
		if strings.EqualFold(s, name) {
			return Access(i), nil
		}
	}
	return 0, fmt.Errorf("unknown access mode %q (known values are %s)", s, strings.Join(accessNames, ", "))
}

// ErrClosed is returned when a factory is used after its last Close.
var ErrClosed = errors.New("datareader: factory is closed")

// Profiler receives read timings from file-backed readers.
type Profiler interface {
	ObserveRead(kind Kind, bytes int, wait time.Duration)
}

// Reader is a sequential decoder with its own cursor. A Reader must not be
// shared between goroutines.
type Reader interface {
	varint.ByteSource

	Pos() int64
	// SeekTo moves the cursor. sizeHint, when positive, is the number of
	// bytes the caller expects to read from there.
	SeekTo(pos int64, sizeHint int)
	UnzipInt() uint32
	UnzipOffset() uint64
	UnzipRowID() varint.RowID
	UnzipWordID() varint.WordID
	// Reset rewinds to the start of the file and clears Err.
	Reset()
	// Err reports a read past the end of the file or an I/O failure. It is
	// sticky; decodes after it return zeros.
	Err() error
}

// Factory produces readers over one file. It is refcounted: Retain adds a
// reference and Close drops one, releasing the file on the last.
type Factory interface {
	Kind() Kind
	Access() Access
	FileName() string
	FileSize() int64
	// Pos and SeekTo manage the start position for subsequently made readers.
	Pos() int64
	SeekTo(pos int64)
	// MakeReader returns a reader starting at Pos. buf is the staging buffer
	// for file access; an empty buf selects DefaultReaderBuffer. Mapped
	// factories ignore it.
	MakeReader(buf []byte) Reader
	SetProfiler(p Profiler)
	Retain()
	// Close drops a reference. Readers made by the factory must not be used
	// after the last Close.
	Close() error
}

// Option configures NewReader.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger for non-fatal setup warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewReader opens filename for the given stream kind. readBufferHint sizes
// the factory staging buffer for file access (ReadNoSizeHint picks
// DefaultFactoryBuffer).
func NewReader(filename string, kind Kind, readBufferHint int, access Access, opts ...Option) (Factory, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if readBufferHint <= ReadNoSizeHint {
		readBufferHint = DefaultFactoryBuffer
	}

	var (
		f   Factory
		err error
	)
	switch access {
	case AccessFile:
		f, err = newFileFactory(filename, kind, readBufferHint)
	case AccessMmap, AccessMmapPreread, AccessMlock:
		f, err = newMappedFactory(filename, kind, access, o.logger)
	default:
		return nil, fmt.Errorf("datareader: %s", access)
	}
	if err != nil {
		return nil, fmt.Errorf("datareader: open %s reader: %w", kind, err)
	}
	return f, nil
}

// common holds the state both factory variants share.
type common struct {
	name     string
	kind     Kind
	access   Access
	size     int64
	pos      atomic.Int64
	refs     atomic.Int32
	profiler atomic.Pointer[profilerRef]
}

type profilerRef struct{ p Profiler }

func (c *common) init(name string, kind Kind, access Access, size int64) {
	c.name = name
	c.kind = kind
	c.access = access
	c.size = size
	c.refs.Store(1)
}

func (c *common) Kind() Kind       { return c.kind }
func (c *common) Access() Access   { return c.access }
func (c *common) FileName() string { return c.name }
func (c *common) FileSize() int64  { return c.size }
func (c *common) Pos() int64       { return c.pos.Load() }
func (c *common) SeekTo(pos int64) { c.pos.Store(pos) }
func (c *common) Retain()          { c.refs.Inc() }

func (c *common) currentProfiler() Profiler {
	if ref := c.profiler.Load(); ref != nil {
		return ref.p
	}
	return nil
}

func (c *common) SetProfiler(p Profiler) {
	if p == nil {
		c.profiler.Store(nil)
		return
	}
	c.profiler.Store(&profilerRef{p: p})
}

// release drops a reference and reports whether it was the last one.
func (c *common) release() bool {
	n := c.refs.Dec()
	if n < 0 {
		panic(fmt.Sprintf("datareader: Close on released factory %q", c.name))
	}
	return n == 0
}

// cursor is the decode half shared by both reader variants: it turns any
// byte source into the Unzip* calls.
type cursor struct {
	src varint.ByteSource
}

func (c cursor) UnzipInt() uint32           { return varint.DecodeU32(c.src) }
func (c cursor) UnzipOffset() uint64        { return varint.DecodeOffset(c.src) }
func (c cursor) UnzipRowID() varint.RowID   { return varint.DecodeRowID(c.src) }
func (c cursor) UnzipWordID() varint.WordID { return varint.DecodeWordID(c.src) }
