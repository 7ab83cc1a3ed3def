package mmap

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Error describes a failed mapping operation.
type Error struct {
	Op     string
	File   string
	Length int64
	Err    error
}

func (e *Error) Error() string {
	if e.Length > 0 {
		return fmt.Sprintf("mmap: %s '%s': %v (length=%d)", e.Op, e.File, e.Err, e.Length)
	}
	return fmt.Sprintf("mmap: %s '%s': %v", e.Op, e.File, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// region holds the platform independent part of a mapping. Exactly one of
// {no file, file without mapping, file with mapping} is live at a time.
type region struct {
	name     string
	writable bool
	f        *os.File
	data     []byte
	locked   bool
	logger   *zap.Logger
	sys      sysState
}

func (r *region) log() *zap.Logger {
	if r.logger == nil {
		return zap.NewNop()
	}
	return r.logger
}

func (r *region) setup(name string, writable bool) error {
	if r.f != nil {
		panic(fmt.Sprintf("mmap: Setup(%q) on a buffer already attached to %q", name, r.name))
	}
	r.name = name
	r.writable = writable

	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR
	}
	f, err := os.OpenFile(name, flag, 0)
	if err != nil {
		return &Error{Op: "open", File: name, Err: err}
	}
	r.f = f

	st, err := f.Stat()
	if err != nil {
		r.reset()
		return &Error{Op: "fstat", File: name, Err: err}
	}

	// mapping zero bytes is undefined, an empty file stays unmapped
	size := st.Size()
	if size == 0 {
		return nil
	}

	data, err := r.mapFile(size)
	if err != nil {
		r.reset()
		return &Error{Op: "mmap", File: name, Length: size, Err: err}
	}
	r.data = data
	return nil
}

func (r *region) resize(newSize int64) error {
	wasLocked := r.locked
	r.memUnlock()

	data, err := r.resizeMapping(newSize)
	if err != nil {
		var mErr *Error
		if errors.As(err, &mErr) && mErr.Op == "truncate" && r.data != nil {
			// file untouched, the old mapping is still good
			r.relock(wasLocked)
			return err
		}
		r.reset()
		return err
	}
	r.data = data
	r.relock(wasLocked)
	return nil
}

func (r *region) relock(wasLocked bool) {
	if !wasLocked || r.data == nil {
		return
	}
	if err := r.lock(); err != nil {
		r.log().Warn("failed to restore memory lock after resize",
			zap.String("file", r.name),
			zap.Int("length", len(r.data)),
			zap.Error(err),
		)
		return
	}
	r.locked = true
}

func (r *region) memUnlock() {
	if !r.locked {
		return
	}
	if err := r.unlock(); err != nil {
		r.log().Debug("munlock failed", zap.String("file", r.name), zap.Error(err))
	}
	r.locked = false
}

func (r *region) reset() {
	r.memUnlock()
	if r.data != nil {
		if err := r.unmap(); err != nil {
			r.log().Warn("munmap failed", zap.String("file", r.name), zap.Error(err))
		}
		r.data = nil
	}
	if r.f != nil {
		_ = r.f.Close()
		r.f = nil
	}
}
