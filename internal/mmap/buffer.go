// Package mmap owns memory mappings of index files.
//
// A Buffer maps a whole file and exposes it as a typed slice. It can grow or
// shrink the file in place (Resize), flush dirty pages (Flush) and pin the
// mapping in RAM (MemLock). Resize invalidates slices obtained earlier, so
// callers serialize it against readers of the same buffer.
package mmap

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"
)

// Buffer is a file mapping viewed as a slice of T. The zero value is an
// unset buffer; Setup attaches it to a file and Reset detaches it.
type Buffer[T any] struct {
	r region
}

// SetLogger sets the logger used for non-fatal warnings (lock restore
// failures after Resize).
func (b *Buffer[T]) SetLogger(l *zap.Logger) { b.r.logger = l }

// Setup opens the file and maps its full length. A zero-length file yields a
// valid empty buffer without a mapping.
func (b *Buffer[T]) Setup(file string, writable bool) error {
	if elemSize[T]() == 0 {
		panic("mmap: zero-sized element type")
	}
	return b.r.setup(file, writable)
}

// Slice returns the mapping as a typed slice. A byte tail shorter than one
// element is not reported; callers validate file sizing beforehand.
// The slice is valid until the next Resize or Reset.
func (b *Buffer[T]) Slice() []T {
	n := b.Len()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b.r.data[0])), n)
}

// Bytes returns the raw mapping.
func (b *Buffer[T]) Bytes() []byte { return b.r.data }

// Len returns the number of whole elements in the mapping.
func (b *Buffer[T]) Len() int { return len(b.r.data) / elemSize[T]() }

// LengthBytes returns the mapped length in bytes.
func (b *Buffer[T]) LengthBytes() int64 { return int64(len(b.r.data)) }

// FileName returns the name passed to Setup.
func (b *Buffer[T]) FileName() string { return b.r.name }

// Writable reports whether the buffer was set up for writing.
func (b *Buffer[T]) Writable() bool { return b.r.writable }

// Locked reports whether the mapping is pinned with MemLock.
func (b *Buffer[T]) Locked() bool { return b.r.locked }

// Resize truncates or extends the file to newSize bytes and remaps it. Pinned
// mappings stay pinned. Calling Resize on a read-only or unset buffer is a
// programming error and panics.
//
// On failure after the file size changed the buffer is reset, so no stale
// mapping survives a failed call.
func (b *Buffer[T]) Resize(newSize int64) error {
	if !b.r.writable || b.r.f == nil {
		panic(fmt.Sprintf("mmap: Resize on read-only or unset buffer %q", b.r.name))
	}
	if newSize < 0 {
		panic(fmt.Sprintf("mmap: negative size %d for %q", newSize, b.r.name))
	}
	return b.r.resize(newSize)
}

// Flush writes dirty pages back to the file. With wait set it returns once
// the device acknowledged the write; otherwise it only schedules it.
func (b *Buffer[T]) Flush(wait bool) error {
	if b.r.data == nil {
		return nil
	}
	return b.r.flush(wait)
}

// MemLock pins the mapping in RAM.
func (b *Buffer[T]) MemLock() error {
	if b.r.data == nil || b.r.locked {
		return nil
	}
	if err := b.r.lock(); err != nil {
		return &Error{Op: "mlock", File: b.r.name, Length: int64(len(b.r.data)), Err: err}
	}
	b.r.locked = true
	return nil
}

// MemUnlock releases a MemLock.
func (b *Buffer[T]) MemUnlock() {
	b.r.memUnlock()
}

// Reset unmaps and closes the file. It is safe on unset and already reset
// buffers.
func (b *Buffer[T]) Reset() {
	b.r.reset()
}

func elemSize[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
