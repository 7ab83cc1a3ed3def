//go:build windows

package mmap

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type sysState struct {
	mapping windows.Handle
}

func (r *region) mapFile(size int64) ([]byte, error) {
	prot := uint32(windows.PAGE_READONLY)
	access := uint32(windows.FILE_MAP_READ)
	if r.writable {
		prot = windows.PAGE_READWRITE
		access |= windows.FILE_MAP_WRITE
	}

	h, err := windows.CreateFileMapping(windows.Handle(r.f.Fd()), nil, prot, uint32(size>>32), uint32(size), nil)
	if err != nil {
		return nil, err
	}
	addr, err := windows.MapViewOfFile(h, access, 0, 0, uintptr(size))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, err
	}
	r.sys.mapping = h
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size)), nil
}

func (r *region) addr() uintptr {
	return uintptr(unsafe.Pointer(&r.data[0]))
}

func (r *region) unmap() error {
	err := windows.UnmapViewOfFile(r.addr())
	if r.sys.mapping != 0 {
		_ = windows.CloseHandle(r.sys.mapping)
		r.sys.mapping = 0
	}
	return err
}

// resizeMapping drops the view first: windows refuses to truncate a file
// with a live mapping.
func (r *region) resizeMapping(newSize int64) ([]byte, error) {
	if r.data != nil {
		if err := r.unmap(); err != nil {
			return nil, &Error{Op: "UnmapViewOfFile", File: r.name, Err: err}
		}
		r.data = nil
	}
	if err := r.f.Truncate(newSize); err != nil {
		return nil, &Error{Op: "SetEndOfFile", File: r.name, Length: newSize, Err: err}
	}
	if newSize == 0 {
		return nil, nil
	}
	data, err := r.mapFile(newSize)
	if err != nil {
		return nil, &Error{Op: "MapViewOfFile", File: r.name, Length: newSize, Err: err}
	}
	return data, nil
}

func (r *region) flush(wait bool) error {
	if err := windows.FlushViewOfFile(r.addr(), uintptr(len(r.data))); err != nil {
		return &Error{Op: "FlushViewOfFile", File: r.name, Err: err}
	}
	if wait {
		if err := windows.FlushFileBuffers(windows.Handle(r.f.Fd())); err != nil {
			return &Error{Op: "FlushFileBuffers", File: r.name, Err: err}
		}
	}
	return nil
}

func (r *region) lock() error {
	return windows.VirtualLock(r.addr(), uintptr(len(r.data)))
}

func (r *region) unlock() error {
	return windows.VirtualUnlock(r.addr(), uintptr(len(r.data)))
}
