//go:build unix

package mmap

import (
	"golang.org/x/sys/unix"
)

type sysState struct{}

func (r *region) prot() int {
	if r.writable {
		return unix.PROT_READ | unix.PROT_WRITE
	}
	return unix.PROT_READ
}

func (r *region) mapFile(size int64) ([]byte, error) {
	data, err := unix.Mmap(int(r.f.Fd()), 0, int(size), r.prot(), unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	advise(data)
	return data, nil
}

func (r *region) unmap() error {
	return unix.Munmap(r.data)
}

// resizeMapping changes the file size first and then moves the mapping.
func (r *region) resizeMapping(newSize int64) ([]byte, error) {
	if err := r.f.Truncate(newSize); err != nil {
		return nil, &Error{Op: "truncate", File: r.name, Length: newSize, Err: err}
	}

	if newSize == 0 {
		if r.data != nil {
			if err := unix.Munmap(r.data); err != nil {
				return nil, &Error{Op: "munmap", File: r.name, Err: err}
			}
			r.data = nil
		}
		return nil, nil
	}

	if r.data == nil {
		data, err := r.mapFile(newSize)
		if err != nil {
			return nil, &Error{Op: "mmap", File: r.name, Length: newSize, Err: err}
		}
		return data, nil
	}

	data, err := remap(r, newSize)
	if err != nil {
		return nil, &Error{Op: remapOp, File: r.name, Length: newSize, Err: err}
	}
	return data, nil
}

func (r *region) flush(wait bool) error {
	flags := unix.MS_ASYNC
	if wait {
		flags = unix.MS_SYNC
	}
	if err := unix.Msync(r.data, flags); err != nil {
		return &Error{Op: "msync", File: r.name, Err: err}
	}
	return nil
}

func (r *region) lock() error { return unix.Mlock(r.data) }

func (r *region) unlock() error { return unix.Munlock(r.data) }
