//go:build unix && !linux

package mmap

import "golang.org/x/sys/unix"

const remapOp = "mmap"

// remap maps the new length before dropping the old mapping, so a failure
// leaves the old one intact.
func remap(r *region, newSize int64) ([]byte, error) {
	data, err := unix.Mmap(int(r.f.Fd()), 0, int(newSize), r.prot(), unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	_ = unix.Munmap(r.data)
	return data, nil
}

func advise([]byte) {}
