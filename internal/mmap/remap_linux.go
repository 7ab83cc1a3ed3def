//go:build linux

package mmap

import "golang.org/x/sys/unix"

const remapOp = "mremap"

// remap grows or shrinks the mapping in place, letting the kernel move it.
func remap(r *region, newSize int64) ([]byte, error) {
	data, err := unix.Mremap(r.data, int(newSize), unix.MREMAP_MAYMOVE)
	if err != nil {
		return nil, err
	}
	advise(data)
	return data, nil
}

// advise keeps mappings out of forked children and core dumps.
func advise(data []byte) {
	_ = unix.Madvise(data, unix.MADV_DONTFORK)
	_ = unix.Madvise(data, unix.MADV_DONTDUMP)
}
