// Package pool resolves the shared memory regions that back constant
// operands and request buffers. A pool is either a file mapped into the
// process or an anonymous in-process region; either way it presents a flat
// byte slice with bounds-checked access.
package pool

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/flintml/flint/model"
)

// Pool errors.
var (
	ErrBounds    = errors.New("region outside pool bounds")
	ErrEmptyPool = errors.New("pool has no backing size or path")
)

// RunTimePool is one mapped shared memory region.
type RunTimePool struct {
	buffer []byte
	mapped bool // file-backed mapping, needs msync/munmap
}

// Map opens one pool. A pool with a path is the mapped contents of that
// file (read-write, shared); otherwise an anonymous zeroed region of the
// declared size.
func Map(spec model.Pool) (*RunTimePool, error) {
	if spec.Path == "" {
		if spec.Size == 0 {
			return nil, ErrEmptyPool
		}
		return &RunTimePool{buffer: make([]byte, spec.Size)}, nil
	}
	f, err := os.OpenFile(spec.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pool: %w", err)
	}
	size := info.Size()
	if spec.Size != 0 && int64(spec.Size) < size {
		size = int64(spec.Size)
	}
	if size == 0 {
		return nil, ErrEmptyPool
	}
	buf, err := unix.Mmap(int(f.Fd()), 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap pool: %w", err)
	}
	return &RunTimePool{buffer: buf, mapped: true}, nil
}

// MapAll opens every pool in order; on failure the already-opened pools
// are closed.
func MapAll(specs []model.Pool) ([]*RunTimePool, error) {
	pools := make([]*RunTimePool, 0, len(specs))
	for i, spec := range specs {
		p, err := Map(spec)
		if err != nil {
			for _, opened := range pools {
				_ = opened.Close()
			}
			return nil, fmt.Errorf("pool %d: %w", i, err)
		}
		pools = append(pools, p)
	}
	return pools, nil
}

// Size returns the pool's byte length.
func (p *RunTimePool) Size() uint32 {
	return uint32(len(p.buffer))
}

// DataAt returns the sub-slice [offset, offset+length), bounds-checked.
func (p *RunTimePool) DataAt(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(p.buffer)) {
		return nil, fmt.Errorf("offset %d length %d in pool of %d: %w",
			offset, length, len(p.buffer), ErrBounds)
	}
	return p.buffer[offset:end:end], nil
}

// Flush pushes written output data back to the pool's backing store.
// Anonymous pools have nothing to sync.
func (p *RunTimePool) Flush() error {
	if !p.mapped {
		return nil
	}
	if err := unix.Msync(p.buffer, unix.MS_SYNC); err != nil {
		return fmt.Errorf("msync pool: %w", err)
	}
	return nil
}

// Close releases the mapping. The pool must not be used afterwards.
func (p *RunTimePool) Close() error {
	if !p.mapped {
		p.buffer = nil
		return nil
	}
	buf := p.buffer
	p.buffer = nil
	p.mapped = false
	if err := unix.Munmap(buf); err != nil {
		return fmt.Errorf("munmap pool: %w", err)
	}
	return nil
}
