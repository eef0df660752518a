//go:build linux

// Package shm owns the anonymous shared-memory regions handed to the
// compositor for screencopy frames.
package shm

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	ErrNotMapped  = errors.New("shm buffer is not mapped")
	ErrOutOfRange = errors.New("shm buffer access out of range")
	ErrClosed     = errors.New("shm buffer is closed")
)

// Buffer is a memfd plus an optional read-only mapping of it. The mapping
// never outlives the descriptor: Close unmaps first.
type Buffer struct {
	fd   int
	size int
	data []byte

	closeOnce sync.Once
	closeErr  error
}

// New allocates a sealable memfd of size bytes.
func New(name string, size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid size %d", size)
	}

	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("shm: memfd_create: %w", err)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: ftruncate %d: %w", size, err)
	}

	// the compositor must not be able to shrink the region under our mapping
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, unix.F_SEAL_SHRINK); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: seal: %w", err)
	}

	return &Buffer{fd: fd, size: size}, nil
}

func (b *Buffer) Fd() int {
	return b.fd
}

func (b *Buffer) Size() int {
	return b.size
}

// Map maps the whole region read-only. Calling it again is a no-op.
func (b *Buffer) Map() error {
	if b.fd < 0 {
		return ErrClosed
	}
	if b.data != nil {
		return nil
	}
	data, err := unix.Mmap(b.fd, 0, b.size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("shm: mmap: %w", err)
	}
	b.data = data
	return nil
}

// Bytes returns a view of the first n mapped bytes.
func (b *Buffer) Bytes(n int) ([]byte, error) {
	if b.data == nil {
		return nil, ErrNotMapped
	}
	if n < 0 || n > len(b.data) {
		return nil, fmt.Errorf("%w: want %d of %d bytes", ErrOutOfRange, n, len(b.data))
	}
	return b.data[:n:n], nil
}

// Close unmaps the region and closes the descriptor.
func (b *Buffer) Close() error {
	b.closeOnce.Do(func() {
		var unmapErr error
		if b.data != nil {
			unmapErr = unix.Munmap(b.data)
			b.data = nil
		}
		closeErr := unix.Close(b.fd)
		b.fd = -1
		b.closeErr = errors.Join(unmapErr, closeErr)
	})
	return b.closeErr
}
