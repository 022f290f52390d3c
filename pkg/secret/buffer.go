package secret

import (
	"errors"
	"fmt"
	"golang.org/x/sys/unix"
	"sync"
	"unicode/utf8"
)

var (
	// ErrTooLong is returned when a write would exceed the capacity of the buffer.
	// The buffer is left unchanged.
	ErrTooLong = errors.New("secret: value exceeds buffer capacity")

	// ErrClosed is returned when writing to a closed buffer.
	ErrClosed = errors.New("secret: buffer is closed")
)

// Buffer is a fixed-capacity, variable-length secret.
// It is safe to call Buffer's methods concurrently, but slices returned by Bytes are only valid
// until the next mutation.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	length int
	closed bool
}

// New allocates a zeroed buffer that can hold up to capacity bytes.
// The caller must Close the buffer.
func New(capacity int) (*Buffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("secret: capacity must be positive, got %d", capacity)
	}

	data, err := unix.Mmap(
		-1,
		0,
		capacity,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS,
	)
	if err != nil {
		return nil, fmt.Errorf("secret: mmap failed: %w", err)
	}

	if err := unix.Mlock(data); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("secret: mlock failed: %w", err)
	}

	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		_ = unix.Munlock(data)
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("secret: madvise(MADV_DONTDUMP) failed: %w", err)
	}

	return &Buffer{data: data}, nil
}

// Set replaces the contents with value.
// The caller keeps ownership of value and is responsible for wiping it.
func (b *Buffer) Set(value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if len(value) > len(b.data) {
		return ErrTooLong
	}

	n := copy(b.data, value)
	zero(b.data[n:b.length])
	b.length = n

	return nil
}

// AppendRunes appends the UTF-8 encoding of runes.
// Either all runes are appended or, on ErrTooLong, none are.
func (b *Buffer) AppendRunes(runes []rune) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	size := 0
	for _, r := range runes {
		n := utf8.RuneLen(r)
		if n < 0 {
			n = utf8.RuneLen(utf8.RuneError)
		}
		size += n
	}
	if b.length+size > len(b.data) {
		return ErrTooLong
	}

	for _, r := range runes {
		b.length += utf8.EncodeRune(b.data[b.length:], r)
	}

	return nil
}

// Backspace removes the last rune. It is a no-op on an empty or closed buffer.
func (b *Buffer) Backspace() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed || b.length == 0 {
		return
	}

	_, size := utf8.DecodeLastRune(b.data[:b.length])
	zero(b.data[b.length-size : b.length])
	b.length -= size
}

// Reset zeroes the contents and sets the length to 0.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	zero(b.data[:b.length])
	b.length = 0
}

// Bytes returns the contents. The slice points into the locked region, do not retain it.
// Panics if the buffer has been closed.
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		panic("secret: read from closed buffer")
	}

	return b.data[:b.length]
}

// Len returns the length of the contents in bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.length
}

// RuneCount returns the number of runes in the contents, used for masked rendering.
func (b *Buffer) RuneCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	return utf8.RuneCount(b.data[:b.length])
}

// Cap returns the capacity in bytes.
func (b *Buffer) Cap() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.data)
}

// Clone copies the contents into a newly allocated buffer of the same capacity.
// Later changes to b do not affect the clone.
func (b *Buffer) Clone() (*Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	clone, err := New(len(b.data))
	if err != nil {
		return nil, err
	}

	clone.length = copy(clone.data, b.data[:b.length])

	return clone, nil
}

// Close zeroes the memory, unlocks and unmaps it. Close is idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.length = 0

	zero(b.data)

	var err error
	if unlockErr := unix.Munlock(b.data); unlockErr != nil {
		err = errors.Join(err, fmt.Errorf("secret: munlock failed: %w", unlockErr))
	}
	if unmapErr := unix.Munmap(b.data); unmapErr != nil {
		err = errors.Join(err, fmt.Errorf("secret: munmap failed: %w", unmapErr))
	}
	b.data = nil

	return err
}

// Zero overwrites data with zeros. Use it for heap copies that had to be made at API boundaries.
func Zero(data []byte) {
	zero(data)
}

func zero(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
