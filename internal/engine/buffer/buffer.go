package buffer

import (
	"errors"
	"fmt"
	"os"
)

// ErrOutOfBounds is returned when a requested range falls outside the
// buffer. Offsets and lengths are never clamped.
var ErrOutOfBounds = errors.New("offset out of bounds")

// Buffer is a mutable byte sequence. Implementations must either apply an
// operation fully or fail without changing anything.
type Buffer interface {
	// Read copies length bytes starting at offset.
	Read(offset, length int64) ([]byte, error)

	// Overwrite replaces len(data) bytes at offset in place.
	Overwrite(offset int64, data []byte) error

	// Insert grows the buffer by len(data) bytes at offset. Inserting at
	// the current length appends.
	Insert(offset int64, data []byte) error

	// Erase removes length bytes starting at offset.
	Erase(offset, length int64) error

	// Length returns the current size in bytes.
	Length() int64
}

// MemBuffer is an in-memory Buffer.
type MemBuffer struct {
	data []byte
}

// NewMemBuffer creates a MemBuffer holding a copy of the given bytes.
func NewMemBuffer(data []byte) *MemBuffer {
	b := &MemBuffer{data: make([]byte, len(data))}
	copy(b.data, data)
	return b
}

// NewMemBufferFromFile loads a whole file into a new MemBuffer.
func NewMemBufferFromFile(path string) (*MemBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return &MemBuffer{data: data}, nil
}

// Read copies length bytes starting at offset.
func (b *MemBuffer) Read(offset, length int64) ([]byte, error) {
	if err := b.checkRange(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, b.data[offset:offset+length])
	return out, nil
}

// Overwrite replaces len(data) bytes at offset in place.
func (b *MemBuffer) Overwrite(offset int64, data []byte) error {
	if err := b.checkRange(offset, int64(len(data))); err != nil {
		return err
	}
	copy(b.data[offset:], data)
	return nil
}

// Insert grows the buffer by len(data) bytes at offset.
func (b *MemBuffer) Insert(offset int64, data []byte) error {
	if offset < 0 || offset > int64(len(b.data)) {
		return fmt.Errorf("insert at %d in %d byte buffer: %w", offset, len(b.data), ErrOutOfBounds)
	}
	b.data = append(b.data, make([]byte, len(data))...)
	copy(b.data[offset+int64(len(data)):], b.data[offset:])
	copy(b.data[offset:], data)
	return nil
}

// Erase removes length bytes starting at offset.
func (b *MemBuffer) Erase(offset, length int64) error {
	if err := b.checkRange(offset, length); err != nil {
		return err
	}
	b.data = append(b.data[:offset], b.data[offset+length:]...)
	return nil
}

// Length returns the current size in bytes.
func (b *MemBuffer) Length() int64 {
	return int64(len(b.data))
}

// Bytes returns a copy of the entire buffer contents.
func (b *MemBuffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// WriteFile writes the buffer contents to a file.
func (b *MemBuffer) WriteFile(path string) error {
	if err := os.WriteFile(path, b.data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (b *MemBuffer) checkRange(offset, length int64) error {
	if offset < 0 || length < 0 || offset+length > int64(len(b.data)) {
		return fmt.Errorf("range [%d, %d) in %d byte buffer: %w", offset, offset+length, len(b.data), ErrOutOfBounds)
	}
	return nil
}
