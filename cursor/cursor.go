// Package cursor provides a byte cursor over an immutable buffer, with the
// fixed-width and TAR field readers used by the container packages.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOutOfData is returned when a read would run past the end of the buffer.
var ErrOutOfData = errors.New("cursor: out of data")

// Cursor reads sequentially from a byte slice. A failed read leaves the
// offset where it was.
type Cursor struct {
	data   []byte
	offset int
}

// New returns a cursor positioned at the start of data.
func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the current read position.
func (c *Cursor) Offset() int { return c.offset }

// SetOffset moves the read position. It must stay within 0..Len().
func (c *Cursor) SetOffset(offset int) error {
	if offset < 0 || offset > len(c.data) {
		return fmt.Errorf("%w: offset %d outside 0..%d", ErrOutOfData, offset, len(c.data))
	}
	c.offset = offset
	return nil
}

// Len returns the total size of the underlying buffer.
func (c *Cursor) Len() int { return len(c.data) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.data) - c.offset }

// IsFinished reports whether every byte has been consumed.
func (c *Cursor) IsFinished() bool { return c.offset >= len(c.data) }

func (c *Cursor) need(n int) error {
	if n < 0 || n > c.Remaining() {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfData, n, c.offset, c.Remaining())
	}
	return nil
}

// Byte reads one byte.
func (c *Cursor) Byte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.data[c.offset]
	c.offset++
	return b, nil
}

// Uint16 reads a little-endian 16-bit integer.
func (c *Cursor) Uint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.offset:])
	c.offset += 2
	return v, nil
}

// Uint32 reads a little-endian 32-bit integer.
func (c *Cursor) Uint32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.offset:])
	c.offset += 4
	return v, nil
}

// Uint64 reads a little-endian 64-bit integer.
func (c *Cursor) Uint64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.data[c.offset:])
	c.offset += 8
	return v, nil
}

// Bytes reads count bytes and returns a copy of them.
func (c *Cursor) Bytes(count int) ([]byte, error) {
	if err := c.need(count); err != nil {
		return nil, err
	}
	out := make([]byte, count)
	copy(out, c.data[c.offset:c.offset+count])
	c.offset += count
	return out, nil
}

// Peek returns up to count bytes without advancing. The returned slice
// aliases the buffer and must not be modified or retained.
func (c *Cursor) Peek(count int) []byte {
	end := c.offset + count
	if count < 0 || end > len(c.data) {
		end = len(c.data)
	}
	return c.data[c.offset:end]
}

// Skip advances the offset by count bytes.
func (c *Cursor) Skip(count int) error {
	if err := c.need(count); err != nil {
		return err
	}
	c.offset += count
	return nil
}

// Rest returns the unread bytes without advancing. The slice aliases the
// buffer.
func (c *Cursor) Rest() []byte { return c.data[c.offset:] }

// Slice returns data[from:to] of the underlying buffer without copying.
func (c *Cursor) Slice(from, to int) []byte { return c.data[from:to] }
