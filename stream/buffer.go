package stream

import (
	"fmt"
	"io"
)

// Buffer is a contiguous byte region with a single cursor shared by reads
// and writes. A Buffer is owned by one goroutine at a time.
type Buffer struct {
	data  []byte
	pos   int
	fixed bool
}

// NewBuffer returns a growable Buffer positioned at the start of b. The
// Buffer takes ownership of b.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// NewFixedBuffer returns a Buffer over b that never grows: writes past the
// end of b fail with ErrOutOfBounds.
func NewFixedBuffer(b []byte) *Buffer {
	return &Buffer{data: b, fixed: true}
}

// Bytes returns the full contents of the buffer, independent of the cursor.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the length of the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// Pos returns the cursor position.
func (b *Buffer) Pos() int { return b.pos }

// Remaining returns the number of bytes between the cursor and the end.
func (b *Buffer) Remaining() int {
	if b.pos >= len(b.data) {
		return 0
	}
	return len(b.data) - b.pos
}

// Seek moves the cursor. whence is one of io.SeekStart, io.SeekCurrent or
// io.SeekEnd. A target outside [0, Len()] fails with ErrOutOfBounds and
// leaves the cursor where it was.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(b.pos)
	case io.SeekEnd:
		base = int64(len(b.data))
	default:
		return int64(b.pos), fmt.Errorf("seek: invalid whence %d: %w", whence, ErrInvalidFormat)
	}
	target := base + offset
	if target < 0 || target > int64(len(b.data)) {
		return int64(b.pos), fmt.Errorf("seek to %d of %d: %w", target, len(b.data), ErrOutOfBounds)
	}
	b.pos = int(target)
	return target, nil
}

// Skip moves the cursor n bytes relative to its current position.
func (b *Buffer) Skip(n int) error {
	_, err := b.Seek(int64(n), io.SeekCurrent)
	return err
}

// Read copies up to len(p) bytes from the cursor into p. At the end of the
// buffer it returns 0, io.EOF.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}

// ReadByte reads a single byte.
func (b *Buffer) ReadByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	c := b.data[b.pos]
	b.pos++
	return c, nil
}

// Next returns a slice of the next n bytes and advances past them. The
// slice aliases the buffer. If fewer than n bytes remain, Next returns
// ErrEndOfStream and does not move the cursor.
func (b *Buffer) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("read %d bytes: %w", n, ErrInvalidFormat)
	}
	if n > b.Remaining() {
		return nil, fmt.Errorf("read %d bytes, %d remaining: %w", n, b.Remaining(), ErrEndOfStream)
	}
	s := b.data[b.pos : b.pos+n]
	b.pos += n
	return s, nil
}

// Write writes p at the cursor, overwriting existing bytes and extending the
// buffer when needed. If the cursor lies past the end, the gap is zero-filled.
func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		if b.fixed {
			return 0, fmt.Errorf("write %d bytes at %d of fixed buffer of %d: %w", len(p), b.pos, len(b.data), ErrOutOfBounds)
		}
		b.grow(end)
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

// WriteByte writes a single byte at the cursor.
func (b *Buffer) WriteByte(c byte) error {
	_, err := b.Write([]byte{c})
	return err
}

// Truncate sets the length of the buffer to n. Growing zero-fills. The
// cursor is not moved, so it may end up past the end; the next Write then
// zero-fills the gap.
func (b *Buffer) Truncate(n int) error {
	if n < 0 {
		return fmt.Errorf("truncate to %d: %w", n, ErrOutOfBounds)
	}
	if n > len(b.data) {
		if b.fixed {
			return fmt.Errorf("grow fixed buffer to %d: %w", n, ErrOutOfBounds)
		}
		b.grow(n)
		return nil
	}
	b.data = b.data[:n]
	return nil
}

// grow extends data to exactly n bytes, zeroing new space.
func (b *Buffer) grow(n int) {
	if n <= cap(b.data) {
		old := len(b.data)
		b.data = b.data[:n]
		clear(b.data[old:])
		return
	}
	c := 2 * cap(b.data)
	if c < n {
		c = n
	}
	data := make([]byte, n, c)
	copy(data, b.data)
	b.data = data
}
