package stream

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// MaxStringLength is the longest string that fits the 2-byte length prefix.
const MaxStringLength = math.MaxUint16

// Reader decodes fixed-width primitives and length-prefixed strings from a
// Buffer in a fixed byte order. Every fixed-width read either consumes the
// whole value or fails with ErrEndOfStream without moving the cursor.
type Reader struct {
	buf   *Buffer
	order Engine
}

// NewReader returns a Reader over buf decoding values in byte order e.
func NewReader(buf *Buffer, e Engine) *Reader {
	return &Reader{buf: buf, order: e}
}

// NewLittleEndianReader returns a little-endian Reader over data.
func NewLittleEndianReader(data []byte) *Reader {
	return NewReader(NewBuffer(data), LittleEndian)
}

// Buffer returns the underlying Buffer.
func (r *Reader) Buffer() *Buffer { return r.buf }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return r.buf.Remaining() }

// Bytes reads exactly n bytes. The returned slice is a copy.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.buf.Next(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	return r.buf.Skip(n)
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.buf.Next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.buf.Next(2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.buf.Next(4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.buf.Next(8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// String reads a string prefixed with its unsigned 16-bit byte length. Bytes
// that are not valid UTF-8 are decoded as Latin-1, one rune per byte, so
// decoding never fails on complete input.
func (r *Reader) String() (string, error) {
	n, err := r.Uint16()
	if err != nil {
		return "", err
	}
	b, err := r.buf.Next(int(n))
	if err != nil {
		r.buf.pos -= 2
		return "", fmt.Errorf("read string of %d bytes: %w", n, err)
	}
	if utf8.Valid(b) {
		return string(b), nil
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), nil
}

// SkipString advances past a length-prefixed string.
func (r *Reader) SkipString() error {
	n, err := r.Uint16()
	if err != nil {
		return err
	}
	if _, err := r.buf.Next(int(n)); err != nil {
		r.buf.pos -= 2
		return err
	}
	return nil
}
