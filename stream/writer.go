package stream

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Writer encodes fixed-width primitives and length-prefixed strings into a
// Buffer in a fixed byte order.
type Writer struct {
	buf     *Buffer
	order   Engine
	scratch []byte
}

// NewWriter returns a Writer appending at the cursor of buf.
func NewWriter(buf *Buffer, e Engine) *Writer {
	return &Writer{buf: buf, order: e, scratch: make([]byte, 0, 8)}
}

// NewLittleEndianWriter returns a little-endian Writer over a new empty Buffer.
func NewLittleEndianWriter() *Writer {
	return NewWriter(NewBuffer(nil), LittleEndian)
}

// Buffer returns the underlying Buffer.
func (w *Writer) Buffer() *Buffer { return w.buf }

// Bytes returns the contents of the underlying Buffer.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Write writes p verbatim.
func (w *Writer) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *Writer) flush() error {
	_, err := w.buf.Write(w.scratch)
	w.scratch = w.scratch[:0]
	return err
}

func (w *Writer) Uint8(v uint8) error { return w.buf.WriteByte(v) }

func (w *Writer) Int8(v int8) error { return w.buf.WriteByte(byte(v)) }

func (w *Writer) Uint16(v uint16) error {
	w.scratch = w.order.AppendUint16(w.scratch, v)
	return w.flush()
}

func (w *Writer) Int16(v int16) error { return w.Uint16(uint16(v)) }

func (w *Writer) Uint32(v uint32) error {
	w.scratch = w.order.AppendUint32(w.scratch, v)
	return w.flush()
}

func (w *Writer) Int32(v int32) error { return w.Uint32(uint32(v)) }

func (w *Writer) Uint64(v uint64) error {
	w.scratch = w.order.AppendUint64(w.scratch, v)
	return w.flush()
}

func (w *Writer) Int64(v int64) error { return w.Uint64(uint64(v)) }

func (w *Writer) Float32(v float32) error { return w.Uint32(math.Float32bits(v)) }

func (w *Writer) Float64(v float64) error { return w.Uint64(math.Float64bits(v)) }

// String writes s prefixed with its unsigned 16-bit byte length. Strings
// longer than MaxStringLength bytes fail with ErrValueTooLarge and strings
// that are not valid UTF-8 with ErrInvalidData, since Reader.String would
// read them back as Latin-1.
func (w *Writer) String(s string) error {
	if len(s) > MaxStringLength {
		return fmt.Errorf("write string of %d bytes: %w", len(s), ErrValueTooLarge)
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("write string %q: not UTF-8: %w", s, ErrInvalidData)
	}
	if err := w.Uint16(uint16(len(s))); err != nil {
		return err
	}
	_, err := w.buf.Write([]byte(s))
	return err
}
