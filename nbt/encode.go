package nbt

import (
	"fmt"
	"math"

	"github.com/cqdetdev/bedrockdb/stream"
)

// Encoder writes tags to a stream.Writer.
type Encoder struct {
	w *stream.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w *stream.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes t as a named tag. It is the exact inverse of
// Decoder.Decode.
func (e *Encoder) Encode(t *Tag) error {
	if t == nil {
		return fmt.Errorf("encode nil tag: %w", stream.ErrInvalidData)
	}
	if err := e.w.Uint8(byte(t.typ)); err != nil {
		return err
	}
	if t.typ == TypeEnd {
		return nil
	}
	if err := e.w.String(t.name); err != nil {
		return fmt.Errorf("encode %v name: %w", t.typ, err)
	}
	return e.payload(t)
}

func (e *Encoder) length(n int) error {
	if n > math.MaxInt32 {
		return fmt.Errorf("length %d: %w", n, stream.ErrValueTooLarge)
	}
	return e.w.Int32(int32(n))
}

func (e *Encoder) payload(t *Tag) error {
	w := e.w
	switch t.typ {
	case TypeByte:
		return w.Int8(int8(t.num))
	case TypeShort:
		return w.Int16(int16(t.num))
	case TypeInt:
		return w.Int32(int32(t.num))
	case TypeLong:
		return w.Int64(t.num)
	case TypeFloat:
		return w.Float32(float32(t.flt))
	case TypeDouble:
		return w.Float64(t.flt)
	case TypeString:
		if err := w.String(t.str); err != nil {
			return fmt.Errorf("encode %q: %w", t.Path(), err)
		}
		return nil
	case TypeByteArray:
		if err := e.length(len(t.bytes)); err != nil {
			return err
		}
		_, err := w.Write(t.bytes)
		return err
	case TypeIntArray:
		if err := e.length(len(t.ints)); err != nil {
			return err
		}
		for _, v := range t.ints {
			if err := w.Int32(v); err != nil {
				return err
			}
		}
		return nil
	case TypeLongArray:
		if err := e.length(len(t.longs)); err != nil {
			return err
		}
		for _, v := range t.longs {
			if err := w.Int64(v); err != nil {
				return err
			}
		}
		return nil
	case TypeList:
		if err := w.Uint8(byte(t.elem)); err != nil {
			return err
		}
		if err := e.length(len(t.children)); err != nil {
			return err
		}
		for _, c := range t.children {
			if err := e.payload(c); err != nil {
				return err
			}
		}
		return nil
	case TypeCompound:
		for _, c := range t.children {
			if err := e.Encode(c); err != nil {
				return err
			}
		}
		return w.Uint8(byte(TypeEnd))
	}
	return fmt.Errorf("encode %v: %w", t.typ, stream.ErrInvalidFormat)
}

// Marshal encodes t as a little-endian named tag.
func Marshal(t *Tag) ([]byte, error) {
	w := stream.NewLittleEndianWriter()
	if err := NewEncoder(w).Encode(t); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// MarshalAll encodes tags back to back, the inverse of UnmarshalAll.
func MarshalAll(tags ...*Tag) ([]byte, error) {
	w := stream.NewLittleEndianWriter()
	enc := NewEncoder(w)
	for _, t := range tags {
		if err := enc.Encode(t); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}
