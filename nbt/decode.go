package nbt

import (
	"fmt"

	"github.com/cqdetdev/bedrockdb/stream"
)

// Decoder reads tags from a stream.Reader. A Decoder shares the reader's
// cursor, so it can be interleaved with other decoders on the same input.
type Decoder struct {
	r     *stream.Reader
	depth int
}

// MaxDepth is the deepest nesting of lists and compounds a Decoder accepts.
const MaxDepth = 512

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r *stream.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads one named tag: its type byte, its name (absent for End) and
// its payload. Truncated input fails with stream.ErrEndOfStream and an
// unknown type byte with stream.ErrInvalidFormat.
func (d *Decoder) Decode() (*Tag, error) {
	b, err := d.r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("read tag type: %w", err)
	}
	typ := Type(b)
	if typ == TypeEnd {
		return NewEnd(), nil
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("read tag type %d: %w", b, stream.ErrInvalidFormat)
	}
	name, err := d.r.String()
	if err != nil {
		return nil, fmt.Errorf("read %v name: %w", typ, err)
	}
	t := &Tag{typ: typ, name: name}
	if err := d.payload(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeAll reads consecutive named tags until the input is exhausted.
func (d *Decoder) DecodeAll() ([]*Tag, error) {
	var tags []*Tag
	for d.r.Remaining() > 0 {
		t, err := d.Decode()
		if err != nil {
			return tags, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// length reads a signed 32-bit count and checks that at least size bytes
// per element remain.
func (d *Decoder) length(what string, size int) (int, error) {
	n, err := d.r.Int32()
	if err != nil {
		return 0, fmt.Errorf("read %s length: %w", what, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("read %s length %d: %w", what, n, stream.ErrInvalidFormat)
	}
	if int64(n)*int64(size) > int64(d.r.Remaining()) {
		return 0, fmt.Errorf("read %s of %d elements, %d bytes remaining: %w", what, n, d.r.Remaining(), stream.ErrEndOfStream)
	}
	return int(n), nil
}

func (d *Decoder) payload(t *Tag) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("decode %v %q: %w", t.typ, t.name, err)
		}
	}()
	r := d.r
	switch t.typ {
	case TypeByte:
		v, err := r.Int8()
		t.num = int64(v)
		return err
	case TypeShort:
		v, err := r.Int16()
		t.num = int64(v)
		return err
	case TypeInt:
		v, err := r.Int32()
		t.num = int64(v)
		return err
	case TypeLong:
		t.num, err = r.Int64()
		return err
	case TypeFloat:
		v, err := r.Float32()
		t.flt = float64(v)
		return err
	case TypeDouble:
		t.flt, err = r.Float64()
		return err
	case TypeString:
		t.str, err = r.String()
		return err
	case TypeByteArray:
		n, err := d.length("byte array", 1)
		if err != nil {
			return err
		}
		t.bytes, err = r.Bytes(n)
		return err
	case TypeIntArray:
		n, err := d.length("int array", 4)
		if err != nil {
			return err
		}
		t.ints = make([]int32, n)
		for i := range t.ints {
			if t.ints[i], err = r.Int32(); err != nil {
				return err
			}
		}
		return nil
	case TypeLongArray:
		n, err := d.length("long array", 8)
		if err != nil {
			return err
		}
		t.longs = make([]int64, n)
		for i := range t.longs {
			if t.longs[i], err = r.Int64(); err != nil {
				return err
			}
		}
		return nil
	case TypeList, TypeCompound:
		d.depth++
		defer func() { d.depth-- }()
		if d.depth > MaxDepth {
			return fmt.Errorf("nesting deeper than %d: %w", MaxDepth, stream.ErrInvalidFormat)
		}
		if t.typ == TypeList {
			return d.list(t)
		}
		return d.compound(t)
	}
	return stream.ErrInvalidFormat
}

func (d *Decoder) list(t *Tag) error {
	b, err := d.r.Uint8()
	if err != nil {
		return fmt.Errorf("read element type: %w", err)
	}
	t.elem = Type(b)
	if !t.elem.Valid() {
		return fmt.Errorf("element type %d: %w", b, stream.ErrInvalidFormat)
	}
	n, err := d.length("list", 0)
	if err != nil {
		return err
	}
	if n > 0 && t.elem == TypeEnd {
		return fmt.Errorf("list of %d TAG_End elements: %w", n, stream.ErrInvalidFormat)
	}
	t.children = make([]*Tag, 0, min(n, d.r.Remaining()))
	for i := 0; i < n; i++ {
		c := &Tag{typ: t.elem, parent: t}
		if err := d.payload(c); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		t.children = append(t.children, c)
	}
	return nil
}

func (d *Decoder) compound(t *Tag) error {
	t.index = make(map[string]int)
	for {
		b, err := d.r.Uint8()
		if err != nil {
			return fmt.Errorf("read child type: %w", err)
		}
		typ := Type(b)
		if typ == TypeEnd {
			return nil
		}
		if !typ.Valid() {
			return fmt.Errorf("child type %d: %w", b, stream.ErrInvalidFormat)
		}
		name, err := d.r.String()
		if err != nil {
			return fmt.Errorf("read child name: %w", err)
		}
		c := &Tag{typ: typ, name: name}
		if err := d.payload(c); err != nil {
			return err
		}
		// A repeated name replaces the earlier child.
		if err := t.Put(c); err != nil {
			return err
		}
	}
}

// Unmarshal decodes one little-endian named tag from data. Bytes after the
// tag are ignored.
func Unmarshal(data []byte) (*Tag, error) {
	return NewDecoder(stream.NewLittleEndianReader(data)).Decode()
}

// UnmarshalAll decodes consecutive little-endian named tags until data is
// exhausted, as stored in block entity and entity records.
func UnmarshalAll(data []byte) ([]*Tag, error) {
	return NewDecoder(stream.NewLittleEndianReader(data)).DecodeAll()
}
