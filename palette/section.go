package palette

import (
	"fmt"
	"slices"

	"github.com/cqdetdev/bedrockdb/stream"
)

// EntryReader reads one palette entry from r. Block sections decode an NBT
// compound per entry; biome sections decode a 32-bit integer.
type EntryReader[T any] func(r *stream.Reader) (T, error)

// EntryWriter writes one palette entry to w.
type EntryWriter[T any] func(w *stream.Writer, v T) error

// Section is a decoded 16x16x16 palette-indexed section. Sections returned
// by Decode own their palette and indices.
type Section[T any] struct {
	// BitWidth is the number of bits per index. 0 means the section is
	// uniform: Indices is nil and every cell holds Palette[0].
	BitWidth int
	// Runtime is the low bit of the header byte. Disk data has it unset.
	Runtime bool
	Palette []T
	// Indices holds Size palette indices in Index order.
	Indices []uint16
}

// Uniform returns a section whose every cell holds v.
func Uniform[T any](v T) *Section[T] {
	return &Section[T]{Palette: []T{v}}
}

// NewSection returns a section over palette and indices with the smallest
// standard bit width. Every index must be within the palette.
func NewSection[T any](palette []T, indices []uint16) (*Section[T], error) {
	s := &Section[T]{BitWidth: BitWidthFor(len(palette)), Palette: palette, Indices: indices}
	if s.BitWidth == 0 {
		s.Indices = nil
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Section[T]) validate() error {
	if len(s.Palette) == 0 || len(s.Palette) > MaxEntries {
		return fmt.Errorf("palette of %d entries: %w", len(s.Palette), ErrInvalidSection)
	}
	if s.BitWidth < 0 || s.BitWidth > MaxBitWidth {
		return fmt.Errorf("bit width %d: %w", s.BitWidth, ErrInvalidSection)
	}
	if s.BitWidth == 0 {
		return nil
	}
	if len(s.Indices) != Size {
		return fmt.Errorf("%d indices: %w", len(s.Indices), ErrInvalidSection)
	}
	for i, v := range s.Indices {
		if int(v) >= len(s.Palette) {
			return fmt.Errorf("index %d at %d, palette of %d: %w", v, i, len(s.Palette), ErrInvalidSection)
		}
	}
	return nil
}

// IsUniform reports whether every cell holds the same palette entry
// without consulting indices.
func (s *Section[T]) IsUniform() bool {
	return s.BitWidth == 0
}

// Index returns the palette index of cell i.
func (s *Section[T]) Index(i int) uint16 {
	if s.Indices == nil {
		return 0
	}
	return s.Indices[i]
}

// AtIndex returns the value of cell i.
func (s *Section[T]) AtIndex(i int) T {
	return s.Palette[s.Index(i)]
}

// At returns the value at x, y, z, each in [0, 16).
func (s *Section[T]) At(x, y, z int) T {
	return s.AtIndex(Index(x, y, z))
}

// Cells returns all Size values in Index order.
func (s *Section[T]) Cells() []T {
	out := make([]T, Size)
	for i := range out {
		out[i] = s.AtIndex(i)
	}
	return out
}

// Clone returns a copy of s sharing palette values but not slices.
func (s *Section[T]) Clone() *Section[T] {
	return &Section[T]{
		BitWidth: s.BitWidth,
		Runtime:  s.Runtime,
		Palette:  slices.Clone(s.Palette),
		Indices:  slices.Clone(s.Indices),
	}
}

// Decode reads a section: a header byte holding the bit width in its upper
// seven bits, the packed indices, a 32-bit palette count and the palette
// entries. A uniform section carries no indices and no count, only its
// single entry.
//
// A malformed section fails with an error wrapping ErrInvalidSection or
// stream.ErrEndOfStream. On ErrIndexOutOfRange the whole section has still
// been consumed, so a caller reading consecutive sections may continue.
func Decode[T any](r *stream.Reader, read EntryReader[T]) (*Section[T], error) {
	header, err := r.Uint8()
	if err != nil {
		return nil, fmt.Errorf("read section header: %w", err)
	}
	s, err := DecodeBody(r, int(header>>1), read)
	if err != nil {
		return nil, err
	}
	s.Runtime = header&1 == 1
	return s, nil
}

// DecodeBody reads a section whose header byte has already been consumed.
func DecodeBody[T any](r *stream.Reader, bitWidth int, read EntryReader[T]) (*Section[T], error) {
	if bitWidth > MaxBitWidth {
		return nil, fmt.Errorf("section bit width %d: %w", bitWidth, ErrInvalidSection)
	}
	s := &Section[T]{BitWidth: bitWidth}
	if bitWidth == 0 {
		v, err := read(r)
		if err != nil {
			return nil, fmt.Errorf("read uniform entry: %w", err)
		}
		s.Palette = []T{v}
		return s, nil
	}
	packed, err := r.Buffer().Next(WordCount(bitWidth) * 4)
	if err != nil {
		return nil, fmt.Errorf("read %d-bit indices: %w", bitWidth, err)
	}
	raw, err := Unpack(packed, bitWidth)
	if err != nil {
		return nil, err
	}
	count, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("read palette count: %w", err)
	}
	if count == 0 || count > MaxEntries {
		return nil, fmt.Errorf("palette count %d: %w", count, ErrInvalidSection)
	}
	s.Palette = make([]T, count)
	for i := range s.Palette {
		if s.Palette[i], err = read(r); err != nil {
			return nil, fmt.Errorf("read palette entry %d: %w", i, err)
		}
	}
	s.Indices = make([]uint16, Size)
	for i, v := range raw {
		if v >= count {
			return nil, fmt.Errorf("index %d at %d, palette of %d: %w", v, i, count, ErrIndexOutOfRange)
		}
		s.Indices[i] = uint16(v)
	}
	return s, nil
}

// Encode writes s in the layout Decode reads.
func (s *Section[T]) Encode(w *stream.Writer, write EntryWriter[T]) error {
	if err := s.validate(); err != nil {
		return fmt.Errorf("encode section: %w", err)
	}
	header := byte(s.BitWidth << 1)
	if s.Runtime {
		header |= 1
	}
	if err := w.Uint8(header); err != nil {
		return err
	}
	if s.BitWidth == 0 {
		return write(w, s.Palette[0])
	}
	packed, err := Pack(s.Indices, s.BitWidth)
	if err != nil {
		return fmt.Errorf("encode section: %w", err)
	}
	if _, err := w.Write(packed); err != nil {
		return err
	}
	if err := w.Uint32(uint32(len(s.Palette))); err != nil {
		return err
	}
	for _, v := range s.Palette {
		if err := write(w, v); err != nil {
			return err
		}
	}
	return nil
}

// ReadInt32 is an EntryReader for biome palettes.
func ReadInt32(r *stream.Reader) (int32, error) { return r.Int32() }

// WriteInt32 is an EntryWriter for biome palettes.
func WriteInt32(w *stream.Writer, v int32) error { return w.Int32(v) }
