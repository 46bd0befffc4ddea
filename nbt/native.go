package nbt

import (
	"fmt"

	gnbt "github.com/sandertv/gophertunnel/minecraft/nbt"
)

// Unmarshal decodes the tree rooted at t into v, which may be a pointer to a
// struct with `nbt` field tags or to a map[string]any. t must be a compound.
func (t *Tag) Unmarshal(v any) error {
	if t.Type() != TypeCompound {
		return fmt.Errorf("unmarshal %v: %w", t.Type(), ErrNotContainer)
	}
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	if err := gnbt.UnmarshalEncoding(data, v, gnbt.LittleEndian); err != nil {
		return fmt.Errorf("unmarshal %q: %w", t.name, err)
	}
	return nil
}

// FromValue encodes a Go struct or map into a compound tag named name.
func FromValue(name string, v any) (*Tag, error) {
	data, err := gnbt.MarshalEncoding(v, gnbt.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	t, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	t.name = name
	return t, nil
}
