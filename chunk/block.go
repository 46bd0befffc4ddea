package chunk

import (
	"fmt"

	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/cqdetdev/bedrockdb/stream"
)

// Block is a block palette entry: a namespaced name, its state properties
// and the block data version it was written with.
type Block struct {
	Name string
	// States is a compound of state properties. It is never nil for blocks
	// returned by this package.
	States  *nbt.Tag
	Version int32
}

// AirName is the name of the empty block.
const AirName = "minecraft:air"

// Air returns the air block.
func Air() Block {
	return Block{Name: AirName, States: nbt.MustCompound("states")}
}

// IsAir reports whether b is air.
func (b Block) IsAir() bool {
	return b.Name == AirName
}

// BlockFromTag converts a palette compound into a Block. The compound must
// hold a String "name". A missing "states" compound is empty and a missing
// "version" is 0.
func BlockFromTag(t *nbt.Tag) (Block, error) {
	if t.Type() != nbt.TypeCompound {
		return Block{}, fmt.Errorf("block entry is %v: %w", t.Type(), stream.ErrInvalidData)
	}
	name, ok := t.Get("name").Text()
	if !ok {
		return Block{}, fmt.Errorf("block entry without name: %w", stream.ErrInvalidData)
	}
	b := Block{Name: name}
	if s := t.Get("states"); s.Type() == nbt.TypeCompound {
		b.States = s.Clone()
	} else {
		b.States = nbt.MustCompound("states")
	}
	if v, ok := t.Get("version").Int(); ok {
		b.Version = int32(v)
	}
	return b, nil
}

// Tag returns the palette compound of b.
func (b Block) Tag() *nbt.Tag {
	return b.namedTag("")
}

func (b Block) namedTag(name string) *nbt.Tag {
	var props []*nbt.Tag
	for _, c := range b.States.Children() {
		props = append(props, c.Clone())
	}
	return nbt.MustCompound(name,
		nbt.NewString("name", b.Name),
		nbt.MustCompound("states", props...),
		nbt.NewInt("version", b.Version),
	)
}

// StateMap returns the state properties as Go values.
func (b Block) StateMap() (map[string]any, error) {
	m := map[string]any{}
	if b.States == nil || b.States.Len() == 0 {
		return m, nil
	}
	if err := b.States.Unmarshal(&m); err != nil {
		return nil, fmt.Errorf("block %s states: %w", b.Name, err)
	}
	return m, nil
}

// Equal reports whether b and o have the same name, states and version.
func (b Block) Equal(o Block) bool {
	if b.Name != o.Name || b.Version != o.Version {
		return false
	}
	return b.States.Len() == o.States.Len() && (b.States.Len() == 0 || b.States.Equal(o.States))
}

func (b Block) String() string {
	if b.States.Len() == 0 {
		return b.Name
	}
	return b.Name + b.States.String()
}

func readBlock(r *stream.Reader) (Block, error) {
	t, err := nbt.NewDecoder(r).Decode()
	if err != nil {
		return Block{}, err
	}
	return BlockFromTag(t)
}

func writeBlock(w *stream.Writer, b Block) error {
	return nbt.NewEncoder(w).Encode(b.Tag())
}
