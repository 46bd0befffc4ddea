package chunk

import (
	"fmt"

	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/cqdetdev/bedrockdb/stream"
	"github.com/df-mc/dragonfly/server/block/cube"
)

// PendingTick is a scheduled block update.
type PendingTick struct {
	Pos   cube.Pos
	Time  int64
	Block Block
}

// PendingTicks is the decoded pending tick record of a chunk.
type PendingTicks struct {
	CurrentTick int32
	Ticks       []PendingTick
}

// DecodePendingTicks reads a pending tick compound holding an Int
// "currentTick" and a List "tickList" of tick compounds. Entries missing a
// "blockState" compound, a Long "time" or Int "x", "y" and "z" are skipped.
func DecodePendingTicks(t *nbt.Tag) (*PendingTicks, error) {
	if t.Type() != nbt.TypeCompound {
		return nil, fmt.Errorf("pending ticks are %v: %w", t.Type(), stream.ErrInvalidData)
	}
	p := &PendingTicks{}
	if c := t.Get("currentTick"); c.Type() == nbt.TypeInt {
		v, _ := c.Int()
		p.CurrentTick = int32(v)
	}
	for _, e := range t.Get("tickList").Children() {
		if tick, ok := pendingTick(e); ok {
			p.Ticks = append(p.Ticks, tick)
		}
	}
	return p, nil
}

func pendingTick(e *nbt.Tag) (PendingTick, bool) {
	if e.Type() != nbt.TypeCompound {
		return PendingTick{}, false
	}
	b, err := BlockFromTag(e.Get("blockState"))
	if err != nil {
		return PendingTick{}, false
	}
	time := e.Get("time")
	if time.Type() != nbt.TypeLong {
		return PendingTick{}, false
	}
	var pos cube.Pos
	for i, name := range [3]string{"x", "y", "z"} {
		c := e.Get(name)
		if c.Type() != nbt.TypeInt {
			return PendingTick{}, false
		}
		v, _ := c.Int()
		pos[i] = int(v)
	}
	tv, _ := time.Int()
	return PendingTick{Pos: pos, Time: tv, Block: b}, true
}

// Tag returns p as a pending tick compound.
func (p *PendingTicks) Tag() *nbt.Tag {
	list := nbt.MustList("tickList", nbt.TypeCompound)
	for _, t := range p.Ticks {
		e := nbt.MustCompound("",
			t.Block.namedTag("blockState"),
			nbt.NewLong("time", t.Time),
			nbt.NewInt("x", int32(t.Pos[0])),
			nbt.NewInt("y", int32(t.Pos[1])),
			nbt.NewInt("z", int32(t.Pos[2])),
		)
		_ = list.Append(e)
	}
	return nbt.MustCompound("", nbt.NewInt("currentTick", p.CurrentTick), list)
}
