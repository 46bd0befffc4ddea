package dbkey

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
)

// Dimension is the numeric id of a dimension as written in keys.
type Dimension int32

const (
	Overworld Dimension = iota
	Nether
	End
)

// Valid reports whether d is one of the three known dimensions.
func (d Dimension) Valid() bool {
	return d >= Overworld && d <= End
}

// Name returns the name used for d in village keys.
func (d Dimension) Name() string {
	switch d {
	case Overworld:
		return "Overworld"
	case Nether:
		return "Nether"
	case End:
		return "TheEnd"
	}
	return ""
}

func (d Dimension) String() string {
	if n := d.Name(); n != "" {
		return n
	}
	return fmt.Sprintf("Dimension(%d)", int32(d))
}

// DimensionByName returns the dimension with the village key name passed.
func DimensionByName(name string) (Dimension, bool) {
	for d := Overworld; d <= End; d++ {
		if d.Name() == name {
			return d, true
		}
	}
	return 0, false
}

// Range returns the block height range of d.
func (d Dimension) Range() cube.Range {
	switch d {
	case Nether:
		return cube.Range{0, 127}
	case End:
		return cube.Range{0, 255}
	}
	return cube.Range{-64, 319}
}

// SubChunkRange returns the lowest and highest vertical sub-chunk index
// of d, inclusive.
func (d Dimension) SubChunkRange() (lo, hi int8) {
	r := d.Range()
	return int8(r.Min() >> 4), int8(r.Max() >> 4)
}
