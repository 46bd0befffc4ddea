package bedrockdb

import (
	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/df-mc/dragonfly/server/world"
)

// DimensionOf returns the database dimension of dim. Unknown dimensions map
// to the overworld.
func DimensionOf(dim world.Dimension) dbkey.Dimension {
	if dim == nil {
		return dbkey.Overworld
	}
	id, ok := world.DimensionID(dim)
	if !ok {
		return dbkey.Overworld
	}
	return dbkey.Dimension(id)
}

// WorldDimension returns the world.Dimension of dim.
func WorldDimension(dim dbkey.Dimension) (world.Dimension, bool) {
	return world.DimensionByID(int(dim))
}
