package dbkey

import (
	"encoding/binary"
	"slices"
	"strconv"
	"strings"
)

// Decode parses b into a Key. Named globals are matched first, then the
// prefixed families in a fixed order, then chunk record layouts. Input
// matching none of them decodes to Unrecognized holding a copy of b.
func Decode(b []byte) Key {
	if k, ok := decodeNamed(b); ok {
		return k
	}
	for _, dec := range prefixed {
		if k, ok := dec(b); ok {
			return k
		}
	}
	if k, ok := decodeSubChunk(b); ok {
		return k
	}
	return Unrecognized{Raw: slices.Clone(b)}
}

var prefixed = []func([]byte) (Key, bool){
	decodePlayer,
	decodeMap,
	decodeVillage,
	decodeStructure,
	decodeActor,
	decodeDigest,
	decodeRealms,
}

func decodeNamed(b []byte) (Key, bool) {
	for _, n := range NamedGlobals {
		if string(b) == n {
			return NamedGlobal{Name: n}, true
		}
	}
	return nil, false
}

func decodePlayer(b []byte) (Key, bool) {
	rest, ok := strings.CutPrefix(string(b), PlayerPrefix)
	if !ok || rest == "" {
		return nil, false
	}
	provider, id, split := splitLast(rest)
	if split && (provider == "" || id == "") {
		return nil, false
	}
	return Player{Provider: provider, ID: id}, true
}

func decodeMap(b []byte) (Key, bool) {
	rest, ok := strings.CutPrefix(string(b), MapPrefix)
	if !ok {
		return nil, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || strconv.FormatInt(id, 10) != rest {
		return nil, false
	}
	return Map{ID: id}, true
}

func decodeVillage(b []byte) (Key, bool) {
	rest, ok := strings.CutPrefix(string(b), VillagePrefix)
	if !ok {
		return nil, false
	}
	dimName, rest, ok := strings.Cut(rest, "_")
	if !ok {
		return nil, false
	}
	dim, ok := DimensionByName(dimName)
	if !ok {
		return nil, false
	}
	id, part, ok := splitLast(rest)
	if !ok || id == "" {
		return nil, false
	}
	switch part {
	case VillageDwellers, VillageInfo, VillagePlayers, VillagePOI:
		return Village{Dimension: dim, ID: id, Part: part}, true
	}
	return nil, false
}

func decodeStructure(b []byte) (Key, bool) {
	rest, ok := strings.CutPrefix(string(b), StructurePrefix)
	if !ok || rest == "" {
		return nil, false
	}
	return Structure{Name: rest}, true
}

func decodeActor(b []byte) (Key, bool) {
	if len(b) != len(ActorPrefix)+8 || string(b[:len(ActorPrefix)]) != ActorPrefix {
		return nil, false
	}
	var k ActorDigest
	copy(k.ID[:], b[len(ActorPrefix):])
	return k, true
}

func decodeDigest(b []byte) (Key, bool) {
	if len(b) != 12 && len(b) != 16 || string(b[:4]) != DigestPrefix {
		return nil, false
	}
	x, z, dim, ok := decodePosition(b[4:])
	if !ok {
		return nil, false
	}
	return DigestPointer{X: x, Z: z, Dimension: dim}, true
}

func decodeRealms(b []byte) (Key, bool) {
	rest, ok := strings.CutPrefix(string(b), RealmsStoriesPrefix)
	if !ok || rest == "" {
		return nil, false
	}
	return RealmsStories{ID: rest}, true
}

// decodePosition decodes 8 or 12 bytes of chunk position. An explicit
// dimension must be a known, non-default one.
func decodePosition(b []byte) (x, z int32, dim Dimension, ok bool) {
	x = int32(binary.LittleEndian.Uint32(b))
	z = int32(binary.LittleEndian.Uint32(b[4:]))
	if len(b) == 8 {
		return x, z, Overworld, true
	}
	dim = Dimension(int32(binary.LittleEndian.Uint32(b[8:])))
	if !dim.Valid() || dim == Overworld {
		return 0, 0, 0, false
	}
	return x, z, dim, true
}

// decodeSubChunk decodes the chunk record layouts of 9, 10, 13 and 14
// bytes. The vertical index is present exactly when the type is
// SubChunkPrefix.
func decodeSubChunk(b []byte) (Key, bool) {
	var posLen int
	switch len(b) {
	case 9, 10:
		posLen = 8
	case 13, 14:
		posLen = 12
	default:
		return nil, false
	}
	x, z, dim, ok := decodePosition(b[:posLen])
	if !ok {
		return nil, false
	}
	t := RecordType(b[posLen])
	if !t.Known() {
		return nil, false
	}
	hasIndex := len(b) == posLen+2
	if hasIndex != (t == SubChunkPrefix) {
		return nil, false
	}
	k := SubChunk{X: x, Z: z, Dimension: dim, Type: t}
	if hasIndex {
		k.Index = int8(b[posLen+1])
	}
	return k, true
}
