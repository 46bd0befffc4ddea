// Package dbkey encodes and decodes the keys of a Bedrock world database.
// Every key decodes to exactly one Key variant; keys that match no known
// layout decode to Unrecognized, so decoding never fails. Encoding a
// recognised Key is the exact inverse of decoding it.
package dbkey

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Key is a decoded database key. The concrete type is one of SubChunk,
// NamedGlobal, Player, Map, Village, Structure, ActorDigest, DigestPointer,
// RealmsStories or Unrecognized.
type Key interface {
	// Bytes returns the canonical encoding of the key.
	Bytes() []byte
	key()
}

// Key prefixes.
const (
	PlayerPrefix        = "player_"
	MapPrefix           = "map_"
	VillagePrefix       = "VILLAGE_"
	StructurePrefix     = "structuretemplate_"
	ActorPrefix         = "actorprefix"
	DigestPrefix        = "digp"
	RealmsStoriesPrefix = "RealmsStoriesData_"
)

// ErrInvalidKey is returned by Validate for a key whose encoding decodes to
// a different key.
var ErrInvalidKey = errors.New("invalid key")

// Validate checks that k encodes to bytes that decode back to k. Fields
// outside the layout of a key, such as an unknown dimension or an underscore
// in a player id, fail with ErrInvalidKey.
func Validate(k Key) error {
	if k == nil {
		return fmt.Errorf("nil key: %w", ErrInvalidKey)
	}
	if u, ok := k.(Unrecognized); ok {
		if d := Decode(u.Raw); !isUnrecognized(d) {
			return fmt.Errorf("%s decodes as %s: %w", String(k), String(d), ErrInvalidKey)
		}
		return nil
	}
	if d := Decode(k.Bytes()); d != k {
		return fmt.Errorf("%s decodes as %s: %w", String(k), String(d), ErrInvalidKey)
	}
	return nil
}

func isUnrecognized(k Key) bool {
	_, ok := k.(Unrecognized)
	return ok
}

// SubChunk addresses one record of a chunk: x and z chunk coordinates, the
// dimension, the record type and, for SubChunkPrefix records only, the
// vertical sub-chunk index. Dimension must be valid and Type known for the
// key to decode back.
type SubChunk struct {
	X, Z      int32
	Dimension Dimension
	Type      RecordType
	// Index is the vertical index. It is only encoded for SubChunkPrefix.
	Index int8
}

// ChunkRecord returns the key of a record of type t of the chunk at x, z.
func ChunkRecord(x, z int32, dim Dimension, t RecordType) SubChunk {
	return SubChunk{X: x, Z: z, Dimension: dim, Type: t}
}

// Terrain returns the key of the sub-chunk at vertical index y.
func Terrain(x, z int32, dim Dimension, y int8) SubChunk {
	return SubChunk{X: x, Z: z, Dimension: dim, Type: SubChunkPrefix, Index: y}
}

// ChunkPrefix returns the bytes shared by all record keys of a chunk.
func ChunkPrefix(x, z int32, dim Dimension) []byte {
	b := make([]byte, 8, 14)
	binary.LittleEndian.PutUint32(b, uint32(x))
	binary.LittleEndian.PutUint32(b[4:], uint32(z))
	if dim != Overworld {
		b = binary.LittleEndian.AppendUint32(b, uint32(dim))
	}
	return b
}

func (k SubChunk) Bytes() []byte {
	b := append(ChunkPrefix(k.X, k.Z, k.Dimension), byte(k.Type))
	if k.Type == SubChunkPrefix {
		b = append(b, byte(k.Index))
	}
	return b
}

// NamedGlobal is one of a fixed set of world-wide records.
type NamedGlobal struct {
	Name string
}

// Named global keys.
const (
	AutonomousEntities           = "AutonomousEntities"
	BiomeData                    = "BiomeData"
	Dimension0                   = "dimension0"
	LevelChunkMetaDataDictionary = "LevelChunkMetaDataDictionary"
	MobEvents                    = "mobevents"
	NetherGlobal                 = "Nether"
	TheEndGlobal                 = "TheEnd"
	OverworldGlobal              = "Overworld"
	Portals                      = "portals"
	SchedulerWT                  = "schedulerWT"
	Scoreboard                   = "scoreboard"
	LocalPlayer                  = "~local_player"
	FlatWorldLayers              = "game_flatworldlayers"
	MVillages                    = "mVillages"
)

// NamedGlobals lists every named global key.
var NamedGlobals = []string{
	AutonomousEntities, BiomeData, Dimension0, LevelChunkMetaDataDictionary,
	MobEvents, NetherGlobal, TheEndGlobal, OverworldGlobal, Portals,
	SchedulerWT, Scoreboard, LocalPlayer, FlatWorldLayers, MVillages,
}

func (k NamedGlobal) Bytes() []byte { return []byte(k.Name) }

// Player is the record of a player. Provider is empty for keys of the
// form player_<id> and set for player_<provider>_<id>. ID must be non-empty
// and free of underscores for the key to decode back.
type Player struct {
	Provider string
	ID       string
}

func (k Player) Bytes() []byte {
	if k.Provider == "" {
		return []byte(PlayerPrefix + k.ID)
	}
	return []byte(PlayerPrefix + k.Provider + "_" + k.ID)
}

// UUID parses the player id as a UUID.
func (k Player) UUID() (uuid.UUID, error) {
	return uuid.Parse(k.ID)
}

// Map is the record of a map item, keyed by its decimal map id.
type Map struct {
	ID int64
}

func (k Map) Bytes() []byte { return []byte(MapPrefix + strconv.FormatInt(k.ID, 10)) }

// Village parts.
const (
	VillageDwellers = "DWELLERS"
	VillageInfo     = "INFO"
	VillagePlayers  = "PLAYERS"
	VillagePOI      = "POI"
)

// Village is one part of a village record.
type Village struct {
	Dimension Dimension
	ID        string
	Part      string
}

func (k Village) Bytes() []byte {
	return []byte(VillagePrefix + k.Dimension.Name() + "_" + k.ID + "_" + k.Part)
}

// UUID parses the village id as a UUID.
func (k Village) UUID() (uuid.UUID, error) {
	return uuid.Parse(k.ID)
}

// Structure is a saved structure template, named with its namespace, such
// as "mystructure:house".
type Structure struct {
	Name string
}

func (k Structure) Bytes() []byte { return []byte(StructurePrefix + k.Name) }

// ActorDigest is the record of one actor, addressed by the 8-byte id
// listed in a DigestPointer record.
type ActorDigest struct {
	ID [8]byte
}

func (k ActorDigest) Bytes() []byte { return append([]byte(ActorPrefix), k.ID[:]...) }

// DigestPointer is the record listing the actor ids of a chunk.
type DigestPointer struct {
	X, Z      int32
	Dimension Dimension
}

func (k DigestPointer) Bytes() []byte {
	return append([]byte(DigestPrefix), ChunkPrefix(k.X, k.Z, k.Dimension)...)
}

// RealmsStories is a Realms stories record.
type RealmsStories struct {
	ID string
}

func (k RealmsStories) Bytes() []byte { return []byte(RealmsStoriesPrefix + k.ID) }

// Unrecognized holds a key that matches no known layout.
type Unrecognized struct {
	Raw []byte
}

func (k Unrecognized) Bytes() []byte { return bytes.Clone(k.Raw) }

func (SubChunk) key()      {}
func (NamedGlobal) key()   {}
func (Player) key()        {}
func (Map) key()           {}
func (Village) key()       {}
func (Structure) key()     {}
func (ActorDigest) key()   {}
func (DigestPointer) key() {}
func (RealmsStories) key() {}
func (Unrecognized) key()  {}

// String formats a key for logs.
func String(k Key) string {
	switch k := k.(type) {
	case SubChunk:
		if k.Type == SubChunkPrefix {
			return fmt.Sprintf("%v(%d, %d, %v, y=%d)", k.Type, k.X, k.Z, k.Dimension, k.Index)
		}
		return fmt.Sprintf("%v(%d, %d, %v)", k.Type, k.X, k.Z, k.Dimension)
	case DigestPointer:
		return fmt.Sprintf("digp(%d, %d, %v)", k.X, k.Z, k.Dimension)
	case ActorDigest:
		return fmt.Sprintf("actorprefix(%x)", k.ID[:])
	case Unrecognized:
		return fmt.Sprintf("unrecognized(%x)", k.Raw)
	}
	return strconv.Quote(string(k.Bytes()))
}

// IsNBT reports whether the value stored under k is an NBT document.
func IsNBT(k Key) bool {
	switch k := k.(type) {
	case SubChunk:
		return k.Type.NBT()
	case NamedGlobal:
		return k.Name != FlatWorldLayers
	case Player, Map, Village, Structure, ActorDigest:
		return true
	}
	return false
}

// splitLast splits s around its last underscore.
func splitLast(s string) (head, tail string, ok bool) {
	i := strings.LastIndexByte(s, '_')
	if i < 0 {
		return "", s, false
	}
	return s[:i], s[i+1:], true
}
