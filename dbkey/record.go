package dbkey

import "fmt"

// RecordType is the byte that follows the chunk position in a chunk
// record key and identifies what the record holds.
type RecordType byte

const (
	Data3D                             RecordType = 0x2B
	Version                            RecordType = 0x2C
	Data2D                             RecordType = 0x2D
	Data2DLegacy                       RecordType = 0x2E
	SubChunkPrefix                     RecordType = 0x2F
	LegacyTerrain                      RecordType = 0x30
	BlockEntity                        RecordType = 0x31
	Entity                             RecordType = 0x32
	PendingTicks                       RecordType = 0x33
	LegacyBlockExtraData               RecordType = 0x34
	BiomeState                         RecordType = 0x35
	FinalizedState                     RecordType = 0x36
	ConversionData                     RecordType = 0x37
	BorderBlocks                       RecordType = 0x38
	HardcodedSpawners                  RecordType = 0x39
	RandomTicks                        RecordType = 0x3A
	Checksums                          RecordType = 0x3B
	GenerationSeed                     RecordType = 0x3C
	GeneratedPreCavesAndCliffsBlending RecordType = 0x3D
	BlendingBiomeHeight                RecordType = 0x3E
	MetaDataHash                       RecordType = 0x3F
	BlendingData                       RecordType = 0x40
	ActorDigestVersion                 RecordType = 0x41
	LegacyVersion                      RecordType = 0x76
	AABBVolumes                        RecordType = 0x77
)

var recordNames = map[RecordType]string{
	Data3D:                             "Data3D",
	Version:                            "Version",
	Data2D:                             "Data2D",
	Data2DLegacy:                       "Data2DLegacy",
	SubChunkPrefix:                     "SubChunkPrefix",
	LegacyTerrain:                      "LegacyTerrain",
	BlockEntity:                        "BlockEntity",
	Entity:                             "Entity",
	PendingTicks:                       "PendingTicks",
	LegacyBlockExtraData:               "LegacyBlockExtraData",
	BiomeState:                         "BiomeState",
	FinalizedState:                     "FinalizedState",
	ConversionData:                     "ConversionData",
	BorderBlocks:                       "BorderBlocks",
	HardcodedSpawners:                  "HardcodedSpawners",
	RandomTicks:                        "RandomTicks",
	Checksums:                          "Checksums",
	GenerationSeed:                     "GenerationSeed",
	GeneratedPreCavesAndCliffsBlending: "GeneratedPreCavesAndCliffsBlending",
	BlendingBiomeHeight:                "BlendingBiomeHeight",
	MetaDataHash:                       "MetaDataHash",
	BlendingData:                       "BlendingData",
	ActorDigestVersion:                 "ActorDigestVersion",
	LegacyVersion:                      "LegacyVersion",
	AABBVolumes:                        "AABBVolumes",
}

// Known reports whether t is a record type found in Bedrock worlds.
func (t RecordType) Known() bool {
	_, ok := recordNames[t]
	return ok
}

func (t RecordType) String() string {
	if n, ok := recordNames[t]; ok {
		return n
	}
	return fmt.Sprintf("RecordType(%#02x)", byte(t))
}

// NBT reports whether records of type t hold NBT documents. Entity records
// hold consecutive compounds, while BiomeState records are raw bytes.
func (t RecordType) NBT() bool {
	switch t {
	case BlockEntity, Entity, PendingTicks, RandomTicks:
		return true
	}
	return false
}
