package dbkey_test

import (
	"testing"

	"github.com/cqdetdev/bedrockdb/dbkey"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	keys := []dbkey.Key{
		dbkey.Terrain(1, -2, dbkey.Overworld, -4),
		dbkey.Terrain(-100, 200, dbkey.Nether, 7),
		dbkey.ChunkRecord(5, 6, dbkey.Overworld, dbkey.Version),
		dbkey.ChunkRecord(5, 6, dbkey.End, dbkey.Data3D),
		dbkey.ChunkRecord(0, 0, dbkey.Nether, dbkey.LegacyVersion),
		dbkey.NamedGlobal{Name: dbkey.LocalPlayer},
		dbkey.NamedGlobal{Name: dbkey.Scoreboard},
		dbkey.Player{ID: "1234"},
		dbkey.Player{Provider: "server", ID: "5f0c6a7e-0000-4000-8000-000000000001"},
		dbkey.Map{ID: -1234567890123},
		dbkey.Village{Dimension: dbkey.Nether, ID: "0c2e6a7e-1f50-4d4b-9d34-5b8f3c6f0a11", Part: dbkey.VillagePOI},
		dbkey.Structure{Name: "mystructure:house"},
		dbkey.ActorDigest{ID: [8]byte{0, 0, 0, 1, 0, 0, 0, 42}},
		dbkey.DigestPointer{X: 3, Z: -3},
		dbkey.DigestPointer{X: 3, Z: -3, Dimension: dbkey.End},
		dbkey.RealmsStories{ID: "abc"},
	}
	for _, k := range keys {
		got := dbkey.Decode(k.Bytes())
		if diff := cmp.Diff(k, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", dbkey.String(k), diff)
		}
	}
}

func TestSubChunkLengths(t *testing.T) {
	k := dbkey.ChunkRecord(1, 2, dbkey.Overworld, dbkey.Data3D)
	b := k.Bytes()
	require.Len(t, b, 9)
	require.Equal(t, k, dbkey.Decode(b))

	k = dbkey.Terrain(1, 2, dbkey.End, 3)
	b = k.Bytes()
	require.Len(t, b, 14)
	got, ok := dbkey.Decode(b).(dbkey.SubChunk)
	require.True(t, ok)
	require.Equal(t, dbkey.End, got.Dimension)
	require.Equal(t, int8(3), got.Index)
}

func TestNegativeVerticalIndex(t *testing.T) {
	b := []byte{1, 0, 0, 0, 2, 0, 0, 0, 0x2F, 0xFC}
	got, ok := dbkey.Decode(b).(dbkey.SubChunk)
	require.True(t, ok)
	require.Equal(t, int8(-4), got.Index)
	require.Equal(t, dbkey.SubChunkPrefix, got.Type)
	require.Equal(t, int32(1), got.X)
	require.Equal(t, int32(2), got.Z)
}

func TestPlayerKeys(t *testing.T) {
	require.Equal(t, dbkey.Player{Provider: "", ID: "1234"}, dbkey.Decode([]byte("player_1234")))
	require.Equal(t, dbkey.Player{Provider: "server", ID: "5678"}, dbkey.Decode([]byte("player_server_5678")))

	p := dbkey.Player{ID: "5f0c6a7e-0000-4000-8000-000000000001"}
	id, err := p.UUID()
	require.NoError(t, err)
	require.Equal(t, p.ID, id.String())
}

func TestValidate(t *testing.T) {
	for _, k := range []dbkey.Key{
		dbkey.Terrain(1, -2, dbkey.Nether, -4),
		dbkey.Player{ID: "1234"},
		dbkey.Player{Provider: "a_b", ID: "c"},
		dbkey.NamedGlobal{Name: dbkey.Portals},
		dbkey.Unrecognized{Raw: []byte("hello")},
	} {
		require.NoError(t, dbkey.Validate(k), dbkey.String(k))
	}
	for _, k := range []dbkey.Key{
		nil,
		dbkey.Player{ID: "a_b"},
		dbkey.Player{Provider: "server"},
		dbkey.Player{},
		dbkey.Terrain(0, 0, dbkey.Dimension(7), 0),
		dbkey.ChunkRecord(0, 0, dbkey.Overworld, dbkey.RecordType(0x20)),
		dbkey.SubChunk{Type: dbkey.Version, Index: 3},
		dbkey.DigestPointer{Dimension: dbkey.Dimension(-1)},
		dbkey.NamedGlobal{Name: "custom"},
		dbkey.Village{Dimension: dbkey.End, ID: "v", Part: "ROOF"},
		dbkey.Structure{},
		dbkey.Unrecognized{Raw: []byte("player_1")},
	} {
		require.ErrorIs(t, dbkey.Validate(k), dbkey.ErrInvalidKey, "%#v", k)
	}
}

func TestUnrecognized(t *testing.T) {
	for _, raw := range [][]byte{
		{},
		[]byte("hello"),
		[]byte("player_"),
		[]byte("map_12x"),
		[]byte("VILLAGE_Moon_id_INFO"),
		[]byte("VILLAGE_Overworld_id_ROOF"),
		// Terrain without its vertical index.
		{1, 0, 0, 0, 2, 0, 0, 0, 0x2F},
		// Unknown record type.
		{1, 0, 0, 0, 2, 0, 0, 0, 0x20},
		// Unknown dimension.
		{1, 0, 0, 0, 2, 0, 0, 0, 9, 0, 0, 0, 0x2C},
		// Explicit default dimension.
		{1, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0x2C},
		// Vertical index on a non-terrain record.
		{1, 0, 0, 0, 2, 0, 0, 0, 0x2C, 0x01},
	} {
		got := dbkey.Decode(raw)
		u, ok := got.(dbkey.Unrecognized)
		require.True(t, ok, "%q decoded as %T", raw, got)
		require.Equal(t, string(raw), string(u.Raw))
		require.Equal(t, string(raw), string(u.Bytes()))
	}
}

func TestNamedGlobalsWinOverChunkLayout(t *testing.T) {
	// "mobevents" and "Overworld" are nine bytes long, like chunk keys.
	require.Equal(t, dbkey.NamedGlobal{Name: "mobevents"}, dbkey.Decode([]byte("mobevents")))
	require.Equal(t, dbkey.NamedGlobal{Name: "Overworld"}, dbkey.Decode([]byte("Overworld")))
}

func TestIsNBT(t *testing.T) {
	require.True(t, dbkey.IsNBT(dbkey.ChunkRecord(0, 0, dbkey.Overworld, dbkey.BlockEntity)))
	require.False(t, dbkey.IsNBT(dbkey.Terrain(0, 0, dbkey.Overworld, 0)))
	require.True(t, dbkey.IsNBT(dbkey.ChunkRecord(0, 0, dbkey.Nether, dbkey.Entity)))
	require.False(t, dbkey.IsNBT(dbkey.ChunkRecord(0, 0, dbkey.Nether, dbkey.BiomeState)))
	require.True(t, dbkey.IsNBT(dbkey.Player{ID: "1"}))
	require.False(t, dbkey.IsNBT(dbkey.DigestPointer{}))
	require.False(t, dbkey.IsNBT(dbkey.NamedGlobal{Name: dbkey.FlatWorldLayers}))
}

func TestDimensionRanges(t *testing.T) {
	lo, hi := dbkey.Overworld.SubChunkRange()
	require.Equal(t, int8(-4), lo)
	require.Equal(t, int8(19), hi)
	lo, hi = dbkey.Nether.SubChunkRange()
	require.Equal(t, int8(0), lo)
	require.Equal(t, int8(7), hi)
	lo, hi = dbkey.End.SubChunkRange()
	require.Equal(t, int8(0), lo)
	require.Equal(t, int8(15), hi)
}
