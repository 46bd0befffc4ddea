package nbt_test

import (
	"math"
	"testing"

	"github.com/cqdetdev/bedrockdb/nbt"
	"github.com/cqdetdev/bedrockdb/stream"
	"github.com/google/go-cmp/cmp"
	gnbt "github.com/sandertv/gophertunnel/minecraft/nbt"
	"github.com/stretchr/testify/require"
)

func sampleTree() *nbt.Tag {
	return nbt.MustCompound("",
		nbt.NewByte("byte", -7),
		nbt.NewShort("short", 1234),
		nbt.NewInt("int", -123456),
		nbt.NewLong("long", math.MaxInt64),
		nbt.NewFloat("float", 0.25),
		nbt.NewDouble("double", math.Pi),
		nbt.NewByteArray("bytes", []byte{0, 1, 255}),
		nbt.NewString("string", "grass_block"),
		nbt.NewIntArray("ints", []int32{-1, 0, 1}),
		nbt.NewLongArray("longs", []int64{math.MinInt64, 5}),
		nbt.MustList("empty", nbt.TypeCompound),
		nbt.MustList("unset", nbt.TypeEnd),
		nbt.MustList("nested", nbt.TypeList,
			nbt.MustList("", nbt.TypeShort, nbt.NewShort("", 1)),
			nbt.MustList("", nbt.TypeShort),
		),
		nbt.MustCompound("states",
			nbt.NewString("color", "red"),
			nbt.MustCompound("deep", nbt.NewByte("flag", 1)),
		),
	)
}

func TestRoundTrip(t *testing.T) {
	tree := sampleTree()
	data, err := nbt.Marshal(tree)
	require.NoError(t, err)

	got, err := nbt.Unmarshal(data)
	require.NoError(t, err)
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, nbt.TypeCompound, got.Get("empty").ElemType())
	require.Equal(t, nbt.TypeEnd, got.Get("unset").ElemType())
}

func TestVersionScenario(t *testing.T) {
	data, err := nbt.Marshal(nbt.MustCompound("", nbt.NewShort("version", 1)))
	require.NoError(t, err)
	require.Equal(t, []byte{
		0x0A, 0x00, 0x00,
		0x02, 0x07, 0x00, 'v', 'e', 'r', 's', 'i', 'o', 'n', 0x01, 0x00,
		0x00,
	}, data)

	got, err := nbt.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	v := got.Get("version")
	require.Equal(t, nbt.TypeShort, v.Type())
	require.Equal(t, int16(1), v.Value())
}

func TestCompatibleWithGophertunnel(t *testing.T) {
	data, err := nbt.Marshal(sampleTree())
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, gnbt.UnmarshalEncoding(data, &m, gnbt.LittleEndian))
	require.Equal(t, int16(1234), m["short"])
	require.Equal(t, "grass_block", m["string"])
	require.Equal(t, int64(math.MaxInt64), m["long"])
	require.Equal(t, map[string]any{"color": "red", "deep": map[string]any{"flag": uint8(1)}}, m["states"])
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := nbt.Unmarshal([]byte{0x0D, 0x00, 0x00})
	require.ErrorIs(t, err, stream.ErrInvalidFormat)

	_, err = nbt.Unmarshal([]byte{0x0A, 0x00, 0x00, 0x63, 0x00, 0x00})
	require.ErrorIs(t, err, stream.ErrInvalidFormat)
}

func TestDecodeTruncated(t *testing.T) {
	data, err := nbt.Marshal(sampleTree())
	require.NoError(t, err)
	for _, n := range []int{0, 1, 2, 5, len(data) / 2, len(data) - 1} {
		_, err := nbt.Unmarshal(data[:n])
		require.ErrorIs(t, err, stream.ErrEndOfStream, "length %d", n)
	}
}

func TestDecodeNegativeLength(t *testing.T) {
	// Int array with length -1.
	_, err := nbt.Unmarshal([]byte{0x0B, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF})
	require.ErrorIs(t, err, stream.ErrInvalidFormat)

	// List of ints with length -1.
	_, err = nbt.Unmarshal([]byte{0x09, 0x00, 0x00, 0x03, 0xFF, 0xFF, 0xFF, 0xFF})
	require.ErrorIs(t, err, stream.ErrInvalidFormat)
}

func TestDecodeHugeLength(t *testing.T) {
	_, err := nbt.Unmarshal([]byte{0x0C, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x7F, 0x00})
	require.ErrorIs(t, err, stream.ErrEndOfStream)
}

// nestedLists returns a list tag nested depth lists deep.
func nestedLists(depth int) []byte {
	data := []byte{byte(nbt.TypeList), 0x00, 0x00}
	for range depth - 1 {
		data = append(data, byte(nbt.TypeList), 0x01, 0x00, 0x00, 0x00)
	}
	return append(data, byte(nbt.TypeByte), 0x00, 0x00, 0x00, 0x00)
}

func TestDecodeDepthLimit(t *testing.T) {
	_, err := nbt.Unmarshal(nestedLists(nbt.MaxDepth))
	require.NoError(t, err)

	_, err = nbt.Unmarshal(nestedLists(nbt.MaxDepth + 1))
	require.ErrorIs(t, err, stream.ErrInvalidFormat)

	_, err = nbt.Unmarshal(nestedLists(1_000_000))
	require.ErrorIs(t, err, stream.ErrInvalidFormat)

	// Compounds count towards the same limit.
	var data []byte
	for range nbt.MaxDepth + 1 {
		data = append(data, byte(nbt.TypeCompound), 0x00, 0x00)
	}
	for range nbt.MaxDepth + 1 {
		data = append(data, byte(nbt.TypeEnd))
	}
	_, err = nbt.Unmarshal(data)
	require.ErrorIs(t, err, stream.ErrInvalidFormat)
	_, err = nbt.Unmarshal(data[3 : len(data)-1])
	require.NoError(t, err)
}

func TestEncodeInvalidUTF8(t *testing.T) {
	_, err := nbt.Marshal(nbt.MustCompound("", nbt.NewString("name", "\xff")))
	require.ErrorIs(t, err, stream.ErrInvalidData)

	_, err = nbt.Marshal(nbt.NewString("\xfe", "ok"))
	require.ErrorIs(t, err, stream.ErrInvalidData)
}

func TestUnmarshalAll(t *testing.T) {
	a := nbt.MustCompound("", nbt.NewInt("x", 1))
	b := nbt.MustCompound("", nbt.NewInt("x", 2))
	data, err := nbt.MarshalAll(a, b)
	require.NoError(t, err)

	tags, err := nbt.UnmarshalAll(data)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	require.True(t, b.Equal(tags[1]))
}

func TestNativeBridge(t *testing.T) {
	type block struct {
		Name    string         `nbt:"name"`
		States  map[string]any `nbt:"states"`
		Version int32          `nbt:"version"`
	}
	tag, err := nbt.FromValue("", block{Name: "minecraft:stone", States: map[string]any{}, Version: 17959425})
	require.NoError(t, err)
	name, ok := tag.Get("name").Text()
	require.True(t, ok)
	require.Equal(t, "minecraft:stone", name)

	var b block
	require.NoError(t, tag.Unmarshal(&b))
	require.Equal(t, int32(17959425), b.Version)

	require.ErrorIs(t, nbt.NewInt("", 1).Unmarshal(&b), nbt.ErrNotContainer)
}
