package nbt

import (
	"fmt"
	"os"

	"github.com/cqdetdev/bedrockdb/compress"
	"github.com/cqdetdev/bedrockdb/stream"
)

// fileHeaderSize is the size of the version and payload length fields
// preceding the payload of a persisted file.
const fileHeaderSize = 8

// File is a persisted NBT document such as level.dat: a 4-byte
// little-endian version, a 4-byte little-endian payload length, and a
// payload holding one named root tag, optionally compressed as a whole.
type File struct {
	// Version is the storage version written in the header.
	Version int32
	// Root is the root tag of the document, usually an unnamed compound.
	Root *Tag
	// Compression is the kind the payload was stored with. DecodeFile sets
	// it; Encode uses it when passed compress.Auto.
	Compression compress.Kind
}

// DecodeFile decodes a persisted file. If k is compress.Auto the payload
// compression is detected from its first byte.
func DecodeFile(data []byte, k compress.Kind) (*File, error) {
	r := stream.NewLittleEndianReader(data)
	version, err := r.Int32()
	if err != nil {
		return nil, fmt.Errorf("decode file: read version: %w", err)
	}
	length, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("decode file: read length: %w", err)
	}
	if int64(length) > int64(r.Remaining()) {
		return nil, fmt.Errorf("decode file: payload of %d bytes, %d remaining: %w", length, r.Remaining(), stream.ErrEndOfStream)
	}
	payload, err := r.Buffer().Next(int(length))
	if err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	if k == compress.Auto {
		if k, err = compress.Detect(payload); err != nil {
			return nil, fmt.Errorf("decode file: %w", err)
		}
	}
	raw, err := compress.Decompress(payload, k)
	if err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	root, err := Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode file: %w", err)
	}
	return &File{Version: version, Root: root, Compression: k}, nil
}

// ReadFile reads and decodes the persisted file at path, detecting its
// compression.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return DecodeFile(data, compress.Auto)
}

// Encode encodes f with the payload compressed as k. compress.Auto uses
// f.Compression, and an unset f.Compression means compress.None.
func (f *File) Encode(k compress.Kind) ([]byte, error) {
	if k == compress.Auto {
		k = f.Compression
	}
	if k == compress.Auto {
		k = compress.None
	}
	raw, err := Marshal(f.Root)
	if err != nil {
		return nil, fmt.Errorf("encode file: %w", err)
	}
	payload, err := compress.Compress(raw, k)
	if err != nil {
		return nil, fmt.Errorf("encode file: %w", err)
	}
	w := stream.NewWriter(stream.NewBuffer(make([]byte, 0, fileHeaderSize+len(payload))), stream.LittleEndian)
	_ = w.Int32(f.Version)
	_ = w.Uint32(uint32(len(payload)))
	_, _ = w.Write(payload)
	return w.Bytes(), nil
}

// WriteFile encodes f and writes it to path.
func (f *File) WriteFile(path string, k compress.Kind) error {
	data, err := f.Encode(k)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0666); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
