package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/cqdetdev/bedrockdb/stream"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

var (
	bufPool = sync.Pool{
		New: func() any { return bytes.NewBuffer(make([]byte, 0, 64*1024)) },
	}
	gzipPool = sync.Pool{
		New: func() any { return gzip.NewWriter(io.Discard) },
	}
	zlibPool = sync.Pool{
		New: func() any { return zlib.NewWriter(io.Discard) },
	}
)

// Compress compresses data with kind k. None returns a copy of data.
func Compress(data []byte, k Kind) ([]byte, error) {
	if k == None {
		return bytes.Clone(data), nil
	}
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	var w io.WriteCloser
	switch k {
	case Gzip:
		gw := gzipPool.Get().(*gzip.Writer)
		defer gzipPool.Put(gw)
		gw.Reset(buf)
		w = gw
	case Zlib:
		zw := zlibPool.Get().(*zlib.Writer)
		defer zlibPool.Put(zw)
		zw.Reset(buf)
		w = zw
	case Snappy:
		w = snappy.NewBufferedWriter(buf)
	case LZ4:
		w = lz4.NewWriter(buf)
	default:
		return nil, fmt.Errorf("compress: unsupported kind %v: %w", k, stream.ErrInvalidData)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress %v: %w", k, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress %v: %w", k, err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Decompress decompresses data compressed with kind k. If k is Auto, the
// kind is detected first. Corrupt input fails with an error wrapping
// stream.ErrInvalidData.
func Decompress(data []byte, k Kind) ([]byte, error) {
	if k == Auto {
		var err error
		if k, err = Detect(data); err != nil {
			return nil, err
		}
	}
	var (
		r   io.Reader
		err error
	)
	switch k {
	case None:
		return bytes.Clone(data), nil
	case Gzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	case Zlib:
		r, err = zlib.NewReader(bytes.NewReader(data))
	case Snappy:
		r = snappy.NewReader(bytes.NewReader(data))
	case LZ4:
		r = lz4.NewReader(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("decompress: unsupported kind %v: %w", k, stream.ErrInvalidData)
	}
	if err != nil {
		return nil, fmt.Errorf("decompress %v: %w: %w", k, stream.ErrInvalidData, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress %v: %w: %w", k, stream.ErrInvalidData, err)
	}
	return out, nil
}
