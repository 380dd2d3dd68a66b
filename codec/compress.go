package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressor compresses and decompresses embedding payloads.
// Implementations must be safe for concurrent use.
type Compressor interface {
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
	Name() string
}

// DefaultCompressor is used for newly written embedding blobs when none is
// configured. LZ4 favors decode speed, which dominates: embeddings are
// written once and read on every statistics pass.
var DefaultCompressor Compressor = LZ4{}

// CompressorByName returns a built-in compressor by its stable name.
//
// Embedding blobs store the compressor name in their header, so readers can
// decode caches written with a different configuration.
func CompressorByName(name string) (Compressor, bool) {
	switch name {
	case "none":
		return None{}, true
	case "lz4":
		return LZ4{}, true
	case "zstd":
		return Zstd{}, true
	default:
		return nil, false
	}
}

// None is the identity compressor.
type None struct{}

func (None) Compress(src []byte) ([]byte, error)   { return src, nil }
func (None) Decompress(src []byte) ([]byte, error) { return src, nil }

// Name returns the unique name of the compressor ("none").
func (None) Name() string { return "none" }

// LZ4 compresses with the LZ4 frame format (github.com/pierrec/lz4).
type LZ4 struct{}

func (LZ4) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 close: %w", err)
	}
	return buf.Bytes(), nil
}

func (LZ4) Decompress(src []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(src))
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return out, nil
}

// Name returns the unique name of the compressor ("lz4").
func (LZ4) Name() string { return "lz4" }

// Zstd compresses with zstandard (github.com/klauspost/compress/zstd).
// A shared encoder/decoder pair is reused across calls; both are safe for
// concurrent use via EncodeAll/DecodeAll.
type Zstd struct{}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Errorf("zstd encoder init: %w", err))
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Errorf("zstd decoder init: %w", err))
	}
}

func (Zstd) Compress(src []byte) ([]byte, error) {
	return zstdEncoder.EncodeAll(src, nil), nil
}

func (Zstd) Decompress(src []byte) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(src, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

// Name returns the unique name of the compressor ("zstd").
func (Zstd) Name() string { return "zstd" }
