package embedding

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/fadgo/codec"
)

// Blob format, little-endian:
//
//	magic   uint32  "FADE"
//	version uint16
//	nameLen uint8   compressor name length
//	name    []byte  compressor name
//	frames  uint32
//	dim     uint32
//	payload []byte  compressed row-major float64 values
//
// The compressor name makes blobs self-describing: a cache written with one
// configuration decodes under any other.
const (
	blobMagic   uint32 = 0x46414445 // "FADE"
	blobVersion uint16 = 1
)

var (
	// ErrInvalidMagic is returned when a blob does not start with the
	// expected magic number.
	ErrInvalidMagic = errors.New("embedding: invalid magic number")

	// ErrInvalidVersion is returned when a blob has an unsupported version.
	ErrInvalidVersion = errors.New("embedding: unsupported format version")

	// ErrUnknownCompressor is returned when a blob names a compressor this
	// build does not provide.
	ErrUnknownCompressor = errors.New("embedding: unknown compressor")

	// ErrTruncated is returned when a blob is shorter than its header or
	// payload declares.
	ErrTruncated = errors.New("embedding: truncated blob")
)

// Encode serializes the array using the given compressor.
// A nil compressor falls back to codec.DefaultCompressor.
func Encode(a *Array, comp codec.Compressor) ([]byte, error) {
	if comp == nil {
		comp = codec.DefaultCompressor
	}
	name := comp.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("embedding: compressor name too long: %q", name)
	}

	raw := make([]byte, 8*len(a.data))
	for i, v := range a.data {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	payload, err := comp.Compress(raw)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 15+len(name)+len(payload))
	out = binary.LittleEndian.AppendUint32(out, blobMagic)
	out = binary.LittleEndian.AppendUint16(out, blobVersion)
	out = append(out, byte(len(name)))
	out = append(out, name...)
	out = binary.LittleEndian.AppendUint32(out, uint32(a.frames))
	out = binary.LittleEndian.AppendUint32(out, uint32(a.dim))
	out = append(out, payload...)
	return out, nil
}

// Decode deserializes a blob produced by Encode. The compressor is selected
// by the name stored in the header.
func Decode(data []byte) (*Array, error) {
	if len(data) < 7 {
		return nil, ErrTruncated
	}
	if magic := binary.LittleEndian.Uint32(data); magic != blobMagic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
	if version := binary.LittleEndian.Uint16(data[4:]); version != blobVersion {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, version)
	}
	nameLen := int(data[6])
	if len(data) < 7+nameLen+8 {
		return nil, ErrTruncated
	}
	name := string(data[7 : 7+nameLen])
	comp, ok := codec.CompressorByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompressor, name)
	}

	off := 7 + nameLen
	frames := int(binary.LittleEndian.Uint32(data[off:]))
	dim := int(binary.LittleEndian.Uint32(data[off+4:]))
	if dim <= 0 || frames < 0 {
		return nil, fmt.Errorf("embedding: invalid shape %dx%d", frames, dim)
	}

	raw, err := comp.Decompress(data[off+8:])
	if err != nil {
		return nil, err
	}
	if len(raw) != 8*frames*dim {
		return nil, fmt.Errorf("%w: payload %d bytes, want %d", ErrTruncated, len(raw), 8*frames*dim)
	}

	a := New(frames, dim)
	for i := range a.data {
		a.data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return a, nil
}
