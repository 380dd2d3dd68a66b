// Package codec centralizes the encodings used by persisted artifacts.
//
// Two concerns live here: value codecs for small metadata documents
// (statistics manifests) and frame compressors for embedding payloads.
// Persisted formats are self-describing: they store the codec or compressor
// name in their header, and readers select the implementation by that name.
// Renaming a codec is a breaking change for existing caches.
package codec

import "fmt"

// Codec encodes/decodes metadata values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = JSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
