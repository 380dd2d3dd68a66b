package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressors_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("frechet audio distance "), 512)

	for _, comp := range []Compressor{None{}, LZ4{}, Zstd{}} {
		t.Run(comp.Name(), func(t *testing.T) {
			enc, err := comp.Compress(payload)
			require.NoError(t, err)

			dec, err := comp.Decompress(enc)
			require.NoError(t, err)
			assert.Equal(t, payload, dec)
		})
	}
}

func TestCompressors_RepetitiveDataShrinks(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, 1<<16)

	for _, comp := range []Compressor{LZ4{}, Zstd{}} {
		t.Run(comp.Name(), func(t *testing.T) {
			enc, err := comp.Compress(payload)
			require.NoError(t, err)
			assert.Less(t, len(enc), len(payload))
		})
	}
}

func TestCompressorByName(t *testing.T) {
	for _, name := range []string{"none", "lz4", "zstd"} {
		comp, ok := CompressorByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, comp.Name())
	}

	_, ok := CompressorByName("gzip")
	assert.False(t, ok)
}

func TestDefaultCompressor(t *testing.T) {
	assert.Equal(t, "lz4", DefaultCompressor.Name())
}
