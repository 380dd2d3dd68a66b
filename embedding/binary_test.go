package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fadgo/codec"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	a, err := FromRows([][]float64{{1.5, -2.25, 0}, {3, 4, 5e-10}})
	require.NoError(t, err)

	compressors := []codec.Compressor{codec.None{}, codec.LZ4{}, codec.Zstd{}, nil}
	for _, comp := range compressors {
		name := "default"
		if comp != nil {
			name = comp.Name()
		}
		t.Run(name, func(t *testing.T) {
			blob, err := Encode(a, comp)
			require.NoError(t, err)

			got, err := Decode(blob)
			require.NoError(t, err)
			assert.Equal(t, a.Frames(), got.Frames())
			assert.Equal(t, a.Dim(), got.Dim())
			for i := 0; i < a.Frames(); i++ {
				assert.Equal(t, a.Row(i), got.Row(i))
			}
		})
	}
}

func TestDecode_CrossCompressor(t *testing.T) {
	// A blob written with one compressor decodes regardless of the reader's
	// configured default: the header names the compressor.
	a, err := FromRows([][]float64{{7, 8}})
	require.NoError(t, err)

	blob, err := Encode(a, codec.Zstd{})
	require.NoError(t, err)

	got, err := Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, got.Row(0))
}

func TestDecode_Errors(t *testing.T) {
	a, err := FromRows([][]float64{{1, 2}})
	require.NoError(t, err)
	blob, err := Encode(a, codec.None{})
	require.NoError(t, err)

	t.Run("InvalidMagic", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[0] ^= 0xff
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("InvalidVersion", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		bad[4] = 0xff
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("UnknownCompressor", func(t *testing.T) {
		bad := append([]byte(nil), blob...)
		// Header stores the compressor name right after the length byte.
		copy(bad[7:11], "gzip")
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrUnknownCompressor)
	})

	t.Run("TruncatedHeader", func(t *testing.T) {
		_, err := Decode(blob[:5])
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("TruncatedPayload", func(t *testing.T) {
		_, err := Decode(blob[:len(blob)-4])
		assert.ErrorIs(t, err, ErrTruncated)
	})
}
