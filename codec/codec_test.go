package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_RoundTrip(t *testing.T) {
	type doc struct {
		Model  string `json:"model"`
		Dim    int    `json:"dim"`
		Frames int64  `json:"frames"`
	}

	c := JSON{}
	in := doc{Model: "vggish", Dim: 128, Frames: 9001}

	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out doc
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}
