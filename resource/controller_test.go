package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_NilImposesNoLimits(t *testing.T) {
	ctx := context.Background()
	var c *Controller

	require.NoError(t, c.AcquireEmbedSlot(ctx))
	c.ReleaseEmbedSlot()
	require.NoError(t, c.ThrottleIO(ctx, 1<<30))
}

func TestController_EmbedSlots(t *testing.T) {
	ctx := context.Background()
	c := NewController(Config{MaxEmbedWorkers: 1})

	require.NoError(t, c.AcquireEmbedSlot(ctx))

	// The only slot is taken; a second acquire blocks until cancellation.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := c.AcquireEmbedSlot(blocked)
	assert.Error(t, err)

	c.ReleaseEmbedSlot()
	require.NoError(t, c.AcquireEmbedSlot(ctx))
	c.ReleaseEmbedSlot()
}

func TestController_ThrottleIO(t *testing.T) {
	ctx := context.Background()

	t.Run("Unlimited", func(t *testing.T) {
		c := NewController(Config{MaxEmbedWorkers: 1})
		require.NoError(t, c.ThrottleIO(ctx, 1<<30))
	})

	t.Run("ChunksBeyondBurst", func(t *testing.T) {
		// A write larger than the burst size must not fail; it is admitted
		// in burst-sized chunks.
		c := NewController(Config{MaxEmbedWorkers: 1, IOLimitBytesPerSec: 1 << 20})
		require.NoError(t, c.ThrottleIO(ctx, (1<<20)+512))
	})

	t.Run("Canceled", func(t *testing.T) {
		c := NewController(Config{MaxEmbedWorkers: 1, IOLimitBytesPerSec: 16})
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, c.ThrottleIO(canceled, 1024))
	})
}
