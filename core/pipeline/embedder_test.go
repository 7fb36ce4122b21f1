package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEmbedder(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping DefaultEmbedder test in short mode (requires model download)")
	}

	embed, closeFn, err := DefaultEmbedder("")
	require.NoError(t, err)
	defer closeFn()

	t.Run("Generate embeddings for a batch", func(t *testing.T) {
		embeddings, err := embed([]string{"옥수수 가격 전망", "corn price outlook"})

		require.NoError(t, err)
		require.Len(t, embeddings, 2)
		assert.Len(t, embeddings[0], DefaultDimension)
	})

	t.Run("Same text produces same embedding", func(t *testing.T) {
		first, err := embed([]string{"대두박 수출"})
		require.NoError(t, err)
		second, err := embed([]string{"대두박 수출"})
		require.NoError(t, err)

		assert.InDeltaSlice(t, first[0], second[0], 1e-5)
	})

	t.Run("Empty batch", func(t *testing.T) {
		embeddings, err := embed(nil)

		require.NoError(t, err)
		assert.Empty(t, embeddings)
	})
}
