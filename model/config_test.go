package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRetrievalConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultRetrievalConfig()

		assert.Equal(t, 10, config.SummaryLimit, "Default SummaryLimit should be 10")
		assert.Equal(t, 10, config.NewsLimit, "Default NewsLimit should be 10")
		assert.Equal(t, 5, config.PriceLimit, "Default PriceLimit should be 5")
		assert.Equal(t, 7, config.WindowDays, "Default WindowDays should be 7")
		assert.Equal(t, 6, config.TopK, "Default TopK should be 6")
		assert.Equal(t, 24, config.FetchK, "Default FetchK should be 24")
		assert.Equal(t, 0.5, config.MMRLambda, "Default MMRLambda should be 0.5")
	})

	t.Run("FetchK covers TopK", func(t *testing.T) {
		config := DefaultRetrievalConfig()

		assert.GreaterOrEqual(t, config.FetchK, config.TopK)
	})
}
