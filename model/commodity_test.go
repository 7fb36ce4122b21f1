package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCommodity(t *testing.T) {
	tests := []struct {
		text     string
		expected CommodityID
	}{
		{"옥수수 가격 알려줘", Corn},
		{"What is the CORN price?", Corn},
		{"대두박 시세", SoybeanMeal},
		{"대두유 가격", SoybeanOil},
		{"대두 가격", Soybean},
		{"soybean oil futures", SoybeanOil},
		{"Soybean Meal outlook", SoybeanMeal},
		{"soybeans rallied", Soybean},
		{"팜유 전망", PalmOil},
		{"palm oil", PalmOil},
		{"소맥 뉴스", Wheat},
		{"wheat news", Wheat},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c := LookupCommodity(tt.text)
			require.NotNil(t, c, "Expected a commodity in %q", tt.text)
			assert.Equal(t, tt.expected, *c)
		})
	}

	t.Run("No commodity", func(t *testing.T) {
		assert.Nil(t, LookupCommodity("오늘 시장 어때?"))
	})
}

func TestMentionedCommodities(t *testing.T) {
	t.Run("Specific names do not count as their prefix", func(t *testing.T) {
		assert.Equal(t, []CommodityID{SoybeanOil}, MentionedCommodities("soybean oil price"))
		assert.Equal(t, []CommodityID{SoybeanMeal}, MentionedCommodities("대두박"))
	})

	t.Run("All crush legs in table order", func(t *testing.T) {
		mentions := MentionedCommodities("대두, 대두박, 대두유 크러시 마진")

		assert.Equal(t, []CommodityID{SoybeanMeal, SoybeanOil, Soybean}, mentions)
	})

	t.Run("Nothing mentioned", func(t *testing.T) {
		assert.Empty(t, MentionedCommodities("hello"))
	})
}

func TestParseCommodityID(t *testing.T) {
	c, ok := ParseCommodityID("soybean meal")
	assert.True(t, ok)
	assert.Equal(t, SoybeanMeal, c)

	_, ok = ParseCommodityID("cotton")
	assert.False(t, ok)
}

func TestConversionFactor(t *testing.T) {
	for _, c := range []CommodityID{Corn, Wheat, Soybean} {
		f, ok := ConversionFactor(c)
		assert.True(t, ok, "Expected a factor for %s", c)
		assert.True(t, f.IsPositive())
	}
	for _, c := range []CommodityID{SoybeanMeal, SoybeanOil, PalmOil} {
		_, ok := ConversionFactor(c)
		assert.False(t, ok, "Expected no factor for %s", c)
	}

	corn, _ := ConversionFactor(Corn)
	assert.Equal(t, "0.0254012", corn.String())
	wheat, _ := ConversionFactor(Wheat)
	assert.Equal(t, "0.0272155", wheat.String())
}

func TestAllCommodities(t *testing.T) {
	all := AllCommodities()

	assert.Len(t, all, 6)
	assert.Contains(t, all, PalmOil)
}
