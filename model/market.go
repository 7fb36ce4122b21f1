package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commodity is a row of the commodities master list
type Commodity struct {
	ID   int         `json:"id"`
	Name CommodityID `json:"name"`
}

// PriceRecord is a daily closing price in the commodity's native quote unit
// (U.S. cents per bushel for bushel-traded grains).
type PriceRecord struct {
	Date         time.Time       `json:"date"`
	Commodity    CommodityID     `json:"commodity"`
	ClosingPrice decimal.Decimal `json:"closing_price"`
}

// DailySummaryRecord is the per-day sentiment summary of one commodity
type DailySummaryRecord struct {
	Date              time.Time   `json:"date"`
	Commodity         CommodityID `json:"commodity"`
	SentimentScore    float64     `json:"sentiment_score"` // 0-100
	Reasoning         string      `json:"reasoning"`
	Keywords          []string    `json:"keywords"`
	AnalyzedNewsCount int         `json:"analyzed_news_count"`
}

// NeutralSentiment is the midpoint of the 0-100 sentiment scale
const NeutralSentiment = 50.0

// NewsRecord is a commodity-tagged news article with its analysis
type NewsRecord struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	Content        string      `json:"content,omitempty"`
	Source         string      `json:"source,omitempty"`
	PublishedTime  time.Time   `json:"published_time"`
	Commodity      CommodityID `json:"commodity"`
	SentimentScore float64     `json:"sentiment_score"`
	Reasoning      string      `json:"reasoning"`
	Keywords       []string    `json:"keywords"`
}

// Impact is the distance of the sentiment score from neutral
func (n *NewsRecord) Impact() float64 {
	d := n.SentimentScore - NeutralSentiment
	if d < 0 {
		return -d
	}
	return d
}

// CrushMarginInputs are the three soy-complex legs of a board crush
type CrushMarginInputs struct {
	Date    time.Time    `json:"date"`
	Soybean *PriceRecord `json:"soybean,omitempty"`
	Meal    *PriceRecord `json:"meal,omitempty"`
	Oil     *PriceRecord `json:"oil,omitempty"`
}

// MissingLegs lists the commodities without a price
func (c *CrushMarginInputs) MissingLegs() []CommodityID {
	var missing []CommodityID
	if c.Soybean == nil {
		missing = append(missing, Soybean)
	}
	if c.Meal == nil {
		missing = append(missing, SoybeanMeal)
	}
	if c.Oil == nil {
		missing = append(missing, SoybeanOil)
	}
	return missing
}
