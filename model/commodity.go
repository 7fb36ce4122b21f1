package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CommodityID is the canonical commodity name as stored in the commodities master list
type CommodityID string

const (
	Corn        CommodityID = "Corn"
	Wheat       CommodityID = "Wheat"
	Soybean     CommodityID = "Soybean"
	SoybeanMeal CommodityID = "Soybean Meal"
	SoybeanOil  CommodityID = "Soybean Oil"
	PalmOil     CommodityID = "Palm Oil"
)

// CommodityAlias maps a canonical commodity to its localized surface forms
type CommodityAlias struct {
	ID      CommodityID
	Aliases []string
}

// CommodityAliases is the ordered alias table. Lookups walk it top to bottom,
// so names that contain another commodity's alias ("대두박" contains "대두",
// "soybean oil" contains "soybean") are listed first.
var CommodityAliases = []CommodityAlias{
	{ID: SoybeanMeal, Aliases: []string{"대두박", "soybean meal", "soymeal", "soy meal", "bean meal"}},
	{ID: SoybeanOil, Aliases: []string{"대두유", "soybean oil", "soyoil", "soy oil", "bean oil"}},
	{ID: PalmOil, Aliases: []string{"팜오일", "팜유", "palm oil"}},
	{ID: Corn, Aliases: []string{"옥수수", "corn", "maize"}},
	{ID: Wheat, Aliases: []string{"소맥", "밀", "wheat"}},
	{ID: Soybean, Aliases: []string{"대두", "soybeans", "soybean", "soy"}},
}

// AllCommodities lists the closed commodity set in alias table order
func AllCommodities() []CommodityID {
	ids := make([]CommodityID, 0, len(CommodityAliases))
	for _, entry := range CommodityAliases {
		ids = append(ids, entry.ID)
	}
	return ids
}

// SoyComplex are the three legs of the board crush
var SoyComplex = []CommodityID{Soybean, SoybeanMeal, SoybeanOil}

// LookupCommodity returns the first commodity of the alias table named in text.
// Matching is case-insensitive and substring based.
func LookupCommodity(text string) *CommodityID {
	mentions := MentionedCommodities(text)
	if len(mentions) == 0 {
		return nil
	}
	first := mentions[0]
	return &first
}

// MentionedCommodities returns every commodity named in text, in alias table order.
// A matched alias is blanked before the following entries are tested, so
// "soybean oil" does not also count as a mention of soybean.
func MentionedCommodities(text string) []CommodityID {
	lowered := strings.ToLower(text)

	var mentions []CommodityID
	for _, entry := range CommodityAliases {
		found := false
		for _, alias := range entry.Aliases {
			if strings.Contains(lowered, alias) {
				found = true
				lowered = strings.ReplaceAll(lowered, alias, strings.Repeat(" ", len(alias)))
			}
		}
		if found {
			mentions = append(mentions, entry.ID)
		}
	}

	return mentions
}

// ParseCommodityID maps a canonical name (case-insensitive) to its CommodityID
func ParseCommodityID(name string) (CommodityID, bool) {
	for _, entry := range CommodityAliases {
		if strings.EqualFold(string(entry.ID), strings.TrimSpace(name)) {
			return entry.ID, true
		}
	}
	return "", false
}

// bushelFactors is metric tons per bushel (56 lb corn, 60 lb wheat and soybeans)
var bushelFactors = map[CommodityID]decimal.Decimal{
	Corn:    decimal.RequireFromString("0.0254012"),
	Wheat:   decimal.RequireFromString("0.0272155"),
	Soybean: decimal.RequireFromString("0.0272155"),
}

// ConversionFactor returns the tons-per-bushel factor of a commodity.
// Meal, oil and palm oil are quoted by weight and have none.
func ConversionFactor(c CommodityID) (decimal.Decimal, bool) {
	f, ok := bushelFactors[c]
	return f, ok
}
