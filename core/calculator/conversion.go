package calculator

import (
	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket/model"
)

// Rounding precision per unit class, applied once per public function
const (
	DollarPlaces   int32 = 2
	QuantityPlaces int32 = 4
)

// HectaresPerAcre is the canonical land area constant. Hectare to acre
// divides by it, so the two directions are exact reciprocals.
var HectaresPerAcre = decimal.RequireFromString("0.4046856422")

// Board crush yields per bushel of soybeans: 44 lb of meal (0.022 short tons,
// meal quoted in dollars per short ton) and 11 lb of oil (quoted in cents per pound).
var (
	MealYield = decimal.RequireFromString("0.022")
	OilYield  = decimal.RequireFromString("0.11")
)

var centsPerDollar = decimal.NewFromInt(100)

func factor(conversion string, commodity model.CommodityID) (decimal.Decimal, error) {
	f, ok := model.ConversionFactor(commodity)
	if !ok {
		return decimal.Zero, &model.UnsupportedConversionError{Conversion: conversion, Commodity: &commodity}
	}
	return f, nil
}

// BushelToTon converts bushels to metric tons
func BushelToTon(qty decimal.Decimal, commodity model.CommodityID) (decimal.Decimal, error) {
	f, err := factor("bushel to ton conversion", commodity)
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Mul(f).Round(QuantityPlaces), nil
}

// TonToBushel converts metric tons to bushels
func TonToBushel(qty decimal.Decimal, commodity model.CommodityID) (decimal.Decimal, error) {
	f, err := factor("ton to bushel conversion", commodity)
	if err != nil {
		return decimal.Zero, err
	}
	return qty.Div(f).Round(QuantityPlaces), nil
}

// CentsPerBushelToUsdPerTon converts a quote in U.S. cents per bushel to
// dollars per metric ton. The factor is tons per bushel, so it divides.
func CentsPerBushelToUsdPerTon(priceCents decimal.Decimal, commodity model.CommodityID) (decimal.Decimal, error) {
	f, err := factor("price per ton conversion", commodity)
	if err != nil {
		return decimal.Zero, err
	}
	return usdPerTon(priceCents, f).Round(DollarPlaces), nil
}

func usdPerTon(priceCents, f decimal.Decimal) decimal.Decimal {
	return priceCents.Div(centsPerDollar).Div(f)
}

// FlatPrice is a basis calculation with its intermediate steps
type FlatPrice struct {
	FuturesCents  decimal.Decimal `json:"futures_cents"`
	BasisCents    decimal.Decimal `json:"basis_cents"`
	FlatCents     decimal.Decimal `json:"flat_cents"`
	FlatUsdPerTon decimal.Decimal `json:"flat_usd_per_ton"`
	BushelsPerTon decimal.Decimal `json:"bushels_per_ton"`
}

// BasisToFlatPrice adds the basis to the futures price and converts the
// resulting cash price to dollars per metric ton.
func BasisToFlatPrice(futuresCents, basisCents decimal.Decimal, commodity model.CommodityID) (*FlatPrice, error) {
	f, err := factor("flat price calculation", commodity)
	if err != nil {
		return nil, err
	}

	flat := futuresCents.Add(basisCents)
	return &FlatPrice{
		FuturesCents:  futuresCents,
		BasisCents:    basisCents,
		FlatCents:     flat,
		FlatUsdPerTon: usdPerTon(flat, f).Round(DollarPlaces),
		BushelsPerTon: decimal.NewFromInt(1).Div(f).Round(QuantityPlaces),
	}, nil
}

// AcreToHectare converts acres to hectares
func AcreToHectare(acres decimal.Decimal) decimal.Decimal {
	return acres.Mul(HectaresPerAcre).Round(QuantityPlaces)
}

// HectareToAcre converts hectares to acres
func HectareToAcre(hectares decimal.Decimal) decimal.Decimal {
	return hectares.Div(HectaresPerAcre).Round(QuantityPlaces)
}

// YieldBuAcreToTonHectare converts a yield in bushels per acre to metric
// tons per hectare. A hectare is larger than an acre, so the area divides.
func YieldBuAcreToTonHectare(yield decimal.Decimal, commodity model.CommodityID) (decimal.Decimal, error) {
	f, err := factor("yield conversion", commodity)
	if err != nil {
		return decimal.Zero, err
	}
	return yield.Mul(f).Div(HectaresPerAcre).Round(QuantityPlaces), nil
}
