package calculator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// PriceSource supplies closing prices for calculations
type PriceSource interface {
	SelectPriceAtOrBefore(ctx context.Context, commodity model.CommodityID, date time.Time) (*model.PriceRecord, error)
	SelectCommonPriceDate(ctx context.Context, commodities []model.CommodityID, date time.Time) (*time.Time, error)
	SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error)
}

// Calculation names a supported calculation
type Calculation string

const (
	CalcCrushMargin   Calculation = "crush_margin"
	CalcFlatPrice     Calculation = "flat_price"
	CalcPricePerTon   Calculation = "price_per_ton"
	CalcBushelToTon   Calculation = "bushel_to_ton"
	CalcTonToBushel   Calculation = "ton_to_bushel"
	CalcAcreToHectare Calculation = "acre_to_hectare"
	CalcHectareToAcre Calculation = "hectare_to_acre"
	CalcYield         Calculation = "yield_bu_acre_to_t_ha"
)

// Keywords that select a calculation
var (
	CrushKeywords    = []string{"크러시", "크러쉬", "착유", "crush", "crushing"}
	PerTonKeywords   = []string{"톤당", "톤 단위", "톤단위", "per ton", "per metric ton", "usd/mt", "$/mt", "/mt", "/ton"}
	unitCalculations = map[model.UnitTag]Calculation{
		model.UnitBushel:        CalcBushelToTon,
		model.UnitTon:           CalcTonToBushel,
		model.UnitAcre:          CalcAcreToHectare,
		model.UnitHectare:       CalcHectareToAcre,
		model.UnitBushelPerAcre: CalcYield,
	}
)

// ConversionKeywords ask for a quantity in another unit. A bare quantity
// such as "5000 tons" in a news question is not a calculation.
var ConversionKeywords = []string{
	"몇", "환산", "변환", "바꿔", "바꾸", "계산",
	"convert", "how many", "how much", "in tons", "to tons", "in metric tons", "to metric tons",
	"in bushels", "to bushels", "in acres", "to acres", "in hectares", "to hectares",
	"in ha", "to ha", "in t/ha", "to t/ha", "per hectare",
}

// Result is a finished calculation ready to be rendered
type Result struct {
	Calculation Calculation        `json:"calculation"`
	Commodity   *model.CommodityID `json:"commodity,omitempty"`
	Value       decimal.Decimal    `json:"value"`
	Unit        string             `json:"unit"`
	Steps       []string           `json:"steps"`
	Span        *model.DateWindow  `json:"span,omitempty"` // dates of the prices used
	Notes       []string           `json:"notes,omitempty"`
}

// Render formats the result with every intermediate step
func (r *Result) Render() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("=== %s ===\n", r.Calculation))
	for i, step := range r.Steps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}
	b.WriteString(fmt.Sprintf("Result: %s %s", r.Value.String(), r.Unit))
	for _, note := range r.Notes {
		b.WriteString("\nNote: " + note)
	}
	return b.String()
}

// Router maps a parsed query to one of the supported calculations
type Router struct {
	prices PriceSource
}

// NewRouter creates a router reading prices from prices
func NewRouter(prices PriceSource) *Router {
	return &Router{prices: prices}
}

// Detect returns the calculation the query asks for. The order is fixed:
// crush, basis, quantity conversion, price per ton.
func (r *Router) Detect(intent model.ParsedIntent) (Calculation, bool) {
	switch {
	case intent.ContainsAny(CrushKeywords):
		return CalcCrushMargin, true
	case intent.Basis != nil:
		return CalcFlatPrice, true
	case intent.HasQuantity() && intent.ContainsAny(ConversionKeywords):
		return unitCalculations[*intent.Unit], true
	case intent.Commodity != nil && intent.ContainsAny(PerTonKeywords):
		return CalcPricePerTon, true
	}
	return "", false
}

// Calculate runs the detected calculation. It returns model.ErrNoCalculation
// when nothing was detected, and the typed errors of model for unsupported
// commodities or missing prices.
func (r *Router) Calculate(ctx context.Context, intent model.ParsedIntent) (*Result, error) {
	calc, ok := r.Detect(intent)
	if !ok {
		return nil, model.ErrNoCalculation
	}

	switch calc {
	case CalcCrushMargin:
		return r.crushMargin(ctx, intent)
	case CalcFlatPrice:
		return r.flatPrice(ctx, intent)
	case CalcPricePerTon:
		return r.pricePerTon(ctx, intent)
	default:
		return r.convert(calc, intent)
	}
}

func (r *Router) crushMargin(ctx context.Context, intent model.ParsedIntent) (*Result, error) {
	date, err := r.anchorDate(ctx, intent, model.Soybean)
	if err != nil {
		return nil, err
	}
	if date == nil {
		return nil, &model.InsufficientDataError{Calculation: "board crush margin", Missing: model.SoyComplex}
	}

	inputs, err := FetchCrushInputs(ctx, r.prices, *date)
	if err != nil {
		return nil, err
	}
	margin, err := BoardCrushMargin(inputs)
	if err != nil {
		return nil, err
	}

	legs := []*model.PriceRecord{inputs.Soybean, inputs.Meal, inputs.Oil}
	return &Result{
		Calculation: CalcCrushMargin,
		Value:       margin.Margin,
		Unit:        "USD/bu",
		Steps: []string{
			fmt.Sprintf("Soybean %s ¢/bu / 100 = $%s/bu", inputs.Soybean.ClosingPrice, margin.SoybeanDollars),
			fmt.Sprintf("Soybean Meal %s $/short ton x %s = $%s", inputs.Meal.ClosingPrice, MealYield, margin.MealValue),
			fmt.Sprintf("Soybean Oil %s ¢/lb x %s = $%s", inputs.Oil.ClosingPrice, OilYield, margin.OilValue),
			fmt.Sprintf("Margin = %s + %s - %s", margin.MealValue, margin.OilValue, margin.SoybeanDollars),
		},
		Span:  priceSpan(legs...),
		Notes: crushDateNotes(*date, inputs.Date),
	}, nil
}

// crushDateNotes flags a margin computed for an earlier day than requested
func crushDateNotes(requested time.Time, used time.Time) []string {
	if !used.Before(model.Day(requested)) {
		return nil
	}
	return []string{fmt.Sprintf("no complete soy complex prices on %s, used %s, the last day with all three legs",
		model.Day(requested).Format(model.DateLayout), used.Format(model.DateLayout))}
}

func (r *Router) flatPrice(ctx context.Context, intent model.ParsedIntent) (*Result, error) {
	commodity, err := requireFactor("flat price calculation", intent.Commodity)
	if err != nil {
		return nil, err
	}

	futures, record, err := r.futuresPrice(ctx, intent, commodity)
	if err != nil {
		return nil, err
	}
	flat, err := BasisToFlatPrice(futures, *intent.Basis, commodity)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Calculation: CalcFlatPrice,
		Commodity:   &commodity,
		Value:       flat.FlatUsdPerTon,
		Unit:        "USD/t",
		Steps: []string{
			fmt.Sprintf("Flat price = futures + basis = %s + %s = %s ¢/bu", flat.FuturesCents, flat.BasisCents, flat.FlatCents),
			fmt.Sprintf("%s ¢/bu / 100 = $%s/bu", flat.FlatCents, flat.FlatCents.Div(centsPerDollar)),
			fmt.Sprintf("$%s/bu x %s bu/t = $%s/t", flat.FlatCents.Div(centsPerDollar), flat.BushelsPerTon, flat.FlatUsdPerTon),
		},
	}
	if record != nil {
		result.Span = priceSpan(record)
		result.Notes = earlierPriceNotes(requestedDate(intent, record.Date), record)
	}
	return result, nil
}

func (r *Router) pricePerTon(ctx context.Context, intent model.ParsedIntent) (*Result, error) {
	commodity, err := requireFactor("price per ton conversion", intent.Commodity)
	if err != nil {
		return nil, err
	}

	cents, record, err := r.futuresPrice(ctx, intent, commodity)
	if err != nil {
		return nil, err
	}
	usd, err := CentsPerBushelToUsdPerTon(cents, commodity)
	if err != nil {
		return nil, err
	}

	f, _ := model.ConversionFactor(commodity)
	result := &Result{
		Calculation: CalcPricePerTon,
		Commodity:   &commodity,
		Value:       usd,
		Unit:        "USD/t",
		Steps: []string{
			fmt.Sprintf("%s ¢/bu / 100 = $%s/bu", cents, cents.Div(centsPerDollar)),
			fmt.Sprintf("$%s/bu / %s t/bu = $%s/t", cents.Div(centsPerDollar), f, usd),
		},
	}
	if record != nil {
		result.Span = priceSpan(record)
		result.Notes = earlierPriceNotes(requestedDate(intent, record.Date), record)
	}
	return result, nil
}

func (r *Router) convert(calc Calculation, intent model.ParsedIntent) (*Result, error) {
	value := *intent.Value
	result := &Result{Calculation: calc, Commodity: intent.Commodity}

	switch calc {
	case CalcAcreToHectare:
		result.Value, result.Unit = AcreToHectare(value), "ha"
		result.Steps = []string{fmt.Sprintf("%s acre x %s ha/acre", value, HectaresPerAcre)}
		return result, nil
	case CalcHectareToAcre:
		result.Value, result.Unit = HectareToAcre(value), "acre"
		result.Steps = []string{fmt.Sprintf("%s ha / %s ha/acre", value, HectaresPerAcre)}
		return result, nil
	}

	commodity, err := requireFactor(string(calc), intent.Commodity)
	if err != nil {
		return nil, err
	}
	f, _ := model.ConversionFactor(commodity)

	switch calc {
	case CalcBushelToTon:
		result.Value, err = BushelToTon(value, commodity)
		result.Unit = "t"
		result.Steps = []string{fmt.Sprintf("%s bu x %s t/bu", value, f)}
	case CalcTonToBushel:
		result.Value, err = TonToBushel(value, commodity)
		result.Unit = "bu"
		result.Steps = []string{fmt.Sprintf("%s t / %s t/bu", value, f)}
	case CalcYield:
		result.Value, err = YieldBuAcreToTonHectare(value, commodity)
		result.Unit = "t/ha"
		result.Steps = []string{
			fmt.Sprintf("%s bu/acre x %s t/bu = %s t/acre", value, f, value.Mul(f).Round(QuantityPlaces)),
			fmt.Sprintf("t/acre / %s ha/acre", HectaresPerAcre),
		}
	default:
		return nil, model.ErrNoCalculation
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// futuresPrice returns the price quoted in the query, or the stored closing
// price on the requested date (latest available when none was given).
func (r *Router) futuresPrice(ctx context.Context, intent model.ParsedIntent, commodity model.CommodityID) (decimal.Decimal, *model.PriceRecord, error) {
	if intent.Price != nil {
		return *intent.Price, nil, nil
	}

	date, err := r.anchorDate(ctx, intent, commodity)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if date == nil {
		return decimal.Zero, nil, &model.InsufficientDataError{Calculation: "futures price", Missing: []model.CommodityID{commodity}}
	}

	record, err := r.prices.SelectPriceAtOrBefore(ctx, commodity, *date)
	if err != nil {
		return decimal.Zero, nil, helper.NewError("select price", err)
	}
	if record == nil {
		return decimal.Zero, nil, &model.InsufficientDataError{Calculation: "futures price", Date: *date, Missing: []model.CommodityID{commodity}}
	}
	return record.ClosingPrice, record, nil
}

// anchorDate is the first explicit date of the query, or the latest stored
// price date of commodity. Nil when there is no price at all.
func (r *Router) anchorDate(ctx context.Context, intent model.ParsedIntent, commodity model.CommodityID) (*time.Time, error) {
	if intent.HasDate() {
		d := intent.Dates[0]
		return &d, nil
	}
	if r.prices == nil {
		return nil, nil
	}
	date, err := r.prices.SelectMaxDate(ctx, &commodity)
	if err != nil {
		return nil, helper.NewError("select max price date", err)
	}
	return date, nil
}

func requireFactor(conversion string, commodity *model.CommodityID) (model.CommodityID, error) {
	if commodity == nil {
		return "", &model.UnsupportedConversionError{Conversion: conversion}
	}
	if _, err := factor(conversion, *commodity); err != nil {
		return "", err
	}
	return *commodity, nil
}

func requestedDate(intent model.ParsedIntent, fallback time.Time) time.Time {
	if intent.HasDate() {
		return intent.Dates[0]
	}
	return fallback
}

func priceSpan(records ...*model.PriceRecord) *model.DateWindow {
	dates := make([]time.Time, 0, len(records))
	for _, rec := range records {
		dates = append(dates, rec.Date)
	}
	return model.SpanOf(dates)
}

// earlierPriceNotes flags legs priced on an earlier date than requested,
// e.g. when the requested date fell on a weekend.
func earlierPriceNotes(requested time.Time, records ...*model.PriceRecord) []string {
	var notes []string
	for _, rec := range records {
		if rec.Date.Before(model.Day(requested)) {
			notes = append(notes, fmt.Sprintf("no %s price on %s, used the previous trading day %s",
				rec.Commodity, model.Day(requested).Format(model.DateLayout), rec.Date.Format(model.DateLayout)))
		}
	}
	return notes
}
