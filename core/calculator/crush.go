package calculator

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// CrushMargin is a board crush margin in dollars per bushel of soybeans
type CrushMargin struct {
	Inputs         model.CrushMarginInputs `json:"inputs"`
	SoybeanDollars decimal.Decimal         `json:"soybean_dollars"`
	MealValue      decimal.Decimal         `json:"meal_value"`
	OilValue       decimal.Decimal         `json:"oil_value"`
	Margin         decimal.Decimal         `json:"margin"`
}

// BoardCrushMargin computes meal*0.022 + oil*0.11 - soybean/100.
// Soybeans are quoted in cents and converted to dollars first. Nothing is
// computed when a leg is missing.
func BoardCrushMargin(inputs model.CrushMarginInputs) (*CrushMargin, error) {
	if missing := inputs.MissingLegs(); len(missing) > 0 {
		return nil, &model.InsufficientDataError{
			Calculation: "board crush margin",
			Date:        inputs.Date,
			Missing:     missing,
		}
	}

	soybean := inputs.Soybean.ClosingPrice.Div(centsPerDollar)
	meal := inputs.Meal.ClosingPrice.Mul(MealYield)
	oil := inputs.Oil.ClosingPrice.Mul(OilYield)

	return &CrushMargin{
		Inputs:         inputs,
		SoybeanDollars: soybean.Round(DollarPlaces + 2),
		MealValue:      meal.Round(DollarPlaces + 2),
		OilValue:       oil.Round(DollarPlaces + 2),
		Margin:         meal.Add(oil).Sub(soybean).Round(DollarPlaces),
	}, nil
}

// FetchCrushInputs loads the soy-complex legs on the latest date, on or
// before date, on which all three have a closing price. Without such a date
// only the legs priced on date itself are filled in, so the missing ones are
// reported by BoardCrushMargin.
func FetchCrushInputs(ctx context.Context, prices PriceSource, date time.Time) (model.CrushMarginInputs, error) {
	inputs := model.CrushMarginInputs{Date: model.Day(date)}

	common, err := prices.SelectCommonPriceDate(ctx, model.SoyComplex, inputs.Date)
	if err != nil {
		return inputs, helper.NewError("select common soy complex date", err)
	}
	if common != nil {
		inputs.Date = *common
	}

	legs := []struct {
		commodity model.CommodityID
		target    **model.PriceRecord
	}{
		{model.Soybean, &inputs.Soybean},
		{model.SoybeanMeal, &inputs.Meal},
		{model.SoybeanOil, &inputs.Oil},
	}
	for _, leg := range legs {
		price, err := prices.SelectPriceAtOrBefore(ctx, leg.commodity, inputs.Date)
		if err != nil {
			return inputs, helper.NewError("select "+string(leg.commodity)+" price", err)
		}
		if price != nil && model.Day(price.Date).Equal(inputs.Date) {
			*leg.target = price
		}
	}

	return inputs, nil
}
