package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// PricesDBHandlerFunctions defines the interface for price history operations.
type PricesDBHandlerFunctions interface {
	InsertPrice(ctx context.Context, price *model.PriceRecord) error
	SelectPrices(ctx context.Context, commodity model.CommodityID, window model.DateWindow, limit int) ([]*model.PriceRecord, error)
	SelectPriceAtOrBefore(ctx context.Context, commodity model.CommodityID, date time.Time) (*model.PriceRecord, error)
	SelectPriceSeries(ctx context.Context, commodity model.CommodityID, start time.Time, end time.Time) ([]*model.PriceRecord, error)
	SelectCommonPriceDate(ctx context.Context, commodities []model.CommodityID, date time.Time) (*time.Time, error)
	SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error)
}

// PricesDBHandler handles price history reads and writes
type PricesDBHandler struct {
	db *helper.Database
}

// NewPricesDBHandler creates a new prices database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPricesDBHandler(db *helper.Database, force bool) (*PricesDBHandler, error) {
	err := initMarket(db, force)
	if err != nil {
		return nil, err
	}

	db.Logger.Info("Initialized PricesDBHandler")

	return &PricesDBHandler{db: db}, nil
}

// InsertPrice upserts a closing price. The commodity must exist in the master list.
func (h *PricesDBHandler) InsertPrice(ctx context.Context, price *model.PriceRecord) error {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM insert_price($1, $2, $3)`,
		string(price.Commodity),
		price.Date,
		price.ClosingPrice,
	)

	err := row.Scan(
		&price.Date,
		&price.Commodity,
		&price.ClosingPrice,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	price.Date = model.Day(price.Date)

	return nil
}

// SelectPrices returns the prices in window, newest first
func (h *PricesDBHandler) SelectPrices(ctx context.Context, commodity model.CommodityID, window model.DateWindow, limit int) ([]*model.PriceRecord, error) {
	start, end, points := windowArgs(window)
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_prices($1, $2, $3, $4, $5)`,
		string(commodity),
		start,
		end,
		points,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return scanPrices(rows)
}

// SelectPriceAtOrBefore returns the latest price on or before date, nil if there is none
func (h *PricesDBHandler) SelectPriceAtOrBefore(ctx context.Context, commodity model.CommodityID, date time.Time) (*model.PriceRecord, error) {
	price := &model.PriceRecord{}
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM select_price_at_or_before($1, $2)`,
		string(commodity),
		date,
	)

	err := row.Scan(
		&price.Date,
		&price.Commodity,
		&price.ClosingPrice,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, helper.NewError("scan", err)
	}
	price.Date = model.Day(price.Date)

	return price, nil
}

// SelectPriceSeries returns the prices between start and end, oldest first
func (h *PricesDBHandler) SelectPriceSeries(ctx context.Context, commodity model.CommodityID, start time.Time, end time.Time) ([]*model.PriceRecord, error) {
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_price_series($1, $2, $3)`,
		string(commodity),
		start,
		end,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return scanPrices(rows)
}

// SelectCommonPriceDate returns the latest date on or before date on which
// every commodity has a closing price, nil if there is none
func (h *PricesDBHandler) SelectCommonPriceDate(ctx context.Context, commodities []model.CommodityID, date time.Time) (*time.Time, error) {
	names := make([]string, len(commodities))
	for i, c := range commodities {
		names[i] = string(c)
	}

	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT select_common_price_date($1, $2)`,
		pq.Array(names),
		date,
	)
	return scanMaxDate(row)
}

// SelectMaxDate returns the latest price date, scoped to commodity when given
func (h *PricesDBHandler) SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT select_max_price_date($1)`,
		commodityArg(commodity),
	)
	return scanMaxDate(row)
}

func scanPrices(rows *sql.Rows) ([]*model.PriceRecord, error) {
	defer rows.Close()

	var prices []*model.PriceRecord
	for rows.Next() {
		price := &model.PriceRecord{}
		err := rows.Scan(
			&price.Date,
			&price.Commodity,
			&price.ClosingPrice,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		price.Date = model.Day(price.Date)

		prices = append(prices, price)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return prices, nil
}
