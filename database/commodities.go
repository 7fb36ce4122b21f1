package database

import (
	"context"

	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// CommoditiesDBHandlerFunctions defines the interface for Commodities database operations.
type CommoditiesDBHandlerFunctions interface {
	InsertCommodity(ctx context.Context, name model.CommodityID) (*model.Commodity, error)
	SelectCommodities(ctx context.Context) ([]*model.Commodity, error)
	SeedCommodities(ctx context.Context) error
}

// CommoditiesDBHandler handles the commodities master list
type CommoditiesDBHandler struct {
	db *helper.Database
}

// NewCommoditiesDBHandler creates a new commodities database handler.
// It loads the market SQL functions and creates the market tables.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCommoditiesDBHandler(db *helper.Database, force bool) (*CommoditiesDBHandler, error) {
	err := initMarket(db, force)
	if err != nil {
		return nil, err
	}

	db.Logger.Info("Initialized CommoditiesDBHandler")

	return &CommoditiesDBHandler{db: db}, nil
}

// InsertCommodity inserts a commodity, returning the existing row if it is already known
func (h *CommoditiesDBHandler) InsertCommodity(ctx context.Context, name model.CommodityID) (*model.Commodity, error) {
	commodity := &model.Commodity{}
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM insert_commodity($1)`,
		string(name),
	)

	err := row.Scan(
		&commodity.ID,
		&commodity.Name,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return commodity, nil
}

// SelectCommodities returns the master list ordered by id
func (h *CommoditiesDBHandler) SelectCommodities(ctx context.Context) ([]*model.Commodity, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_commodities()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var commodities []*model.Commodity
	for rows.Next() {
		commodity := &model.Commodity{}
		err := rows.Scan(
			&commodity.ID,
			&commodity.Name,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		commodities = append(commodities, commodity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return commodities, nil
}

// SeedCommodities makes sure every known commodity exists in the master list
func (h *CommoditiesDBHandler) SeedCommodities(ctx context.Context) error {
	for _, c := range model.AllCommodities() {
		_, err := h.InsertCommodity(ctx, c)
		if err != nil {
			return helper.NewError("seed "+string(c), err)
		}
	}
	return nil
}
