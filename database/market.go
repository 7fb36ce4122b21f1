package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
	loadSql "github.com/siherrmann/agrimarket/sql"
)

// initMarket loads the market SQL functions and creates the market tables.
// It is shared by every handler of the structured store.
func initMarket(db *helper.Database, force bool) error {
	if db == nil {
		return helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	err := loadSql.LoadMarketSql(db.Instance, force)
	if err != nil {
		return helper.NewError("load market sql", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = db.Instance.ExecContext(ctx, `SELECT init_market();`)
	if err != nil {
		return helper.NewError("init market tables", err)
	}

	return nil
}

// windowArgs expands a window into the (start, end, points) arguments
// taken by the windowed select functions.
func windowArgs(w model.DateWindow) (time.Time, time.Time, interface{}) {
	points := make([]string, 0, len(w.Points))
	for _, p := range w.Points {
		points = append(points, p.Format(model.DateLayout))
	}
	return w.Start, w.End, pq.Array(points)
}

// commodityArg maps an absent commodity to SQL NULL
func commodityArg(c *model.CommodityID) interface{} {
	if c == nil {
		return nil
	}
	return string(*c)
}

func scanMaxDate(row *sql.Row) (*time.Time, error) {
	var maxDate sql.NullTime
	err := row.Scan(&maxDate)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	if !maxDate.Valid {
		return nil, nil
	}
	d := model.Day(maxDate.Time)
	return &d, nil
}
