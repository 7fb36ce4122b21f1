package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// SummariesDBHandlerFunctions defines the interface for daily summary operations.
type SummariesDBHandlerFunctions interface {
	InsertDailySummary(ctx context.Context, summary *model.DailySummaryRecord) error
	SelectDailySummaries(ctx context.Context, commodity *model.CommodityID, window model.DateWindow, limit int) ([]*model.DailySummaryRecord, error)
	SelectLatestSummaries(ctx context.Context) ([]*model.DailySummaryRecord, error)
	SelectAllDailySummaries(ctx context.Context) ([]*model.DailySummaryRecord, error)
	SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error)
}

// SummariesDBHandler handles the daily market summaries
type SummariesDBHandler struct {
	db *helper.Database
}

// NewSummariesDBHandler creates a new daily summaries database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSummariesDBHandler(db *helper.Database, force bool) (*SummariesDBHandler, error) {
	err := initMarket(db, force)
	if err != nil {
		return nil, err
	}

	db.Logger.Info("Initialized SummariesDBHandler")

	return &SummariesDBHandler{db: db}, nil
}

// InsertDailySummary upserts the summary of a commodity and date
func (h *SummariesDBHandler) InsertDailySummary(ctx context.Context, summary *model.DailySummaryRecord) error {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM insert_daily_summary($1, $2, $3, $4, $5, $6)`,
		string(summary.Commodity),
		summary.Date,
		summary.SentimentScore,
		summary.Reasoning,
		pq.Array(summary.Keywords),
		summary.AnalyzedNewsCount,
	)

	var date sql.NullTime
	err := row.Scan(
		&date,
		&summary.Commodity,
		&summary.SentimentScore,
		&summary.Reasoning,
		pq.Array(&summary.Keywords),
		&summary.AnalyzedNewsCount,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	summary.Date = model.Day(date.Time)

	return nil
}

// SelectDailySummaries returns the summaries in window, newest first.
// A nil commodity selects every commodity.
func (h *SummariesDBHandler) SelectDailySummaries(ctx context.Context, commodity *model.CommodityID, window model.DateWindow, limit int) ([]*model.DailySummaryRecord, error) {
	start, end, points := windowArgs(window)
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_daily_summaries($1, $2, $3, $4, $5)`,
		commodityArg(commodity),
		start,
		end,
		points,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return scanSummaries(rows)
}

// SelectLatestSummaries returns the latest summary of every commodity.
// Commodities that were never summarized come back neutral with a zero date.
func (h *SummariesDBHandler) SelectLatestSummaries(ctx context.Context) ([]*model.DailySummaryRecord, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_latest_summaries()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return scanSummaries(rows)
}

// SelectAllDailySummaries returns every summary, oldest first
func (h *SummariesDBHandler) SelectAllDailySummaries(ctx context.Context) ([]*model.DailySummaryRecord, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_daily_summaries()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	return scanSummaries(rows)
}

// SelectMaxDate returns the latest summary date, scoped to commodity when given
func (h *SummariesDBHandler) SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT select_max_summary_date($1)`,
		commodityArg(commodity),
	)
	return scanMaxDate(row)
}

func scanSummaries(rows *sql.Rows) ([]*model.DailySummaryRecord, error) {
	defer rows.Close()

	var summaries []*model.DailySummaryRecord
	for rows.Next() {
		summary := &model.DailySummaryRecord{}
		var date sql.NullTime
		err := rows.Scan(
			&date,
			&summary.Commodity,
			&summary.SentimentScore,
			&summary.Reasoning,
			pq.Array(&summary.Keywords),
			&summary.AnalyzedNewsCount,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		if date.Valid {
			summary.Date = model.Day(date.Time)
		}

		summaries = append(summaries, summary)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return summaries, nil
}
