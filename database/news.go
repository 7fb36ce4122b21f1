package database

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// NewsDBHandlerFunctions defines the interface for analysed news operations.
type NewsDBHandlerFunctions interface {
	InsertNews(ctx context.Context, news *model.NewsRecord) error
	SelectNewsByImpact(ctx context.Context, commodity model.CommodityID, window model.DateWindow, limit int) ([]*model.NewsRecord, error)
	SelectAnalyzedNews(ctx context.Context) ([]*model.NewsRecord, error)
	SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error)
}

// NewsDBHandler handles raw news and their per-commodity analysis
type NewsDBHandler struct {
	db *helper.Database
}

// NewNewsDBHandler creates a new news database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewNewsDBHandler(db *helper.Database, force bool) (*NewsDBHandler, error) {
	err := initMarket(db, force)
	if err != nil {
		return nil, err
	}

	db.Logger.Info("Initialized NewsDBHandler")

	return &NewsDBHandler{db: db}, nil
}

// InsertNews stores an article and its analysis for news.Commodity.
// The article is created when news.ID is zero, otherwise the analysis is attached to it.
func (h *NewsDBHandler) InsertNews(ctx context.Context, news *model.NewsRecord) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback()

	if news.ID == 0 {
		err = tx.QueryRowContext(ctx,
			`SELECT insert_news($1, $2, $3, $4)`,
			news.Title,
			news.Content,
			news.Source,
			news.PublishedTime,
		).Scan(&news.ID)
		if err != nil {
			return helper.NewError("scan", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`SELECT insert_news_analysis($1, $2, $3, $4, $5)`,
		news.ID,
		string(news.Commodity),
		news.SentimentScore,
		news.Reasoning,
		pq.Array(news.Keywords),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	err = tx.Commit()
	if err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectNewsByImpact returns the news of window ranked by impact, then recency
func (h *NewsDBHandler) SelectNewsByImpact(ctx context.Context, commodity model.CommodityID, window model.DateWindow, limit int) ([]*model.NewsRecord, error) {
	start, end, points := windowArgs(window)
	rows, err := h.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_news_by_impact($1, $2, $3, $4, $5)`,
		string(commodity),
		start,
		end,
		points,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var news []*model.NewsRecord
	for rows.Next() {
		n := &model.NewsRecord{}
		err := rows.Scan(
			&n.ID,
			&n.Title,
			&n.Source,
			&n.PublishedTime,
			&n.Commodity,
			&n.SentimentScore,
			&n.Reasoning,
			pq.Array(&n.Keywords),
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		news = append(news, n)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return news, nil
}

// SelectAnalyzedNews returns every analysed article with its content, one row per commodity
func (h *NewsDBHandler) SelectAnalyzedNews(ctx context.Context) ([]*model.NewsRecord, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_analyzed_news()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var news []*model.NewsRecord
	for rows.Next() {
		n := &model.NewsRecord{}
		err := rows.Scan(
			&n.ID,
			&n.Title,
			&n.Content,
			&n.Source,
			&n.PublishedTime,
			&n.Commodity,
			&n.SentimentScore,
			&n.Reasoning,
			pq.Array(&n.Keywords),
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		news = append(news, n)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return news, nil
}

// SelectMaxDate returns the latest publication date, scoped to commodity when given
func (h *NewsDBHandler) SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error) {
	row := h.db.Instance.QueryRowContext(ctx,
		`SELECT select_max_news_date($1)`,
		commodityArg(commodity),
	)
	return scanMaxDate(row)
}
