package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket/core/intent"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func parse(text string) model.ParsedIntent {
	p := &intent.Parser{Now: func() time.Time { return day("2025-08-05") }}
	return p.Parse(text)
}

func testLogger() *slog.Logger {
	return helper.NewLogger(os.Stdout, slog.LevelDebug)
}

// fakeMarket is an in-memory summary, news and price store
type fakeMarket struct {
	summaries []*model.DailySummaryRecord
	news      []*model.NewsRecord
	prices    []*model.PriceRecord
	err       error
}

type fakeSummaries struct{ *fakeMarket }
type fakeNews struct{ *fakeMarket }
type fakePrices struct{ *fakeMarket }

func latest(dates []time.Time) *time.Time {
	var newest *time.Time
	for _, d := range dates {
		d := model.Day(d)
		if newest == nil || d.After(*newest) {
			newest = &d
		}
	}
	return newest
}

func (f fakeSummaries) SelectDailySummaries(ctx context.Context, commodity *model.CommodityID, w model.DateWindow, limit int) ([]*model.DailySummaryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.DailySummaryRecord
	for _, s := range f.summaries {
		if (commodity == nil || s.Commodity == *commodity) && w.Contains(s.Date) && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f fakeSummaries) SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	var dates []time.Time
	for _, s := range f.summaries {
		if commodity == nil || s.Commodity == *commodity {
			dates = append(dates, s.Date)
		}
	}
	return latest(dates), nil
}

func (f fakeNews) SelectNewsByImpact(ctx context.Context, commodity model.CommodityID, w model.DateWindow, limit int) ([]*model.NewsRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.NewsRecord
	for _, n := range f.news {
		if n.Commodity == commodity && w.Contains(n.PublishedTime) && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f fakeNews) SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	var dates []time.Time
	for _, n := range f.news {
		if commodity == nil || n.Commodity == *commodity {
			dates = append(dates, n.PublishedTime)
		}
	}
	return latest(dates), nil
}

func (f fakePrices) SelectPrices(ctx context.Context, commodity model.CommodityID, w model.DateWindow, limit int) ([]*model.PriceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.PriceRecord
	for _, p := range f.prices {
		if p.Commodity == commodity && w.Contains(p.Date) && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f fakePrices) SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	var dates []time.Time
	for _, p := range f.prices {
		if commodity == nil || p.Commodity == *commodity {
			dates = append(dates, p.Date)
		}
	}
	return latest(dates), nil
}

func testMarket() *fakeMarket {
	return &fakeMarket{
		summaries: []*model.DailySummaryRecord{
			{Date: day("2025-07-28"), Commodity: model.Corn, SentimentScore: 34, Reasoning: "Ample supply", Keywords: []string{"Favorable Weather"}, AnalyzedNewsCount: 12},
			{Date: day("2025-07-25"), Commodity: model.Corn, SentimentScore: 44, Reasoning: "Export demand", Keywords: []string{"Export Demand"}, AnalyzedNewsCount: 8},
			{Date: day("2025-07-28"), Commodity: model.Wheat, SentimentScore: 55, Reasoning: "Steady", Keywords: []string{}},
		},
		news: []*model.NewsRecord{
			{ID: 1, Title: "Brazil drought", PublishedTime: time.Date(2025, 7, 26, 9, 0, 0, 0, time.UTC), Commodity: model.Corn, SentimentScore: 85},
			{ID: 2, Title: "Rain in Iowa", PublishedTime: time.Date(2025, 7, 24, 9, 0, 0, 0, time.UTC), Commodity: model.Corn, SentimentScore: 30},
		},
		prices: []*model.PriceRecord{
			{Date: day("2025-07-28"), Commodity: model.Corn, ClosingPrice: decimal.RequireFromString("410.5")},
			{Date: day("2025-07-25"), Commodity: model.Corn, ClosingPrice: decimal.RequireFromString("415")},
			{Date: day("2025-07-28"), Commodity: model.Soybean, ClosingPrice: decimal.RequireFromString("1025.25")},
			{Date: day("2025-07-28"), Commodity: model.SoybeanMeal, ClosingPrice: decimal.RequireFromString("350.5")},
			{Date: day("2025-07-25"), Commodity: model.SoybeanOil, ClosingPrice: decimal.RequireFromString("55.2")},
		},
	}
}

// slowNews answers after a delay and fails when ctx was cancelled meanwhile
type slowNews struct {
	fakeNews
	delay time.Duration
}

func (f slowNews) wait(ctx context.Context) error {
	time.Sleep(f.delay)
	return ctx.Err()
}

func (f slowNews) SelectNewsByImpact(ctx context.Context, commodity model.CommodityID, w model.DateWindow, limit int) ([]*model.NewsRecord, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.fakeNews.SelectNewsByImpact(ctx, commodity, w, limit)
}

func (f slowNews) SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.fakeNews.SelectMaxDate(ctx, commodity)
}

func newFakeRetriever(m *fakeMarket) *StructuredRetriever {
	return NewStructuredRetriever(fakeSummaries{m}, fakeNews{m}, fakePrices{m}, model.DefaultRetrievalConfig(), testLogger())
}

func TestIsCrushCombination(t *testing.T) {
	assert.True(t, IsCrushCombination(parse("대두와 대두박 가격")))
	assert.True(t, IsCrushCombination(parse("soybean and soybean oil")))
	assert.True(t, IsCrushCombination(parse("크러시 마진")))
	assert.False(t, IsCrushCombination(parse("대두 가격")))
	assert.False(t, IsCrushCombination(parse("대두박과 대두유")))
}

func TestStructuredRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("Recent commodity query fills every section", func(t *testing.T) {
		result := newFakeRetriever(testMarket()).Retrieve(ctx, parse("최근 옥수수 시장 동향"))

		assert.Len(t, result.Summaries.Records, 2)
		assert.Len(t, result.News.Records, 2)
		assert.Len(t, result.Prices.Records, 2)
		assert.False(t, result.Empty())
		assert.False(t, result.Unavailable())

		require.NotNil(t, result.Summaries.Requested)
		assert.Equal(t, "2025-07-22..2025-07-28", result.Summaries.Requested.String())
		require.NotNil(t, result.Summaries.Found)
		assert.Equal(t, "2025-07-25..2025-07-28", result.Summaries.Found.String())

		require.NotNil(t, result.News.Requested)
		assert.Equal(t, "2025-07-20..2025-07-26", result.News.Requested.String(), "Expected news to be anchored at the latest corn article")

		require.NotNil(t, result.Span())
		assert.Equal(t, "2025-07-24..2025-07-28", result.Span().String())
	})

	t.Run("Render reports requested and found spans", func(t *testing.T) {
		result := newFakeRetriever(testMarket()).Retrieve(ctx, parse("최근 옥수수 시장 동향"))
		payload := result.Render()

		assert.Contains(t, payload, "=== daily summaries ===")
		assert.Contains(t, payload, "(requested 2025-07-22..2025-07-28, found 2025-07-25..2025-07-28)")
		assert.Contains(t, payload, "Title: Brazil drought")
		assert.Contains(t, payload, "Close: 410.5")
	})

	t.Run("No commodity skips news and prices", func(t *testing.T) {
		result := newFakeRetriever(testMarket()).Retrieve(ctx, parse("2025년 7월 28일 시장 요약"))

		assert.Len(t, result.Summaries.Records, 2)
		assert.True(t, result.News.Skipped)
		assert.True(t, result.Prices.Skipped)
	})

	t.Run("Crush combination fetches the soy complex", func(t *testing.T) {
		result := newFakeRetriever(testMarket()).Retrieve(ctx, parse("최근 대두와 대두유 가격"))

		var commodities []model.CommodityID
		for _, p := range result.Prices.Records {
			commodities = append(commodities, p.Commodity)
		}
		assert.ElementsMatch(t, model.SoyComplex, commodities)
	})

	t.Run("Single point date", func(t *testing.T) {
		result := newFakeRetriever(testMarket()).Retrieve(ctx, parse("2025-07-25 옥수수 가격"))

		require.Len(t, result.Prices.Records, 1)
		assert.Equal(t, "415", result.Prices.Records[0].ClosingPrice.String())
		assert.Empty(t, result.News.Records)
	})

	t.Run("Two-date comparison keeps the points", func(t *testing.T) {
		result := newFakeRetriever(testMarket()).Retrieve(ctx, parse("2025-07-25과 2025-07-28 옥수수 가격 비교"))

		assert.Len(t, result.Prices.Records, 2)
		require.NotNil(t, result.Prices.Requested)
		assert.Len(t, result.Prices.Requested.Points, 2)
	})

	t.Run("One failing store degrades only its section", func(t *testing.T) {
		m := testMarket()
		failing := &fakeMarket{err: errors.New("connection refused")}
		retriever := NewStructuredRetriever(fakeSummaries{failing}, fakeNews{m}, fakePrices{m}, model.DefaultRetrievalConfig(), testLogger())

		result := retriever.Retrieve(ctx, parse("최근 옥수수"))

		assert.ErrorIs(t, result.Summaries.Err, model.ErrStoreUnavailable)
		assert.ErrorContains(t, result.Summaries.Err, "connection refused")
		assert.NotEmpty(t, result.News.Records)
		assert.NotEmpty(t, result.Prices.Records)
		assert.False(t, result.Unavailable())
		assert.Contains(t, result.Render(), "daily summaries: data temporarily unavailable")
	})

	t.Run("Failed section does not cancel a slower one", func(t *testing.T) {
		m := testMarket()
		failing := &fakeMarket{err: errors.New("connection refused")}
		news := slowNews{fakeNews: fakeNews{m}, delay: 20 * time.Millisecond}
		retriever := NewStructuredRetriever(fakeSummaries{failing}, news, fakePrices{m}, model.DefaultRetrievalConfig(), testLogger())

		result := retriever.Retrieve(ctx, parse("최근 옥수수"))

		assert.ErrorIs(t, result.Summaries.Err, model.ErrStoreUnavailable)
		assert.NoError(t, result.News.Err, "Expected news to finish after the summaries failed")
		assert.NotEmpty(t, result.News.Records)
	})

	t.Run("Every store failing", func(t *testing.T) {
		failing := &fakeMarket{err: errors.New("connection refused")}
		retriever := NewStructuredRetriever(fakeSummaries{failing}, fakeNews{failing}, fakePrices{failing}, model.DefaultRetrievalConfig(), testLogger())

		result := retriever.Retrieve(ctx, parse("2025-07-28 밀"))
		assert.True(t, result.Empty())
		assert.True(t, result.Unavailable())
	})

	t.Run("Empty store", func(t *testing.T) {
		result := newFakeRetriever(&fakeMarket{}).Retrieve(ctx, parse("최근 옥수수"))

		assert.True(t, result.Empty())
		assert.False(t, result.Unavailable())
		assert.Nil(t, result.Span())
	})
}
