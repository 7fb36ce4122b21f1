package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket/config"
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

type fakeAnswerer struct {
	last string
}

func (f *fakeAnswerer) Answer(ctx context.Context, text string) model.Answer {
	f.last = text
	return model.Answer{Kind: model.KindCalculated, Status: model.StatusOK, Payload: "Result: 127.006 t"}
}

type fakeStore struct {
	summaries []*model.DailySummaryRecord
	latest    []*model.DailySummaryRecord
	prices    []*model.PriceRecord
	err       error
	priceErr  error
}

func (f *fakeStore) SelectLatestSummaries(ctx context.Context) ([]*model.DailySummaryRecord, error) {
	return f.latest, f.err
}

func (f *fakeStore) SelectAllDailySummaries(ctx context.Context) ([]*model.DailySummaryRecord, error) {
	return f.summaries, f.err
}

func (f *fakeStore) SelectPriceSeries(ctx context.Context, c model.CommodityID, start time.Time, end time.Time) ([]*model.PriceRecord, error) {
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	var out []*model.PriceRecord
	for _, p := range f.prices {
		if p.Commodity == c && !p.Date.Before(start) && !p.Date.After(end) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeHealth struct{ err error }

func (f fakeHealth) CheckHealth(ctx context.Context) error { return f.err }

func testServer(deps Dependencies) *Server {
	cfg := config.APIConfig{Host: "127.0.0.1", Port: 8000}
	return NewServer(cfg, deps, "test", helper.NewLogger(os.Stdout, slog.LevelDebug))
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var resp APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "Expected a JSON body")
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		rec, resp := do(t, testServer(Dependencies{Health: fakeHealth{}}), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
	})

	t.Run("Database down", func(t *testing.T) {
		rec, resp := do(t, testServer(Dependencies{Health: fakeHealth{err: errors.New("refused")}}), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, resp.Success)
	})
}

func TestChat(t *testing.T) {
	answerer := &fakeAnswerer{}
	s := testServer(Dependencies{Answerer: answerer})

	t.Run("Answer is returned", func(t *testing.T) {
		rec, resp := do(t, s, http.MethodPost, "/api/chat", `{"message":"  옥수수 5000부셸은 몇 톤?  "}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, "옥수수 5000부셸은 몇 톤?", answerer.last, "Expected the message to be trimmed")

		data, ok := resp.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "CALCULATED", data["kind"])
		assert.Equal(t, "ok", data["status"])
	})

	t.Run("Empty message", func(t *testing.T) {
		rec, resp := do(t, s, http.MethodPost, "/api/chat", `{"message":" "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "message is required", resp.Error)
	})

	t.Run("Invalid body", func(t *testing.T) {
		rec, _ := do(t, s, http.MethodPost, "/api/chat", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIndex(t *testing.T) {
	t.Run("Not configured", func(t *testing.T) {
		rec, _ := do(t, testServer(Dependencies{}), http.MethodPost, "/api/index", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Documents added", func(t *testing.T) {
		sync := func(ctx context.Context) (int, error) { return 4, nil }
		rec, resp := do(t, testServer(Dependencies{Sync: sync}), http.MethodPost, "/api/index", "")
		require.Equal(t, http.StatusOK, rec.Code)
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, float64(4), data["added"])
	})

	t.Run("Sync error", func(t *testing.T) {
		sync := func(ctx context.Context) (int, error) { return 0, errors.New("busy") }
		rec, _ := do(t, testServer(Dependencies{Sync: sync}), http.MethodPost, "/api/index", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestSentimentCards(t *testing.T) {
	t.Run("Never summarized commodities are neutral", func(t *testing.T) {
		store := &fakeStore{latest: []*model.DailySummaryRecord{
			{Commodity: model.Corn, Date: day("2025-07-28"), SentimentScore: 64, Reasoning: "Heat", Keywords: []string{"heat"}},
			{Commodity: model.PalmOil},
		}}

		cards := sentimentCards(store.latest)
		require.Len(t, cards, 2)
		assert.Equal(t, 64.0, cards[0].SentimentScore)
		require.NotNil(t, cards[0].LastUpdated)
		assert.Equal(t, model.NeutralSentiment, cards[1].SentimentScore)
		assert.Equal(t, noAnalysis, cards[1].Reasoning)
		assert.Nil(t, cards[1].LastUpdated)
		assert.Equal(t, []string{}, cards[1].Keywords)

		rec, resp := do(t, testServer(Dependencies{Summaries: store}), http.MethodGet, "/api/dashboard/sentiment-cards", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, resp.Data, 2)
	})

	t.Run("Store error", func(t *testing.T) {
		rec, _ := do(t, testServer(Dependencies{Summaries: &fakeStore{err: errors.New("down")}}), http.MethodGet, "/api/dashboard/sentiment-cards", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestTimeSeries(t *testing.T) {
	store := &fakeStore{
		summaries: []*model.DailySummaryRecord{
			{Commodity: model.Corn, Date: day("2025-07-25"), SentimentScore: 48},
			{Commodity: model.Wheat, Date: day("2025-07-25"), SentimentScore: 30},
			{Commodity: model.Corn, Date: day("2025-07-26"), SentimentScore: 52},
			{Commodity: model.Corn, Date: day("2025-07-28"), SentimentScore: 61},
		},
		prices: []*model.PriceRecord{
			{Commodity: model.Corn, Date: day("2025-07-24"), ClosingPrice: decimal.RequireFromString("405")},
			{Commodity: model.Corn, Date: day("2025-07-25"), ClosingPrice: decimal.RequireFromString("410.25")},
			{Commodity: model.Corn, Date: day("2025-07-28"), ClosingPrice: decimal.RequireFromString("412.5")},
		},
	}

	t.Run("Prices are merged by date", func(t *testing.T) {
		points := timeSeries(store.summaries[:1], store.prices)
		require.Len(t, points, 1)
		require.NotNil(t, points[0].Price)
		assert.Equal(t, "410.25", points[0].Price.String())
	})

	t.Run("Route", func(t *testing.T) {
		rec, resp := do(t, testServer(Dependencies{Summaries: store, Prices: store}), http.MethodGet, "/api/dashboard/time-series/corn", "")
		require.Equal(t, http.StatusOK, rec.Code)

		points, ok := resp.Data.([]interface{})
		require.True(t, ok)
		require.Len(t, points, 3, "Expected one point per corn summary")
		first := points[0].(map[string]interface{})
		assert.Equal(t, "2025-07-25", first["date"])
		assert.Equal(t, "410.25", first["price"])
		second := points[1].(map[string]interface{})
		assert.Nil(t, second["price"], "Expected a null price on a day without close")
	})

	t.Run("Commodity with a space", func(t *testing.T) {
		rec, resp := do(t, testServer(Dependencies{Summaries: store, Prices: store}), http.MethodGet, "/api/dashboard/time-series/Soybean%20Oil", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, resp.Data)
	})

	t.Run("Unknown commodity", func(t *testing.T) {
		rec, _ := do(t, testServer(Dependencies{Summaries: store, Prices: store}), http.MethodGet, "/api/dashboard/time-series/coffee", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Price error keeps sentiment", func(t *testing.T) {
		failing := &fakeStore{summaries: store.summaries, priceErr: errors.New("down")}
		rec, resp := do(t, testServer(Dependencies{Summaries: failing, Prices: failing}), http.MethodGet, "/api/dashboard/time-series/Corn", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, resp.Data, 3)
	})
}

func TestMetrics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	testServer(Dependencies{}).Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
