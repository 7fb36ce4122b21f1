package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket/model"
)

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// SentimentCard is the latest sentiment of one commodity
type SentimentCard struct {
	Commodity      model.CommodityID `json:"commodity_name"`
	SentimentScore float64           `json:"sentiment_score"`
	Reasoning      string            `json:"reasoning"`
	Keywords       []string          `json:"keywords"`
	LastUpdated    *time.Time        `json:"last_updated,omitempty"`
}

// TimeSeriesPoint is the sentiment of one day with its closing price, if any
type TimeSeriesPoint struct {
	Date           string           `json:"date"`
	SentimentScore float64          `json:"sentiment_score"`
	Price          *decimal.Decimal `json:"price"`
}

// IndexResult is the outcome of POST /api/index
type IndexResult struct {
	Added int `json:"added"`
}

const noAnalysis = "No analysis available"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"status":    "healthy",
		"version":   s.version,
		"timestamp": time.Now().UTC(),
	}

	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := s.deps.Health.CheckHealth(ctx)
		if err != nil {
			s.logger.Warn("Database health check failed", slog.String("error", err.Error()))
			data["status"] = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Data: data, Error: "database unreachable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	answer := s.deps.Answerer.Answer(r.Context(), message)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: answer})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sync == nil {
		writeError(w, http.StatusServiceUnavailable, "indexing is not configured")
		return
	}

	added, err := s.deps.Sync(r.Context())
	if err != nil {
		s.logger.Error("Error indexing documents", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "indexing failed")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: IndexResult{Added: added}})
}

func (s *Server) handleSentimentCards(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.deps.Summaries.SelectLatestSummaries(r.Context())
	if err != nil {
		s.logger.Error("Error selecting latest summaries", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to fetch sentiment cards")
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sentimentCards(summaries)})
}

func sentimentCards(summaries []*model.DailySummaryRecord) []SentimentCard {
	cards := make([]SentimentCard, 0, len(summaries))
	for _, s := range summaries {
		card := SentimentCard{
			Commodity:      s.Commodity,
			SentimentScore: s.SentimentScore,
			Reasoning:      s.Reasoning,
			Keywords:       s.Keywords,
		}
		if s.Date.IsZero() {
			card.SentimentScore = model.NeutralSentiment
		} else {
			date := s.Date
			card.LastUpdated = &date
		}
		if card.Reasoning == "" {
			card.Reasoning = noAnalysis
		}
		if card.Keywords == nil {
			card.Keywords = []string{}
		}
		cards = append(cards, card)
	}
	return cards
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "commodity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid commodity")
		return
	}
	commodity, ok := model.ParseCommodityID(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown commodity "+name)
		return
	}

	all, err := s.deps.Summaries.SelectAllDailySummaries(r.Context())
	if err != nil {
		s.logger.Error("Error selecting daily summaries", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to fetch time series")
		return
	}

	var summaries []*model.DailySummaryRecord
	for _, sum := range all {
		if sum.Commodity == commodity {
			summaries = append(summaries, sum)
		}
	}
	if len(summaries) == 0 {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []TimeSeriesPoint{}})
		return
	}

	prices, err := s.deps.Prices.SelectPriceSeries(r.Context(), commodity, summaries[0].Date, summaries[len(summaries)-1].Date)
	if err != nil {
		s.logger.Warn("Error selecting price series, continuing with sentiment only", slog.String("error", err.Error()))
		prices = nil
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: timeSeries(summaries, prices)})
}

// timeSeries lists every summary day with the closing price of that day.
// Days without a price keep a null price.
func timeSeries(summaries []*model.DailySummaryRecord, prices []*model.PriceRecord) []TimeSeriesPoint {
	byDate := make(map[string]decimal.Decimal, len(prices))
	for _, p := range prices {
		byDate[p.Date.Format(model.DateLayout)] = p.ClosingPrice
	}

	points := make([]TimeSeriesPoint, 0, len(summaries))
	for _, s := range summaries {
		date := s.Date.Format(model.DateLayout)
		point := TimeSeriesPoint{Date: date, SentimentScore: s.SentimentScore}
		if price, ok := byDate[date]; ok {
			point.Price = &price
		}
		points = append(points, point)
	}
	return points
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("Failed to write JSON response", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
