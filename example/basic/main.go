package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket"
	"github.com/siherrmann/agrimarket/config"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

func day(s string) time.Time {
	t, err := model.ParseDay(s)
	if err != nil {
		log.Fatalf("Invalid date %s: %v", s, err)
	}
	return t
}

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := agrimarket.NewAgrimarket(dbConfig, cfg)
	if err != nil {
		log.Fatalf("Failed to create agrimarket: %v", err)
	}
	defer a.Close()

	// A few days of wheat and soy complex data
	prices := []model.PriceRecord{
		{Date: day("2025-07-25"), Commodity: model.Wheat, ClosingPrice: decimal.RequireFromString("523.75")},
		{Date: day("2025-07-28"), Commodity: model.Soybean, ClosingPrice: decimal.RequireFromString("1025.25")},
		{Date: day("2025-07-28"), Commodity: model.SoybeanMeal, ClosingPrice: decimal.RequireFromString("350.5")},
		{Date: day("2025-07-28"), Commodity: model.SoybeanOil, ClosingPrice: decimal.RequireFromString("55.2")},
	}
	for i := range prices {
		if err := a.Prices.InsertPrice(ctx, &prices[i]); err != nil {
			log.Fatalf("Failed to insert price: %v", err)
		}
	}

	err = a.Summaries.InsertDailySummary(ctx, &model.DailySummaryRecord{
		Date:              day("2025-07-28"),
		Commodity:         model.Wheat,
		SentimentScore:    42,
		Reasoning:         "Harvest pressure in the northern hemisphere weighs on prices.",
		Keywords:          []string{"harvest", "export"},
		AnalyzedNewsCount: 5,
	})
	if err != nil {
		log.Fatalf("Failed to insert summary: %v", err)
	}

	err = a.News.InsertNews(ctx, &model.NewsRecord{
		Title:          "Black Sea export corridor reopens",
		Content:        "Grain shipments resumed from Odesa after a two week pause.",
		Source:         "basic_example",
		PublishedTime:  day("2025-07-27").Add(6 * time.Hour),
		Commodity:      model.Wheat,
		SentimentScore: 25,
		Reasoning:      "Additional supply reaches the world market.",
		Keywords:       []string{"export", "supply"},
	})
	if err != nil {
		log.Fatalf("Failed to insert news: %v", err)
	}

	// Set up the default pipeline (recursive chunking + multilingual embeddings)
	if err := a.UseDefaultPipeline(ctx); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	added, err := a.IndexNew(ctx)
	if err != nil {
		log.Fatalf("Failed to index documents: %v", err)
	}
	fmt.Printf("Indexed %d documents\n", added)

	questions := []string{
		"7월 25일 밀의 베이시스는 +10입니다. 플랫가격을 톤단위로 바꿔주세요",
		"2025-07-28 대두 크러시 마진은?",
		"최근 밀 시장 분위기는?",
		"밀 가격이 떨어진 이유는?",
		"corn 5000 bushels in tons",
	}

	for _, q := range questions {
		answer := a.Ask(ctx, q)
		fmt.Printf("\n=== %s ===\n", q)
		fmt.Printf("[%s/%s]", answer.Kind, answer.Status)
		if answer.FallbackFrom != "" {
			fmt.Printf(" fallback from %s", answer.FallbackFrom)
		}
		fmt.Printf("\n%s\n", answer.Payload)
		for _, note := range answer.Notes {
			fmt.Printf("Note: %s\n", note)
		}
	}
}
