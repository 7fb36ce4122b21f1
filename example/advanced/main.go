package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket"
	"github.com/siherrmann/agrimarket/config"
	"github.com/siherrmann/agrimarket/core/indexer"
	"github.com/siherrmann/agrimarket/core/pipeline"
	"github.com/siherrmann/agrimarket/database"
	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
	"github.com/siherrmann/agrimarket/server"
)

// headlineGenerator stands in for a language model: it keeps the first
// lines of the retrieved context and adds a short header
type headlineGenerator struct {
	lines int
}

func (g headlineGenerator) Generate(ctx context.Context, text string) (string, error) {
	lines := strings.Split(text, "\n")
	if len(lines) > g.lines {
		lines = append(lines[:g.lines], "...")
	}
	return "Market brief\n" + strings.Join(lines, "\n"), nil
}

func seed(ctx context.Context, a *agrimarket.Agrimarket) error {
	start, err := model.ParseDay("2025-07-14")
	if err != nil {
		return err
	}

	// Two weeks of corn data with a slowly rising price
	price := decimal.RequireFromString("398.50")
	for i := 0; i < 14; i++ {
		d := start.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		price = price.Add(decimal.RequireFromString("1.25"))

		err := a.Prices.InsertPrice(ctx, &model.PriceRecord{Date: d, Commodity: model.Corn, ClosingPrice: price})
		if err != nil {
			return err
		}
		err = a.Summaries.InsertDailySummary(ctx, &model.DailySummaryRecord{
			Date:              d,
			Commodity:         model.Corn,
			SentimentScore:    50 + float64(i),
			Reasoning:         fmt.Sprintf("Day %d of the Midwest heat wave", i+1),
			Keywords:          []string{"heat", "pollination"},
			AnalyzedNewsCount: 3,
		})
		if err != nil {
			return err
		}
		err = a.News.InsertNews(ctx, &model.NewsRecord{
			Title:          fmt.Sprintf("Heat stress report %d", i+1),
			Content:        "Crop condition ratings fell again as temperatures stayed above normal during pollination.",
			Source:         "advanced_example",
			PublishedTime:  d.Add(14 * time.Hour),
			Commodity:      model.Corn,
			SentimentScore: 60 + float64(i),
			Reasoning:      "Lower yield expectations support prices.",
			Keywords:       []string{"heat", "yield"},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

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
	cfg.Indexer.BatchSize = 16

	a, err := agrimarket.NewAgrimarket(dbConfig, cfg)
	if err != nil {
		log.Fatalf("Failed to create agrimarket: %v", err)
	}
	defer a.Close()

	if err := seed(ctx, a); err != nil {
		log.Fatalf("Failed to seed market data: %v", err)
	}

	// Custom pipeline with smaller chunks than the default
	embedder, closeEmbedder, err := pipeline.DefaultEmbedder("")
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	defer closeEmbedder()

	p := pipeline.NewPipeline(pipeline.RecursiveChunker(300, 50), embedder)
	if err := a.SetPipeline(ctx, p); err != nil {
		log.Fatalf("Failed to set pipeline: %v", err)
	}
	a.SetGenerator(headlineGenerator{lines: 12})

	// Rebuild the vector index as IVFFlat before the first import
	err = a.ChangeIndexType(ctx, database.IndexTypeIVFFlat, database.IndexParams{Lists: 10})
	if err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}

	scheduler := indexer.NewScheduler(a.Indexer, a.Loader, a.Logger())
	scheduler.RunNow()
	if err := scheduler.Start("@every 5m"); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	for _, q := range []string{
		"지난 일주일 옥수수 가격 추이",
		"옥수수 수확량 180 bu/acre는 헥타르당 몇 톤?",
		"옥수수 가격 상승의 원인은?",
	} {
		answer := a.Ask(ctx, q)
		fmt.Printf("\n=== %s ===\n[%s/%s]\n%s\n", q, answer.Kind, answer.Status, answer.Payload)
	}

	cfg.API.Host = "127.0.0.1"
	srv := server.NewServer(cfg.API, server.Dependencies{
		Answerer:  a.Dispatcher,
		Summaries: a.Summaries,
		Prices:    a.Prices,
		Health:    a.DB,
		Sync:      a.IndexNew,
	}, "example", a.Logger())

	fmt.Printf("\nServing on http://%s, try:\n", cfg.API.Addr())
	fmt.Printf("  curl -X POST http://%s/api/chat -d '{\"message\":\"최근 옥수수 감정점수\"}'\n", cfg.API.Addr())
	fmt.Printf("  curl http://%s/api/dashboard/time-series/Corn\n", cfg.API.Addr())

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
