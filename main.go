package main

import (
	"context"
	"flag"
	"os"

	"ebay-lego-scraper/config"
	"ebay-lego-scraper/models"
	"ebay-lego-scraper/scraper/ebay"
	"ebay-lego-scraper/services"
	"ebay-lego-scraper/storage"
	"ebay-lego-scraper/utils"
	"ebay-lego-scraper/web"
)

func main() {
	serve := flag.Bool("serve", false, "run the HTTP front end instead of a one-shot batch")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== eBay LEGO Price Scraper starting ===")
	logger.Info("Config — transport: %s | window: %dd | concurrency: %d | rate: %dms",
		cfg.Transport, cfg.WindowDays, cfg.MaxConcurrency, cfg.RateLimitMs)

	csvWriter, err := storage.NewCSVWriter(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}

	transport, err := ebay.NewTransport(cfg, logger)
	if err != nil {
		logger.Error("Failed to create transport: %v", err)
		os.Exit(1)
	}
	defer transport.Close()

	scraper := ebay.New(cfg, logger, transport, csvWriter)

	if *serve {
		server := web.NewServer(cfg, logger, scraper)
		if err := server.Run(); err != nil {
			logger.Error("Server stopped: %v", err)
			os.Exit(1)
		}
		return
	}

	sets := flag.Args()
	var inventory []models.InventoryItem

	if len(sets) == 0 {
		inventory, err = services.ReadInventory(cfg.InventoryPath, logger)
		if err != nil {
			logger.Error("Failed to read inventory: %v", err)
			os.Exit(1)
		}
		for _, item := range inventory {
			sets = append(sets, item.SetNumber)
		}
	}
	if len(sets) == 0 {
		logger.Error("No sets to process. Pass set numbers as arguments or fill the inventory workbook.")
		os.Exit(1)
	}

	outcomes := scraper.ScrapeBatch(context.Background(), sets)

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL, skipping DB writes: %v", err)
			pgWriter = nil
		} else {
			defer pgWriter.Close()
		}
	}

	var scraped []string
	for _, outcome := range outcomes {
		switch outcome.Status() {
		case "error":
			logger.Error("Set %s failed: %v", outcome.SetNumber, outcome.Err)
		case "no_results":
			logger.Warn("Set %s — no sales in the last %d days", outcome.SetNumber, cfg.WindowDays)
		default:
			logger.Info("Set %s — %d sales → %s", outcome.SetNumber, len(outcome.Records), outcome.FilePath)
			scraped = append(scraped, outcome.SetNumber)
			if pgWriter != nil {
				if err := pgWriter.WriteSet(outcome.SetNumber, outcome.Records); err != nil {
					logger.Error("PostgreSQL write failed for set %s: %v", outcome.SetNumber, err)
				}
			}
		}
	}

	insightSvc := services.NewInsightService(logger, cfg.DataDir)
	report := insightSvc.Generate(scraped, inventory)
	insightSvc.Print(report)

	logger.Info("Batch complete — %d/%d sets with results", len(scraped), len(outcomes))
}
