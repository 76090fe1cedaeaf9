package main

import (
	"context"
	"log"
	"time"

	"github.com/epicfreebies/hype-backend/config"
	"github.com/epicfreebies/hype-backend/handlers"
	"github.com/epicfreebies/hype-backend/jobs"
	"github.com/epicfreebies/hype-backend/services"
	"github.com/epicfreebies/hype-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Persistent metadata cache
	cacheService, err := services.NewCacheService(cfg.CachePath)
	if err != nil {
		log.Fatalf("Failed to load metadata cache: %v", err)
	}

	ledgerService := services.NewLedgerService(cfg.LedgerPath)

	// Source adapters share one HTTP client factory; each carries its own
	// rate limiter with the delay its source imposes.
	clientFactory := shared.NewHTTPClientFactory(config.HTTPRequestTimeout)
	sourceDelays := config.DefaultSourceDelays()

	priceService := services.NewPriceService(clientFactory, sourceDelays)
	steamService := services.NewSteamService(clientFactory, sourceDelays)
	igdbService := services.NewIGDBService(clientFactory, sourceDelays, cfg.TwitchClientID, cfg.TwitchClientSecret)
	wikidataService := services.NewWikidataService(clientFactory, sourceDelays)
	epicService := services.NewEpicService(clientFactory, sourceDelays)

	if !cfg.HasMetadataCredentials() {
		logrus.Warn("Metadata-service credentials not set; release date, rating, and collection lookups will be skipped")
	}

	enrichmentService := services.NewEnrichmentService(cacheService, priceService, steamService, igdbService)
	franchiseService := services.NewFranchiseService(cacheService,
		wikidataService,
		services.NewCollectionTier(igdbService),
	)

	// Jobs
	ingestJob := jobs.NewIngestJob(ledgerService, epicService)
	enrichJob := jobs.NewEnrichJob(ledgerService, enrichmentService, franchiseService)
	reclassifyJob := jobs.NewReclassifyJob(ledgerService, cacheService)

	logrus.Info("Giveaway hype backend services initialized:")
	logrus.Infof("  - Ledger: %s", cfg.LedgerPath)
	logrus.Infof("  - Metadata cache: %s", cfg.CachePath)
	logrus.Infof("  - Batch interval: %v", cfg.GetBatchInterval())

	runBatch := func() {
		ctx := context.Background()
		ingestJob.Run(ctx)
		enrichJob.Run(ctx)
		reclassifyJob.Run()
	}

	// Start the batch pipeline: run immediately, then on the interval
	go func() {
		runBatch()

		ticker := time.NewTicker(cfg.GetBatchInterval())
		defer ticker.Stop()
		for range ticker.C {
			runBatch()
		}
	}()

	// Read-only reporting API
	giveawayHandler := handlers.NewGiveawayHandler(ledgerService)
	statsHandler := handlers.NewStatsHandler(ledgerService)
	cacheHandler := handlers.NewCacheHandler(cacheService)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/giveaways", giveawayHandler.GetGiveaways)
	api.Get("/giveaways/:id", giveawayHandler.GetGiveawayByID)
	api.Get("/stats/summary", statsHandler.GetSummary)
	api.Get("/cache/status", cacheHandler.GetCacheStatus)

	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
