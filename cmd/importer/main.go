package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tunicharge/internal/config"
	"tunicharge/internal/ocm"
	"tunicharge/internal/repository"
	"tunicharge/libs/db"
	"tunicharge/libs/logging"
)

// importer pulls charging stations from Open Charge Map and upserts them into
// the chargers table. Safe to re-run; existing stations are updated in place.
func main() {
	_ = godotenv.Load()

	logger, err := logging.NewLogger()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	database, err := db.NewPostgresDB(cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ocm.NewClient(cfg.Import.OpenChargeMapKey)
	stations, err := client.FetchStations(ctx, cfg.Import.CountryCode, cfg.Import.MaxResults)
	if err != nil {
		logger.Fatal("failed to fetch stations", zap.Error(err))
	}
	logger.Info("stations fetched",
		zap.String("country", cfg.Import.CountryCode), zap.Int("count", len(stations)))

	chargers := repository.NewChargerRepository(database)
	imported := 0
	for i := range stations {
		if err := chargers.Upsert(ctx, &stations[i]); err != nil {
			logger.Warn("station upsert failed",
				zap.String("name", stations[i].Name), zap.Error(err))
			continue
		}
		imported++
	}

	logger.Info("import finished", zap.Int("imported", imported), zap.Int("skipped", len(stations)-imported))
}
