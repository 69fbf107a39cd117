package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/phealth-au/platform/pkg/cache"
	"github.com/phealth-au/platform/pkg/common/config"
	"github.com/phealth-au/platform/pkg/common/database"
	"github.com/phealth-au/platform/pkg/common/kafka"
	"github.com/phealth-au/platform/pkg/common/logger"
	"github.com/phealth-au/platform/pkg/funds"
	"github.com/phealth-au/platform/pkg/importer"
	"github.com/phealth-au/platform/pkg/products"
	"github.com/phealth-au/platform/pkg/system"
)

func main() {
	force := flag.Bool("force", false, "reload every record even when the dataset version is unchanged")
	status := flag.Bool("status", false, "print the last import run and exit")
	history := flag.Bool("history", false, "print the import history and exit")
	rebuildCache := flag.Bool("cache", false, "rebuild the file caches without importing and exit")
	flag.Parse()

	logger.Init()
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	fundsRepo := funds.NewRepository(db)
	productsRepo := products.NewRepository(db)
	systemRepo := system.NewRepository(db)
	runs := importer.NewRunRepository(db)
	for _, migrate := range []func() error{
		fundsRepo.AutoMigrate, productsRepo.AutoMigrate, systemRepo.AutoMigrate, runs.AutoMigrate,
	} {
		if err := migrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate tables")
		}
	}

	store := cache.NewStore(cfg.CacheDir)
	cacheWriter := products.NewCacheWriter(store,
		cache.ParseMode(cfg.ProductXMLCacheMode),
		cache.ParseMode(cfg.ProductFundCacheMode),
		cache.ParseMode(cfg.ProductSegmentCacheMode))

	fundsService := funds.NewService(fundsRepo)
	loader := products.NewLoader(productsRepo, cacheWriter)
	feed := importer.NewFeedClient(cfg.FeedPackageURL, cfg.DownloadTimeout)

	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.ImportEventTopic)
		defer producer.Close()
	}

	svc := importer.NewService(feed, fundsService, loader, productsRepo, systemRepo, runs,
		cacheWriter, producer, cfg.HealthServicesPath)

	ctx := context.Background()

	switch {
	case *status:
		lastRun, dataset, err := svc.Status(ctx)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to read import status")
		}
		if lastRun == "" {
			fmt.Println("no import has run")
			return
		}
		fmt.Printf("last run: %s\ndataset:  %s\n", lastRun, dataset)

	case *history:
		records, err := svc.History(ctx)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to read import history")
		}
		for _, record := range records {
			fmt.Printf("%s  %s\n", record.Key2, record.Data)
		}

	case *rebuildCache:
		if err := svc.RebuildCaches(ctx); err != nil {
			logger.Log.WithError(err).Fatal("cache rebuild failed")
		}

	default:
		if err := svc.Run(ctx, *force); err != nil {
			logger.Log.WithError(err).Error("import failed")
			os.Exit(1)
		}
	}
}
