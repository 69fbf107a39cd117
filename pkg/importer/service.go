package importer

import (
	"archive/zip"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phealth-au/platform/pkg/common/kafka"
	"github.com/phealth-au/platform/pkg/common/logger"
	"github.com/phealth-au/platform/pkg/funds"
	"github.com/phealth-au/platform/pkg/products"
	"github.com/phealth-au/platform/pkg/system"
	"github.com/phealth-au/platform/pkg/xmlstream"
	"gorm.io/datatypes"
)

// Archive member name prefixes, fixed by the PHIO publishing convention.
const (
	fundFilePrefix = "Funds "
)

var productFilePrefixes = []string{"Combined Open ", "GeneralHealth Open ", "Hospital Open"}

const progressInterval = 2500

// Service drives a full import: manifest fetch, freshness check, reference
// reseed, fund and product loading, orphan reconciliation and finalization.
// One import runs at a time; overlapping runs against the same store are not
// guarded here and must be prevented operationally.
type Service struct {
	feed         *FeedClient
	fundsService *funds.Service
	loader       *products.Loader
	productsRepo *products.Repository
	systemRepo   *system.Repository
	runs         *RunRepository
	cacheWriter  *products.CacheWriter
	producer     *kafka.Producer // nil when no brokers are configured
	servicesPath string
}

func NewService(
	feed *FeedClient,
	fundsService *funds.Service,
	loader *products.Loader,
	productsRepo *products.Repository,
	systemRepo *system.Repository,
	runs *RunRepository,
	cacheWriter *products.CacheWriter,
	producer *kafka.Producer,
	servicesPath string,
) *Service {
	return &Service{
		feed:         feed,
		fundsService: fundsService,
		loader:       loader,
		productsRepo: productsRepo,
		systemRepo:   systemRepo,
		runs:         runs,
		cacheWriter:  cacheWriter,
		producer:     producer,
		servicesPath: servicesPath,
	}
}

// Run executes the import pipeline. force disables both the freshness skip
// and per-product change detection. A failed run leaves the system control
// records untouched so a later invocation retries the same dataset version.
func (s *Service) Run(ctx context.Context, force bool) error {
	mode := "normal"
	if force {
		mode = "force"
	}
	logger.Log.WithField("mode", mode).Info("import started")

	resource, err := s.feed.LatestResource(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("failed to fetch dataset manifest")
		return err
	}
	logger.Log.WithField("dataset", resource.Description).Info("latest dataset version")

	lastRun, err := s.systemRepo.Get(ctx, system.CategoryImport, system.KeyLastRun, "")
	if err != nil {
		return err
	}
	lastLoaded := "no run found"
	if lastRun != "" {
		lastLoaded, err = s.systemRepo.Get(ctx, system.CategoryImport, lastRun, "no run found")
		if err != nil {
			return err
		}
	}

	if !force && resource.Description == lastLoaded {
		logger.Log.Info("database is up-to-date, import skipped")
		return nil
	}

	runTime := time.Now().UTC()
	run := &Run{
		ID:        uuid.New().String(),
		StartedAt: runTime,
		Dataset:   resource.Description,
		Status:    RunStatusRunning,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return fmt.Errorf("recording import run: %w", err)
	}

	counts, err := s.load(ctx, resource, runTime, force)
	if err != nil {
		s.finishRun(ctx, run, counts, 0, err)
		return err
	}

	orphaned, err := s.productsRepo.MarkOrphans(ctx)
	if err != nil {
		s.finishRun(ctx, run, counts, 0, err)
		return fmt.Errorf("reconciling orphans: %w", err)
	}
	if orphaned > 0 {
		logger.Log.WithField("count", orphaned).Warn("products orphaned; dropped from upstream feed")
	}

	// Control records are only written once every file loaded cleanly, so a
	// failed run is retried against the same dataset version.
	runStamp := runTime.Format(time.RFC3339)
	if err := s.systemRepo.Save(ctx, system.CategoryImport, runStamp, resource.Description); err != nil {
		s.finishRun(ctx, run, counts, orphaned, err)
		return err
	}
	if err := s.systemRepo.Save(ctx, system.CategoryImport, system.KeyLastRun, runStamp); err != nil {
		s.finishRun(ctx, run, counts, orphaned, err)
		return err
	}

	s.finishRun(ctx, run, counts, orphaned, nil)

	if s.producer != nil {
		event := map[string]interface{}{
			"dataset":  resource.Description,
			"run_time": runStamp,
			"orphaned": orphaned,
			"counts":   counts,
		}
		if err := s.producer.PublishEvent(ctx, "import.completed", "phi-import", event); err != nil {
			logger.Log.WithError(err).Warn("failed to publish import event")
		}
	}

	if err := s.RebuildCaches(ctx); err != nil {
		logger.Log.WithError(err).Error("cache rebuild failed")
		return err
	}

	logger.Log.Info("import complete")
	return nil
}

// load seeds reference data, downloads the archive and streams the fund and
// product files through the normalizers.
func (s *Service) load(ctx context.Context, resource *Resource, runTime time.Time, force bool) (map[string]interface{}, error) {
	counts := map[string]interface{}{}

	tiers := products.DefaultHospitalTiers()
	if err := s.productsRepo.SeedHospitalTiers(ctx, tiers); err != nil {
		return counts, err
	}
	services, err := products.LoadHealthServices(s.servicesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("health service catalog unreadable, using built-in definitions")
		services = products.DefaultHealthServices()
	}
	if err := s.productsRepo.SeedHealthServices(ctx, services); err != nil {
		return counts, err
	}
	if err := s.loader.Prepare(ctx); err != nil {
		return counts, err
	}

	archivePath, cleanup, err := s.feed.Download(ctx, resource.URL)
	if err != nil {
		logger.Log.WithError(err).Error("failed to fetch dataset archive")
		return counts, err
	}
	defer cleanup()

	archive, err := zip.OpenReader(archivePath)
	if err != nil {
		return counts, fmt.Errorf("opening dataset archive: %w", err)
	}
	defer archive.Close()

	fundFile, productFiles := selectFiles(archive)
	if fundFile == "" {
		return counts, fmt.Errorf("dataset archive has no %q file", fundFilePrefix)
	}
	if len(productFiles) == 0 {
		return counts, fmt.Errorf("dataset archive has no product files")
	}

	// The fund file loads first: products reference fund codes.
	fundCount, err := s.loadFile(ctx, archive, fundFile, "Fund", func(ctx context.Context, raw []byte) error {
		_, err := s.fundsService.CreateFromXML(ctx, raw)
		return err
	})
	counts[fundFile] = fundCount
	if err != nil {
		return counts, err
	}

	if err := s.productsRepo.ClearPresence(ctx); err != nil {
		return counts, err
	}

	// The three product files are processed sequentially: change detection
	// and mnemonic resolution are not safe under concurrent writes.
	for _, name := range productFiles {
		productCount, err := s.loadFile(ctx, archive, name, "Product", func(ctx context.Context, raw []byte) error {
			_, err := s.loader.CreateFromXML(ctx, raw, runTime, force)
			return err
		})
		counts[name] = productCount
		if err != nil {
			return counts, err
		}
	}

	return counts, nil
}

// loadFile streams one archive member through the fragment extractor.
// Per-record faults are logged and skipped; stream-level faults (including
// truncation) propagate and abort the run.
func (s *Service) loadFile(ctx context.Context, archive *zip.ReadCloser, name, tag string,
	handle func(ctx context.Context, raw []byte) error) (int, error) {

	file, err := archive.Open(name)
	if err != nil {
		return 0, fmt.Errorf("opening archive member %q: %w", name, err)
	}
	defer file.Close()

	loaded := 0
	skipped := 0
	count, err := xmlstream.Extract(file, tag, func(raw []byte) error {
		if err := handle(ctx, raw); err != nil {
			skipped++
			logger.Log.WithError(err).WithField("file", name).Warn("record skipped")
			return nil
		}
		loaded++
		if loaded%progressInterval == 0 {
			logger.Log.WithFields(map[string]interface{}{
				"file":   name,
				"loaded": loaded,
			}).Info("processing")
		}
		return nil
	})
	if err != nil {
		return loaded, fmt.Errorf("processing %q: %w", name, err)
	}
	logger.Log.WithFields(map[string]interface{}{
		"file":    name,
		"read":    count,
		"loaded":  loaded,
		"skipped": skipped,
	}).Info("file processed")
	return loaded, nil
}

// RebuildCaches re-derives the per-fund and per-segment query snapshots.
func (s *Service) RebuildCaches(ctx context.Context) error {
	if s.cacheWriter == nil {
		return nil
	}
	allFunds, err := s.fundsService.FindAll(ctx)
	if err != nil {
		return err
	}
	codes := make([]string, 0, len(allFunds))
	for _, fund := range allFunds {
		codes = append(codes, fund.Code)
	}
	if err := s.cacheWriter.RebuildFundCaches(ctx, codes, s.productsRepo); err != nil {
		return err
	}
	return s.cacheWriter.RebuildSegmentCaches(ctx, s.productsRepo)
}

// Status returns the last run timestamp and the dataset description it
// loaded.
func (s *Service) Status(ctx context.Context) (lastRun, dataset string, err error) {
	lastRun, err = s.systemRepo.Get(ctx, system.CategoryImport, system.KeyLastRun, "")
	if err != nil || lastRun == "" {
		return "", "", err
	}
	dataset, err = s.systemRepo.Get(ctx, system.CategoryImport, lastRun, "")
	return lastRun, dataset, err
}

// History returns the import audit trail, newest first.
func (s *Service) History(ctx context.Context) ([]system.Record, error) {
	return s.systemRepo.ImportHistory(ctx)
}

func (s *Service) finishRun(ctx context.Context, run *Run, counts map[string]interface{}, orphaned int64, runErr error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	stats := datatypes.JSONMap{}
	for key, value := range counts {
		stats[key] = value
	}
	stats["orphaned"] = orphaned
	run.Stats = stats
	if runErr != nil {
		run.Status = RunStatusFailed
		run.Error = runErr.Error()
	} else {
		run.Status = RunStatusComplete
	}
	if err := s.runs.Update(ctx, run); err != nil {
		logger.Log.WithError(err).Warn("failed to update import run record")
	}
}

func selectFiles(archive *zip.ReadCloser) (fundFile string, productFiles []string) {
	for _, file := range archive.File {
		name := file.Name
		if strings.HasPrefix(name, fundFilePrefix) {
			fundFile = name
			continue
		}
		for _, prefix := range productFilePrefixes {
			if strings.HasPrefix(name, prefix) {
				productFiles = append(productFiles, name)
				break
			}
		}
	}
	return fundFile, productFiles
}
