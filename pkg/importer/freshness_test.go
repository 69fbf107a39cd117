package importer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/phealth-au/platform/pkg/system"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testDBPort = 15434

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		Username("test").
		Password("test").
		Database("test").
		Port(testDBPort).
		StartTimeout(60 * time.Second))
	if err := pg.Start(); err != nil {
		t.Fatalf("failed to start embedded postgres: %v", err)
	}

	dsn := fmt.Sprintf("host=localhost port=%d user=test password=test dbname=test sslmode=disable", testDBPort)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		pg.Stop()
		t.Fatalf("failed to connect to embedded postgres: %v", err)
	}
	return db, func() { pg.Stop() }
}

func TestRunSkipsWhenDatasetUnchanged(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded postgres test in short mode")
	}
	db, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	systemRepo := system.NewRepository(db)
	runs := NewRunRepository(db)
	for _, migrate := range []func() error{systemRepo.AutoMigrate, runs.AutoMigrate} {
		if err := migrate(); err != nil {
			t.Fatalf("migrate failed: %v", err)
		}
	}

	// A prior run already loaded the August dataset.
	stamp := time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if err := systemRepo.Save(ctx, system.CategoryImport, stamp, "August 2026"); err != nil {
		t.Fatal(err)
	}
	if err := systemRepo.Save(ctx, system.CategoryImport, system.KeyLastRun, stamp); err != nil {
		t.Fatal(err)
	}

	// The manifest still advertises the same dataset version.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result": {"resources": [{"url": "https://example.org/phi.zip", "description": "August 2026"}]}}`))
	}))
	defer server.Close()

	feed := NewFeedClient(server.URL, 5*time.Second)
	svc := NewService(feed, nil, nil, nil, systemRepo, runs, nil, nil, "")

	if err := svc.Run(ctx, false); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	// The skip happens before anything is downloaded or recorded.
	var count int64
	if err := db.Model(&Run{}).Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("skipped run recorded %d audit rows", count)
	}

	lastRun, dataset, err := svc.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if lastRun != stamp || dataset != "August 2026" {
		t.Fatalf("control records changed by skipped run: %q %q", lastRun, dataset)
	}
}
