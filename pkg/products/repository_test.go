package products

import (
	"context"
	"fmt"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testDBPort = 15433

// setupTestDB starts a fresh embedded PostgreSQL instance and returns a
// migrated repository against it.
func setupTestDB(t *testing.T) (*Repository, func()) {
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

	repo := NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		pg.Stop()
		t.Fatalf("failed to migrate: %v", err)
	}
	return repo, func() { pg.Stop() }
}

func seedProduct(t *testing.T, repo *Repository, code string) {
	t.Helper()
	err := repo.Upsert(context.Background(), &Product{
		Code:      code,
		FundCode:  "BUP",
		Name:      "Product " + code,
		Type:      TypeHospital,
		Status:    StatusOpen,
		State:     "NSW",
		IsPresent: true,
		TimeStamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seeding product %s: %v", code, err)
	}
}

func TestPresenceSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded postgres test in short mode")
	}
	repo, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	// Prior run loaded A, B and C.
	seedProduct(t, repo, "A")
	seedProduct(t, repo, "B")
	seedProduct(t, repo, "C")

	// Current run sees only A (rewritten) and C (unchanged, presence touched).
	if err := repo.ClearPresence(ctx); err != nil {
		t.Fatalf("clear presence failed: %v", err)
	}
	seedProduct(t, repo, "A")
	if err := repo.TouchPresence(ctx, "C"); err != nil {
		t.Fatalf("touch presence failed: %v", err)
	}

	orphaned, err := repo.MarkOrphans(ctx)
	if err != nil {
		t.Fatalf("mark orphans failed: %v", err)
	}
	if orphaned != 1 {
		t.Fatalf("orphaned = %d, want 1", orphaned)
	}

	for code, want := range map[string]string{"A": StatusOpen, "B": StatusOrphaned, "C": StatusOpen} {
		product, err := repo.FindByCode(ctx, code)
		if err != nil {
			t.Fatalf("lookup %s failed: %v", code, err)
		}
		if product == nil {
			t.Fatalf("product %s missing after sweep", code)
		}
		if product.Status != want {
			t.Fatalf("product %s status = %q, want %q", code, product.Status, want)
		}
	}

	// A repeated sweep finds nothing new: already-orphaned rows are excluded.
	orphaned, err = repo.MarkOrphans(ctx)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if orphaned != 0 {
		t.Fatalf("second sweep orphaned %d products", orphaned)
	}
}

func TestLoaderReRunLeavesDatabaseUnchanged(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping embedded postgres test in short mode")
	}
	repo, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	if err := repo.SeedHealthServices(ctx, DefaultHealthServices()); err != nil {
		t.Fatalf("seeding services failed: %v", err)
	}
	loader := NewLoader(repo, nil)
	if err := loader.Prepare(ctx); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	frag := productFragment(t, `  <PremiumNoRebate>245.60</PremiumNoRebate>
  <WhoIsCovered OnlyOnePerson="true"/>`)
	firstRun := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if _, err := loader.CreateFromXML(ctx, frag, firstRun, false); err != nil {
		t.Fatalf("first load failed: %v", err)
	}

	// Next run: identical archive. The record must survive the full
	// clear/load/sweep cycle untouched.
	if err := repo.ClearPresence(ctx); err != nil {
		t.Fatalf("clear presence failed: %v", err)
	}
	secondRun := firstRun.AddDate(0, 1, 0)
	product, err := loader.CreateFromXML(ctx, frag, secondRun, false)
	if err != nil {
		t.Fatalf("second load failed: %v", err)
	}
	if !product.TimeStamp.Equal(firstRun) {
		t.Fatalf("re-run advanced the timestamp to %v", product.TimeStamp)
	}

	orphaned, err := repo.MarkOrphans(ctx)
	if err != nil {
		t.Fatalf("mark orphans failed: %v", err)
	}
	if orphaned != 0 {
		t.Fatalf("unchanged product was orphaned")
	}
	stored, err := repo.FindByCode(ctx, "I2/AZAA1D")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.Status != StatusOpen {
		t.Fatalf("status = %q after re-run", stored.Status)
	}
	if !stored.TimeStamp.Equal(firstRun) {
		t.Fatalf("stored timestamp advanced to %v", stored.TimeStamp)
	}
}
