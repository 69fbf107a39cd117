package products

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("product not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&HospitalTier{}, &HealthService{}, &Product{})
}

// FindByCode returns the product or nil when no row exists.
func (r *Repository) FindByCode(ctx context.Context, code string) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Upsert replaces any existing row with the same product code.
func (r *Repository) Upsert(ctx context.Context, product *Product) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(product).Error
}

// TouchPresence marks a single product as present in the current feed
// without touching any other column.
func (r *Repository) TouchPresence(ctx context.Context, code string) error {
	return r.db.WithContext(ctx).
		Model(&Product{}).
		Where("code = ?", code).
		Update("is_present", true).Error
}

// ClearPresence resets every product's presence flag ahead of an import run.
func (r *Repository) ClearPresence(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&Product{}).
		Where("is_present = ?", true).
		Update("is_present", false).Error
}

// MarkOrphans flips the status of products not refreshed during the current
// run. Returns the number of newly orphaned products.
func (r *Repository) MarkOrphans(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Product{}).
		Where("is_present = ? AND status <> ?", false, StatusOrphaned).
		Update("status", StatusOrphaned)
	return result.RowsAffected, result.Error
}

// Search returns open products matching a market segment. Products flagged
// for the requested state or for all states are included.
func (r *Repository) Search(ctx context.Context, state string, adults int, children bool) ([]Product, error) {
	var result []Product
	err := r.db.WithContext(ctx).
		Where("(state = ? OR state = ?) AND adults_covered = ? AND child_cover = ? AND status = ?",
			state, "ALL", adults, children, StatusOpen).
		Order("code asc").
		Find(&result).Error
	return result, err
}

func (r *Repository) FindByFund(ctx context.Context, fundCode string) ([]Product, error) {
	var result []Product
	err := r.db.WithContext(ctx).
		Where("fund_code = ?", fundCode).
		Order("code asc").
		Find(&result).Error
	return result, err
}

// SeedHospitalTiers upserts the tier ranking table.
func (r *Repository) SeedHospitalTiers(ctx context.Context, tiers []HospitalTier) error {
	for _, tier := range tiers {
		tier := tier
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&tier).Error; err != nil {
			return fmt.Errorf("seeding hospital tier %s: %w", tier.Tier, err)
		}
	}
	return nil
}

// SeedHealthServices upserts the service mnemonic table.
func (r *Repository) SeedHealthServices(ctx context.Context, services []HealthService) error {
	for _, service := range services {
		service := service
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&service).Error; err != nil {
			return fmt.Errorf("seeding health service %s/%s: %w", service.ServiceType, service.ServiceCode, err)
		}
	}
	return nil
}

func (r *Repository) HealthServiceList(ctx context.Context) ([]HealthService, error) {
	var services []HealthService
	err := r.db.WithContext(ctx).Order("service_type asc, key asc").Find(&services).Error
	return services, err
}

// ServiceIndex loads the full mnemonic lookup table into memory for use
// during product normalization.
func (r *Repository) ServiceIndex(ctx context.Context) (ServiceIndex, error) {
	services, err := r.HealthServiceList(ctx)
	if err != nil {
		return nil, err
	}
	return NewServiceIndex(services), nil
}
