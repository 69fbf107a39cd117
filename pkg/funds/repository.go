package funds

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("fund not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Fund{}, &Brand{}, &DependantLimit{})
}

// Replace persists the fund and its owned brands and dependant limits as a
// single unit. Existing children for the fund code are removed first so a
// re-import never leaves stale sub-records behind.
func (r *Repository) Replace(ctx context.Context, fund *Fund) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("fund_code = ?", fund.Code).Delete(&Brand{}).Error; err != nil {
			return err
		}
		if err := tx.Where("fund_code = ?", fund.Code).Delete(&DependantLimit{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).
			Session(&gorm.Session{FullSaveAssociations: true}).
			Create(fund).Error
	})
}

// FindAll returns all funds ordered by code, without child records.
func (r *Repository) FindAll(ctx context.Context) ([]Fund, error) {
	var result []Fund
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Order("code asc").
		Find(&result).Error
	return result, err
}

// FindOne returns a single fund with its brands and dependant limits.
func (r *Repository) FindOne(ctx context.Context, code string) (*Fund, error) {
	var fund Fund
	err := r.db.WithContext(ctx).
		Preload("Brands").
		Preload("DependantLimits").
		Where("code = ?", code).
		First(&fund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fund, nil
}
