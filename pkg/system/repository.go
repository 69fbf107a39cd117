package system

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is a control/bookkeeping entry keyed by (Key1, Key2). The import
// pipeline stores its audit trail under Key1 = "IMPORT": the LASTRUN pointer
// plus one record per run mapping the run timestamp to the dataset
// description that was loaded.
type Record struct {
	Key1 string `gorm:"primaryKey;size:64" json:"key1"`
	Key2 string `gorm:"primaryKey;size:256;default:''" json:"key2"`
	Data string `gorm:"size:256" json:"data"`
}

func (Record) TableName() string {
	return "system"
}

const (
	CategoryImport = "IMPORT"
	KeyLastRun     = "LASTRUN"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Record{})
}

// Save creates or replaces the record for (key1, key2).
func (r *Repository) Save(ctx context.Context, key1, key2, data string) error {
	rec := &Record{Key1: key1, Key2: key2, Data: data}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
}

// Get returns the data value for (key1, key2), or defaultValue if absent.
func (r *Repository) Get(ctx context.Context, key1, key2, defaultValue string) (string, error) {
	var rec Record
	err := r.db.WithContext(ctx).
		Where("key1 = ? AND key2 = ?", key1, key2).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultValue, nil
	}
	if err != nil {
		return "", err
	}
	return rec.Data, nil
}

// ImportHistory returns all import audit records except the LASTRUN pointer,
// newest first.
func (r *Repository) ImportHistory(ctx context.Context) ([]Record, error) {
	var records []Record
	err := r.db.WithContext(ctx).
		Where("key1 = ? AND key2 <> ?", CategoryImport, KeyLastRun).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key2 > records[j].Key2
	})
	return records, nil
}
