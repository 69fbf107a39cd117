package importer

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Run statuses.
const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Run is the audit record for one import invocation, complementing the
// system control records with per-file load statistics.
type Run struct {
	ID         string            `gorm:"primaryKey;size:36" json:"id"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	Dataset    string            `gorm:"size:256" json:"dataset"`
	Status     string            `gorm:"size:16" json:"status"`
	Stats      datatypes.JSONMap `json:"stats,omitempty"`
	Error      string            `gorm:"type:text" json:"error,omitempty"`
}

func (Run) TableName() string {
	return "import_runs"
}

type RunRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&Run{})
}

func (r *RunRepository) Create(ctx context.Context, run *Run) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *RunRepository) Update(ctx context.Context, run *Run) error {
	return r.db.WithContext(ctx).Save(run).Error
}
