package items

import (
	"context"
	"time"

	"github.com/warehouse-incentives/incentives-backend/internal/repo"
	"github.com/warehouse-incentives/incentives-backend/internal/timewindow"
	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists item events and processed-file bookkeeping.
type Repository struct {
	repo.Base
}

// NewRepository constructs an items repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// InsertBatch appends events in a single statement.
func (r *Repository) InsertBatch(ctx context.Context, events []models.ItemEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&events).Error
}

// RecordProcessed upserts the bookkeeping row for filename.
func (r *Repository) RecordProcessed(ctx context.Context, filename string, rows int, at time.Time) error {
	record := models.ProcessedCSV{Filename: filename, RowsInserted: rows, ProcessedAt: at.UTC()}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "filename"}},
			DoUpdates: clause.AssignmentColumns([]string{"rows_inserted", "processed_at"}),
		}).
		Create(&record).Error
}

// ProcessedFilenames returns every recorded filename.
func (r *Repository) ProcessedFilenames(ctx context.Context) (map[string]struct{}, error) {
	var names []string
	if err := r.DB(ctx).Model(&models.ProcessedCSV{}).Pluck("filename", &names).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out, nil
}

// RecentUploads lists the latest processed files.
func (r *Repository) RecentUploads(ctx context.Context, limit int) ([]models.ProcessedCSV, error) {
	var out []models.ProcessedCSV
	err := r.DB(ctx).Order("processed_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

type itemTotals struct {
	Items   int64      `gorm:"column:items"`
	Pickers int64      `gorm:"column:pickers"`
	First   *time.Time `gorm:"column:first_event"`
	Last    *time.Time `gorm:"column:last_event"`
}

// Totals counts events and distinct pickers and reports the event time range.
func (r *Repository) Totals(ctx context.Context) (itemTotals, error) {
	var totals itemTotals
	err := r.DB(ctx).
		Model(&models.ItemEvent{}).
		Select("COUNT(*) AS items, COUNT(DISTINCT LOWER(picker_id)) AS pickers").
		Scan(&totals).Error
	if err != nil || totals.Items == 0 {
		return totals, err
	}

	var first, last models.ItemEvent
	if err := r.DB(ctx).Order("updated_at ASC").Limit(1).Find(&first).Error; err != nil {
		return totals, err
	}
	if err := r.DB(ctx).Order("updated_at DESC").Limit(1).Find(&last).Error; err != nil {
		return totals, err
	}
	totals.First = &first.UpdatedAt
	totals.Last = &last.UpdatedAt
	return totals, nil
}

// Clear deletes every event and processed-file record. Users are kept.
func (r *Repository) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ItemEvent{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ProcessedCSV{}).Error
	})
	return removed, err
}

// PickerEvents lists one picker's events inside window, newest first.
func (r *Repository) PickerEvents(ctx context.Context, pickerKey string, window timewindow.Window) ([]models.ItemEvent, error) {
	w := window.UTC()
	var out []models.ItemEvent
	err := r.DB(ctx).
		Where("LOWER(picker_id) = ?", pickerKey).
		Where("updated_at >= ? AND updated_at <= ?", w.Start, w.End).
		Order("updated_at DESC").
		Find(&out).Error
	return out, err
}
