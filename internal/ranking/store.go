package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/warehouse-incentives/incentives-backend/internal/timewindow"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	"gorm.io/gorm"
)

// AggregateRow is one picker's activity inside a window.
type AggregateRow struct {
	PickerKey       string `gorm:"column:picker_key"`
	PickerID        string `gorm:"column:picker_id"`
	ItemsPicked     int64  `gorm:"column:items_picked"`
	ItemsLost       int64  `gorm:"column:items_lost"`
	UniquePicklists int64  `gorm:"column:unique_picklists"`
}

// Score is the number of picked items; there is no separate weighting.
func (r AggregateRow) Score() int64 {
	return r.ItemsPicked
}

// AggregateStore reads per-picker aggregates from the event log.
type AggregateStore interface {
	// Aggregate returns every picker with at least one picked item in the
	// window. A nil members slice means no filtering.
	Aggregate(ctx context.Context, window timewindow.Window, members []string) ([]AggregateRow, error)
	// AggregatePicker returns one picker's counts, including pickers with no
	// picked items. found is false when the picker has no events at all.
	AggregatePicker(ctx context.Context, window timewindow.Window, pickerKey string) (row AggregateRow, found bool, err error)
}

const aggregateColumns = `LOWER(picker_id) AS picker_key,
	MIN(picker_id) AS picker_id,
	COUNT(CASE WHEN item_status IN ? THEN 1 END) AS items_picked,
	COUNT(CASE WHEN item_status = ? THEN 1 END) AS items_lost,
	COUNT(DISTINCT external_picklist_id) AS unique_picklists`

const pickedFilter = `COUNT(CASE WHEN item_status IN ? THEN 1 END) > 0`

// memberBinder renders the backend-specific membership predicate.
type memberBinder func(members []string) (string, any)

type gormStore struct {
	db     *gorm.DB
	member memberBinder
}

// NewAggregateStore returns the store for dialect ("postgres" or "sqlite3").
func NewAggregateStore(db *gorm.DB, dialect string) (AggregateStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	switch dialect {
	case "postgres":
		return newPostgresStore(db), nil
	case "sqlite3", "sqlite":
		return newSQLiteStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

func newPostgresStore(db *gorm.DB) *gormStore {
	return &gormStore{db: db, member: func(members []string) (string, any) {
		return "LOWER(picker_id) = ANY(?)", pq.StringArray(members)
	}}
}

func newSQLiteStore(db *gorm.DB) *gormStore {
	return &gormStore{db: db, member: func(members []string) (string, any) {
		return "LOWER(picker_id) IN ?", members
	}}
}

func (s *gormStore) Aggregate(ctx context.Context, window timewindow.Window, members []string) ([]AggregateRow, error) {
	w := window.UTC()
	q := s.db.WithContext(ctx).
		Table("items").
		Select(aggregateColumns, pickedStatuses(), string(enums.ItemStatusNotFound)).
		Where("updated_at >= ? AND updated_at <= ?", w.Start, w.End)

	if members != nil {
		if len(members) == 0 {
			return nil, nil
		}
		clause, arg := s.member(members)
		q = q.Where(clause, arg)
	}

	var rows []AggregateRow
	err := q.Group("LOWER(picker_id)").
		Having(pickedFilter, pickedStatuses()).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *gormStore) AggregatePicker(ctx context.Context, window timewindow.Window, pickerKey string) (AggregateRow, bool, error) {
	w := window.UTC()
	var rows []AggregateRow
	err := s.db.WithContext(ctx).
		Table("items").
		Select(aggregateColumns, pickedStatuses(), string(enums.ItemStatusNotFound)).
		Where("updated_at >= ? AND updated_at <= ?", w.Start, w.End).
		Where("LOWER(picker_id) = ?", PickerKey(pickerKey)).
		Group("LOWER(picker_id)").
		Scan(&rows).Error
	if err != nil {
		return AggregateRow{}, false, err
	}
	if len(rows) == 0 {
		return AggregateRow{PickerKey: PickerKey(pickerKey)}, false, nil
	}
	return rows[0], true, nil
}

func pickedStatuses() []string {
	out := make([]string, 0, len(enums.PickedStatuses))
	for _, status := range enums.PickedStatuses {
		out = append(out, string(status))
	}
	return out
}
