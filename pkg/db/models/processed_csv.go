package models

import "time"

// ProcessedCSV records an ingested upload so the folder watcher skips it.
type ProcessedCSV struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Filename     string    `gorm:"column:filename;type:text;not null;uniqueIndex:idx_processed_csvs_filename"`
	RowsInserted int       `gorm:"column:rows_inserted;not null;default:0"`
	ProcessedAt  time.Time `gorm:"column:processed_at;not null"`
}

func (ProcessedCSV) TableName() string { return "processed_csvs" }
