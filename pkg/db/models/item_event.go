package models

import (
	"time"

	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

// ItemEvent is one append-only row of the picking log. UpdatedAt is the
// event instant that every time window keys on; it is always stored in UTC.
type ItemEvent struct {
	ID                 int64            `gorm:"primaryKey;autoIncrement"`
	SourceWarehouse    string           `gorm:"column:source_warehouse;type:text"`
	PickerID           string           `gorm:"column:picker_id;type:text;not null"`
	ItemStatus         enums.ItemStatus `gorm:"column:item_status;type:text"`
	DispatchByDate     *time.Time       `gorm:"column:dispatch_by_date"`
	ExternalPicklistID string           `gorm:"column:external_picklist_id;type:text"`
	LocationBinID      string           `gorm:"column:location_bin_id;type:text"`
	LocationSequence   *int             `gorm:"column:location_sequence"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;not null;autoUpdateTime:false;index:idx_items_updated_at"`
	ProcessedAt        time.Time        `gorm:"column:processed_at;autoCreateTime"`
	CSVFile            string           `gorm:"column:csv_file;type:text"`
}

func (ItemEvent) TableName() string { return "items" }
