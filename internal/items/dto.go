package items

import (
	"time"

	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

// Ingestion sources, used as the metrics label.
const (
	SourceUpload = "upload"
	SourceFolder = "folder"
	SourceCLI    = "cli"
)

// IngestResult summarises one ingested file.
type IngestResult struct {
	Filename     string `json:"filename"`
	RowsInserted int    `json:"rows_inserted"`
	RowsSkipped  int    `json:"rows_skipped"`
	PickersAdded int    `json:"pickers_added"`
}

// FolderResult summarises a pass over the upload folder.
type FolderResult struct {
	Files     []IngestResult `json:"files"`
	Failed    []string       `json:"failed"`
	TotalRows int            `json:"total_rows"`
}

// UploadDTO is a processed file as shown on the admin dashboard.
type UploadDTO struct {
	Filename     string    `json:"filename"`
	RowsInserted int       `json:"rows_inserted"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalItems        int64       `json:"total_items"`
	PickersWithEvents int64       `json:"pickers_with_events"`
	RegisteredPickers int64       `json:"registered_pickers"`
	TotalCohorts      int64       `json:"total_cohorts"`
	PickersInCohorts  int64       `json:"pickers_in_cohorts"`
	FirstEventAt      *time.Time  `json:"first_event_at"`
	LastEventAt       *time.Time  `json:"last_event_at"`
	RecentUploads     []UploadDTO `json:"recent_uploads"`
}

// EventDTO is one row of the supervisor picker detail.
type EventDTO struct {
	ExternalPicklistID string           `json:"external_picklist_id"`
	LocationBinID      string           `json:"location_bin_id"`
	ItemStatus         enums.ItemStatus `json:"item_status"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// PickerDetail lists a picker's events in a window.
type PickerDetail struct {
	PickerID string           `json:"picker_id"`
	Filter   enums.TimeFilter `json:"filter"`
	Details  []EventDTO       `json:"details"`
}

func eventFromModel(m models.ItemEvent) EventDTO {
	return EventDTO{
		ExternalPicklistID: m.ExternalPicklistID,
		LocationBinID:      m.LocationBinID,
		ItemStatus:         m.ItemStatus,
		UpdatedAt:          m.UpdatedAt,
	}
}
