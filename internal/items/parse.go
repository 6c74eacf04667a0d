package items

import (
	"strconv"
	"strings"
	"time"

	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
	"github.com/warehouse-incentives/incentives-backend/pkg/tabular"
)

var (
	eventTimeLayouts    = []string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.999999"}
	dispatchTimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02", time.RFC3339, "02-01-2006", "02/01/2006"}
)

// columns holds the indexes of the event CSV header.
type columns struct {
	warehouse, picker, status, dispatch, picklist, bin, sequence, updatedAt int
}

func resolveColumns(header tabular.Header) (columns, bool) {
	var c columns
	var ok bool
	if c.picker, ok = header.Index("picker_ldap"); !ok {
		return c, false
	}
	if c.updatedAt, ok = header.Index("updated_at"); !ok {
		return c, false
	}
	c.warehouse, _ = header.Index("source_warehouse")
	c.status, _ = header.Index("item_status")
	c.dispatch, _ = header.Index("dispatch_by_date")
	c.picklist, _ = header.Index("external_picklist_id")
	c.bin, _ = header.Index("location_bin_id")
	c.sequence, _ = header.Index("location_sequence")
	return c, true
}

// parseEvent converts one CSV row. ok is false when the row has no picker
// or no parseable event time.
func parseEvent(row []string, c columns, loc *time.Location, filename string) (models.ItemEvent, bool) {
	picker := tabular.Cell(row, c.picker)
	if picker == "" {
		return models.ItemEvent{}, false
	}
	at, ok := parseTime(tabular.Cell(row, c.updatedAt), eventTimeLayouts, loc)
	if !ok {
		return models.ItemEvent{}, false
	}

	event := models.ItemEvent{
		SourceWarehouse:    tabular.Cell(row, c.warehouse),
		PickerID:           picker,
		ItemStatus:         enums.NormalizeItemStatus(tabular.Cell(row, c.status)),
		ExternalPicklistID: tabular.Cell(row, c.picklist),
		LocationBinID:      tabular.Cell(row, c.bin),
		UpdatedAt:          at,
		CSVFile:            filename,
	}
	if dispatch, ok := parseTime(tabular.Cell(row, c.dispatch), dispatchTimeLayouts, loc); ok {
		event.DispatchByDate = &dispatch
	}
	if seq, err := strconv.Atoi(tabular.Cell(row, c.sequence)); err == nil {
		event.LocationSequence = &seq
	}
	return event, true
}

// parseTime reads value in loc and returns it in UTC.
func parseTime(value string, layouts []string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
