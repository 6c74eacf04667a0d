package pickers

import (
	"strconv"
	"strings"
	"time"

	"github.com/warehouse-incentives/incentives-backend/pkg/tabular"
)

var joinLayouts = []string{"02-Jan-2006", "02/01/2006", "2006-01-02", "02-01-2006"}

var (
	pickerIDColumns = []string{"Casper ID", "casper_id", "picker_id"}
	nameColumns     = []string{"Name"}
	cohortColumns   = []string{"Cohort"}
	joinedColumns   = []string{"DOJ", "Date of Joining"}
)

// CohortSheet maps each picker id to its cohort. Later columns win when a
// picker appears under more than one cohort.
type CohortSheet struct {
	Assignments map[string]int
	Order       []string
	Cohorts     int
}

// RosterRecord is one roster row. Nil fields were blank or unparseable.
type RosterRecord struct {
	PickerID      string
	Name          *string
	Cohort        *int
	DateOfJoining *time.Time
}

// parseCohortSheet reads a sheet whose header holds "Cohort N" columns.
func parseCohortSheet(rows [][]string) CohortSheet {
	sheet := CohortSheet{Assignments: map[string]int{}}
	if len(rows) == 0 {
		return sheet
	}

	columns := map[int]int{}
	for idx, name := range rows[0] {
		label := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if !strings.HasPrefix(label, "cohort") {
			continue
		}
		fields := strings.Fields(label)
		n, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		columns[idx] = n
	}
	sheet.Cohorts = len(columns)

	for _, row := range rows[1:] {
		for idx := range rows[0] {
			n, ok := columns[idx]
			if !ok {
				continue
			}
			id := tabular.Cell(row, idx)
			if id == "" {
				continue
			}
			if _, seen := sheet.Assignments[id]; !seen {
				sheet.Order = append(sheet.Order, id)
			}
			sheet.Assignments[id] = n
		}
	}
	return sheet
}

// parseRoster reads roster rows keyed by the first matching header. Rows
// without a picker id are dropped.
func parseRoster(rows [][]string) ([]RosterRecord, error) {
	if len(rows) == 0 {
		return nil, errMissingColumn
	}
	header := tabular.NewHeader(rows[0])
	idCol, ok := header.Index(pickerIDColumns...)
	if !ok {
		return nil, errMissingColumn
	}
	nameCol, _ := header.Index(nameColumns...)
	cohortCol, _ := header.Index(cohortColumns...)
	joinedCol, _ := header.Index(joinedColumns...)

	records := make([]RosterRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		id := tabular.Cell(row, idCol)
		if id == "" {
			continue
		}
		rec := RosterRecord{PickerID: id}
		if name := tabular.Cell(row, nameCol); name != "" {
			rec.Name = &name
		}
		rec.Cohort = parseCohort(tabular.Cell(row, cohortCol))
		rec.DateOfJoining = ParseJoinDate(tabular.Cell(row, joinedCol))
		records = append(records, rec)
	}
	return records, nil
}

func parseCohort(value string) *int {
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		// Spreadsheet exports sometimes render integers as "3.0".
		f, ferr := strconv.ParseFloat(value, 64)
		if ferr != nil || f != float64(int(f)) {
			return nil
		}
		n = int(f)
	}
	return &n
}

// ParseJoinDate accepts the roster date layouts and returns nil for anything
// else.
func ParseJoinDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range joinLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
