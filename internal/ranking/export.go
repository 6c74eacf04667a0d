package ranking

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/warehouse-incentives/incentives-backend/internal/timewindow"
	"github.com/warehouse-incentives/incentives-backend/pkg/db/models"
	pkgerrors "github.com/warehouse-incentives/incentives-backend/pkg/errors"
)

var (
	exportHeader       = []string{"Rank", "Picker ID", "Picklists", "Items Picked", "Items Lost", "Score"}
	exportRosterHeader = []string{"Rank", "Picker ID", "Name", "Cohort", "Age (Days)", "Picklists", "Items Picked", "Items Lost", "Score"}
)

// ExportTable is a ranking flattened for download.
type ExportTable struct {
	Header []string
	Rows   [][]string
}

// WriteCSV writes the header followed by every row.
func (t *ExportTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func (s *service) Export(ctx context.Context, scope Scope, window timewindow.Window, withRoster bool) (*ExportTable, error) {
	list, err := s.Rank(ctx, scope, window)
	if err != nil {
		return nil, err
	}

	table := &ExportTable{Header: exportHeader, Rows: make([][]string, 0, list.Total())}
	if !withRoster {
		for _, entry := range list.Entries {
			table.Rows = append(table.Rows, []string{
				strconv.Itoa(entry.Rank),
				entry.PickerID,
				formatInt(entry.UniquePicklists),
				formatInt(entry.ItemsPicked),
				formatInt(entry.ItemsLost),
				formatInt(entry.Score),
			})
		}
		return table, nil
	}

	table.Header = exportRosterHeader
	roster := map[string]models.User{}
	if list.Total() > 0 {
		keys := make([]string, 0, list.Total())
		for _, entry := range list.Entries {
			keys = append(keys, entry.key)
		}
		users, err := s.directory.ListByKeys(ctx, keys)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load picker roster")
		}
		for _, u := range users {
			roster[u.PickerKey] = u
		}
	}

	today := s.clock.Today()
	for _, entry := range list.Entries {
		var name, cohort, age string
		if u, ok := roster[entry.key]; ok {
			if u.Name != nil {
				name = *u.Name
			}
			if u.Cohort != nil {
				cohort = strconv.Itoa(*u.Cohort)
			}
			if days, ok := AgeInDays(u.DateOfJoining, today); ok {
				age = strconv.Itoa(days)
			}
		}
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(entry.Rank),
			entry.PickerID,
			name,
			cohort,
			age,
			formatInt(entry.UniquePicklists),
			formatInt(entry.ItemsPicked),
			formatInt(entry.ItemsLost),
			formatInt(entry.Score),
		})
	}
	return table, nil
}

// AgeInDays counts calendar days from joined to today, both taken as dates
// in today's location. ok is false when the joining date is unknown.
func AgeInDays(joined *time.Time, today time.Time) (int, bool) {
	if joined == nil || joined.IsZero() {
		return 0, false
	}
	from := time.Date(joined.Year(), joined.Month(), joined.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24), true
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
