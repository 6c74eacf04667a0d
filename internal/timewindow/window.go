package timewindow

import (
	"time"

	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

// allTimeFloorYear bounds all_time: events recorded before January 1st of
// this year never count.
const allTimeFloorYear = 2020

// Window is an inclusive instant range. Closed windows end before the instant
// they were resolved at, so their contents only change when data is ingested.
type Window struct {
	Filter enums.TimeFilter
	Start  time.Time
	End    time.Time
	Closed bool
}

// UTC returns the window with both bounds converted for querying.
func (w Window) UTC() Window {
	w.Start = w.Start.UTC()
	w.End = w.End.UTC()
	return w
}

// Contains reports whether t falls within the inclusive bounds.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Resolve maps a filter token to a concrete window relative to now, evaluated
// in now's location. Unknown tokens resolve to today.
func Resolve(token string, now time.Time) Window {
	filter := enums.ParseTimeFilter(token)
	today := midnight(now)

	switch filter {
	case enums.TimeFilterYesterday:
		day := today.AddDate(0, 0, -1)
		return Window{Filter: filter, Start: day, End: endOfDay(day), Closed: true}

	case enums.TimeFilterThisWeek:
		return Window{Filter: filter, Start: weekStart(today), End: now}

	case enums.TimeFilterLastWeek:
		start := weekStart(today).AddDate(0, 0, -7)
		sunday := start.AddDate(0, 0, 6)
		return Window{Filter: filter, Start: start, End: endOfDay(sunday), Closed: true}

	case enums.TimeFilterAllTime:
		floor := time.Date(allTimeFloorYear, time.January, 1, 0, 0, 0, 0, now.Location())
		return Window{Filter: filter, Start: floor, End: now}

	default:
		return Window{Filter: enums.TimeFilterToday, Start: today, End: now}
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999000, t.Location())
}

// weekStart returns the Monday on or before day.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
