package enums

import "strings"

// TimeFilter names a reporting window relative to the current instant.
type TimeFilter string

const (
	TimeFilterToday     TimeFilter = "today"
	TimeFilterYesterday TimeFilter = "yesterday"
	TimeFilterThisWeek  TimeFilter = "this_week"
	TimeFilterLastWeek  TimeFilter = "last_week"
	TimeFilterAllTime   TimeFilter = "all_time"
)

var validTimeFilters = []TimeFilter{
	TimeFilterToday,
	TimeFilterYesterday,
	TimeFilterThisWeek,
	TimeFilterLastWeek,
	TimeFilterAllTime,
}

// String implements fmt.Stringer.
func (f TimeFilter) String() string {
	return string(f)
}

// IsValid reports whether the value is a known TimeFilter.
func (f TimeFilter) IsValid() bool {
	for _, candidate := range validTimeFilters {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseTimeFilter never fails: unknown or empty tokens resolve to today.
func ParseTimeFilter(value string) TimeFilter {
	candidate := TimeFilter(strings.ToLower(strings.TrimSpace(value)))
	if candidate.IsValid() {
		return candidate
	}
	return TimeFilterToday
}
