package enums

import "strings"

// ItemStatus is the outcome recorded for a single picked item.
type ItemStatus string

const (
	ItemStatusCompleted ItemStatus = "COMPLETED"
	ItemStatusReplaced  ItemStatus = "ITEM_REPLACED"
	ItemStatusNotFound  ItemStatus = "ITEM_NOT_FOUND"
)

// PickedStatuses are the outcomes that count toward a picker's score.
var PickedStatuses = []ItemStatus{ItemStatusCompleted, ItemStatusReplaced}

// String implements fmt.Stringer.
func (s ItemStatus) String() string {
	return string(s)
}

// IsPicked reports whether the outcome counts as a picked item.
func (s ItemStatus) IsPicked() bool {
	return s == ItemStatusCompleted || s == ItemStatusReplaced
}

// IsLost reports whether the outcome counts as a lost item.
func (s ItemStatus) IsLost() bool {
	return s == ItemStatusNotFound
}

// NormalizeItemStatus upper-cases raw CSV values. Unknown statuses are kept
// verbatim so they are stored but ignored for scoring.
func NormalizeItemStatus(value string) ItemStatus {
	return ItemStatus(strings.ToUpper(strings.TrimSpace(value)))
}
