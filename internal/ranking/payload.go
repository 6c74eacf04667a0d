package ranking

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

// LeaderboardEntry is an entry as seen by one requesting picker.
type LeaderboardEntry struct {
	Entry
	IsRequestingPicker bool `json:"is_requesting_picker"`
}

// StatCard is the single-picker view.
type StatCard struct {
	PickerID            string             `json:"picker_id"`
	Cohort              *int               `json:"cohort"`
	Filter              enums.TimeFilter   `json:"filter"`
	WindowStart         time.Time          `json:"window_start"`
	WindowEnd           time.Time          `json:"window_end"`
	ItemsPicked         int64              `json:"items_picked"`
	ItemsLost           int64              `json:"items_lost"`
	UniquePicklists     int64              `json:"unique_picklists"`
	Score               int64              `json:"score"`
	Rank                int                `json:"rank"`
	TotalInScope        int                `json:"total_in_scope"`
	ItemsToNextRank     int64              `json:"items_to_next_rank"`
	DifferenceFromFirst int64              `json:"difference_from_first"`
	ScopeMean           float64            `json:"scope_mean"`
	Status              enums.StatusTier   `json:"status"`
	Leaderboard         []LeaderboardEntry `json:"leaderboard"`
	RequestingEntry     *LeaderboardEntry  `json:"requesting_entry"`
}

// Rankings is the supervisor view of a scope.
type Rankings struct {
	Filter       enums.TimeFilter `json:"filter"`
	Cohort       *int             `json:"cohort"`
	WindowStart  time.Time        `json:"window_start"`
	WindowEnd    time.Time        `json:"window_end"`
	Rankings     []Entry          `json:"rankings"`
	ScopeMean    float64          `json:"scope_mean"`
	TotalInScope int              `json:"total_in_scope"`
}

// roundMean reports the mean to two decimals. Status classification always
// uses the unrounded value.
func roundMean(mean float64) float64 {
	return decimal.NewFromFloat(mean).Round(2).InexactFloat64()
}

func leaderboard(list RankedList, pickerID string, topN int) ([]LeaderboardEntry, *LeaderboardEntry) {
	key := PickerKey(pickerID)
	limit := len(list.Entries)
	if topN > 0 && topN < limit {
		limit = topN
	}

	board := make([]LeaderboardEntry, 0, limit)
	for _, entry := range list.Entries[:limit] {
		board = append(board, LeaderboardEntry{Entry: entry, IsRequestingPicker: entry.key == key})
	}

	entry, ok := list.Find(pickerID)
	if !ok || entry.Rank <= limit {
		return board, nil
	}
	return board, &LeaderboardEntry{Entry: entry, IsRequestingPicker: true}
}
