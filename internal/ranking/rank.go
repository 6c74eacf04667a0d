package ranking

import (
	"sort"

	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

const (
	upperBand = 1.05
	lowerBand = 0.95
)

// Entry is one ranked picker.
type Entry struct {
	Rank            int              `json:"rank"`
	PickerID        string           `json:"picker_id"`
	ItemsPicked     int64            `json:"items_picked"`
	ItemsLost       int64            `json:"items_lost"`
	UniquePicklists int64            `json:"unique_picklists"`
	Score           int64            `json:"score"`
	Status          enums.StatusTier `json:"status"`

	key string
}

// Key is the lower-cased picker id the entry was grouped on.
func (e Entry) Key() string {
	return e.key
}

// RankedList is a scope's pickers in rank order with the mean they were
// classified against.
type RankedList struct {
	Entries []Entry `json:"entries"`
	Mean    float64 `json:"mean"`
}

// Total is the number of ranked pickers.
func (l RankedList) Total() int {
	return len(l.Entries)
}

// TopScore is the leader's score, 0 for an empty list.
func (l RankedList) TopScore() int64 {
	if len(l.Entries) == 0 {
		return 0
	}
	return l.Entries[0].Score
}

// Find locates a picker case-insensitively.
func (l RankedList) Find(pickerID string) (Entry, bool) {
	key := PickerKey(pickerID)
	for _, entry := range l.Entries {
		if entry.key == key {
			return entry, true
		}
	}
	return Entry{}, false
}

// Standing describes where one picker sits in a ranked list.
type Standing struct {
	Rank                int   `json:"rank"`
	ItemsToNextRank     int64 `json:"items_to_next_rank"`
	DifferenceFromFirst int64 `json:"difference_from_first"`
}

// StandingOf returns the picker's standing. Rank 0 means the picker is not
// ranked; the gap to first is then the leader's whole score.
func (l RankedList) StandingOf(pickerID string) Standing {
	entry, ok := l.Find(pickerID)
	if !ok {
		return Standing{DifferenceFromFirst: l.TopScore()}
	}
	standing := Standing{
		Rank:                entry.Rank,
		DifferenceFromFirst: l.TopScore() - entry.Score,
	}
	if entry.Rank > 1 {
		standing.ItemsToNextRank = l.Entries[entry.Rank-2].Score - entry.Score + 1
	}
	return standing
}

// buildRankedList orders rows by score descending with ties broken by
// picker key ascending, then classifies each entry against the mean.
func buildRankedList(rows []AggregateRow) RankedList {
	if len(rows) == 0 {
		return RankedList{Entries: []Entry{}}
	}

	sorted := make([]AggregateRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score() != sorted[j].Score() {
			return sorted[i].Score() > sorted[j].Score()
		}
		return sorted[i].PickerKey < sorted[j].PickerKey
	})

	mean := meanScore(sorted)
	entries := make([]Entry, len(sorted))
	for i, row := range sorted {
		entries[i] = Entry{
			Rank:            i + 1,
			PickerID:        row.PickerID,
			ItemsPicked:     row.ItemsPicked,
			ItemsLost:       row.ItemsLost,
			UniquePicklists: row.UniquePicklists,
			Score:           row.Score(),
			Status:          Classify(row.Score(), mean),
			key:             row.PickerKey,
		}
	}
	return RankedList{Entries: entries, Mean: mean}
}

func meanScore(rows []AggregateRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	var total int64
	for _, row := range rows {
		total += row.Score()
	}
	return float64(total) / float64(len(rows))
}

// Classify places score in a band around mean. A zero mean is always yellow.
func Classify(score int64, mean float64) enums.StatusTier {
	if mean == 0 {
		return enums.StatusYellow
	}
	s := float64(score)
	switch {
	case s > mean*upperBand:
		return enums.StatusGreen
	case s >= mean*lowerBand:
		return enums.StatusYellow
	default:
		return enums.StatusRed
	}
}
