package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

func TestClassifyBands(t *testing.T) {
	cases := []struct {
		score int64
		mean  float64
		want  enums.StatusTier
	}{
		{score: 5, mean: 0, want: enums.StatusYellow},
		{score: 0, mean: 0, want: enums.StatusYellow},
		{score: 106, mean: 100, want: enums.StatusGreen},
		{score: 105, mean: 100, want: enums.StatusYellow},
		{score: 95, mean: 100, want: enums.StatusYellow},
		{score: 94, mean: 100, want: enums.StatusRed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.score, tc.mean), "score=%d mean=%v", tc.score, tc.mean)
	}
}

func TestBuildRankedListTieBreak(t *testing.T) {
	list := buildRankedList([]AggregateRow{
		{PickerKey: "zed", PickerID: "ZED", ItemsPicked: 3},
		{PickerKey: "amy", PickerID: "Amy", ItemsPicked: 3},
		{PickerKey: "bob", PickerID: "Bob", ItemsPicked: 7},
	})

	assert.Equal(t, []string{"Bob", "Amy", "ZED"}, []string{list.Entries[0].PickerID, list.Entries[1].PickerID, list.Entries[2].PickerID})
	assert.Equal(t, 3, list.Entries[2].Rank)

	standing := list.StandingOf("zed")
	assert.Equal(t, 3, standing.Rank)
	assert.EqualValues(t, 1, standing.ItemsToNextRank)
	assert.EqualValues(t, 4, standing.DifferenceFromFirst)
}

func TestEmptyRankedList(t *testing.T) {
	list := buildRankedList(nil)
	assert.NotNil(t, list.Entries)
	assert.Zero(t, list.Mean)
	assert.Zero(t, list.TopScore())
	assert.Equal(t, Standing{}, list.StandingOf("anyone"))
}

func TestMembersScope(t *testing.T) {
	scope := Members([]string{" P1", "p1", "", "Q2"})
	assert.Equal(t, []string{"p1", "q2"}, scope.Keys())
	assert.True(t, scope.Contains("q2"))
	assert.False(t, scope.Contains("p3"))
	assert.False(t, scope.IsAll())
	assert.NotEqual(t, All().cacheKey(), scope.cacheKey())

	assert.Nil(t, All().Keys())
	assert.True(t, Members(nil).IsEmpty())
	assert.Equal(t, 5, *CohortMembers(5, []string{"x"}).Cohort())
}

func TestRoundMean(t *testing.T) {
	assert.Equal(t, 1.67, roundMean(5.0/3.0))
	assert.Equal(t, 0.0, roundMean(0))
}
