package pickers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJoinDate(t *testing.T) {
	for _, value := range []string{"05-Mar-2024", "05/03/2024", "2024-03-05", "05-03-2024"} {
		got := ParseJoinDate(value)
		require.NotNil(t, got, value)
		assert.Equal(t, "2024-03-05", got.Format("2006-01-02"), value)
	}
	assert.Nil(t, ParseJoinDate(""))
	assert.Nil(t, ParseJoinDate("March 5th"))
}

func TestParseCohortSheetSkipsBadHeaders(t *testing.T) {
	sheet := parseCohortSheet([][]string{
		{"Cohort 1", "Cohorts", "cohort 12"},
		{"A", "B", "C"},
		{"", "D"},
	})
	assert.Equal(t, 2, sheet.Cohorts)
	assert.Equal(t, map[string]int{"A": 1, "C": 12}, sheet.Assignments)
	assert.Equal(t, []string{"A", "C"}, sheet.Order)
}

func TestParseCohort(t *testing.T) {
	assert.Equal(t, 3, *parseCohort("3"))
	assert.Equal(t, 3, *parseCohort("3.0"))
	assert.Nil(t, parseCohort("3.5"))
	assert.Nil(t, parseCohort("three"))
	assert.Nil(t, parseCohort(""))
}
