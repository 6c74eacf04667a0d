package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/warehouse-incentives/incentives-backend/pkg/enums"
)

// ParseFilterQuery reads the time filter; unknown values fall back to today.
func ParseFilterQuery(r *http.Request) enums.TimeFilter {
	return enums.ParseTimeFilter(r.URL.Query().Get("filter"))
}

// ParseCohortQuery returns nil when the cohort is absent, "all" or not a
// number, which callers treat as every picker.
func ParseCohortQuery(r *http.Request, key string) *int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

func ParseQueryBool(r *http.Request, key string) bool {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return strings.EqualFold(raw, "yes") || strings.EqualFold(raw, "on")
	}
	return value
}
