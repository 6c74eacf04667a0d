package enums

import "testing"

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" Supervisor ")
	if err != nil {
		t.Fatalf("parse role: %v", err)
	}
	if role != RoleSupervisor {
		t.Fatalf("expected supervisor, got %s", role)
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
}

func TestParseTimeFilterFallsBackToToday(t *testing.T) {
	cases := map[string]TimeFilter{
		"":           TimeFilterToday,
		"THIS_WEEK":  TimeFilterThisWeek,
		"last_week":  TimeFilterLastWeek,
		"all_time":   TimeFilterAllTime,
		"yesterday":  TimeFilterYesterday,
		"last_month": TimeFilterToday,
	}
	for input, want := range cases {
		if got := ParseTimeFilter(input); got != want {
			t.Fatalf("ParseTimeFilter(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestItemStatusClassification(t *testing.T) {
	if !NormalizeItemStatus(" completed ").IsPicked() {
		t.Fatal("completed should count as picked")
	}
	if !ItemStatusReplaced.IsPicked() {
		t.Fatal("replaced should count as picked")
	}
	if ItemStatusNotFound.IsPicked() || !ItemStatusNotFound.IsLost() {
		t.Fatal("not found should count as lost only")
	}
	other := NormalizeItemStatus("picking")
	if other.IsPicked() || other.IsLost() {
		t.Fatalf("unexpected classification for %s", other)
	}
}
