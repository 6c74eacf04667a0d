package ranking

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
)

// Scope restricts a ranking to a set of pickers. The zero value ranks everyone.
type Scope struct {
	filtered bool
	members  []string
	cohort   *int
}

// All ranks every picker with activity.
func All() Scope {
	return Scope{}
}

// Members ranks only the given pickers. Identifiers are matched
// case-insensitively; an empty set yields an empty ranking.
func Members(ids []string) Scope {
	seen := make(map[string]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		key := PickerKey(id)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return Scope{filtered: true, members: keys}
}

// CohortMembers is Members tagged with the cohort it was resolved from.
func CohortMembers(cohort int, ids []string) Scope {
	s := Members(ids)
	s.cohort = &cohort
	return s
}

// PickerKey is the case-insensitive identity of a picker id.
func PickerKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// IsAll reports whether the scope is unfiltered.
func (s Scope) IsAll() bool {
	return !s.filtered
}

// IsEmpty reports a member scope with no members.
func (s Scope) IsEmpty() bool {
	return s.filtered && len(s.members) == 0
}

// Keys returns the lower-cased member identifiers, nil for All.
func (s Scope) Keys() []string {
	if !s.filtered {
		return nil
	}
	out := make([]string, len(s.members))
	copy(out, s.members)
	return out
}

// Cohort returns the cohort the scope was built from, if any.
func (s Scope) Cohort() *int {
	return s.cohort
}

// Contains reports whether the picker falls inside the scope.
func (s Scope) Contains(pickerID string) bool {
	if !s.filtered {
		return true
	}
	key := PickerKey(pickerID)
	i := sort.SearchStrings(s.members, key)
	return i < len(s.members) && s.members[i] == key
}

// cacheKey identifies the scope in ranking cache keys.
func (s Scope) cacheKey() string {
	if !s.filtered {
		return "all"
	}
	sum := sha1.Sum([]byte(strings.Join(s.members, "\n")))
	return "m" + hex.EncodeToString(sum[:8])
}
