package timewindow

import "time"

// Resolver binds Resolve to a reporting location and clock.
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// NewResolver builds a resolver for loc. A nil location means UTC and a nil
// clock means time.Now.
func NewResolver(loc *time.Location, now func() time.Time) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Resolver{loc: loc, now: now}
}

// Resolve evaluates token against the current instant in the resolver's location.
func (r *Resolver) Resolve(token string) Window {
	return Resolve(token, r.Now())
}

// Now returns the current instant in the resolver's location.
func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

// Location returns the reporting location.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Today returns local midnight of the current day.
func (r *Resolver) Today() time.Time {
	return midnight(r.Now())
}
