package domain

import (
	"sort"
	"time"
)

// DateSet is a set of calendar dates. A date is a member if at least one
// holiday falls on it, however many entries share that date.
type DateSet map[string]struct{}

// NewDateSet builds a set from holiday entries.
func NewDateSet(holidays ...Holiday) DateSet {
	set := make(DateSet, len(holidays))
	for _, h := range holidays {
		set.Add(h.Date)
	}
	return set
}

func (s DateSet) Add(t time.Time) {
	s[t.Format(DateLayout)] = struct{}{}
}

// Contains reports whether t (any time of day) falls on a member date.
func (s DateSet) Contains(t time.Time) bool {
	if s == nil {
		return false
	}
	_, ok := s[t.Format(DateLayout)]
	return ok
}

func (s DateSet) Len() int {
	return len(s)
}

// Sorted returns the member dates in ascending order.
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
