package progress

import "sort"

// History is the set of days a goal was completed on.
type History map[DayID]struct{}

// NewHistory builds a history from the given days.
func NewHistory(days ...DayID) History {
	h := make(History, len(days))
	for _, d := range days {
		h[d] = struct{}{}
	}
	return h
}

// ParseHistory builds a history from stored strings, rejecting the first malformed day.
func ParseHistory(days []string) (History, error) {
	h := make(History, len(days))
	for _, s := range days {
		d, err := ParseDayID(s)
		if err != nil {
			return nil, err
		}
		h[d] = struct{}{}
	}
	return h, nil
}

// Has reports whether d is in the history.
func (h History) Has(d DayID) bool {
	_, ok := h[d]
	return ok
}

// Clone returns an independent copy. Cloning a nil history yields an empty one.
func (h History) Clone() History {
	out := make(History, len(h))
	for d := range h {
		out[d] = struct{}{}
	}
	return out
}

// Days returns the days in ascending order.
func (h History) Days() []DayID {
	days := make([]DayID, 0, len(h))
	for d := range h {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Strings returns the days in ascending order as plain strings.
func (h History) Strings() []string {
	out := make([]string, 0, len(h))
	for _, d := range h.Days() {
		out = append(out, string(d))
	}
	return out
}

// Equal reports whether both histories hold the same days.
func (h History) Equal(o History) bool {
	if len(h) != len(o) {
		return false
	}
	for d := range h {
		if !o.Has(d) {
			return false
		}
	}
	return true
}
