package progress

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FrequencyKind selects which calendar days a goal is scheduled on.
type FrequencyKind string

const (
	FrequencyDaily  FrequencyKind = "daily"
	FrequencyCustom FrequencyKind = "custom"
)

// FrequencyPolicy is Daily (every day scheduled) or Custom (only the listed weekdays).
type FrequencyPolicy struct {
	Kind     FrequencyKind  `json:"kind" bson:"kind"`
	Weekdays []time.Weekday `json:"weekdays,omitempty" bson:"weekdays,omitempty"`
}

// Daily returns the every-day policy.
func Daily() FrequencyPolicy {
	return FrequencyPolicy{Kind: FrequencyDaily}
}

// Custom returns a policy scheduling only the given weekdays. Duplicates are dropped.
func Custom(days ...time.Weekday) FrequencyPolicy {
	seen := make(map[time.Weekday]bool, len(days))
	var out []time.Weekday
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return FrequencyPolicy{Kind: FrequencyCustom, Weekdays: out}
}

// Validate reports whether the policy can be assigned to a new goal.
func (p FrequencyPolicy) Validate() error {
	switch p.Kind {
	case FrequencyDaily, "":
		return nil
	case FrequencyCustom:
		if len(p.Weekdays) == 0 {
			return fmt.Errorf("custom frequency needs at least one weekday")
		}
		for _, wd := range p.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return fmt.Errorf("invalid weekday %d", wd)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown frequency %q", p.Kind)
	}
}

// IsScheduled reports whether d counts as a scheduled day. An empty Kind behaves as Daily.
func (p FrequencyPolicy) IsScheduled(d DayID) bool {
	wd, ok := d.Weekday()
	if !ok {
		return false
	}
	switch p.Kind {
	case FrequencyDaily, "":
		return true
	case FrequencyCustom:
		for _, s := range p.Weekdays {
			if s == wd {
				return true
			}
		}
	}
	return false
}

// previousScheduled returns the most recent scheduled day strictly before d.
func (p FrequencyPolicy) previousScheduled(d DayID) (DayID, bool) {
	for i := 1; i <= 7; i++ {
		c := d.AddDays(-i)
		if p.IsScheduled(c) {
			return c, true
		}
	}
	return "", false
}

func (p FrequencyPolicy) String() string {
	switch p.Kind {
	case FrequencyDaily, "":
		return "daily"
	case FrequencyCustom:
		if len(p.Weekdays) == 0 {
			return "never"
		}
		var days []string
		for _, wd := range p.Weekdays {
			days = append(days, wd.String()[:3])
		}
		return "on " + strings.Join(days, ",")
	default:
		return "unknown"
	}
}

var weekdayLabels = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday parses a weekday label such as "Monday" or "mon" (case-insensitive).
func ParseWeekday(label string) (time.Weekday, error) {
	if wd, ok := weekdayLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", label)
}

type frequencyJSON struct {
	Kind     FrequencyKind `json:"kind"`
	Weekdays []string      `json:"weekdays,omitempty"`
}

// MarshalJSON encodes weekdays by label ("Monday") rather than number.
func (p FrequencyPolicy) MarshalJSON() ([]byte, error) {
	out := frequencyJSON{Kind: p.Kind}
	if out.Kind == "" {
		out.Kind = FrequencyDaily
	}
	for _, wd := range p.Weekdays {
		out.Weekdays = append(out.Weekdays, wd.String())
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts weekday labels.
func (p *FrequencyPolicy) UnmarshalJSON(data []byte) error {
	var in frequencyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	days := make([]time.Weekday, 0, len(in.Weekdays))
	for _, label := range in.Weekdays {
		wd, err := ParseWeekday(label)
		if err != nil {
			return err
		}
		days = append(days, wd)
	}
	switch in.Kind {
	case FrequencyCustom:
		*p = Custom(days...)
	case FrequencyDaily, "":
		*p = Daily()
	default:
		*p = FrequencyPolicy{Kind: in.Kind}
	}
	return nil
}
