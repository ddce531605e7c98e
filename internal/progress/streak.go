package progress

// ComputeStreak returns the number of consecutive scheduled days, ending at today or at the most
// recent scheduled day before it, that are present in history.
//
// A streak stays alive while today is still open: if today is not completed (or not scheduled)
// the count ends at the previous scheduled day. Completions on unscheduled days are ignored and
// never break a run.
func ComputeStreak(history History, today DayID, policy FrequencyPolicy) int {
	if len(history) == 0 || !today.Valid() {
		return 0
	}
	start := today
	if !policy.IsScheduled(today) || !history.Has(today) {
		prev, ok := policy.previousScheduled(today)
		if !ok || !history.Has(prev) {
			return 0
		}
		start = prev
	}
	return runEndingAt(history, start, policy)
}

// runEndingAt counts scheduled days present in history walking backward from start.
func runEndingAt(history History, start DayID, policy FrequencyPolicy) int {
	count := 0
	d := start
	for history.Has(d) {
		count++
		prev, ok := policy.previousScheduled(d)
		if !ok {
			break
		}
		d = prev
	}
	return count
}

// LongestStreak returns the longest run of consecutive scheduled days present in history.
func LongestStreak(history History, policy FrequencyPolicy) int {
	runs := make(map[DayID]int, len(history))
	best := 0
	for _, d := range history.Days() {
		if !policy.IsScheduled(d) {
			continue
		}
		run := 1
		if prev, ok := policy.previousScheduled(d); ok {
			run += runs[prev]
		}
		runs[d] = run
		if run > best {
			best = run
		}
	}
	return best
}

// CompletionRate returns the share of scheduled days in [from, to] present in history, in [0, 1].
// It is 0 when the range holds no scheduled day or either bound is invalid.
func CompletionRate(history History, policy FrequencyPolicy, from, to DayID) float64 {
	if !from.Valid() || !to.Valid() || from > to {
		return 0
	}
	scheduled, done := 0, 0
	for d := from; d <= to; d = d.AddDays(1) {
		if !policy.IsScheduled(d) {
			continue
		}
		scheduled++
		if history.Has(d) {
			done++
		}
	}
	if scheduled == 0 {
		return 0
	}
	return float64(done) / float64(scheduled)
}
