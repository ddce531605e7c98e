package progress

// RewardPerCompletion is the coin reward for completing a goal on a day, and the amount taken
// back when that completion is undone.
const RewardPerCompletion = 10

// Toggle flips day in history. It returns the new history and the signed coin delta:
// +RewardPerCompletion when the day becomes complete, -RewardPerCompletion when it is cleared.
// The input history is not modified.
func Toggle(history History, day DayID) (History, int) {
	next := history.Clone()
	if next.Has(day) {
		delete(next, day)
		return next, -RewardPerCompletion
	}
	next[day] = struct{}{}
	return next, RewardPerCompletion
}
