package progress

import "testing"

func TestToggle(t *testing.T) {
	tests := []struct {
		name      string
		history   History
		day       DayID
		wantDelta int
		wantHas   bool
	}{
		{name: "add to empty", history: NewHistory(), day: wednesday, wantDelta: RewardPerCompletion, wantHas: true},
		{name: "add to nil", history: nil, day: wednesday, wantDelta: RewardPerCompletion, wantHas: true},
		{name: "add beside others", history: NewHistory(wednesday.AddDays(-1)), day: wednesday, wantDelta: 10, wantHas: true},
		{name: "remove present day", history: NewHistory(wednesday), day: wednesday, wantDelta: -10, wantHas: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.history.Clone()
			next, delta := Toggle(tt.history, tt.day)
			if delta != tt.wantDelta {
				t.Errorf("Toggle() delta = %d, want %d", delta, tt.wantDelta)
			}
			if next.Has(tt.day) != tt.wantHas {
				t.Errorf("Toggle() has day = %v, want %v", next.Has(tt.day), tt.wantHas)
			}
			if !tt.history.Clone().Equal(before) {
				t.Errorf("Toggle() mutated its input")
			}
		})
	}
}

func TestToggleIsSelfInverse(t *testing.T) {
	histories := []History{
		NewHistory(),
		NewHistory(wednesday),
		NewHistory(wednesday.AddDays(-3), wednesday.AddDays(-1)),
	}
	days := []DayID{wednesday, wednesday.AddDays(-1), "2020-01-01"}

	for _, h := range histories {
		for _, d := range days {
			once, first := Toggle(h, d)
			twice, second := Toggle(once, d)
			if !twice.Equal(h) {
				t.Errorf("Toggle twice on %v with %s = %v", h.Days(), d, twice.Days())
			}
			if first+second != 0 {
				t.Errorf("deltas %d and %d do not cancel", first, second)
			}
			wantFirst := RewardPerCompletion
			if h.Has(d) {
				wantFirst = -RewardPerCompletion
			}
			if first != wantFirst {
				t.Errorf("first delta = %d, want %d", first, wantFirst)
			}
		}
	}
}
