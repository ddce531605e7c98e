package progress

import (
	"encoding/json"
	"testing"
	"time"
)

// 2024-03-06 is a Wednesday.
const wednesday DayID = "2024-03-06"

func TestComputeStreak(t *testing.T) {
	mwf := Custom(time.Monday, time.Wednesday, time.Friday)

	tests := []struct {
		name    string
		history History
		today   DayID
		policy  FrequencyPolicy
		want    int
	}{
		{
			name:    "empty history",
			history: NewHistory(),
			today:   wednesday,
			policy:  Daily(),
			want:    0,
		},
		{
			name:    "nil history",
			history: nil,
			today:   wednesday,
			policy:  Daily(),
			want:    0,
		},
		{
			name:    "three consecutive days ending today",
			history: NewHistory(wednesday, wednesday.AddDays(-1), wednesday.AddDays(-2)),
			today:   wednesday,
			policy:  Daily(),
			want:    3,
		},
		{
			name:    "gap right before today",
			history: NewHistory(wednesday, wednesday.AddDays(-2), wednesday.AddDays(-3)),
			today:   wednesday,
			policy:  Daily(),
			want:    1,
		},
		{
			name:    "today open but yesterday done keeps streak alive",
			history: NewHistory(wednesday.AddDays(-1), wednesday.AddDays(-2)),
			today:   wednesday,
			policy:  Daily(),
			want:    2,
		},
		{
			name:    "missed yesterday and today",
			history: NewHistory(wednesday.AddDays(-2), wednesday.AddDays(-3)),
			today:   wednesday,
			policy:  Daily(),
			want:    0,
		},
		{
			name:    "future completions do not count",
			history: NewHistory(wednesday.AddDays(1)),
			today:   wednesday,
			policy:  Daily(),
			want:    0,
		},
		{
			name:    "custom skips unscheduled days",
			history: NewHistory("2024-03-06", "2024-03-04", "2024-03-01", "2024-02-28"),
			today:   wednesday,
			policy:  mwf,
			want:    4,
		},
		{
			name:    "custom tuesdays only never count",
			history: NewHistory("2024-03-05", "2024-02-27", "2024-02-20", "2024-02-13"),
			today:   "2024-03-05",
			policy:  mwf,
			want:    0,
		},
		{
			name:    "custom on unscheduled today looks at previous scheduled day",
			history: NewHistory("2024-03-04", "2024-03-01"),
			today:   "2024-03-05",
			policy:  mwf,
			want:    2,
		},
		{
			name:    "custom missed scheduled day breaks streak",
			history: NewHistory("2024-03-06", "2024-03-01"),
			today:   wednesday,
			policy:  mwf,
			want:    1,
		},
		{
			name:    "unscheduled completion inside run is ignored",
			history: NewHistory("2024-03-06", "2024-03-05", "2024-03-04"),
			today:   wednesday,
			policy:  mwf,
			want:    2,
		},
		{
			name:    "custom with no weekdays is never scheduled",
			history: NewHistory(wednesday, wednesday.AddDays(-1)),
			today:   wednesday,
			policy:  FrequencyPolicy{Kind: FrequencyCustom},
			want:    0,
		},
		{
			name:    "invalid today",
			history: NewHistory(wednesday),
			today:   "not-a-day",
			policy:  Daily(),
			want:    0,
		},
		{
			name:    "invalid entries ignored",
			history: NewHistory(wednesday, "garbage", wednesday.AddDays(-1)),
			today:   wednesday,
			policy:  Daily(),
			want:    2,
		},
		{
			name:    "streak across month and year boundary",
			history: NewHistory("2024-01-01", "2023-12-31", "2023-12-30"),
			today:   "2024-01-01",
			policy:  Daily(),
			want:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStreak(tt.history, tt.today, tt.policy)
			if got != tt.want {
				t.Errorf("ComputeStreak() = %d, want %d", got, tt.want)
			}
			if again := ComputeStreak(tt.history, tt.today, tt.policy); again != got {
				t.Errorf("ComputeStreak() not idempotent: %d then %d", got, again)
			}
		})
	}
}

func TestComputeStreakDoesNotMutateHistory(t *testing.T) {
	h := NewHistory(wednesday, wednesday.AddDays(-1))
	before := h.Clone()
	ComputeStreak(h, wednesday, Daily())
	if !h.Equal(before) {
		t.Errorf("history mutated: %v, want %v", h.Days(), before.Days())
	}
}

func TestLongestStreak(t *testing.T) {
	h := NewHistory("2024-03-01", "2024-03-02", "2024-03-03", "2024-03-05", "2024-03-06")
	if got := LongestStreak(h, Daily()); got != 3 {
		t.Errorf("LongestStreak(daily) = %d, want 3", got)
	}
	// Fri 1st, Mon 4th missing, Wed 6th: longest MWF run is 1
	if got := LongestStreak(h, Custom(time.Monday, time.Wednesday, time.Friday)); got != 1 {
		t.Errorf("LongestStreak(mwf) = %d, want 1", got)
	}
	if got := LongestStreak(NewHistory(), Daily()); got != 0 {
		t.Errorf("LongestStreak(empty) = %d, want 0", got)
	}
}

func TestCompletionRate(t *testing.T) {
	h := NewHistory("2024-03-04", "2024-03-06")
	from, to := DayID("2024-03-04"), DayID("2024-03-10")

	if got := CompletionRate(h, Daily(), from, to); got != 2.0/7.0 {
		t.Errorf("CompletionRate(daily) = %v, want %v", got, 2.0/7.0)
	}
	if got := CompletionRate(h, Custom(time.Monday, time.Wednesday), from, to); got != 1 {
		t.Errorf("CompletionRate(mon,wed) = %v, want 1", got)
	}
	if got := CompletionRate(h, Daily(), to, from); got != 0 {
		t.Errorf("CompletionRate(reversed) = %v, want 0", got)
	}
}

func TestFrequencyPolicyJSON(t *testing.T) {
	p := Custom(time.Friday, time.Monday, time.Monday)
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"kind":"custom","weekdays":["Monday","Friday"]}` {
		t.Errorf("Marshal() = %s", data)
	}

	var got FrequencyPolicy
	if err := json.Unmarshal([]byte(`{"kind":"custom","weekdays":["wed","Sunday"]}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(got.Weekdays) != 2 || got.Weekdays[0] != time.Sunday || got.Weekdays[1] != time.Wednesday {
		t.Errorf("Unmarshal() weekdays = %v", got.Weekdays)
	}
	if err := json.Unmarshal([]byte(`{"kind":"custom","weekdays":["someday"]}`), &got); err == nil {
		t.Error("Unmarshal() with bad weekday succeeded")
	}
}

func TestFrequencyPolicyValidate(t *testing.T) {
	if err := Daily().Validate(); err != nil {
		t.Errorf("Daily().Validate() = %v", err)
	}
	if err := Custom(time.Monday).Validate(); err != nil {
		t.Errorf("Custom(Monday).Validate() = %v", err)
	}
	if err := Custom().Validate(); err == nil {
		t.Error("Custom().Validate() = nil, want error for empty weekday set")
	}
	if err := (FrequencyPolicy{Kind: "hourly"}).Validate(); err == nil {
		t.Error("Validate() accepted unknown kind")
	}
}
