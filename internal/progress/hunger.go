package progress

import "time"

// Mood is the pet's discrete mood tier.
type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
	MoodVerySad Mood = "very sad"
	MoodWeak    Mood = "weak"
)

// MaxHunger is a starving pet.
const MaxHunger = 100

// Hunger is derived from the last feeding and never stored.
type Hunger struct {
	Level int  `json:"level"`
	Mood  Mood `json:"mood"`
}

// ComputeHunger returns the hunger level and mood of a pet last fed at lastFedAt.
// Hunger grows 12.5 points per whole hour elapsed, rounded down and capped at MaxHunger.
// A lastFedAt in the future counts as just fed.
func ComputeHunger(lastFedAt, now time.Time) Hunger {
	level := levelAfter(hoursElapsed(lastFedAt, now))
	return Hunger{Level: level, Mood: MoodFor(level)}
}

func hoursElapsed(lastFedAt, now time.Time) int64 {
	d := now.Sub(lastFedAt)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Hour)
}

func levelAfter(hours int64) int {
	// 12.5 per hour reaches MaxHunger at 8 hours
	if hours >= 8 {
		return MaxHunger
	}
	return int(hours * 25 / 2)
}

// MoodFor maps a hunger level to its mood tier. Each bound belongs to the lower tier.
func MoodFor(level int) Mood {
	switch {
	case level <= 20:
		return MoodHappy
	case level <= 40:
		return MoodNeutral
	case level <= 60:
		return MoodSad
	case level <= 80:
		return MoodVerySad
	default:
		return MoodWeak
	}
}

// NextMoodChange returns when the mood will next drop a tier if the pet is not fed,
// or the zero time when it is already weak.
func NextMoodChange(lastFedAt, now time.Time) time.Time {
	hours := hoursElapsed(lastFedAt, now)
	current := MoodFor(levelAfter(hours))
	if current == MoodWeak {
		return time.Time{}
	}
	base := lastFedAt
	if now.Before(lastFedAt) {
		base = now
	}
	for h := hours + 1; h <= 8; h++ {
		if MoodFor(levelAfter(h)) != current {
			return base.Add(time.Duration(h) * time.Hour)
		}
	}
	return time.Time{}
}
