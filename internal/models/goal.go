package models

import (
	"time"

	"github.com/julianstephens/habitpal/internal/progress"
)

// Step is one entry of a goal's plan. CompletedAt is set once, when the step is marked done.
type Step struct {
	Description string     `json:"description" bson:"description"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// Done reports whether the step has been completed.
func (s Step) Done() bool {
	return s.CompletedAt != nil
}

// Goal is a habit an account works toward, with a step plan and a completion history.
type Goal struct {
	ID          string                   `json:"id"`
	AccountID   string                   `json:"account_id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Plan        []Step                   `json:"plan"`
	Frequency   progress.FrequencyPolicy `json:"frequency"`
	History     progress.History         `json:"-"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// GoalSummary is a goal together with its derived progress as of a given day.
type GoalSummary struct {
	Goal
	Today          string   `json:"today"`
	CompletedToday bool     `json:"completed_today"`
	ScheduledToday bool     `json:"scheduled_today"`
	Streak         int      `json:"streak"`
	LongestStreak  int      `json:"longest_streak"`
	Rate30         float64  `json:"completion_rate_30d"`
	History        []string `json:"history"`
}
