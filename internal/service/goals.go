package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/logger"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/storage"
)

// rateWindow is the number of days, today included, behind the completion rate of a summary.
const rateWindow = 30

// GoalInput describes a new goal. A zero Frequency means daily.
type GoalInput struct {
	Title       string
	Description string
	Steps       []string
	Frequency   progress.FrequencyPolicy
}

// GoalPatch changes the fields that are set.
type GoalPatch struct {
	Title       *string
	Description *string
	Frequency   *progress.FrequencyPolicy
}

// ToggleResult is the state after a day was toggled.
type ToggleResult struct {
	Goal      models.GoalSummary `json:"goal"`
	Day       string             `json:"day"`
	Completed bool               `json:"completed"`
	Delta     int                `json:"delta"`
	Coins     int                `json:"coins"`
}

func validateText(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.Invalid(field, "must not be empty")
	}
	return v, nil
}

func validateFrequency(p progress.FrequencyPolicy) (progress.FrequencyPolicy, error) {
	if p.Kind == "" {
		p.Kind = progress.FrequencyDaily
	}
	if err := p.Validate(); err != nil {
		return progress.FrequencyPolicy{}, apperr.Invalid("frequency", "%v", err)
	}
	if p.Kind == progress.FrequencyCustom {
		p = progress.Custom(p.Weekdays...)
	} else {
		p.Weekdays = nil
	}
	return p, nil
}

// Summarize derives a goal's progress as of today.
func Summarize(goal models.Goal, today progress.DayID) models.GoalSummary {
	history := goal.History
	if history == nil {
		history = progress.NewHistory()
	}
	return models.GoalSummary{
		Goal:           goal,
		Today:          today.String(),
		CompletedToday: history.Has(today),
		ScheduledToday: goal.Frequency.IsScheduled(today),
		Streak:         progress.ComputeStreak(history, today, goal.Frequency),
		LongestStreak:  progress.LongestStreak(history, goal.Frequency),
		Rate30:         progress.CompletionRate(history, goal.Frequency, today.AddDays(-(rateWindow - 1)), today),
		History:        history.Strings(),
	}
}

func (s *Service) CreateGoal(ctx context.Context, accountID string, in GoalInput) (models.GoalSummary, error) {
	title, err := validateText("title", in.Title)
	if err != nil {
		return models.GoalSummary{}, err
	}
	description, err := validateText("description", in.Description)
	if err != nil {
		return models.GoalSummary{}, err
	}
	frequency, err := validateFrequency(in.Frequency)
	if err != nil {
		return models.GoalSummary{}, err
	}

	plan := make([]models.Step, 0, len(in.Steps))
	for i, step := range in.Steps {
		d, err := validateText("steps", step)
		if err != nil {
			return models.GoalSummary{}, apperr.Invalid("steps", "step %d must not be empty", i+1)
		}
		plan = append(plan, models.Step{Description: d})
	}

	now := s.now().UTC()
	goal := models.Goal{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Title:       title,
		Description: description,
		Plan:        plan,
		Frequency:   frequency,
		History:     progress.NewHistory(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var account models.Account
	err = s.store.Txn(ctx, func(r storage.Repo) error {
		var err error
		if account, err = r.GetAccount(ctx, accountID); err != nil {
			return err
		}
		return r.CreateGoal(ctx, goal)
	})
	if err != nil {
		return models.GoalSummary{}, err
	}

	logger.Info("Goal created", "account", accountID, "goal", goal.ID)
	return Summarize(goal, s.Today(account)), nil
}

func (s *Service) GetGoal(ctx context.Context, accountID, goalID string) (models.GoalSummary, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return models.GoalSummary{}, err
	}
	goal, err := s.store.GetGoal(ctx, accountID, goalID)
	if err != nil {
		return models.GoalSummary{}, err
	}
	return Summarize(goal, s.Today(account)), nil
}

func (s *Service) ListGoals(ctx context.Context, accountID string) ([]models.GoalSummary, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	goals, err := s.store.ListGoals(ctx, accountID)
	if err != nil {
		return nil, err
	}

	today := s.Today(account)
	summaries := make([]models.GoalSummary, 0, len(goals))
	for _, g := range goals {
		summaries = append(summaries, Summarize(g, today))
	}
	return summaries, nil
}

// updateGoal loads a goal in a transaction, applies change and saves it.
func (s *Service) updateGoal(ctx context.Context, accountID, goalID string, change func(*models.Goal) error) (models.GoalSummary, error) {
	var account models.Account
	var goal models.Goal
	err := s.store.Txn(ctx, func(r storage.Repo) error {
		var err error
		if account, err = r.GetAccount(ctx, accountID); err != nil {
			return err
		}
		if goal, err = r.GetGoal(ctx, accountID, goalID); err != nil {
			return err
		}
		if err := change(&goal); err != nil {
			return err
		}
		goal.UpdatedAt = s.now().UTC()
		return r.UpdateGoal(ctx, goal)
	})
	if err != nil {
		return models.GoalSummary{}, err
	}
	return Summarize(goal, s.Today(account)), nil
}

func (s *Service) EditGoal(ctx context.Context, accountID, goalID string, patch GoalPatch) (models.GoalSummary, error) {
	var title, description string
	var frequency progress.FrequencyPolicy
	var err error
	if patch.Title != nil {
		if title, err = validateText("title", *patch.Title); err != nil {
			return models.GoalSummary{}, err
		}
	}
	if patch.Description != nil {
		if description, err = validateText("description", *patch.Description); err != nil {
			return models.GoalSummary{}, err
		}
	}
	if patch.Frequency != nil {
		if frequency, err = validateFrequency(*patch.Frequency); err != nil {
			return models.GoalSummary{}, err
		}
	}

	return s.updateGoal(ctx, accountID, goalID, func(g *models.Goal) error {
		if patch.Title != nil {
			g.Title = title
		}
		if patch.Description != nil {
			g.Description = description
		}
		if patch.Frequency != nil {
			g.Frequency = frequency
		}
		return nil
	})
}

func (s *Service) DeleteGoal(ctx context.Context, accountID, goalID string) error {
	err := s.store.Txn(ctx, func(r storage.Repo) error {
		return r.DeleteGoal(ctx, accountID, goalID)
	})
	if err != nil {
		return err
	}
	logger.Info("Goal deleted", "account", accountID, "goal", goalID)
	return nil
}

// AddStep appends a step to the goal's plan.
func (s *Service) AddStep(ctx context.Context, accountID, goalID, description string) (models.GoalSummary, error) {
	d, err := validateText("description", description)
	if err != nil {
		return models.GoalSummary{}, err
	}
	return s.updateGoal(ctx, accountID, goalID, func(g *models.Goal) error {
		g.Plan = append(g.Plan, models.Step{Description: d})
		return nil
	})
}

// CompleteStep marks the step at index (0-based) done. A step is completed at most once.
func (s *Service) CompleteStep(ctx context.Context, accountID, goalID string, index int) (models.GoalSummary, error) {
	return s.updateGoal(ctx, accountID, goalID, func(g *models.Goal) error {
		if index < 0 || index >= len(g.Plan) {
			return apperr.Invalid("index", "goal has %d steps, no step %d", len(g.Plan), index)
		}
		if g.Plan[index].Done() {
			return apperr.Invalid("index", "step %d is already done", index)
		}
		at := s.now().UTC()
		g.Plan[index].CompletedAt = &at
		return nil
	})
}

// ToggleGoalDay flips the completion of day (today when empty) and moves the reward in the
// same transaction. Un-toggling a day whose coins were already spent fails with
// ErrInsufficientFunds and changes nothing.
func (s *Service) ToggleGoalDay(ctx context.Context, accountID, goalID, day string) (ToggleResult, error) {
	var result ToggleResult
	err := s.store.Txn(ctx, func(r storage.Repo) error {
		account, err := r.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		today := s.Today(account)

		target := today
		if day != "" {
			if target, err = progress.ParseDayID(day); err != nil {
				return apperr.Invalid("day", "%q is not a YYYY-MM-DD date", day)
			}
			if target > today {
				return apperr.Invalid("day", "%s is in the future", target)
			}
		}

		goal, err := r.GetGoal(ctx, accountID, goalID)
		if err != nil {
			return err
		}
		history, err := r.LoadHistory(ctx, goalID)
		if err != nil {
			return err
		}

		next, delta := progress.Toggle(history, target)
		if err := r.SaveHistory(ctx, goalID, next); err != nil {
			return err
		}
		coins, err := r.ApplyDelta(ctx, accountID, delta)
		if err != nil {
			return err
		}

		goal.History = next
		result = ToggleResult{
			Goal:      Summarize(goal, today),
			Day:       target.String(),
			Completed: next.Has(target),
			Delta:     delta,
			Coins:     coins,
		}
		return nil
	})
	if err != nil {
		return ToggleResult{}, err
	}

	logger.Info("Goal toggled", "account", accountID, "goal", goalID, "day", result.Day, "delta", result.Delta, "coins", result.Coins)
	return result, nil
}
