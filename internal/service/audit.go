package service

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitpal/internal/progress"
)

// Issue is a data problem found by Audit.
type Issue struct {
	AccountID string
	GoalID    string
	Problem   string
}

func (i Issue) String() string {
	if i.GoalID != "" {
		return fmt.Sprintf("account %s, goal %s: %s", i.AccountID, i.GoalID, i.Problem)
	}
	return fmt.Sprintf("account %s: %s", i.AccountID, i.Problem)
}

// Audit scans every account for stored data the engine would reject or ignore: negative
// balances, unparseable zones, malformed history days and invalid frequencies.
func (s *Service) Audit(ctx context.Context) ([]Issue, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, a := range accounts {
		if a.Coins < 0 {
			issues = append(issues, Issue{AccountID: a.ID, Problem: fmt.Sprintf("negative balance %d", a.Coins)})
		}
		if _, err := progress.ParseZone(a.Timezone); err != nil {
			issues = append(issues, Issue{AccountID: a.ID, Problem: fmt.Sprintf("invalid timezone %q", a.Timezone)})
		}

		goals, err := s.store.ListGoals(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		for _, g := range goals {
			if err := g.Frequency.Validate(); err != nil {
				issues = append(issues, Issue{AccountID: a.ID, GoalID: g.ID, Problem: err.Error()})
			}
			for _, day := range g.History.Days() {
				if !day.Valid() {
					issues = append(issues, Issue{AccountID: a.ID, GoalID: g.ID, Problem: fmt.Sprintf("invalid history day %q", day)})
				}
			}
		}
	}
	return issues, nil
}
