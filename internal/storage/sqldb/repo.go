package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/storage"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo is a storage.Repo running its statements on q.
type Repo struct {
	q       Querier
	dialect Dialect
}

var _ storage.Repo = (*Repo)(nil)

func New(q Querier, dialect Dialect) *Repo {
	return &Repo{q: q, dialect: dialect}
}

// RunTxn runs fn with a Repo bound to a new transaction on db.
func RunTxn(ctx context.Context, db *sql.DB, dialect Dialect, fn func(storage.Repo) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(New(tx, dialect)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *Repo) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.dialect.Rebind(query), args...)
}

func (r *Repo) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.dialect.Rebind(query), args...)
}

func (r *Repo) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.dialect.Rebind(query), args...)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatWeekdays(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func parseWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid weekday %q: %w", p, err)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

// Accounts

const accountColumns = "id, name, token, coins, timezone, created_at"

func (r *Repo) CreateAccount(ctx context.Context, account models.Account, pet models.PetState) error {
	_, err := r.exec(ctx, `
		INSERT INTO accounts (id, name, token, coins, timezone, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, account.Name, account.Token, account.Coins, account.Timezone, formatTime(account.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}

	if _, err := r.exec(ctx, `INSERT INTO pets (account_id, name, last_fed_at) VALUES (?, ?, ?)`,
		account.ID, pet.Name, formatTime(pet.LastFedAt)); err != nil {
		return fmt.Errorf("failed to insert pet: %w", err)
	}
	return r.saveInventory(ctx, account.ID, pet.Inventory)
}

func scanAccount(row interface{ Scan(...any) error }) (models.Account, error) {
	var a models.Account
	var createdAt string
	if err := row.Scan(&a.ID, &a.Name, &a.Token, &a.Coins, &a.Timezone, &createdAt); err != nil {
		return models.Account{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to parse created_at for account %s: %w", a.ID, err)
	}
	a.CreatedAt = t
	return a, nil
}

func (r *Repo) getAccountBy(ctx context.Context, column, value string) (models.Account, error) {
	a, err := scanAccount(r.queryRow(ctx, "SELECT "+accountColumns+" FROM accounts WHERE "+column+" = ?", value))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, apperr.NotFound("account", value)
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	return a, nil
}

func (r *Repo) GetAccount(ctx context.Context, id string) (models.Account, error) {
	return r.getAccountBy(ctx, "id", id)
}

func (r *Repo) GetAccountByName(ctx context.Context, name string) (models.Account, error) {
	return r.getAccountBy(ctx, "name", name)
}

func (r *Repo) GetAccountByToken(ctx context.Context, token string) (models.Account, error) {
	a, err := r.getAccountBy(ctx, "token", token)
	if errors.Is(err, apperr.ErrNotFound) {
		// never echo the token back
		return models.Account{}, apperr.ErrUnauthorized
	}
	return a, err
}

func (r *Repo) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := r.query(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Reward ledger

func (r *Repo) ApplyDelta(ctx context.Context, accountID string, delta int) (int, error) {
	var balance int
	err := r.queryRow(ctx, `
		UPDATE accounts SET coins = coins + ?
		WHERE id = ? AND coins + ? >= 0
		RETURNING coins`, delta, accountID, delta).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to apply coin delta: %w", err)
	}

	// Nothing updated: either the account is missing or the balance is too low.
	var exists int
	err = r.queryRow(ctx, "SELECT 1 FROM accounts WHERE id = ?", accountID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("account", accountID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	return 0, apperr.ErrInsufficientFunds
}

// Goals

const goalColumns = "id, account_id, title, description, frequency, weekdays, created_at, updated_at"

func scanGoal(row interface{ Scan(...any) error }) (models.Goal, error) {
	var g models.Goal
	var kind, weekdays, createdAt, updatedAt string
	if err := row.Scan(&g.ID, &g.AccountID, &g.Title, &g.Description, &kind, &weekdays, &createdAt, &updatedAt); err != nil {
		return models.Goal{}, err
	}

	days, err := parseWeekdays(weekdays)
	if err != nil {
		return models.Goal{}, fmt.Errorf("failed to parse weekdays for goal %s: %w", g.ID, err)
	}
	g.Frequency = progress.FrequencyPolicy{Kind: progress.FrequencyKind(kind), Weekdays: days}

	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Goal{}, fmt.Errorf("failed to parse created_at for goal %s: %w", g.ID, err)
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Goal{}, fmt.Errorf("failed to parse updated_at for goal %s: %w", g.ID, err)
	}
	return g, nil
}

func (r *Repo) CreateGoal(ctx context.Context, goal models.Goal) error {
	_, err := r.exec(ctx, `
		INSERT INTO goals (id, account_id, title, description, frequency, weekdays, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.AccountID, goal.Title, goal.Description,
		string(goal.Frequency.Kind), formatWeekdays(goal.Frequency.Weekdays),
		formatTime(goal.CreatedAt), formatTime(goal.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	if err := r.saveSteps(ctx, goal.ID, goal.Plan); err != nil {
		return err
	}
	return r.SaveHistory(ctx, goal.ID, goal.History)
}

func (r *Repo) GetGoal(ctx context.Context, accountID, goalID string) (models.Goal, error) {
	g, err := scanGoal(r.queryRow(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE id = ? AND account_id = ?"+r.dialect.Lock, goalID, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Goal{}, apperr.NotFound("goal", goalID)
	}
	if err != nil {
		return models.Goal{}, fmt.Errorf("failed to load goal: %w", err)
	}

	if g.Plan, err = r.loadSteps(ctx, goalID); err != nil {
		return models.Goal{}, err
	}
	if g.History, err = r.LoadHistory(ctx, goalID); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

func (r *Repo) ListGoals(ctx context.Context, accountID string) ([]models.Goal, error) {
	rows, err := r.query(ctx,
		"SELECT "+goalColumns+" FROM goals WHERE account_id = ? ORDER BY created_at, id", accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	index := make(map[string]int)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		g.History = progress.NewHistory()
		index[g.ID] = len(goals)
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return goals, nil
	}

	stepRows, err := r.query(ctx, `
		SELECT s.goal_id, s.description, s.completed_at
		FROM goal_steps s JOIN goals g ON g.id = s.goal_id
		WHERE g.account_id = ?
		ORDER BY s.goal_id, s.position`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goal steps: %w", err)
	}
	defer stepRows.Close()
	for stepRows.Next() {
		var goalID string
		step, err := scanStep(stepRows, &goalID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[goalID]; ok {
			goals[i].Plan = append(goals[i].Plan, step)
		}
	}
	if err := stepRows.Err(); err != nil {
		return nil, err
	}

	dayRows, err := r.query(ctx, `
		SELECT h.goal_id, h.day
		FROM goal_history h JOIN goals g ON g.id = h.goal_id
		WHERE g.account_id = ?`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goal history: %w", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var goalID, day string
		if err := dayRows.Scan(&goalID, &day); err != nil {
			return nil, err
		}
		if i, ok := index[goalID]; ok {
			goals[i].History[progress.DayID(day)] = struct{}{}
		}
	}
	return goals, dayRows.Err()
}

func (r *Repo) UpdateGoal(ctx context.Context, goal models.Goal) error {
	res, err := r.exec(ctx, `
		UPDATE goals SET title = ?, description = ?, frequency = ?, weekdays = ?, updated_at = ?
		WHERE id = ? AND account_id = ?`,
		goal.Title, goal.Description, string(goal.Frequency.Kind), formatWeekdays(goal.Frequency.Weekdays),
		formatTime(goal.UpdatedAt), goal.ID, goal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("goal", goal.ID)
	}

	if _, err := r.exec(ctx, "DELETE FROM goal_steps WHERE goal_id = ?", goal.ID); err != nil {
		return fmt.Errorf("failed to clear goal steps: %w", err)
	}
	return r.saveSteps(ctx, goal.ID, goal.Plan)
}

func (r *Repo) DeleteGoal(ctx context.Context, accountID, goalID string) error {
	var id string
	err := r.queryRow(ctx, "SELECT id FROM goals WHERE id = ? AND account_id = ?"+r.dialect.Lock, goalID, accountID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("goal", goalID)
	}
	if err != nil {
		return fmt.Errorf("failed to load goal: %w", err)
	}

	for _, stmt := range []string{
		"DELETE FROM goal_history WHERE goal_id = ?",
		"DELETE FROM goal_steps WHERE goal_id = ?",
		"DELETE FROM goals WHERE id = ?",
	} {
		if _, err := r.exec(ctx, stmt, goalID); err != nil {
			return fmt.Errorf("failed to delete goal: %w", err)
		}
	}
	return nil
}

func scanStep(row interface{ Scan(...any) error }, goalID *string) (models.Step, error) {
	var step models.Step
	var completedAt sql.NullString
	if err := row.Scan(goalID, &step.Description, &completedAt); err != nil {
		return models.Step{}, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return models.Step{}, fmt.Errorf("failed to parse completed_at for goal %s: %w", *goalID, err)
		}
		step.CompletedAt = &t
	}
	return step, nil
}

func (r *Repo) loadSteps(ctx context.Context, goalID string) ([]models.Step, error) {
	rows, err := r.query(ctx,
		"SELECT goal_id, description, completed_at FROM goal_steps WHERE goal_id = ? ORDER BY position", goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load goal steps: %w", err)
	}
	defer rows.Close()

	var steps []models.Step
	for rows.Next() {
		var id string
		step, err := scanStep(rows, &id)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}

func (r *Repo) saveSteps(ctx context.Context, goalID string, steps []models.Step) error {
	for i, step := range steps {
		var completedAt sql.NullString
		if step.CompletedAt != nil {
			completedAt = sql.NullString{String: formatTime(*step.CompletedAt), Valid: true}
		}
		if _, err := r.exec(ctx,
			"INSERT INTO goal_steps (goal_id, position, description, completed_at) VALUES (?, ?, ?, ?)",
			goalID, i, step.Description, completedAt); err != nil {
			return fmt.Errorf("failed to insert goal step %d: %w", i, err)
		}
	}
	return nil
}

// History store

func (r *Repo) LoadHistory(ctx context.Context, goalID string) (progress.History, error) {
	rows, err := r.query(ctx, "SELECT day FROM goal_history WHERE goal_id = ?", goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	history := progress.NewHistory()
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		history[progress.DayID(day)] = struct{}{}
	}
	return history, rows.Err()
}

// SaveHistory replaces the stored history of goalID with history, writing only the difference.
func (r *Repo) SaveHistory(ctx context.Context, goalID string, history progress.History) error {
	current, err := r.LoadHistory(ctx, goalID)
	if err != nil {
		return err
	}

	for day := range current {
		if history.Has(day) {
			continue
		}
		if _, err := r.exec(ctx, "DELETE FROM goal_history WHERE goal_id = ? AND day = ?", goalID, string(day)); err != nil {
			return fmt.Errorf("failed to remove history day %s: %w", day, err)
		}
	}
	for day := range history {
		if current.Has(day) {
			continue
		}
		if _, err := r.exec(ctx, "INSERT INTO goal_history (goal_id, day) VALUES (?, ?)", goalID, string(day)); err != nil {
			return fmt.Errorf("failed to add history day %s: %w", day, err)
		}
	}
	return nil
}

// Pet state store

func (r *Repo) LoadPet(ctx context.Context, accountID string) (models.PetState, error) {
	var pet models.PetState
	var lastFedAt string
	err := r.queryRow(ctx, "SELECT name, last_fed_at FROM pets WHERE account_id = ?"+r.dialect.Lock, accountID).
		Scan(&pet.Name, &lastFedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PetState{}, apperr.NotFound("pet", accountID)
	}
	if err != nil {
		return models.PetState{}, fmt.Errorf("failed to load pet: %w", err)
	}
	if pet.LastFedAt, err = parseTime(lastFedAt); err != nil {
		return models.PetState{}, fmt.Errorf("failed to parse last_fed_at: %w", err)
	}

	rows, err := r.query(ctx, "SELECT food, count FROM pet_inventory WHERE account_id = ?", accountID)
	if err != nil {
		return models.PetState{}, fmt.Errorf("failed to load inventory: %w", err)
	}
	defer rows.Close()

	pet.Inventory = make(map[string]int)
	for rows.Next() {
		var food string
		var count int
		if err := rows.Scan(&food, &count); err != nil {
			return models.PetState{}, err
		}
		pet.Inventory[food] = count
	}
	return pet, rows.Err()
}

func (r *Repo) SavePet(ctx context.Context, accountID string, pet models.PetState) error {
	res, err := r.exec(ctx, "UPDATE pets SET name = ?, last_fed_at = ? WHERE account_id = ?",
		pet.Name, formatTime(pet.LastFedAt), accountID)
	if err != nil {
		return fmt.Errorf("failed to save pet: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound("pet", accountID)
	}

	if _, err := r.exec(ctx, "DELETE FROM pet_inventory WHERE account_id = ?", accountID); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}
	return r.saveInventory(ctx, accountID, pet.Inventory)
}

func (r *Repo) saveInventory(ctx context.Context, accountID string, inventory map[string]int) error {
	for food, count := range inventory {
		if count <= 0 {
			continue
		}
		if _, err := r.exec(ctx, "INSERT INTO pet_inventory (account_id, food, count) VALUES (?, ?, ?)",
			accountID, food, count); err != nil {
			return fmt.Errorf("failed to save inventory item %s: %w", food, err)
		}
	}
	return nil
}
