package storage

import (
	"context"

	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
)

// Repo is the set of collaborator operations the service composes. Inside Provider.Txn every
// call runs in the same transaction.
type Repo interface {
	// Accounts
	CreateAccount(ctx context.Context, account models.Account, pet models.PetState) error
	GetAccount(ctx context.Context, id string) (models.Account, error)
	GetAccountByName(ctx context.Context, name string) (models.Account, error)
	GetAccountByToken(ctx context.Context, token string) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// Reward ledger. ApplyDelta returns the new balance, or errors.ErrInsufficientFunds
	// without writing anything when the balance would drop below zero.
	ApplyDelta(ctx context.Context, accountID string, delta int) (int, error)

	// Goals
	CreateGoal(ctx context.Context, goal models.Goal) error
	GetGoal(ctx context.Context, accountID, goalID string) (models.Goal, error)
	ListGoals(ctx context.Context, accountID string) ([]models.Goal, error)
	// UpdateGoal saves title, description and plan. History is saved only through SaveHistory.
	UpdateGoal(ctx context.Context, goal models.Goal) error
	DeleteGoal(ctx context.Context, accountID, goalID string) error

	// History store
	LoadHistory(ctx context.Context, goalID string) (progress.History, error)
	SaveHistory(ctx context.Context, goalID string, history progress.History) error

	// Pet state store
	LoadPet(ctx context.Context, accountID string) (models.PetState, error)
	SavePet(ctx context.Context, accountID string, pet models.PetState) error
}

// Provider is a storage backend. Its embedded Repo runs each call on its own.
type Provider interface {
	Repo

	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Txn runs fn in one transaction, committing when fn returns nil and rolling back otherwise.
	Txn(ctx context.Context, fn func(Repo) error) error

	// SchemaVersion reports the applied and the latest known schema version.
	SchemaVersion(ctx context.Context) (current, latest int, err error)

	// Utils
	GetConfigPath() string
}
