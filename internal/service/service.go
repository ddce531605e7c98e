// Package service composes the progress engine and the storage collaborators into the
// actions habitpal exposes. Every mutation is one storage transaction and returns the
// authoritative new state.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitpal/internal/constants"
	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/logger"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/storage"
)

type Service struct {
	store   storage.Provider
	catalog []models.FoodItem
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store storage.Provider, catalog []models.FoodItem, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage provider.
func (s *Service) Store() storage.Provider {
	return s.store
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// zoneOf returns the zone an account's days are counted in. A stored zone that no longer
// parses falls back to UTC.
func zoneOf(account models.Account) progress.ZonePolicy {
	zone, err := progress.ParseZone(account.Timezone)
	if err != nil {
		logger.Warn("Invalid account timezone, using UTC", "account", account.ID, "timezone", account.Timezone)
		return progress.UTC()
	}
	return zone
}

// Today returns the current day in the account's zone.
func (s *Service) Today(account models.Account) progress.DayID {
	return progress.ToDayID(s.now(), zoneOf(account))
}

// CreateAccountInput describes a new account. Empty Timezone and PetName take defaults.
type CreateAccountInput struct {
	Name     string
	Timezone string
	PetName  string
}

// CreateAccount registers an account with an empty balance and a freshly fed pet.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountInput) (models.Account, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Account{}, apperr.Invalid("name", "must not be empty")
	}

	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = constants.DefaultTimezone
	}
	zone, err := progress.ParseZone(tz)
	if err != nil {
		return models.Account{}, apperr.Invalid("timezone", "%v", err)
	}

	petName := strings.TrimSpace(in.PetName)
	if petName == "" {
		petName = constants.DefaultPetName
	}

	now := s.now().UTC()
	account := models.Account{
		ID:        uuid.NewString(),
		Name:      name,
		Token:     newToken(),
		Coins:     constants.StartingCoins,
		Timezone:  zone.String(),
		CreatedAt: now,
	}
	pet := models.PetState{Name: petName, LastFedAt: now, Inventory: map[string]int{}}

	err = s.store.Txn(ctx, func(r storage.Repo) error {
		_, err := r.GetAccountByName(ctx, name)
		if err == nil {
			return apperr.Invalid("name", "account %q already exists", name)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return r.CreateAccount(ctx, account, pet)
	})
	if err != nil {
		return models.Account{}, err
	}

	logger.Info("Account created", "account", account.ID, "name", name)
	return account, nil
}

// newToken returns an opaque bearer token built from two random UUIDs.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (models.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

func (s *Service) AccountByName(ctx context.Context, name string) (models.Account, error) {
	return s.store.GetAccountByName(ctx, strings.TrimSpace(name))
}

// Authenticate resolves a bearer token to its account.
func (s *Service) Authenticate(ctx context.Context, token string) (models.Account, error) {
	if token == "" {
		return models.Account{}, apperr.ErrUnauthorized
	}
	return s.store.GetAccountByToken(ctx, token)
}
