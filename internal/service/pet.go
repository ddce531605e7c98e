package service

import (
	"context"
	"strings"
	"time"

	"github.com/julianstephens/habitpal/internal/constants"
	apperr "github.com/julianstephens/habitpal/internal/errors"
	"github.com/julianstephens/habitpal/internal/logger"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/storage"
)

// PurchaseResult is the state after a purchase.
type PurchaseResult struct {
	Food     string           `json:"food"`
	Quantity int              `json:"quantity"`
	Cost     int              `json:"cost"`
	Coins    int              `json:"coins"`
	Pet      models.PetStatus `json:"pet"`
}

// StatusOf derives the pet's hunger and mood at now.
func StatusOf(pet models.PetState, now time.Time) models.PetStatus {
	status := models.PetStatus{
		PetState: pet,
		Hunger:   progress.ComputeHunger(pet.LastFedAt, now),
		AsOf:     now,
	}
	if next := progress.NextMoodChange(pet.LastFedAt, now); !next.IsZero() {
		status.NextMoodChange = &next
	}
	return status
}

// Catalog returns the food sold in the store.
func (s *Service) Catalog() []models.FoodItem {
	out := make([]models.FoodItem, len(s.catalog))
	copy(out, s.catalog)
	return out
}

func (s *Service) food(name string) (models.FoodItem, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, item := range s.catalog {
		if item.Name == name {
			return item, nil
		}
	}
	return models.FoodItem{}, apperr.Invalid("food", "%q is not sold in the store", name)
}

func (s *Service) PetStatus(ctx context.Context, accountID string) (models.PetStatus, error) {
	pet, err := s.store.LoadPet(ctx, accountID)
	if err != nil {
		return models.PetStatus{}, err
	}
	return StatusOf(pet, s.now().UTC()), nil
}

// Feed gives the pet one unit of food from the inventory and resets its hunger.
func (s *Service) Feed(ctx context.Context, accountID, food string) (models.PetStatus, error) {
	food = strings.ToLower(strings.TrimSpace(food))
	if food == "" {
		return models.PetStatus{}, apperr.Invalid("food", "must not be empty")
	}

	var status models.PetStatus
	err := s.store.Txn(ctx, func(r storage.Repo) error {
		pet, err := r.LoadPet(ctx, accountID)
		if err != nil {
			return err
		}
		if !pet.Take(food) {
			return apperr.Invalid("food", "no %s left in the inventory", food)
		}

		now := s.now().UTC()
		pet.LastFedAt = now
		if err := r.SavePet(ctx, accountID, pet); err != nil {
			return err
		}
		status = StatusOf(pet, now)
		return nil
	})
	if err != nil {
		return models.PetStatus{}, err
	}

	logger.Info("Pet fed", "account", accountID, "food", food)
	return status, nil
}

// Purchase buys quantity units of food. The whole purchase fails with ErrInsufficientFunds
// when the balance does not cover it.
func (s *Service) Purchase(ctx context.Context, accountID, food string, quantity int) (PurchaseResult, error) {
	item, err := s.food(food)
	if err != nil {
		return PurchaseResult{}, err
	}
	if quantity < 1 || quantity > constants.MaxPurchaseAmount {
		return PurchaseResult{}, apperr.Invalid("quantity", "must be between 1 and %d", constants.MaxPurchaseAmount)
	}
	cost := item.Price * quantity

	var result PurchaseResult
	err = s.store.Txn(ctx, func(r storage.Repo) error {
		coins, err := r.ApplyDelta(ctx, accountID, -cost)
		if err != nil {
			return err
		}
		pet, err := r.LoadPet(ctx, accountID)
		if err != nil {
			return err
		}
		pet.Add(item.Name, quantity)
		if err := r.SavePet(ctx, accountID, pet); err != nil {
			return err
		}

		result = PurchaseResult{
			Food:     item.Name,
			Quantity: quantity,
			Cost:     cost,
			Coins:    coins,
			Pet:      StatusOf(pet, s.now().UTC()),
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	logger.Info("Food purchased", "account", accountID, "food", item.Name, "quantity", quantity, "coins", result.Coins)
	return result, nil
}
