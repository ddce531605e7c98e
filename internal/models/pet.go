package models

import (
	"sort"
	"time"

	"github.com/julianstephens/habitpal/internal/progress"
)

// PetState is the stored part of an account's pet. Hunger and mood are always derived.
type PetState struct {
	Name      string         `json:"name"`
	LastFedAt time.Time      `json:"last_fed_at"`
	Inventory map[string]int `json:"inventory"`
}

// Add puts n units of food into the inventory.
func (p *PetState) Add(food string, n int) {
	if n <= 0 {
		return
	}
	if p.Inventory == nil {
		p.Inventory = make(map[string]int)
	}
	p.Inventory[food] += n
}

// Take removes one unit of food. It returns false, leaving the inventory untouched, when none is left.
func (p *PetState) Take(food string) bool {
	if p.Inventory[food] <= 0 {
		return false
	}
	p.Inventory[food]--
	if p.Inventory[food] == 0 {
		delete(p.Inventory, food)
	}
	return true
}

// Foods returns the names of the foods in stock, sorted.
func (p PetState) Foods() []string {
	names := make([]string, 0, len(p.Inventory))
	for name, n := range p.Inventory {
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// PetStatus is the pet as shown to a user at a point in time.
type PetStatus struct {
	PetState
	Hunger         progress.Hunger `json:"hunger"`
	NextMoodChange *time.Time      `json:"next_mood_change,omitempty"`
	AsOf           time.Time       `json:"as_of"`
}

// FoodItem is an entry of the store catalog.
type FoodItem struct {
	Name  string `json:"name" yaml:"name"`
	Price int    `json:"price" yaml:"price"`
}
