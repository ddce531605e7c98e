package models

import "time"

// Account owns goals, a coin balance and one pet.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"-"`
	Coins     int       `json:"coins"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
}
