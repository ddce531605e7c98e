package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
)

// accountDoc embeds the pet: an account and its pet are always written together.
type accountDoc struct {
	ID        string             `bson:"_id"`
	Name      string             `bson:"name"`
	Token     string             `bson:"token"`
	Coins     int                `bson:"coins"`
	Timezone  string             `bson:"timezone"`
	CreatedAt primitive.DateTime `bson:"created_at"`
	Pet       petDoc             `bson:"pet"`
}

type petDoc struct {
	Name      string             `bson:"name"`
	LastFedAt primitive.DateTime `bson:"last_fed_at"`
	Inventory map[string]int     `bson:"inventory"`
}

type goalDoc struct {
	ID          string             `bson:"_id"`
	AccountID   string             `bson:"account_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Frequency   frequencyDoc       `bson:"frequency"`
	Plan        []stepDoc          `bson:"plan"`
	History     []string           `bson:"history"`
	CreatedAt   primitive.DateTime `bson:"created_at"`
	UpdatedAt   primitive.DateTime `bson:"updated_at"`
}

type frequencyDoc struct {
	Kind     string `bson:"kind"`
	Weekdays []int  `bson:"weekdays,omitempty"`
}

type stepDoc struct {
	Description string              `bson:"description"`
	CompletedAt *primitive.DateTime `bson:"completed_at,omitempty"`
}

type metaDoc struct {
	ID      string `bson:"_id"`
	Version int    `bson:"version"`
}

func dt(t time.Time) primitive.DateTime {
	return primitive.NewDateTimeFromTime(t)
}

func fromTime(d primitive.DateTime) time.Time {
	return d.Time().UTC()
}

func toAccountDoc(a models.Account, pet models.PetState) accountDoc {
	return accountDoc{
		ID:        a.ID,
		Name:      a.Name,
		Token:     a.Token,
		Coins:     a.Coins,
		Timezone:  a.Timezone,
		CreatedAt: dt(a.CreatedAt),
		Pet:       toPetDoc(pet),
	}
}

func (d accountDoc) model() models.Account {
	return models.Account{
		ID:        d.ID,
		Name:      d.Name,
		Token:     d.Token,
		Coins:     d.Coins,
		Timezone:  d.Timezone,
		CreatedAt: fromTime(d.CreatedAt),
	}
}

func toPetDoc(p models.PetState) petDoc {
	inventory := make(map[string]int, len(p.Inventory))
	for food, n := range p.Inventory {
		if n > 0 {
			inventory[food] = n
		}
	}
	return petDoc{Name: p.Name, LastFedAt: dt(p.LastFedAt), Inventory: inventory}
}

func (d petDoc) model() models.PetState {
	inventory := make(map[string]int, len(d.Inventory))
	for food, n := range d.Inventory {
		inventory[food] = n
	}
	return models.PetState{Name: d.Name, LastFedAt: fromTime(d.LastFedAt), Inventory: inventory}
}

func toFrequencyDoc(p progress.FrequencyPolicy) frequencyDoc {
	d := frequencyDoc{Kind: string(p.Kind)}
	for _, wd := range p.Weekdays {
		d.Weekdays = append(d.Weekdays, int(wd))
	}
	return d
}

func toPlanDocs(plan []models.Step) []stepDoc {
	steps := make([]stepDoc, len(plan))
	for i, s := range plan {
		steps[i] = stepDoc{Description: s.Description}
		if s.CompletedAt != nil {
			at := dt(*s.CompletedAt)
			steps[i].CompletedAt = &at
		}
	}
	return steps
}

func toGoalDoc(g models.Goal) goalDoc {
	history := g.History.Strings()
	return goalDoc{
		ID:          g.ID,
		AccountID:   g.AccountID,
		Title:       g.Title,
		Description: g.Description,
		Frequency:   toFrequencyDoc(g.Frequency),
		Plan:        toPlanDocs(g.Plan),
		History:     history,
		CreatedAt:   dt(g.CreatedAt),
		UpdatedAt:   dt(g.UpdatedAt),
	}
}

func historyOf(days []string) progress.History {
	h := progress.NewHistory()
	for _, d := range days {
		h[progress.DayID(d)] = struct{}{}
	}
	return h
}

func (d goalDoc) model() models.Goal {
	g := models.Goal{
		ID:          d.ID,
		AccountID:   d.AccountID,
		Title:       d.Title,
		Description: d.Description,
		Frequency:   progress.FrequencyPolicy{Kind: progress.FrequencyKind(d.Frequency.Kind)},
		History:     historyOf(d.History),
		CreatedAt:   fromTime(d.CreatedAt),
		UpdatedAt:   fromTime(d.UpdatedAt),
	}
	for _, wd := range d.Frequency.Weekdays {
		g.Frequency.Weekdays = append(g.Frequency.Weekdays, time.Weekday(wd))
	}
	for _, s := range d.Plan {
		step := models.Step{Description: s.Description}
		if s.CompletedAt != nil {
			at := fromTime(*s.CompletedAt)
			step.CompletedAt = &at
		}
		g.Plan = append(g.Plan, step)
	}
	return g
}
