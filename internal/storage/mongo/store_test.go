package mongo

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
	"github.com/julianstephens/habitpal/internal/storage/storagetest"
)

func TestGoalDocRoundTrip(t *testing.T) {
	done := time.Date(2026, 3, 2, 7, 15, 0, 0, time.UTC)
	goal := models.Goal{
		ID:          "g1",
		AccountID:   "a1",
		Title:       "Stretch",
		Description: "Ten minutes",
		Frequency:   progress.Custom(time.Tuesday, time.Thursday),
		Plan: []models.Step{
			{Description: "find a mat", CompletedAt: &done},
			{Description: "first session"},
		},
		History:   progress.NewHistory("2026-03-05", "2026-03-03"),
		CreatedAt: done,
		UpdatedAt: done,
	}

	doc := toGoalDoc(goal)
	assert.Equal(t, []string{"2026-03-03", "2026-03-05"}, doc.History, "history is stored sorted")
	assert.Equal(t, []int{2, 4}, doc.Frequency.Weekdays)

	back := doc.model()
	assert.Equal(t, goal.Frequency, back.Frequency)
	assert.True(t, back.History.Equal(goal.History))
	require.Len(t, back.Plan, 2)
	require.NotNil(t, back.Plan[0].CompletedAt)
	assert.True(t, back.Plan[0].CompletedAt.Equal(done))
	assert.Nil(t, back.Plan[1].CompletedAt)
	assert.True(t, back.CreatedAt.Equal(done))
}

func TestPetDocDropsEmptyFood(t *testing.T) {
	pet := models.PetState{
		Name:      "Mochi",
		LastFedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Inventory: map[string]int{"apple": 2, "fish": 0},
	}

	doc := toPetDoc(pet)
	assert.Equal(t, map[string]int{"apple": 2}, doc.Inventory)
	assert.True(t, doc.model().LastFedAt.Equal(pet.LastFedAt))
}

// TestStore_Integration runs the storage contract against a real server.
// Set MONGO_TEST_URI to a replica set, e.g. MONGO_TEST_URI="mongodb://localhost:27017/?replicaSet=rs0".
// Each run uses a fresh database that is dropped afterwards.
func TestStore_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping MongoDB integration test")
	}

	dbName := fmt.Sprintf("habitpal_test_%d", time.Now().UnixNano())
	store := New(withDatabase(uri, dbName))
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		store.Close()
	})

	current, latest, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, latest, current)

	storagetest.Run(t, store)
}

// withDatabase puts dbName into the path of a MongoDB URI.
func withDatabase(uri, dbName string) string {
	scheme, rest, _ := strings.Cut(uri, "://")
	hosts, query, _ := strings.Cut(rest, "?")
	hosts, _, _ = strings.Cut(hosts, "/")
	out := scheme + "://" + hosts + "/" + dbName
	if query != "" {
		out += "?" + query
	}
	return out
}
