// internal/pending/store_test.go
package pending

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diet-diary-bot/internal/models"
)

func TestPutTake(t *testing.T) {
	store := New(0)
	rec := models.PendingRecord{UserID: 7, Text: "овсянка", Quantities: models.NutrientQuantities{Calories: 150}}

	store.Put(42, rec)

	got, ok := store.Take(42)
	require.True(t, ok)
	assert.Equal(t, rec.UserID, got.UserID)
	assert.Equal(t, rec.Text, got.Text)
	assert.Equal(t, rec.Quantities, got.Quantities)
	assert.False(t, got.CreatedAt.IsZero())

	// Resolution is destructive.
	_, ok = store.Take(42)
	assert.False(t, ok)
}

func TestTakeAbsent(t *testing.T) {
	store := New(0)
	_, ok := store.Take(1)
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	store := New(0)
	store.Put(42, models.PendingRecord{Text: "первое"})
	store.Put(42, models.PendingRecord{Text: "второе"})

	got, ok := store.Take(42)
	require.True(t, ok)
	assert.Equal(t, "второе", got.Text)

	_, ok = store.Take(42)
	assert.False(t, ok, "the overwritten record must not be resolvable")
}

func TestChatsAreIndependent(t *testing.T) {
	store := New(0)
	store.Put(1, models.PendingRecord{Text: "чат один"})
	store.Put(2, models.PendingRecord{Text: "чат два"})

	got, ok := store.Take(1)
	require.True(t, ok)
	assert.Equal(t, "чат один", got.Text)

	got, ok = store.Take(2)
	require.True(t, ok)
	assert.Equal(t, "чат два", got.Text)
}

func TestExpiredRecordIsDropped(t *testing.T) {
	store := New(10 * time.Millisecond)
	store.Put(42, models.PendingRecord{Text: "устарело"})

	time.Sleep(30 * time.Millisecond)

	_, ok := store.Take(42)
	assert.False(t, ok)
}

func TestAtMostOneResolution(t *testing.T) {
	store := New(0)

	for i := 0; i < 100; i++ {
		store.Put(42, models.PendingRecord{Text: "кандидат"})

		var wg sync.WaitGroup
		results := make(chan bool, 2)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, ok := store.Take(42)
				results <- ok
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for ok := range results {
			if ok {
				wins++
			}
		}
		require.Equal(t, 1, wins, "confirm and reject raced: exactly one must win")
	}
}
