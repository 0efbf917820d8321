// internal/storage/sqlite_test.go
package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diet-diary-bot/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	stor, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { stor.Close() })
	return stor
}

func TestAppendAndListEntries(t *testing.T) {
	stor := newTestStorage(t)

	q := models.NutrientQuantities{Calories: 300, Proteins: 22.5, Fats: 21, Carbs: 3}
	id, err := stor.AppendEntry(7, "омлет из 2 яиц, 150 г", q)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	entries, err := stor.EntriesToday(7)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, int64(7), entries[0].UserID)
	assert.Equal(t, "омлет из 2 яиц, 150 г", entries[0].Text)
	assert.Equal(t, q, entries[0].Quantities)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestEntriesAreScopedToUser(t *testing.T) {
	stor := newTestStorage(t)

	_, err := stor.AppendEntry(1, "завтрак", models.NutrientQuantities{Calories: 100})
	require.NoError(t, err)
	_, err = stor.AppendEntry(2, "обед", models.NutrientQuantities{Calories: 200})
	require.NoError(t, err)

	entries, err := stor.EntriesToday(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "завтрак", entries[0].Text)
}

func TestDeleteEntry(t *testing.T) {
	stor := newTestStorage(t)

	id, err := stor.AppendEntry(7, "лишняя запись", models.NutrientQuantities{Calories: 50})
	require.NoError(t, err)

	require.NoError(t, stor.DeleteEntry(id))

	entries, err := stor.EntriesToday(7)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotEqual(t, id, entry.ID)
	}

	// Deleting a missing id is not an error.
	assert.NoError(t, stor.DeleteEntry(id))
}

func TestSupplementUpsert(t *testing.T) {
	stor := newTestStorage(t)

	q1 := models.NutrientQuantities{Calories: 5}
	require.NoError(t, stor.UpsertSupplement(7, "Витамин D3", "капсулы", q1))

	sup, err := stor.Supplement(7, "Витамин D3")
	require.NoError(t, err)
	require.NotNil(t, sup)
	assert.Equal(t, "капсулы", sup.Description)
	assert.Equal(t, q1, sup.Quantities)

	// Re-adding the same name replaces the prior definition.
	q2 := models.NutrientQuantities{Calories: 10, Proteins: 1}
	require.NoError(t, stor.UpsertSupplement(7, "Витамин D3", "таблетки", q2))

	sup, err = stor.Supplement(7, "Витамин D3")
	require.NoError(t, err)
	require.NotNil(t, sup)
	assert.Equal(t, "таблетки", sup.Description)
	assert.Equal(t, q2, sup.Quantities)

	names, err := stor.SupplementNames(7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Витамин D3"}, names)
}

func TestSupplementAbsent(t *testing.T) {
	stor := newTestStorage(t)

	sup, err := stor.Supplement(7, "нет такого")
	require.NoError(t, err)
	assert.Nil(t, sup)
}

func TestSupplementsAreScopedToUser(t *testing.T) {
	stor := newTestStorage(t)

	require.NoError(t, stor.UpsertSupplement(1, "Омега-3", "", models.NutrientQuantities{Calories: 9}))

	sup, err := stor.Supplement(2, "Омега-3")
	require.NoError(t, err)
	assert.Nil(t, sup)

	names, err := stor.SupplementNames(2)
	require.NoError(t, err)
	assert.Empty(t, names)
}
