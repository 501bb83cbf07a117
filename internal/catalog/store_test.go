package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deliverypicker/orderops/pkg/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "catalog.json"))
	require.NoError(t, store.Load())
	return store
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := tempStore(t)
	assert.Zero(t, store.Count())
	assert.Empty(t, store.List())
}

func TestStoreAddRequiresAdmin(t *testing.T) {
	store := tempStore(t)

	_, err := store.Add(models.ProductRef{Name: "Thing", Image: "x.png"}, false)
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Zero(t, store.Count())

	added, err := store.Add(models.ProductRef{Name: "Thing", Image: "x.png"}, true)
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, 1, store.Count())
}

func TestStoreAddRejectsEmptyName(t *testing.T) {
	store := tempStore(t)
	_, err := store.Add(models.ProductRef{Image: "x.png"}, true)
	assert.Error(t, err)
}

func TestStoreSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")

	store := NewStore(path)
	require.NoError(t, store.Load())
	added, err := store.Add(models.ProductRef{Name: "Persisted", Image: "p.png", SKU: "P-1"}, true)
	require.NoError(t, err)
	require.NoError(t, store.Save())

	reloaded := NewStore(path)
	require.NoError(t, reloaded.Load())
	got, ok := reloaded.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, "Persisted", got.Name)
	assert.Equal(t, "P-1", got.SKU)
}

func TestStoreMutationsPersistWithoutExplicitSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")

	store := NewStore(path)
	require.NoError(t, store.Load())
	added, err := store.Add(models.ProductRef{Name: "Durable", Image: "d.png"}, true)
	require.NoError(t, err)

	// A fresh store reading the same file must see the addition.
	reloaded := NewStore(path)
	require.NoError(t, reloaded.Load())
	require.Equal(t, 1, reloaded.Count())
	require.Len(t, reloaded.History(), 1)

	_, err = reloaded.BulkSetPrice([]string{added.ID}, "$5.00", true)
	require.NoError(t, err)
	require.NoError(t, reloaded.Delete(added.ID, true))

	final := NewStore(path)
	require.NoError(t, final.Load())
	assert.Zero(t, final.Count())
	assert.Len(t, final.History(), 3)
}

func TestStoreListPreservesInsertionOrder(t *testing.T) {
	store := tempStore(t)
	for _, name := range []string{"First", "Second", "Third"} {
		_, err := store.Add(models.ProductRef{Name: name, Image: "i.png"}, true)
		require.NoError(t, err)
	}

	listed := store.List()
	require.Len(t, listed, 3)
	assert.Equal(t, "First", listed[0].Name)
	assert.Equal(t, "Second", listed[1].Name)
	assert.Equal(t, "Third", listed[2].Name)
}

func TestStoreGetByIDsFollowsRequestOrder(t *testing.T) {
	store := tempStore(t)
	a, _ := store.Add(models.ProductRef{Name: "A", Image: "a.png"}, true)
	b, _ := store.Add(models.ProductRef{Name: "B", Image: "b.png"}, true)

	got := store.GetByIDs([]string{b.ID, "missing", a.ID})
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Name)
	assert.Equal(t, "A", got[1].Name)
}

func TestStoreUpdate(t *testing.T) {
	store := tempStore(t)
	added, _ := store.Add(models.ProductRef{Name: "Old", Image: "o.png"}, true)

	added.Name = "New"
	assert.ErrorIs(t, store.Update(added, false), ErrNotPermitted)
	require.NoError(t, store.Update(added, true))

	got, _ := store.Get(added.ID)
	assert.Equal(t, "New", got.Name)

	assert.ErrorIs(t, store.Update(models.ProductRef{ID: "nope"}, true), ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	store := tempStore(t)
	added, _ := store.Add(models.ProductRef{Name: "Doomed", Image: "d.png"}, true)

	assert.ErrorIs(t, store.Delete(added.ID, false), ErrNotPermitted)
	require.NoError(t, store.Delete(added.ID, true))
	assert.Zero(t, store.Count())
	assert.ErrorIs(t, store.Delete(added.ID, true), ErrNotFound)
}

func TestStoreImport(t *testing.T) {
	store := tempStore(t)

	products := []models.ProductRef{
		{Name: "One", Image: "1.png"},
		{Name: "", Image: "skipped.png"},
		{Name: "Two", Image: "2.png"},
	}

	_, err := store.Import(products, "test.csv", false)
	assert.ErrorIs(t, err, ErrNotPermitted)

	count, err := store.Import(products, "test.csv", true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, store.Count())

	for _, p := range store.List() {
		assert.NotEmpty(t, p.ID)
	}
}

func TestStoreBulkSetPrice(t *testing.T) {
	store := tempStore(t)
	a, _ := store.Add(models.ProductRef{Name: "A", Image: "a.png", Price: "$1"}, true)
	b, _ := store.Add(models.ProductRef{Name: "B", Image: "b.png", Price: "$2"}, true)

	count, err := store.BulkSetPrice([]string{a.ID, "missing"}, "$9.99", true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, _ := store.Get(a.ID)
	assert.Equal(t, "$9.99", got.Price)
	got, _ = store.Get(b.ID)
	assert.Equal(t, "$2", got.Price)
}

func TestStoreHistory(t *testing.T) {
	store := tempStore(t)
	added, _ := store.Add(models.ProductRef{Name: "Tracked", Image: "t.png"}, true)
	require.NoError(t, store.Delete(added.ID, true))

	history := store.History()
	require.Len(t, history, 2)
	assert.Equal(t, "add", history[0].Action)
	assert.Equal(t, "delete", history[1].Action)
	assert.False(t, history[0].Timestamp.IsZero())
}
