package memory

import (
	"context"
	"testing"
	"time"

	"equiphouse/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	id, err := store.Create(ctx, "equipment", map[string]any{"name": "Electrode", "quantity": 5})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := store.Get(ctx, "equipment", id)
	require.NoError(t, err)
	assert.Equal(t, "Electrode", doc.Data["name"])
	assert.Equal(t, float64(5), doc.Data["quantity"])

	require.NoError(t, store.Update(ctx, "equipment", id, map[string]any{"quantity": 7}))
	doc, err = store.Get(ctx, "equipment", id)
	require.NoError(t, err)
	assert.Equal(t, float64(7), doc.Data["quantity"])
	assert.Equal(t, "Electrode", doc.Data["name"])

	require.NoError(t, store.Delete(ctx, "equipment", id))
	_, err = store.Get(ctx, "equipment", id)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStoreUpdateMissingDocument(t *testing.T) {
	err := NewStore().Update(context.Background(), "equipment", "missing", map[string]any{"a": 1})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStoreReadsDoNotAliasStoredData(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	id, err := store.Create(ctx, "equipment", map[string]any{"equipmentTypes": []string{"tool"}})
	require.NoError(t, err)

	doc, err := store.Get(ctx, "equipment", id)
	require.NoError(t, err)
	doc.Data["equipmentTypes"].([]any)[0] = "changed"

	doc, err = store.Get(ctx, "equipment", id)
	require.NoError(t, err)
	assert.Equal(t, []any{"tool"}, doc.Data["equipmentTypes"])
}

func TestStoreQueryFilters(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	seed := []map[string]any{
		{"name": "Drill", "category": "asset", "quantity": 0, "available": true},
		{"name": "Electrode", "category": "consumable", "quantity": 12, "available": true},
		{"name": "Projector", "category": "main", "quantity": 2, "available": false},
	}
	for _, data := range seed {
		_, err := store.Create(ctx, "equipment", data)
		require.NoError(t, err)
	}

	tests := []struct {
		name     string
		filters  []docstore.Filter
		expected []string
	}{
		{name: "no filter keeps insertion order", expected: []string{"Drill", "Electrode", "Projector"}},
		{name: "equality", filters: []docstore.Filter{docstore.Eq("category", "asset")}, expected: []string{"Drill"}},
		{name: "boolean equality", filters: []docstore.Filter{docstore.Eq("available", true)}, expected: []string{"Drill", "Electrode"}},
		{name: "in", filters: []docstore.Filter{docstore.In("category", []string{"consumable", "main"})}, expected: []string{"Electrode", "Projector"}},
		{name: "range", filters: []docstore.Filter{docstore.Where("quantity", docstore.OpGreaterOrEqual, 2)}, expected: []string{"Electrode", "Projector"}},
		{name: "combined", filters: []docstore.Filter{
			docstore.Where("quantity", docstore.OpLessOrEqual, 5),
			docstore.Eq("available", false),
		}, expected: []string{"Projector"}},
		{name: "missing field never matches", filters: []docstore.Filter{docstore.Eq("serialCode", "X")}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := store.Query(ctx, "equipment", tt.filters...)
			require.NoError(t, err)

			names := []string{}
			for _, doc := range docs {
				names = append(names, doc.Data["name"].(string))
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestStoreCommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	batch := docstore.NewBatch().
		Create("equipmentMaster", "m1", map[string]any{"name": "Drill"}).
		Create("assetInstances", "i1", map[string]any{"equipmentId": "m1"}).
		Update("assetInstances", "missing", map[string]any{"available": false})

	err := store.Commit(ctx, batch)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Equal(t, 0, store.Count("equipmentMaster"))
	assert.Equal(t, 0, store.Count("assetInstances"))
}

func TestStoreCommitRejectsDuplicateCreate(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Commit(ctx, docstore.NewBatch().Create("equipment", "e1", map[string]any{"name": "A"})))

	err := store.Commit(ctx, docstore.NewBatch().
		Create("equipment", "e2", map[string]any{"name": "B"}).
		Create("equipment", "e1", map[string]any{"name": "C"}))

	assert.ErrorIs(t, err, docstore.ErrConflict)
	assert.Equal(t, 1, store.Count("equipment"))
}

func TestStoreCommitRejectsOversizedBatch(t *testing.T) {
	batch := docstore.NewBatch()
	for i := 0; i <= docstore.MaxBatchSize; i++ {
		batch.Create("assetInstances", docstore.NewID(), map[string]any{"n": i})
	}

	err := NewStore().Commit(context.Background(), batch)
	assert.ErrorIs(t, err, docstore.ErrBatchTooLarge)
}

func TestStoreCommitDeleteThenCreateSameID(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	require.NoError(t, store.Commit(ctx, docstore.NewBatch().Create("equipment", "e1", map[string]any{"name": "old"})))

	require.NoError(t, store.Commit(ctx, docstore.NewBatch().
		Delete("equipment", "e1").
		Create("equipment", "e1", map[string]any{"name": "new"})))

	doc, err := store.Get(ctx, "equipment", "e1")
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Data["name"])
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore().Query(ctx, "equipment")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocumentDataToExposesID(t *testing.T) {
	type item struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"createdAt"`
	}
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	data, err := docstore.ToData(item{ID: "ignored", Name: "Drill", CreatedAt: created})
	require.NoError(t, err)
	assert.NotContains(t, data, "id")

	ctx := context.Background()
	store := NewStore()
	id, err := store.Create(ctx, "equipment", data)
	require.NoError(t, err)

	doc, err := store.Get(ctx, "equipment", id)
	require.NoError(t, err)

	var decoded item
	require.NoError(t, doc.DataTo(&decoded))
	assert.Equal(t, id, decoded.ID)
	assert.Equal(t, "Drill", decoded.Name)
	assert.True(t, created.Equal(decoded.CreatedAt))
}
