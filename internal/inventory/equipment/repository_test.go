package equipment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"equiphouse/internal/clock"
	"equiphouse/internal/docstore"
	"equiphouse/internal/docstore/memory"
	"equiphouse/internal/inventory/cache"
	"equiphouse/pkg/metadata"
	"equiphouse/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var errUnavailable = errors.New("store unavailable")

// flakyStore fails the calls a test sets expectations for and forwards the
// rest to the wrapped store.
type flakyStore struct {
	docstore.Store
	mock.Mock
}

func (s *flakyStore) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	args := s.Called(collection)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return s.Store.Query(ctx, collection, filters...)
}

func (s *flakyStore) Commit(ctx context.Context, batch *docstore.Batch) error {
	args := s.Called(batch.Len())
	if err := args.Error(0); err != nil {
		return err
	}
	return s.Store.Commit(ctx, batch)
}

func newTestRepository(t *testing.T, store docstore.Store) (*Repository, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	return NewRepository(store, Caches{}, clk, nil, nil), clk
}

func findByName(items []models.EquipmentDisplay, name string) (models.EquipmentDisplay, bool) {
	for _, item := range items {
		if item.Name == name {
			return item, true
		}
	}
	return models.EquipmentDisplay{}, false
}

func TestAddAssetCreatesMasterAndInstances(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, _ := newTestRepository(t, store)

	id := repo.AddAsset(ctx, NewAsset{
		Name:           "Drill",
		SerialCodes:    []string{"D-2", "D-1"},
		EquipmentTypes: []string{"power tools"},
	})
	require.NotEmpty(t, id)

	assert.Equal(t, 1, store.Count(models.CollectionEquipmentMaster))
	assert.Equal(t, 2, store.Count(models.CollectionAssetInstances))

	items := repo.LoadAll(ctx, true)
	require.Len(t, items, 1)
	drill := items[0]
	assert.Equal(t, id, drill.ID)
	assert.Equal(t, metadata.SourceEquipmentMaster, drill.Source)
	assert.Equal(t, metadata.CategoryAsset, drill.Category)
	assert.Equal(t, 2, drill.Quantity)
	assert.True(t, drill.Available)
	require.Len(t, drill.Instances, 2)
	assert.Equal(t, "D-1", drill.Instances[0].SerialCode)
	assert.Equal(t, metadata.ConditionNormal, drill.Instances[0].Condition)
	assert.Equal(t, []string{"power tools"}, drill.EquipmentTypes)
}

func TestAddAssetSplitsLargeBatches(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, _ := newTestRepository(t, store)

	codes := make([]string, 650)
	for i := range codes {
		codes[i] = fmt.Sprintf("C-%04d", i)
	}

	id := repo.AddAsset(ctx, NewAsset{Name: "Cable", SerialCodes: codes})
	require.NotEmpty(t, id)

	assert.Equal(t, 650, store.Count(models.CollectionAssetInstances))
	item, ok := findByName(repo.LoadAll(ctx, false), "Cable")
	require.True(t, ok)
	assert.Equal(t, 650, item.Quantity)
}

func TestAddAssetCommitFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := &flakyStore{Store: inner}
	store.On("Commit", 3).Return(errUnavailable)
	repo, _ := newTestRepository(t, store)

	id := repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1", "D-2"}})

	assert.Empty(t, id)
	assert.Equal(t, 0, inner.Count(models.CollectionEquipmentMaster))
	assert.Equal(t, 0, inner.Count(models.CollectionAssetInstances))
	store.AssertExpectations(t)
}

func TestAddAssetPartialCommitInvalidatesSnapshot(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := &flakyStore{Store: inner}
	store.On("Query", mock.Anything).Return(nil)
	store.On("Commit", docstore.MaxBatchSize).Return(nil).Once()
	store.On("Commit", 151).Return(errUnavailable).Once()
	core, logs := observer.New(zap.ErrorLevel)
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	repo := NewRepository(store, Caches{}, clk, zap.New(core), nil)

	assert.Empty(t, repo.LoadAll(ctx, true))

	codes := make([]string, 650)
	for i := range codes {
		codes[i] = fmt.Sprintf("C-%04d", i)
	}
	assert.Empty(t, repo.AddAsset(ctx, NewAsset{Name: "Cable", SerialCodes: codes}))

	masters, err := inner.Query(ctx, models.CollectionEquipmentMaster)
	require.NoError(t, err)
	require.Len(t, masters, 1)
	assert.Equal(t, docstore.MaxBatchSize-1, inner.Count(models.CollectionAssetInstances))

	item, ok := findByName(repo.LoadAll(ctx, true), "Cable")
	require.True(t, ok)
	assert.Equal(t, docstore.MaxBatchSize-1, item.Quantity)

	partial := logs.FilterMessage("Asset partially created, reconcile before retrying").All()
	require.Len(t, partial, 1)
	assert.Equal(t, masters[0].ID, partial[0].ContextMap()["master_id"])
	assert.Equal(t, int64(docstore.MaxBatchSize), partial[0].ContextMap()["committed_writes"])
	store.AssertExpectations(t)
}

func TestAddAssetStockByName(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, clk := newTestRepository(t, store)

	oldest := repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1"}})
	clk.Advance(time.Hour)
	newer := repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"X-1"}})

	assert.True(t, repo.AddAssetStock(ctx, "Drill", []string{"D-2", "D-3"}))

	counts := map[string]int{}
	for _, item := range repo.LoadAll(ctx, true) {
		counts[item.ID] = item.Quantity
	}
	assert.Equal(t, 3, counts[oldest])
	assert.Equal(t, 1, counts[newer])

	assert.Equal(t, oldest, repo.AddAssetStockByName(ctx, "Drill", []string{"D-4"}))
	assert.Empty(t, repo.AddAssetStockByName(ctx, "Nothing", []string{"N-1"}))
	assert.Empty(t, repo.AddAssetStockByName(ctx, "Drill", nil))
}

func TestAddAssetStockUnknownMaster(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, _ := newTestRepository(t, store)

	assert.False(t, repo.AddAssetStock(ctx, "Nothing", []string{"N-1"}))
	assert.False(t, repo.AddAssetStockByID(ctx, "missing", []string{"N-1"}))
	assert.Equal(t, 0, store.Count(models.CollectionAssetInstances))
}

func TestAddAssetStockByID(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, memory.NewStore())

	id := repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1"}})
	require.True(t, repo.AddAssetStockByID(ctx, id, []string{"D-2"}))
	assert.False(t, repo.AddAssetStockByID(ctx, id, nil))

	item, ok := findByName(repo.LoadAll(ctx, true), "Drill")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
}

func TestAddConsumable(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, memory.NewStore())

	id := repo.AddConsumable(ctx, NewConsumable{Name: "Electrode", Quantity: 12, Unit: "pcs"})
	require.NotEmpty(t, id)
	emptyID := repo.AddConsumable(ctx, NewConsumable{Name: "Tape", Quantity: 0})
	require.NotEmpty(t, emptyID)
	assert.Empty(t, repo.AddConsumable(ctx, NewConsumable{Name: "Drill", Category: "asset", Quantity: 1}))

	items := repo.LoadAll(ctx, true)
	require.Len(t, items, 2)

	electrode, ok := findByName(items, "Electrode")
	require.True(t, ok)
	assert.Equal(t, metadata.SourceEquipment, electrode.Source)
	assert.Equal(t, metadata.CategoryConsumable, electrode.Category)
	assert.Equal(t, 12, electrode.Quantity)
	assert.True(t, electrode.Available)
	assert.Empty(t, electrode.Instances)

	tape, ok := findByName(items, "Tape")
	require.True(t, ok)
	assert.False(t, tape.Available)
}

func TestAddConsumableStockClampsAtZero(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, _ := newTestRepository(t, store)

	id := repo.AddConsumable(ctx, NewConsumable{Name: "Electrode", Quantity: 5})
	require.True(t, repo.AddConsumableStock(ctx, id, 3))

	item, _ := findByName(repo.LoadAll(ctx, true), "Electrode")
	assert.Equal(t, 8, item.Quantity)

	require.True(t, repo.AddConsumableStock(ctx, id, -2))
	item, _ = findByName(repo.LoadAll(ctx, true), "Electrode")
	assert.Equal(t, 6, item.Quantity)
	assert.True(t, item.Available)

	require.True(t, repo.AddConsumableStock(ctx, id, -20))
	item, _ = findByName(repo.LoadAll(ctx, true), "Electrode")
	assert.Equal(t, 0, item.Quantity)
	assert.False(t, item.Available)

	doc, err := store.Get(ctx, models.CollectionEquipment, id)
	require.NoError(t, err)
	assert.Equal(t, float64(0), doc.Data["quantity"])
	assert.Equal(t, false, doc.Data["available"])

	assert.False(t, repo.AddConsumableStock(ctx, "missing", 1))
}

func TestLoadAllIgnoresLegacyAssetDocuments(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	_, err := store.Create(ctx, models.CollectionEquipment, map[string]any{
		"name": "Old drill", "category": "asset", "serialCode": "L-1", "quantity": 1,
	})
	require.NoError(t, err)
	_, err = store.Create(ctx, models.CollectionEquipment, map[string]any{
		"name": "Cable drum", "category": "main", "quantity": 2,
	})
	require.NoError(t, err)
	repo, _ := newTestRepository(t, store)

	items := repo.LoadAll(ctx, true)

	require.Len(t, items, 1)
	assert.Equal(t, "Cable drum", items[0].Name)
	assert.Equal(t, metadata.CategoryMain, items[0].Category)
}

func TestLoadAllSkipsOrphanInstances(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, _ := newTestRepository(t, store)
	repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1"}})

	_, err := store.Create(ctx, models.CollectionAssetInstances, map[string]any{
		"equipmentId": "gone", "serialCode": "O-1", "available": true,
	})
	require.NoError(t, err)

	items := repo.LoadAll(ctx, false)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestLoadAllServesCachedSnapshotUntilTTL(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, clk := newTestRepository(t, store)
	repo.AddConsumable(ctx, NewConsumable{Name: "Electrode", Quantity: 1})
	require.Len(t, repo.LoadAll(ctx, true), 1)

	// Written behind the repository's back, so nothing invalidates.
	_, err := store.Create(ctx, models.CollectionEquipment, map[string]any{"name": "Tape", "category": "consumable", "quantity": 3})
	require.NoError(t, err)

	clk.Advance(cache.DefaultEquipmentTTL - time.Second)
	assert.Len(t, repo.LoadAll(ctx, true), 1)
	assert.Len(t, repo.LoadAll(ctx, false), 2)

	_, err = store.Create(ctx, models.CollectionEquipment, map[string]any{"name": "Glue", "category": "consumable", "quantity": 1})
	require.NoError(t, err)
	assert.Len(t, repo.LoadAll(ctx, true), 2)

	clk.Advance(cache.DefaultEquipmentTTL)
	assert.Len(t, repo.LoadAll(ctx, true), 3)
}

func TestMutationsInvalidateSnapshot(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, memory.NewStore())

	id := repo.AddConsumable(ctx, NewConsumable{Name: "Electrode", Quantity: 1})
	assetID := repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1"}})
	require.NotEmpty(t, assetID)
	require.Len(t, repo.LoadAll(ctx, true), 2)

	require.True(t, repo.AddConsumableStock(ctx, id, 4))
	item, _ := findByName(repo.LoadAll(ctx, true), "Electrode")
	assert.Equal(t, 5, item.Quantity)

	require.True(t, repo.AddAssetStock(ctx, "Drill", []string{"D-2"}))
	item, _ = findByName(repo.LoadAll(ctx, true), "Drill")
	assert.Equal(t, 2, item.Quantity)

	name := "Hammer drill"
	require.True(t, repo.UpdateMetadata(ctx, item, MetadataUpdate{Name: &name}))
	_, ok := findByName(repo.LoadAll(ctx, true), "Hammer drill")
	assert.True(t, ok)

	require.True(t, repo.DeleteEquipment(ctx, item))
	assert.Len(t, repo.LoadAll(ctx, true), 1)
}

func TestLoadAllFailureReturnsEmptyAndIsNotCached(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := &flakyStore{Store: inner}
	repo, _ := newTestRepository(t, store)

	_, err := inner.Create(ctx, models.CollectionEquipment, map[string]any{"name": "Electrode", "category": "consumable", "quantity": 2})
	require.NoError(t, err)

	store.On("Query", models.CollectionAssetInstances).Return(errUnavailable).Once()
	store.On("Query", mock.Anything).Return(nil)

	items := repo.LoadAll(ctx, true)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	items = repo.LoadAll(ctx, true)
	assert.Len(t, items, 1)
}

func TestDeleteAssetRemovesEveryInstance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, _ := newTestRepository(t, store)

	repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1", "D-2"}})
	repo.AddAsset(ctx, NewAsset{Name: "Saw", SerialCodes: []string{"S-1"}})
	drill, ok := findByName(repo.LoadAll(ctx, true), "Drill")
	require.True(t, ok)

	// An instance added after the caller's snapshot must still go.
	require.True(t, repo.AddAssetStockByID(ctx, drill.ID, []string{"D-3"}))

	require.True(t, repo.DeleteEquipment(ctx, drill))

	assert.Equal(t, 1, store.Count(models.CollectionEquipmentMaster))
	assert.Equal(t, 1, store.Count(models.CollectionAssetInstances))
	remaining, err := store.Query(ctx, models.CollectionAssetInstances, docstore.Eq("equipmentId", drill.ID))
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.False(t, repo.DeleteEquipment(ctx, drill))
}

func TestDeleteAssetFailureKeepsEverything(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewStore()
	store := &flakyStore{Store: inner}
	store.On("Query", mock.Anything).Return(nil)
	store.On("Commit", 3).Return(nil).Once()
	store.On("Commit", 3).Return(errUnavailable).Once()
	repo, _ := newTestRepository(t, store)

	repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1", "D-2"}})
	drill, ok := findByName(repo.LoadAll(ctx, true), "Drill")
	require.True(t, ok)

	assert.False(t, repo.DeleteEquipment(ctx, drill))
	assert.Equal(t, 1, inner.Count(models.CollectionEquipmentMaster))
	assert.Equal(t, 2, inner.Count(models.CollectionAssetInstances))
}

func TestDeleteConsumable(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, _ := newTestRepository(t, store)

	repo.AddConsumable(ctx, NewConsumable{Name: "Electrode", Quantity: 1})
	item, ok := findByName(repo.LoadAll(ctx, true), "Electrode")
	require.True(t, ok)

	require.True(t, repo.DeleteEquipment(ctx, item))
	assert.Equal(t, 0, store.Count(models.CollectionEquipment))
	assert.Empty(t, repo.LoadAll(ctx, true))

	assert.False(t, repo.DeleteEquipment(ctx, models.EquipmentDisplay{ID: "x", Source: "unknown"}))
}

func TestUpdateMetadata(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, _ := newTestRepository(t, store)

	repo.AddConsumable(ctx, NewConsumable{Name: "Electrode", Quantity: 4})
	repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1"}})
	items := repo.LoadAll(ctx, true)
	electrode, _ := findByName(items, "Electrode")
	drill, _ := findByName(items, "Drill")

	negative := -3
	types := []string{"welding"}
	require.True(t, repo.UpdateMetadata(ctx, electrode, MetadataUpdate{Quantity: &negative, EquipmentTypes: &types}))

	hundred := 100
	picture := "drill.png"
	require.True(t, repo.UpdateMetadata(ctx, drill, MetadataUpdate{Quantity: &hundred, Picture: &picture}))

	items = repo.LoadAll(ctx, true)
	electrode, _ = findByName(items, "Electrode")
	drill, _ = findByName(items, "Drill")
	assert.Equal(t, 0, electrode.Quantity)
	assert.False(t, electrode.Available)
	assert.Equal(t, []string{"welding"}, electrode.EquipmentTypes)
	assert.Equal(t, 1, drill.Quantity)
	assert.Equal(t, "drill.png", drill.Picture)

	doc, err := store.Get(ctx, models.CollectionEquipmentMaster, drill.ID)
	require.NoError(t, err)
	assert.NotContains(t, doc.Data, "quantity")

	assert.False(t, repo.UpdateMetadata(ctx, drill, MetadataUpdate{Quantity: &hundred}))
	assert.False(t, repo.UpdateMetadata(ctx, models.EquipmentDisplay{ID: "missing", Source: metadata.SourceEquipment}, MetadataUpdate{Picture: &picture}))
}

func TestInstancePrimitives(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, memory.NewStore())

	repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-3", "D-1", "D-2"}})

	available := repo.GetAvailableInstances(ctx, "Drill")
	require.Len(t, available, 3)
	assert.Equal(t, "D-1", available[0].SerialCode)

	require.True(t, repo.MarkInstancesBorrowed(ctx, []string{available[0].ID, available[1].ID}))
	available = repo.GetAvailableInstances(ctx, "Drill")
	require.Len(t, available, 1)
	assert.Equal(t, "D-3", available[0].SerialCode)

	item, _ := findByName(repo.LoadAll(ctx, true), "Drill")
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.Available)

	found := repo.FindInstanceBySerialCode(ctx, "D-2")
	require.NotNil(t, found)
	assert.False(t, found.Available)
	assert.Nil(t, repo.FindInstanceBySerialCode(ctx, "nope"))

	require.True(t, repo.UpdateInstanceCondition(ctx, found.ID, metadata.ConditionDamaged, true))
	found = repo.GetInstance(ctx, found.ID)
	require.NotNil(t, found)
	assert.Equal(t, metadata.ConditionDamaged, found.Condition)
	assert.True(t, found.Available)

	assert.False(t, repo.UpdateInstanceSerialCode(ctx, found.ID, "D-3"))
	require.True(t, repo.UpdateInstanceSerialCode(ctx, found.ID, "D-20"))
	assert.NotNil(t, repo.FindInstanceBySerialCode(ctx, "D-20"))

	require.True(t, repo.DeleteInstance(ctx, found.ID))
	assert.False(t, repo.DeleteInstance(ctx, found.ID))
	item, _ = findByName(repo.LoadAll(ctx, true), "Drill")
	assert.Equal(t, 2, item.Quantity)

	assert.Empty(t, repo.GetAvailableInstances(ctx, "Unknown"))
	assert.NotNil(t, repo.GetAvailableInstances(ctx, "Unknown"))
}

func TestMarkInstancesBorrowedIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, memory.NewStore())

	repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1"}})
	instance := repo.GetAvailableInstances(ctx, "Drill")[0]

	assert.False(t, repo.MarkInstancesBorrowed(ctx, []string{instance.ID, "missing"}))
	assert.False(t, repo.MarkInstancesBorrowed(ctx, nil))
	assert.Len(t, repo.GetAvailableInstances(ctx, "Drill"), 1)
}

func TestTaxonomy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo, clk := newTestRepository(t, store)

	id := repo.SaveTaxonomyType(ctx, models.Taxonomy{Name: "Welding", SubTypes: []string{"MIG"}})
	require.NotEmpty(t, id)
	repo.SaveTaxonomyType(ctx, models.Taxonomy{Name: "Audio"})

	types := repo.LoadTaxonomy(ctx, true)
	require.Len(t, types, 2)
	assert.Equal(t, "Audio", types[0].Name)
	assert.Equal(t, []string{}, types[0].SubTypes)

	require.Equal(t, id, repo.SaveTaxonomyType(ctx, models.Taxonomy{ID: id, Name: "Welding", SubTypes: []string{"MIG", "TIG"}}))
	types = repo.LoadTaxonomy(ctx, true)
	assert.Equal(t, []string{"MIG", "TIG"}, types[1].SubTypes)

	_, err := store.Create(ctx, models.CollectionEquipmentTypes, map[string]any{"name": "Lighting"})
	require.NoError(t, err)
	clk.Advance(cache.DefaultEquipmentTTL)
	assert.Len(t, repo.LoadTaxonomy(ctx, true), 2)
	clk.Advance(cache.DefaultTaxonomyTTL - cache.DefaultEquipmentTTL)
	assert.Len(t, repo.LoadTaxonomy(ctx, true), 3)

	assert.Empty(t, repo.SaveTaxonomyType(ctx, models.Taxonomy{ID: "missing", Name: "Ghost"}))
}

func TestFindItem(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, memory.NewStore())

	id := repo.AddAsset(ctx, NewAsset{Name: "Drill", SerialCodes: []string{"D-1"}})

	item, ok := repo.FindItem(ctx, metadata.SourceEquipmentMaster, id)
	require.True(t, ok)
	assert.Equal(t, "Drill", item.Name)

	_, ok = repo.FindItem(ctx, metadata.SourceEquipment, id)
	assert.False(t, ok)
}

func TestNormalizeSerialCodes(t *testing.T) {
	codes, err := NormalizeSerialCodes([]string{" D-1 ", "D-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"D-1", "D-2"}, codes)

	_, err = NormalizeSerialCodes(nil)
	assert.ErrorIs(t, err, ErrNoSerialCodes)
	_, err = NormalizeSerialCodes([]string{"D-1", "  "})
	assert.ErrorIs(t, err, ErrBlankSerialCode)
	_, err = NormalizeSerialCodes([]string{"D-1", "D-1 "})
	assert.ErrorIs(t, err, ErrDuplicateSerialCodes)
}
