// Package equipment is the only writer of the inventory collections. It keeps
// the master/instance and consumable shapes consistent, serves the merged
// display projection through a TTL cache and invalidates that cache after
// every successful mutation.
//
// Store failures never cross this boundary: they are logged and reported as
// false, an empty id, nil or an empty list so callers can offer a retry.
package equipment

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"equiphouse/internal/clock"
	"equiphouse/internal/docstore"
	"equiphouse/internal/inventory/cache"
	"equiphouse/internal/metrics"
	"equiphouse/pkg/metadata"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Caches struct {
	Equipment cache.Cache[[]models.EquipmentDisplay]
	Taxonomy  cache.Cache[[]models.Taxonomy]
}

type Repository struct {
	store     docstore.Store
	equipment *cache.ReadThrough[[]models.EquipmentDisplay]
	taxonomy  *cache.ReadThrough[[]models.Taxonomy]
	clock     clock.Clock
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewRepository wires the repository. Missing caches default to in-process
// snapshots with the standard TTLs.
func NewRepository(store docstore.Store, caches Caches, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics) *Repository {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if caches.Equipment == nil {
		caches.Equipment = cache.NewMemory[[]models.EquipmentDisplay](cache.DefaultEquipmentTTL, clk)
	}
	if caches.Taxonomy == nil {
		caches.Taxonomy = cache.NewMemory[[]models.Taxonomy](cache.DefaultTaxonomyTTL, clk)
	}

	r := &Repository{
		store:   store,
		clock:   clk,
		logger:  logger,
		metrics: m,
	}
	r.equipment = cache.NewReadThrough(cache.EquipmentCacheName, caches.Equipment, r.fetchDisplay, m)
	r.taxonomy = cache.NewReadThrough(cache.TaxonomyCacheName, caches.Taxonomy, r.fetchTaxonomy, m)

	return r
}

// LoadAll returns the merged inventory. With useCache a snapshot younger
// than the TTL is served without reading the store. Read failures yield an
// empty list.
func (r *Repository) LoadAll(ctx context.Context, useCache bool) []models.EquipmentDisplay {
	items, err := r.equipment.Load(ctx, useCache)
	if err != nil {
		r.fail("loadAll", err)
		return []models.EquipmentDisplay{}
	}

	return items
}

// Invalidate drops the equipment snapshot; the next LoadAll reads the store.
func (r *Repository) Invalidate(ctx context.Context) {
	r.equipment.Invalidate(context.WithoutCancel(ctx))
}

func (r *Repository) fetchDisplay(ctx context.Context) ([]models.EquipmentDisplay, error) {
	var (
		consumables []models.ConsumableRecord
		masters     []models.EquipmentMaster
		instances   []models.AssetInstance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		consumables, err = queryAll[models.ConsumableRecord](gctx, r.store, models.CollectionEquipment,
			docstore.In("category", metadata.QuantityTrackedCategories()))
		return err
	})
	g.Go(func() error {
		var err error
		masters, err = queryAll[models.EquipmentMaster](gctx, r.store, models.CollectionEquipmentMaster)
		return err
	})
	g.Go(func() error {
		var err error
		instances, err = queryAll[models.AssetInstance](gctx, r.store, models.CollectionAssetInstances)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items, orphans := models.BuildDisplay(consumables, masters, instances)
	if len(orphans) > 0 {
		r.logger.Warn("Asset instances reference missing masters", zap.Int("count", len(orphans)))
	}

	return items, nil
}

func (r *Repository) findMasterByName(ctx context.Context, name string) (*models.EquipmentMaster, error) {
	masters, err := queryAll[models.EquipmentMaster](ctx, r.store, models.CollectionEquipmentMaster, docstore.Eq("name", name))
	if err != nil {
		return nil, err
	}
	if len(masters) == 0 {
		return nil, nil
	}

	// Names are not unique; the oldest master wins.
	sort.SliceStable(masters, func(i, j int) bool {
		if !masters[i].CreatedAt.Equal(masters[j].CreatedAt) {
			return masters[i].CreatedAt.Before(masters[j].CreatedAt)
		}
		return masters[i].ID < masters[j].ID
	})
	if len(masters) > 1 {
		r.logger.Warn("Several masters share a name, using the oldest",
			zap.String("name", name),
			zap.Int("matches", len(masters)),
			zap.String("master_id", masters[0].ID),
		)
	}

	return &masters[0], nil
}

func (r *Repository) getMaster(ctx context.Context, id string) (*models.EquipmentMaster, error) {
	var master models.EquipmentMaster
	if err := getInto(ctx, r.store, models.CollectionEquipmentMaster, id, &master); err != nil {
		return nil, err
	}
	return &master, nil
}

// commit writes the batch atomically when it fits the store limit. Larger
// batches are split in order and each piece commits on its own.
func (r *Repository) commit(ctx context.Context, batch *docstore.Batch) error {
	if batch.Len() <= docstore.MaxBatchSize {
		return r.store.Commit(ctx, batch)
	}

	pieces := batch.Split(docstore.MaxBatchSize)
	r.logger.Warn("Batch exceeds the store limit, committing in pieces",
		zap.Int("writes", batch.Len()),
		zap.Int("pieces", len(pieces)),
	)
	committed := 0
	for i, piece := range pieces {
		if err := r.store.Commit(ctx, piece); err != nil {
			r.logger.Error("Batch piece failed", zap.Int("piece", i), zap.Int("committed_writes", committed), zap.Error(err))
			if committed == 0 {
				return err
			}
			// Earlier pieces are in the store; the snapshot must not hide them.
			r.Invalidate(ctx)
			return &PartialCommitError{Committed: committed, Err: err}
		}
		committed += piece.Len()
	}

	return nil
}

// PartialCommitError reports a split batch that failed after some of its
// pieces were committed.
type PartialCommitError struct {
	Committed int
	Err       error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("batch partially committed (%d writes): %v", e.Committed, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

func (r *Repository) fail(operation string, err error, fields ...zap.Field) {
	r.metrics.OperationFailed(operation)
	r.logger.Error("Inventory operation failed",
		append([]zap.Field{zap.String("operation", operation), zap.Error(err)}, fields...)...,
	)
}

func (r *Repository) notFound(operation string, fields ...zap.Field) {
	r.logger.Info("Inventory operation target not found",
		append([]zap.Field{zap.String("operation", operation)}, fields...)...,
	)
}

func queryAll[T any](ctx context.Context, store docstore.Store, collection string, filters ...docstore.Filter) ([]T, error) {
	docs, err := store.Query(ctx, collection, filters...)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

func getInto(ctx context.Context, store docstore.Store, collection, id string, v any) error {
	doc, err := store.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	return doc.DataTo(v)
}

func isNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}

func addCreate(batch *docstore.Batch, collection, id string, v any) error {
	data, err := docstore.ToData(v)
	if err != nil {
		return err
	}
	batch.Create(collection, id, data)
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
