package equipment

import (
	"context"

	"equiphouse/internal/docstore"
	"equiphouse/pkg/metadata"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
)

// DeleteEquipment removes a display item. For an asset the master and every
// instance currently pointing at it go in one batch; the instance set is read
// from the store, not taken from item.
func (r *Repository) DeleteEquipment(ctx context.Context, item models.EquipmentDisplay) bool {
	switch item.Source {
	case metadata.SourceEquipmentMaster:
		return r.deleteAsset(ctx, item.ID)
	case metadata.SourceEquipment:
		return r.deleteConsumable(ctx, item.ID)
	default:
		r.logger.Info("Unknown source collection", zap.String("source", string(item.Source)), zap.String("id", item.ID))
		return false
	}
}

func (r *Repository) deleteAsset(ctx context.Context, masterID string) bool {
	if _, err := r.getMaster(ctx, masterID); err != nil {
		if isNotFound(err) {
			r.notFound("deleteEquipment", zap.String("master_id", masterID))
		} else {
			r.fail("deleteEquipment", err, zap.String("master_id", masterID))
		}
		return false
	}

	instances, err := r.store.Query(ctx, models.CollectionAssetInstances, docstore.Eq("equipmentId", masterID))
	if err != nil {
		r.fail("deleteEquipment", err, zap.String("master_id", masterID))
		return false
	}

	// The master goes last so a split batch never leaves orphaned instances
	// behind a deleted master.
	batch := docstore.NewBatch()
	for _, doc := range instances {
		batch.Delete(models.CollectionAssetInstances, doc.ID)
	}
	batch.Delete(models.CollectionEquipmentMaster, masterID)

	if err := r.commit(ctx, batch); err != nil {
		r.fail("deleteEquipment", err, zap.String("master_id", masterID))
		return false
	}
	r.Invalidate(ctx)

	r.logger.Info("Asset deleted", zap.String("master_id", masterID), zap.Int("instances", len(instances)))
	return true
}

func (r *Repository) deleteConsumable(ctx context.Context, id string) bool {
	if _, err := r.store.Get(ctx, models.CollectionEquipment, id); err != nil {
		if isNotFound(err) {
			r.notFound("deleteEquipment", zap.String("id", id))
		} else {
			r.fail("deleteEquipment", err, zap.String("id", id))
		}
		return false
	}

	if err := r.store.Delete(ctx, models.CollectionEquipment, id); err != nil {
		r.fail("deleteEquipment", err, zap.String("id", id))
		return false
	}
	r.Invalidate(ctx)

	return true
}

// UpdateMetadata overwrites descriptive fields of the document behind item.
// A quantity is applied to consumables only; for assets stock is the
// instance count and the value is ignored.
func (r *Repository) UpdateMetadata(ctx context.Context, item models.EquipmentDisplay, update MetadataUpdate) bool {
	fields := update.descriptiveFields()

	var collection string
	switch item.Source {
	case metadata.SourceEquipmentMaster:
		collection = models.CollectionEquipmentMaster
		if update.Quantity != nil {
			r.logger.Info("Ignoring quantity on asset metadata update", zap.String("master_id", item.ID))
		}
	case metadata.SourceEquipment:
		collection = models.CollectionEquipment
		if update.Quantity != nil {
			quantity := models.ClampQuantity(*update.Quantity)
			fields["quantity"] = quantity
			fields["available"] = quantity > 0
		}
	default:
		r.logger.Info("Unknown source collection", zap.String("source", string(item.Source)), zap.String("id", item.ID))
		return false
	}

	if len(fields) == 0 {
		r.logger.Info("Nothing to update", zap.String("id", item.ID))
		return false
	}

	if err := r.store.Update(ctx, collection, item.ID, fields); err != nil {
		if isNotFound(err) {
			r.notFound("updateMetadata", zap.String("collection", collection), zap.String("id", item.ID))
		} else {
			r.fail("updateMetadata", err, zap.String("collection", collection), zap.String("id", item.ID))
		}
		return false
	}
	r.Invalidate(ctx)

	return true
}

// FindItem resolves a display item by source and id from the current
// snapshot, falling back to a fresh read when the snapshot misses it.
func (r *Repository) FindItem(ctx context.Context, source metadata.SourceCollection, id string) (models.EquipmentDisplay, bool) {
	for _, useCache := range []bool{true, false} {
		for _, item := range r.LoadAll(ctx, useCache) {
			if item.Source == source && item.ID == id {
				return item, true
			}
		}
	}
	return models.EquipmentDisplay{}, false
}
