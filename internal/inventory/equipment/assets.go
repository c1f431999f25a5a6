package equipment

import (
	"context"
	"errors"
	"sort"
	"time"

	"equiphouse/internal/docstore"
	"equiphouse/pkg/metadata"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
)

// AddAsset creates a master and one available, normal instance per serial
// code in a single batch. It returns the master id, or "" on failure.
func (r *Repository) AddAsset(ctx context.Context, req NewAsset) string {
	now := r.clock.Now()
	master := models.EquipmentMaster{
		ID:                docstore.NewID(),
		Name:              req.Name,
		NameForeign:       req.NameForeign,
		Category:          metadata.CategoryAsset,
		Unit:              req.Unit,
		EquipmentTypes:    nonNil(req.EquipmentTypes),
		EquipmentSubTypes: nonNil(req.EquipmentSubTypes),
		Picture:           req.Picture,
		CreatedAt:         now,
	}

	batch := docstore.NewBatch()
	if err := addCreate(batch, models.CollectionEquipmentMaster, master.ID, master); err != nil {
		r.fail("addAsset", err, zap.String("name", req.Name))
		return ""
	}
	if err := appendInstances(batch, master.ID, req.SerialCodes, now); err != nil {
		r.fail("addAsset", err, zap.String("name", req.Name))
		return ""
	}

	if err := r.commit(ctx, batch); err != nil {
		r.fail("addAsset", err, zap.String("name", req.Name))
		var partial *PartialCommitError
		if errors.As(err, &partial) {
			r.logger.Error("Asset partially created, reconcile before retrying",
				zap.String("master_id", master.ID),
				zap.String("name", req.Name),
				zap.Int("committed_writes", partial.Committed),
				zap.Int("serial_codes", len(req.SerialCodes)),
			)
		}
		return ""
	}
	r.Invalidate(ctx)

	r.logger.Info("Asset created",
		zap.String("master_id", master.ID),
		zap.String("name", master.Name),
		zap.Int("instances", len(req.SerialCodes)),
	)
	return master.ID
}

// AddAssetStock adds instances to the master called masterName. When several
// masters share the name the oldest one receives the stock.
func (r *Repository) AddAssetStock(ctx context.Context, masterName string, serialCodes []string) bool {
	return r.AddAssetStockByName(ctx, masterName, serialCodes) != ""
}

// AddAssetStockByName is AddAssetStock returning the id of the master that
// received the stock, or "" when nothing was written.
func (r *Repository) AddAssetStockByName(ctx context.Context, masterName string, serialCodes []string) string {
	master, err := r.findMasterByName(ctx, masterName)
	if err != nil {
		r.fail("addAssetStock", err, zap.String("name", masterName))
		return ""
	}
	if master == nil {
		r.notFound("addAssetStock", zap.String("name", masterName))
		return ""
	}

	if !r.addInstances(ctx, "addAssetStock", master.ID, serialCodes) {
		return ""
	}
	return master.ID
}

func (r *Repository) AddAssetStockByID(ctx context.Context, masterID string, serialCodes []string) bool {
	if _, err := r.getMaster(ctx, masterID); err != nil {
		if isNotFound(err) {
			r.notFound("addAssetStock", zap.String("master_id", masterID))
		} else {
			r.fail("addAssetStock", err, zap.String("master_id", masterID))
		}
		return false
	}

	return r.addInstances(ctx, "addAssetStock", masterID, serialCodes)
}

func (r *Repository) addInstances(ctx context.Context, operation, masterID string, serialCodes []string) bool {
	if len(serialCodes) == 0 {
		r.logger.Info("No serial codes to add", zap.String("master_id", masterID))
		return false
	}

	batch := docstore.NewBatch()
	if err := appendInstances(batch, masterID, serialCodes, r.clock.Now()); err != nil {
		r.fail(operation, err, zap.String("master_id", masterID))
		return false
	}
	if err := r.commit(ctx, batch); err != nil {
		r.fail(operation, err, zap.String("master_id", masterID))
		return false
	}
	r.Invalidate(ctx)

	r.logger.Info("Asset stock added", zap.String("master_id", masterID), zap.Int("instances", len(serialCodes)))
	return true
}

// GetAvailableInstances lists the available instances of the master called
// masterName ordered by serial code.
func (r *Repository) GetAvailableInstances(ctx context.Context, masterName string) []models.AssetInstance {
	master, err := r.findMasterByName(ctx, masterName)
	if err != nil {
		r.fail("getAvailableInstances", err, zap.String("name", masterName))
		return []models.AssetInstance{}
	}
	if master == nil {
		return []models.AssetInstance{}
	}

	instances, err := queryAll[models.AssetInstance](ctx, r.store, models.CollectionAssetInstances,
		docstore.Eq("equipmentId", master.ID),
		docstore.Eq("available", true),
	)
	if err != nil {
		r.fail("getAvailableInstances", err, zap.String("master_id", master.ID))
		return []models.AssetInstance{}
	}

	sort.SliceStable(instances, func(i, j int) bool { return instances[i].SerialCode < instances[j].SerialCode })
	return instances
}

// MarkInstancesBorrowed flips the given instances to unavailable in one
// batch. Unknown ids fail the whole batch.
func (r *Repository) MarkInstancesBorrowed(ctx context.Context, instanceIDs []string) bool {
	if len(instanceIDs) == 0 {
		r.logger.Info("No instances to borrow")
		return false
	}

	batch := docstore.NewBatch()
	for _, id := range instanceIDs {
		batch.Update(models.CollectionAssetInstances, id, map[string]any{"available": false})
	}
	if err := r.commit(ctx, batch); err != nil {
		if isNotFound(err) {
			r.notFound("markInstancesBorrowed", zap.Strings("instance_ids", instanceIDs))
		} else {
			r.fail("markInstancesBorrowed", err, zap.Strings("instance_ids", instanceIDs))
		}
		return false
	}
	r.Invalidate(ctx)

	return true
}

func (r *Repository) UpdateInstanceCondition(ctx context.Context, instanceID string, condition metadata.Condition, available bool) bool {
	err := r.store.Update(ctx, models.CollectionAssetInstances, instanceID, map[string]any{
		"condition": condition,
		"available": available,
	})
	if err != nil {
		if isNotFound(err) {
			r.notFound("updateInstanceCondition", zap.String("instance_id", instanceID))
		} else {
			r.fail("updateInstanceCondition", err, zap.String("instance_id", instanceID))
		}
		return false
	}
	r.Invalidate(ctx)

	return true
}

// FindInstanceBySerialCode returns the first instance carrying the code, or
// nil. Codes are only unique within a master.
func (r *Repository) FindInstanceBySerialCode(ctx context.Context, serialCode string) *models.AssetInstance {
	instances, err := queryAll[models.AssetInstance](ctx, r.store, models.CollectionAssetInstances,
		docstore.Eq("serialCode", serialCode))
	if err != nil {
		r.fail("findInstanceBySerialCode", err, zap.String("serial_code", serialCode))
		return nil
	}
	if len(instances) == 0 {
		return nil
	}
	if len(instances) > 1 {
		r.logger.Warn("Serial code is used by several instances",
			zap.String("serial_code", serialCode),
			zap.Int("matches", len(instances)),
		)
	}

	return &instances[0]
}

func (r *Repository) GetInstance(ctx context.Context, instanceID string) *models.AssetInstance {
	var instance models.AssetInstance
	if err := getInto(ctx, r.store, models.CollectionAssetInstances, instanceID, &instance); err != nil {
		if !isNotFound(err) {
			r.fail("getInstance", err, zap.String("instance_id", instanceID))
		}
		return nil
	}
	return &instance
}

func (r *Repository) DeleteInstance(ctx context.Context, instanceID string) bool {
	if _, err := r.store.Get(ctx, models.CollectionAssetInstances, instanceID); err != nil {
		if isNotFound(err) {
			r.notFound("deleteInstance", zap.String("instance_id", instanceID))
		} else {
			r.fail("deleteInstance", err, zap.String("instance_id", instanceID))
		}
		return false
	}

	if err := r.store.Delete(ctx, models.CollectionAssetInstances, instanceID); err != nil {
		r.fail("deleteInstance", err, zap.String("instance_id", instanceID))
		return false
	}
	r.Invalidate(ctx)

	return true
}

// UpdateInstanceSerialCode renames an instance. The new code must not be used
// by another instance of the same master.
func (r *Repository) UpdateInstanceSerialCode(ctx context.Context, instanceID, serialCode string) bool {
	var instance models.AssetInstance
	if err := getInto(ctx, r.store, models.CollectionAssetInstances, instanceID, &instance); err != nil {
		if isNotFound(err) {
			r.notFound("updateInstanceSerialCode", zap.String("instance_id", instanceID))
		} else {
			r.fail("updateInstanceSerialCode", err, zap.String("instance_id", instanceID))
		}
		return false
	}

	siblings, err := queryAll[models.AssetInstance](ctx, r.store, models.CollectionAssetInstances,
		docstore.Eq("equipmentId", instance.EquipmentID),
		docstore.Eq("serialCode", serialCode),
	)
	if err != nil {
		r.fail("updateInstanceSerialCode", err, zap.String("instance_id", instanceID))
		return false
	}
	for _, sibling := range siblings {
		if sibling.ID != instanceID {
			r.logger.Info("Serial code already used within master",
				zap.String("master_id", instance.EquipmentID),
				zap.String("serial_code", serialCode),
			)
			return false
		}
	}

	if err := r.store.Update(ctx, models.CollectionAssetInstances, instanceID, map[string]any{"serialCode": serialCode}); err != nil {
		r.fail("updateInstanceSerialCode", err, zap.String("instance_id", instanceID))
		return false
	}
	r.Invalidate(ctx)

	return true
}

func appendInstances(batch *docstore.Batch, masterID string, serialCodes []string, now time.Time) error {
	for _, code := range serialCodes {
		instance := models.AssetInstance{
			ID:          docstore.NewID(),
			EquipmentID: masterID,
			SerialCode:  code,
			Available:   true,
			Condition:   metadata.ConditionNormal,
			CreatedAt:   now,
		}
		if err := addCreate(batch, models.CollectionAssetInstances, instance.ID, instance); err != nil {
			return err
		}
	}
	return nil
}
