package equipment

import (
	"context"

	"equiphouse/internal/docstore"
	"equiphouse/pkg/metadata"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
)

// AddConsumable stores a quantity tracked item as one document. Category
// defaults to consumable; availability follows the stored quantity.
func (r *Repository) AddConsumable(ctx context.Context, req NewConsumable) string {
	category := metadata.CategoryConsumable
	if req.Category != "" {
		category = metadata.Category(req.Category)
	}
	if !category.IsQuantityTracked() {
		r.logger.Info("Rejected consumable with non quantity category",
			zap.String("name", req.Name),
			zap.String("category", req.Category),
		)
		return ""
	}

	record := models.ConsumableRecord{
		Name:              req.Name,
		NameForeign:       req.NameForeign,
		Category:          category,
		Unit:              req.Unit,
		EquipmentTypes:    nonNil(req.EquipmentTypes),
		EquipmentSubTypes: nonNil(req.EquipmentSubTypes),
		Picture:           req.Picture,
		CreatedAt:         r.clock.Now(),
	}
	record.SetQuantity(req.Quantity)

	data, err := docstore.ToData(record)
	if err != nil {
		r.fail("addConsumable", err, zap.String("name", req.Name))
		return ""
	}
	id, err := r.store.Create(ctx, models.CollectionEquipment, data)
	if err != nil {
		r.fail("addConsumable", err, zap.String("name", req.Name))
		return ""
	}
	r.Invalidate(ctx)

	return id
}

// AddConsumableStock applies delta to the stored quantity, clamping at zero.
// Concurrent adjustments of one record are last write wins.
func (r *Repository) AddConsumableStock(ctx context.Context, id string, delta int) bool {
	var record models.ConsumableRecord
	if err := getInto(ctx, r.store, models.CollectionEquipment, id, &record); err != nil {
		if isNotFound(err) {
			r.notFound("addConsumableStock", zap.String("id", id))
		} else {
			r.fail("addConsumableStock", err, zap.String("id", id))
		}
		return false
	}
	if !record.Category.IsQuantityTracked() {
		r.logger.Info("Stock adjustment on a non consumable record",
			zap.String("id", id),
			zap.String("category", string(record.Category)),
		)
		return false
	}

	record.SetQuantity(record.Quantity + delta)
	err := r.store.Update(ctx, models.CollectionEquipment, id, map[string]any{
		"quantity":  record.Quantity,
		"available": record.Available,
	})
	if err != nil {
		if isNotFound(err) {
			r.notFound("addConsumableStock", zap.String("id", id))
		} else {
			r.fail("addConsumableStock", err, zap.String("id", id))
		}
		return false
	}
	r.Invalidate(ctx)

	return true
}
