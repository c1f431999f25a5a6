package equipment

import (
	"context"
	"sort"

	"equiphouse/internal/docstore"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
)

// LoadTaxonomy returns the equipment types ordered by name, served from the
// taxonomy cache when useCache is set.
func (r *Repository) LoadTaxonomy(ctx context.Context, useCache bool) []models.Taxonomy {
	types, err := r.taxonomy.Load(ctx, useCache)
	if err != nil {
		r.fail("loadTaxonomy", err)
		return []models.Taxonomy{}
	}
	return types
}

// SaveTaxonomyType creates the type when it has no id and overwrites it
// otherwise. It returns the type id, or "" on failure.
func (r *Repository) SaveTaxonomyType(ctx context.Context, taxonomy models.Taxonomy) string {
	taxonomy.SubTypes = nonNil(taxonomy.SubTypes)

	if taxonomy.ID == "" {
		data, err := docstore.ToData(taxonomy)
		if err != nil {
			r.fail("saveTaxonomyType", err, zap.String("name", taxonomy.Name))
			return ""
		}
		id, err := r.store.Create(ctx, models.CollectionEquipmentTypes, data)
		if err != nil {
			r.fail("saveTaxonomyType", err, zap.String("name", taxonomy.Name))
			return ""
		}
		r.InvalidateTaxonomy(ctx)
		return id
	}

	err := r.store.Update(ctx, models.CollectionEquipmentTypes, taxonomy.ID, map[string]any{
		"name":     taxonomy.Name,
		"subTypes": taxonomy.SubTypes,
	})
	if err != nil {
		if isNotFound(err) {
			r.notFound("saveTaxonomyType", zap.String("id", taxonomy.ID))
		} else {
			r.fail("saveTaxonomyType", err, zap.String("id", taxonomy.ID))
		}
		return ""
	}
	r.InvalidateTaxonomy(ctx)

	return taxonomy.ID
}

func (r *Repository) InvalidateTaxonomy(ctx context.Context) {
	r.taxonomy.Invalidate(context.WithoutCancel(ctx))
}

func (r *Repository) fetchTaxonomy(ctx context.Context) ([]models.Taxonomy, error) {
	types, err := queryAll[models.Taxonomy](ctx, r.store, models.CollectionEquipmentTypes)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}
