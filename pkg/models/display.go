package models

import (
	"sort"
	"time"

	"equiphouse/pkg/metadata"
)

// EquipmentDisplay is the merged, read-only view handed to callers. Source
// decides which collections back the item: for SourceEquipmentMaster the item
// is a master plus Instances, for SourceEquipment a single document.
type EquipmentDisplay struct {
	ID                string                    `json:"id"`
	Source            metadata.SourceCollection `json:"sourceCollection"`
	Name              string                    `json:"name"`
	NameForeign       string                    `json:"nameForeign,omitempty"`
	Category          metadata.Category         `json:"category"`
	Quantity          int                       `json:"quantity"`
	Unit              string                    `json:"unit"`
	EquipmentTypes    []string                  `json:"equipmentTypes"`
	EquipmentSubTypes []string                  `json:"equipmentSubTypes"`
	Picture           string                    `json:"picture,omitempty"`
	Available         bool                      `json:"available"`
	CreatedAt         time.Time                 `json:"createdAt"`
	Instances         []InstanceRef             `json:"instances,omitempty"`
}

type InstanceRef struct {
	ID         string             `json:"id"`
	SerialCode string             `json:"serialCode"`
	Available  bool               `json:"available"`
	Condition  metadata.Condition `json:"condition"`
}

func (d EquipmentDisplay) IsAsset() bool {
	return d.Source.IsAsset()
}

func (d EquipmentDisplay) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   d.ID,
		ResourceType: string(d.Source),
	}
}

func (i AssetInstance) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   i.ID,
		ResourceType: CollectionAssetInstances,
	}
}

func (t Taxonomy) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   t.ID,
		ResourceType: CollectionEquipmentTypes,
	}
}

func NewConsumableDisplay(c ConsumableRecord) EquipmentDisplay {
	return EquipmentDisplay{
		ID:                c.ID,
		Source:            metadata.SourceEquipment,
		Name:              c.Name,
		NameForeign:       c.NameForeign,
		Category:          c.Category,
		Quantity:          c.Quantity,
		Unit:              c.Unit,
		EquipmentTypes:    c.EquipmentTypes,
		EquipmentSubTypes: c.EquipmentSubTypes,
		Picture:           c.Picture,
		Available:         c.Quantity > 0,
		CreatedAt:         c.CreatedAt,
	}
}

// NewAssetDisplay projects a master and the instances it owns. Quantity is
// the instance count; a master without instances shows quantity 0.
func NewAssetDisplay(m EquipmentMaster, instances []AssetInstance) EquipmentDisplay {
	refs := make([]InstanceRef, 0, len(instances))
	available := false
	for _, instance := range instances {
		refs = append(refs, InstanceRef{
			ID:         instance.ID,
			SerialCode: instance.SerialCode,
			Available:  instance.Available,
			Condition:  instance.Condition,
		})
		available = available || instance.Available
	}
	sort.SliceStable(refs, func(i, j int) bool { return refs[i].SerialCode < refs[j].SerialCode })

	return EquipmentDisplay{
		ID:                m.ID,
		Source:            metadata.SourceEquipmentMaster,
		Name:              m.Name,
		NameForeign:       m.NameForeign,
		Category:          metadata.CategoryAsset,
		Quantity:          len(instances),
		Unit:              m.Unit,
		EquipmentTypes:    m.EquipmentTypes,
		EquipmentSubTypes: m.EquipmentSubTypes,
		Picture:           m.Picture,
		Available:         available,
		CreatedAt:         m.CreatedAt,
		Instances:         refs,
	}
}

// BuildDisplay merges consumables, masters and instances into one list sorted
// by name then id. Instances whose master is missing are returned as orphans
// and left out of the projection.
func BuildDisplay(consumables []ConsumableRecord, masters []EquipmentMaster, instances []AssetInstance) ([]EquipmentDisplay, []AssetInstance) {
	byMaster := make(map[string][]AssetInstance, len(masters))
	for _, instance := range instances {
		byMaster[instance.EquipmentID] = append(byMaster[instance.EquipmentID], instance)
	}

	items := make([]EquipmentDisplay, 0, len(consumables)+len(masters))
	for _, consumable := range consumables {
		items = append(items, NewConsumableDisplay(consumable))
	}

	for _, master := range masters {
		items = append(items, NewAssetDisplay(master, byMaster[master.ID]))
		delete(byMaster, master.ID)
	}

	var orphans []AssetInstance
	for _, instance := range instances {
		if _, ok := byMaster[instance.EquipmentID]; ok {
			orphans = append(orphans, instance)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})

	return items, orphans
}
