package models

import (
	"time"

	"equiphouse/pkg/metadata"
)

// EquipmentMaster describes one kind of serialized asset. Its stock count is
// the number of AssetInstance documents pointing at it and is never stored.
type EquipmentMaster struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	NameForeign        string            `json:"nameForeign,omitempty"`
	Category           metadata.Category `json:"category"`
	Unit               string            `json:"unit"`
	EquipmentTypes     []string          `json:"equipmentTypes"`
	EquipmentSubTypes  []string          `json:"equipmentSubTypes"`
	Picture            string            `json:"picture,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	MigratedFromLegacy bool              `json:"migratedFromLegacy,omitempty"`
	MigratedAt         *time.Time        `json:"migratedAt,omitempty"`
	LegacyIDs          []string          `json:"legacyIds,omitempty"`
}

// AssetInstance is one serial coded unit owned by an EquipmentMaster.
type AssetInstance struct {
	ID                 string             `json:"id"`
	EquipmentID        string             `json:"equipmentId"`
	SerialCode         string             `json:"serialCode"`
	Available          bool               `json:"available"`
	Condition          metadata.Condition `json:"condition"`
	Location           string             `json:"location,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	LegacyID           string             `json:"legacyId,omitempty"`
	MigratedFromLegacy bool               `json:"migratedFromLegacy,omitempty"`
}

// ConsumableRecord is a fungible item stored as a single document. Available
// always mirrors Quantity > 0.
type ConsumableRecord struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	NameForeign       string            `json:"nameForeign,omitempty"`
	Category          metadata.Category `json:"category"`
	Quantity          int               `json:"quantity"`
	Unit              string            `json:"unit"`
	EquipmentTypes    []string          `json:"equipmentTypes"`
	EquipmentSubTypes []string          `json:"equipmentSubTypes"`
	Picture           string            `json:"picture,omitempty"`
	Available         bool              `json:"available"`
	CreatedAt         time.Time         `json:"createdAt"`
}

// SetQuantity stores quantity clamped at zero and recomputes Available.
func (c *ConsumableRecord) SetQuantity(quantity int) {
	c.Quantity = ClampQuantity(quantity)
	c.Available = c.Quantity > 0
}

func ClampQuantity(quantity int) int {
	if quantity < 0 {
		return 0
	}
	return quantity
}

// LegacyEquipment is the flat pre-master layout of the equipment collection,
// one document per serialized unit (or per consumable).
type LegacyEquipment struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	NameForeign       string    `json:"nameForeign,omitempty"`
	Category          string    `json:"category"`
	Quantity          int       `json:"quantity"`
	Unit              string    `json:"unit"`
	EquipmentTypes    []string  `json:"equipmentTypes"`
	EquipmentSubTypes []string  `json:"equipmentSubTypes"`
	Picture           string    `json:"picture,omitempty"`
	SerialCode        string    `json:"serialCode"`
	Available         *bool     `json:"available"`
	Condition         string    `json:"condition"`
	Location          string    `json:"location,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// IsAsset reports whether the legacy document is a serialized unit that the
// master/instance layout must take over.
func (l LegacyEquipment) IsAsset() bool {
	return !metadata.Category(l.Category).IsQuantityTracked()
}

func (l LegacyEquipment) InstanceAvailability() bool {
	if l.Available == nil {
		return true
	}
	return *l.Available
}

func (l LegacyEquipment) InstanceCondition() metadata.Condition {
	condition, err := metadata.NewCondition(l.Condition)
	if err != nil {
		return metadata.ConditionNormal
	}
	return condition
}
