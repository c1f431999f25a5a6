package metadata

import "fmt"

// SourceCollection tells which collection backs a display item. Asset items
// are spread over a master and its instances, everything else is a single
// document.
type SourceCollection string

const (
	SourceEquipmentMaster SourceCollection = "equipmentMaster"
	SourceEquipment       SourceCollection = "equipment"
)

func NewSourceCollection(value string) (SourceCollection, error) {
	switch source := SourceCollection(value); source {
	case SourceEquipmentMaster, SourceEquipment:
		return source, nil
	default:
		return "", fmt.Errorf("invalid source collection: %s", value)
	}
}

func (s SourceCollection) IsAsset() bool {
	return s == SourceEquipmentMaster
}
