package equipment

import (
	"errors"
	"strings"
)

var (
	ErrNoSerialCodes        = errors.New("at least one serial code is required")
	ErrBlankSerialCode      = errors.New("serial codes must not be blank")
	ErrDuplicateSerialCodes = errors.New("serial codes must be distinct")
)

type NewAsset struct {
	Name              string   `json:"name" binding:"required"`
	NameForeign       string   `json:"nameForeign"`
	SerialCodes       []string `json:"serialCodes" binding:"required"`
	Unit              string   `json:"unit"`
	EquipmentTypes    []string `json:"equipmentTypes"`
	EquipmentSubTypes []string `json:"equipmentSubTypes"`
	Picture           string   `json:"picture"`
}

type NewConsumable struct {
	Name              string   `json:"name" binding:"required"`
	NameForeign       string   `json:"nameForeign"`
	Category          string   `json:"category"`
	Quantity          int      `json:"quantity" binding:"gte=0"`
	Unit              string   `json:"unit"`
	EquipmentTypes    []string `json:"equipmentTypes"`
	EquipmentSubTypes []string `json:"equipmentSubTypes"`
	Picture           string   `json:"picture"`
}

// MetadataUpdate carries the descriptive fields to overwrite. Nil fields are
// left untouched. Quantity only applies to consumables.
type MetadataUpdate struct {
	Name              *string   `json:"name"`
	NameForeign       *string   `json:"nameForeign"`
	Unit              *string   `json:"unit"`
	EquipmentTypes    *[]string `json:"equipmentTypes"`
	EquipmentSubTypes *[]string `json:"equipmentSubTypes"`
	Picture           *string   `json:"picture"`
	Quantity          *int      `json:"quantity"`
}

func (u MetadataUpdate) descriptiveFields() map[string]any {
	fields := map[string]any{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.NameForeign != nil {
		fields["nameForeign"] = *u.NameForeign
	}
	if u.Unit != nil {
		fields["unit"] = *u.Unit
	}
	if u.EquipmentTypes != nil {
		fields["equipmentTypes"] = nonNil(*u.EquipmentTypes)
	}
	if u.EquipmentSubTypes != nil {
		fields["equipmentSubTypes"] = nonNil(*u.EquipmentSubTypes)
	}
	if u.Picture != nil {
		fields["picture"] = *u.Picture
	}
	return fields
}

type AssetStockRequest struct {
	MasterID    string   `json:"masterId"`
	MasterName  string   `json:"masterName"`
	SerialCodes []string `json:"serialCodes" binding:"required"`
}

type ConsumableStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type BorrowRequest struct {
	InstanceIDs []string `json:"instanceIds" binding:"required,min=1"`
}

type ConditionRequest struct {
	Condition string `json:"condition" binding:"required"`
	Available *bool  `json:"available" binding:"required"`
}

type SerialCodeRequest struct {
	SerialCode string `json:"serialCode" binding:"required"`
}

// NormalizeSerialCodes trims the codes and rejects empty lists, blank codes
// and repeats. The repository trusts its callers to have done this.
func NormalizeSerialCodes(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, ErrNoSerialCodes
	}

	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, ErrBlankSerialCode
		}
		if _, ok := seen[code]; ok {
			return nil, ErrDuplicateSerialCodes
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}
