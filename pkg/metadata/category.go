package metadata

import (
	"fmt"
	"strings"
)

// Category decides which storage shape an item lives in.
type Category string

const (
	CategoryAsset      Category = "asset"
	CategoryConsumable Category = "consumable"
	CategoryMain       Category = "main"
)

func NewCategory(value string) (Category, error) {
	category := Category(strings.ToLower(strings.TrimSpace(value)))
	if !category.IsValid() {
		return "", fmt.Errorf(
			"value not valid, only valid values are: %s, %s, %s",
			CategoryAsset, CategoryConsumable, CategoryMain,
		)
	}

	return category, nil
}

func (c Category) IsValid() bool {
	switch c {
	case CategoryAsset, CategoryConsumable, CategoryMain:
		return true
	default:
		return false
	}
}

// IsQuantityTracked reports whether items of the category are fungible and
// stored as one document with a quantity counter.
func (c Category) IsQuantityTracked() bool {
	return c == CategoryConsumable || c == CategoryMain
}

func (c Category) String() string {
	return string(c)
}

// QuantityTrackedCategories lists the categories stored as flat documents.
func QuantityTrackedCategories() []string {
	return []string{string(CategoryConsumable), string(CategoryMain)}
}
