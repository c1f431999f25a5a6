package models

// Taxonomy is one equipment type with the subtypes callers may tag items with.
type Taxonomy struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	SubTypes []string `json:"subTypes"`
}
