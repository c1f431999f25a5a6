// Package docstore defines the collection based document store the inventory
// engine persists into. Documents are schemaless JSON objects addressed by
// collection and id. Multi document writes go through a Batch which the store
// commits atomically.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// MaxBatchSize is the largest number of writes a single Batch may carry.
const MaxBatchSize = 500

var (
	ErrNotFound      = errors.New("document not found")
	ErrConflict      = errors.New("document already exists")
	ErrBatchTooLarge = fmt.Errorf("batch exceeds %d writes", MaxBatchSize)
)

type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Commit(ctx context.Context, batch *Batch) error
}

type Document struct {
	ID   string
	Data map[string]any
}

// DataTo decodes the document into v. The document id is exposed to v under
// the "id" key.
func (d Document) DataTo(v any) error {
	data := make(map[string]any, len(d.Data)+1)
	for k, val := range d.Data {
		data[k] = val
	}
	data["id"] = d.ID

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.ID, err)
	}

	return nil
}

// ToData converts a JSON tagged struct into document fields. A top level "id"
// key is dropped since the id lives outside of the document body.
func ToData(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document data: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("document data must be an object: %w", err)
	}
	delete(data, "id")

	return data, nil
}

// Normalize converts a value into its JSON representation (strings, float64,
// bool, []any, map[string]any) so values from Go structs and values read back
// from storage compare equal.
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	return out, nil
}

func NewID() string {
	return uuid.NewString()
}
