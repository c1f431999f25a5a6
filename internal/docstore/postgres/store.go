// Package postgres stores documents as JSONB rows of a single documents table,
// keyed by collection and id.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"equiphouse/internal/docstore"
	"equiphouse/internal/repository"
	custom_error "equiphouse/pkg/errors"

	"github.com/doug-martin/goqu/v9"
)

const (
	documentsTable = "documents"
	dataColumn     = "data"
)

var _ docstore.Store = (*Store)(nil)

type documentRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

type Store struct {
	repository *repository.Repository
}

func NewStore(r *repository.Repository) *Store {
	return &Store{repository: r}
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var row documentRow
	found, err := s.repository.GoquDBWrapper.
		From(documentsTable).
		Select("id", dataColumn).
		Where(goqu.Ex{"collection": collection, "id": id}).
		Executor().
		ScanStructContext(ctx, &row)
	if err != nil {
		return docstore.Document{}, fmt.Errorf("unable to select document %s/%s: %w", collection, id, err)
	}
	if !found {
		return docstore.Document{}, fmt.Errorf("%s/%s: %w", collection, id, docstore.ErrNotFound)
	}

	return row.toDocument()
}

func (s *Store) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]docstore.Document, error) {
	conditions, err := repository.NewQueryBuilder(filters...).BuildConditions(dataColumn)
	if err != nil {
		return nil, err
	}

	query := s.repository.GoquDBWrapper.
		From(documentsTable).
		Select("id", dataColumn).
		Where(goqu.Ex{"collection": collection}).
		Where(conditions...).
		Order(goqu.I("seq").Asc())

	var rows []documentRow
	if err := query.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("unable to select documents from %s: %w", collection, err)
	}

	docs := make([]docstore.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := docstore.NewID()
	if err := s.Commit(ctx, docstore.NewBatch().Create(collection, id, data)); err != nil {
		return "", err
	}

	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return s.Commit(ctx, docstore.NewBatch().Update(collection, id, fields))
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.Commit(ctx, docstore.NewBatch().Delete(collection, id))
}

// Commit runs the whole batch inside one transaction.
func (s *Store) Commit(ctx context.Context, batch *docstore.Batch) error {
	if batch.Len() > docstore.MaxBatchSize {
		return docstore.ErrBatchTooLarge
	}
	if batch.Len() == 0 {
		return nil
	}

	return repository.WithTransaction(ctx, s.repository.GoquDBWrapper, func(tx *goqu.TxDatabase) error {
		for _, w := range batch.Writes() {
			if err := applyWrite(ctx, tx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyWrite(ctx context.Context, tx *goqu.TxDatabase, w docstore.Write) error {
	if w.ID == "" {
		return fmt.Errorf("%s write to %s without document id", w.Kind, w.Collection)
	}
	key := goqu.Ex{"collection": w.Collection, "id": w.ID}

	switch w.Kind {
	case docstore.WriteCreate:
		payload, err := encodeData(w.Data)
		if err != nil {
			return err
		}
		_, err = tx.Insert(documentsTable).
			Rows(goqu.Record{"collection": w.Collection, "id": w.ID, dataColumn: payload}).
			Executor().
			ExecContext(ctx)
		if err != nil {
			wrapped := custom_error.FromPQ("insert document", err)
			var unique *custom_error.UniqueViolationError
			if errors.As(wrapped, &unique) {
				return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, docstore.ErrConflict)
			}
			return fmt.Errorf("failed to insert document %s/%s: %w", w.Collection, w.ID, wrapped)
		}
	case docstore.WriteUpdate:
		payload, err := encodeData(w.Data)
		if err != nil {
			return err
		}
		result, err := tx.Update(documentsTable).
			Set(goqu.Record{
				dataColumn:   goqu.L("data || ?::jsonb", payload),
				"updated_at": goqu.L("now()"),
			}).
			Where(key).
			Executor().
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to update document %s/%s: %w", w.Collection, w.ID, custom_error.FromPQ("update document", err))
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("%s/%s: %w", w.Collection, w.ID, docstore.ErrNotFound)
		}
	case docstore.WriteDelete:
		if _, err := tx.Delete(documentsTable).Where(key).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to delete document %s/%s: %w", w.Collection, w.ID, err)
		}
	default:
		return fmt.Errorf("unsupported write kind %d", w.Kind)
	}

	return nil
}

func encodeData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	clean := make(map[string]any, len(data))
	for k, v := range data {
		if k == "id" {
			continue
		}
		clean[k] = v
	}

	raw, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("invalid document data: %w", err)
	}

	return string(raw), nil
}

func (r documentRow) toDocument() (docstore.Document, error) {
	data := map[string]any{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &data); err != nil {
			return docstore.Document{}, fmt.Errorf("failed to decode document %s: %w", r.ID, err)
		}
	}

	return docstore.Document{ID: r.ID, Data: data}, nil
}
