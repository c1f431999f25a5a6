package auditlog

import (
	"context"
	"sort"

	"equiphouse/internal/clock"
	"equiphouse/internal/docstore"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
)

type Auditlog struct {
	store  docstore.Store
	clock  clock.Clock
	logger *zap.Logger
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

// Log persists an entry for item. It never fails the caller; a nil Auditlog
// drops the entry.
func (a *Auditlog) Log(action string, data map[string]any, item Auditable) {
	if a == nil {
		return
	}

	auditLog := item.CreateLogView()
	auditLog.Action = action
	auditLog.Data = data
	auditLog.CreatedAt = a.clock.Now()

	payload, err := docstore.ToData(auditLog)
	if err == nil {
		_, err = a.store.Create(context.Background(), models.CollectionAuditLog, payload)
	}
	if err != nil {
		a.logger.Error("Unable to create audit log entry",
			zap.String("resource_id", auditLog.ResourceID),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}

	a.logger.Debug("Created audit log entry", zap.String("resource_id", auditLog.ResourceID), zap.String("action", action))
}

// ResourceLog returns the entries recorded for one resource, oldest first.
func (a *Auditlog) ResourceLog(ctx context.Context, resourceID, resourceType string) ([]models.AuditLog, error) {
	docs, err := a.store.Query(ctx, models.CollectionAuditLog,
		docstore.Eq("resourceId", resourceID),
		docstore.Eq("resourceType", resourceType),
	)
	if err != nil {
		return nil, err
	}

	entries := make([]models.AuditLog, 0, len(docs))
	for _, doc := range docs {
		var entry models.AuditLog
		if err := doc.DataTo(&entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })

	return entries, nil
}

func NewAuditLog(store docstore.Store, clk clock.Clock, logger *zap.Logger) *Auditlog {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Auditlog{store: store, clock: clk, logger: logger}
}
