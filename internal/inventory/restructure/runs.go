package restructure

import (
	"context"

	"equiphouse/internal/docstore"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
)

// The run record is bookkeeping only: failing to write it is logged and the
// run goes on.

func (s *Service) recordStart(ctx context.Context, report Report) string {
	data, err := docstore.ToData(report)
	if err == nil {
		var id string
		id, err = s.store.Create(ctx, models.CollectionMigrationRuns, data)
		if err == nil {
			return id
		}
	}

	s.logger.Warn("Unable to record restructure run", zap.Error(err))
	return ""
}

func (s *Service) recordCheckpoint(ctx context.Context, report Report) {
	if report.RunID == "" {
		return
	}

	err := s.store.Update(ctx, models.CollectionMigrationRuns, report.RunID, map[string]any{
		"lastGroup":          report.LastGroup,
		"migratedAssets":     report.MigratedAssets,
		"newInstanceRecords": report.NewInstanceRecords,
	})
	if err != nil {
		s.logger.Warn("Unable to checkpoint restructure run", zap.String("run_id", report.RunID), zap.Error(err))
	}
}

func (s *Service) recordFinish(ctx context.Context, report Report) {
	if report.RunID == "" {
		return
	}

	data, err := docstore.ToData(report)
	if err == nil {
		err = s.store.Update(context.WithoutCancel(ctx), models.CollectionMigrationRuns, report.RunID, data)
	}
	if err != nil {
		s.logger.Warn("Unable to record restructure result", zap.String("run_id", report.RunID), zap.Error(err))
	}
}
