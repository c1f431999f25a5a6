// Package restructure moves legacy flat asset documents into the
// master/instance layout. Consumables are never touched and the legacy
// documents are left in place, so a run can be rolled back at any time.
package restructure

import (
	"context"
	"slices"
	"sort"
	"sync"

	"equiphouse/internal/clock"
	"equiphouse/internal/docstore"
	"equiphouse/internal/metrics"
	"equiphouse/pkg/metadata"
	"equiphouse/pkg/models"

	"go.uber.org/zap"
)

// Invalidator drops cached inventory snapshots after the layout changed.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	store       docstore.Store
	invalidator Invalidator
	clock       clock.Clock
	logger      *zap.Logger
	metrics     *metrics.Metrics
	batchSize   int

	mu      sync.Mutex
	running bool
}

func NewService(store docstore.Store, invalidator Invalidator, clk clock.Clock, logger *zap.Logger, m *metrics.Metrics, batchSize int) *Service {
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:       store,
		invalidator: invalidator,
		clock:       clk,
		logger:      logger.With(zap.String("component", "restructure")),
		metrics:     m,
		batchSize:   batchSize,
	}
}

type group struct {
	name    string
	members []models.LegacyEquipment
}

func (g group) legacyIDs() []string {
	ids := make([]string, 0, len(g.members))
	for _, member := range g.members {
		ids = append(ids, member.ID)
	}
	return ids
}

// Migrate runs one restructure pass. Group failures end up in the report
// and never stop the run; only a failed read of the legacy collection is
// fatal. ErrRunInProgress is the only error returned.
func (s *Service) Migrate(ctx context.Context, opts Options) (Report, error) {
	if !s.begin() {
		return Report{Status: StatusRunning}, ErrRunInProgress
	}
	defer s.end()

	report := Report{
		Status:       StatusRunning,
		SkipExisting: opts.SkipExisting,
		Errors:       []GroupError{},
		StartedAt:    s.clock.Now(),
	}
	report.RunID = s.recordStart(ctx, report)

	s.logger.Info("Restructure started", zap.String("run_id", report.RunID), zap.Bool("skip_existing", opts.SkipExisting))

	groups, skipped, err := s.readLegacy(ctx, &report)
	if err != nil {
		return s.finish(ctx, report, err), nil
	}
	report.SkippedConsumables = skipped

	if opts.SkipExisting {
		existing, err := s.migratedMasterNames(ctx)
		if err != nil {
			return s.finish(ctx, report, err), nil
		}
		groups = slices.DeleteFunc(groups, func(g group) bool {
			if _, ok := existing[g.name]; ok {
				report.SkippedExisting++
				s.metrics.MigrationGroup("skipped")
				return true
			}
			return false
		})
	}

	w := &groupWriter{
		service: s,
		report:  &report,
		batch:   docstore.NewBatch(),
		limit:   s.limit(opts.BatchSize),
	}
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			w.flush(ctx)
			return s.finish(ctx, report, err), nil
		}
		w.add(ctx, s.buildGroup(g))
	}
	w.flush(ctx)

	if report.MigratedAssets > 0 && s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	return s.finish(ctx, report, nil), nil
}

func (s *Service) readLegacy(ctx context.Context, report *Report) ([]group, int, error) {
	docs, err := s.store.Query(ctx, models.CollectionEquipment)
	if err != nil {
		return nil, 0, err
	}

	var (
		skipped int
		groups  []group
		index   = map[string]int{}
	)
	for _, doc := range docs {
		var legacy models.LegacyEquipment
		if err := doc.DataTo(&legacy); err != nil {
			report.Errors = append(report.Errors, GroupError{Group: doc.ID, LegacyIDs: []string{doc.ID}, Error: err.Error()})
			s.metrics.MigrationGroup("failed")
			continue
		}
		if !legacy.IsAsset() {
			skipped++
			continue
		}

		i, ok := index[legacy.Name]
		if !ok {
			i = len(groups)
			index[legacy.Name] = i
			groups = append(groups, group{name: legacy.Name})
		}
		groups[i].members = append(groups[i].members, legacy)
	}

	return groups, skipped, nil
}

func (s *Service) migratedMasterNames(ctx context.Context) (map[string]struct{}, error) {
	docs, err := s.store.Query(ctx, models.CollectionEquipmentMaster, docstore.Eq("migratedFromLegacy", true))
	if err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if name, ok := doc.Data["name"].(string); ok {
			names[name] = struct{}{}
		}
	}
	return names, nil
}

type groupWrites struct {
	group     group
	writes    *docstore.Batch
	instances int
	err       error
}

// buildGroup prepares the master and instance writes of one group. The
// master copies its metadata from the first member.
func (s *Service) buildGroup(g group) groupWrites {
	now := s.clock.Now()
	first := g.members[0]
	if diverges(g.members) {
		s.logger.Warn("Legacy group has diverging metadata, using the first member",
			zap.String("group", g.name),
			zap.String("first_legacy_id", first.ID),
		)
	}

	createdAt := first.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	master := models.EquipmentMaster{
		ID:                 docstore.NewID(),
		Name:               g.name,
		NameForeign:        first.NameForeign,
		Category:           metadata.CategoryAsset,
		Unit:               first.Unit,
		EquipmentTypes:     nonNil(first.EquipmentTypes),
		EquipmentSubTypes:  nonNil(first.EquipmentSubTypes),
		Picture:            first.Picture,
		CreatedAt:          createdAt,
		MigratedFromLegacy: true,
		MigratedAt:         &now,
		LegacyIDs:          g.legacyIDs(),
	}

	out := groupWrites{group: g, writes: docstore.NewBatch()}
	if out.err = addCreate(out.writes, models.CollectionEquipmentMaster, master.ID, master); out.err != nil {
		return out
	}

	for _, member := range g.members {
		instanceCreatedAt := member.CreatedAt
		if instanceCreatedAt.IsZero() {
			instanceCreatedAt = now
		}
		instance := models.AssetInstance{
			ID:                 docstore.NewID(),
			EquipmentID:        master.ID,
			SerialCode:         member.SerialCode,
			Available:          member.InstanceAvailability(),
			Condition:          member.InstanceCondition(),
			Location:           member.Location,
			CreatedAt:          instanceCreatedAt,
			LegacyID:           member.ID,
			MigratedFromLegacy: true,
		}
		if out.err = addCreate(out.writes, models.CollectionAssetInstances, instance.ID, instance); out.err != nil {
			return out
		}
		out.instances++
	}

	return out
}

// groupWriter accumulates whole groups into batches of at most limit writes.
// A group never shares a commit with a later group once the batch is full,
// so a failed commit only affects the groups it carried.
type groupWriter struct {
	service *Service
	report  *Report
	batch   *docstore.Batch
	pending []groupWrites
	limit   int
}

func (w *groupWriter) add(ctx context.Context, gw groupWrites) {
	if gw.err != nil {
		w.failGroup(gw, gw.err)
		return
	}

	if w.batch.Len()+gw.writes.Len() > w.limit {
		w.flush(ctx)
	}

	if gw.writes.Len() > w.limit {
		w.commitOversized(ctx, gw)
		return
	}

	for _, write := range gw.writes.Writes() {
		w.batch.Create(write.Collection, write.ID, write.Data)
	}
	w.pending = append(w.pending, gw)

	if w.batch.Len() >= w.limit {
		w.flush(ctx)
	}
}

func (w *groupWriter) flush(ctx context.Context) {
	if w.batch.Len() == 0 {
		return
	}

	err := w.service.store.Commit(ctx, w.batch)
	if err != nil {
		w.service.logger.Error("Restructure batch failed",
			zap.Int("writes", w.batch.Len()),
			zap.Int("groups", len(w.pending)),
			zap.Error(err),
		)
		for _, gw := range w.pending {
			w.failGroup(gw, err)
		}
	} else {
		for _, gw := range w.pending {
			w.succeedGroup(ctx, gw)
		}
	}

	w.batch = docstore.NewBatch()
	w.pending = nil
}

// commitOversized handles a group larger than one batch. Its pieces commit
// one after another, master first; a failure leaves the committed pieces in
// place and is reported for the group.
func (w *groupWriter) commitOversized(ctx context.Context, gw groupWrites) {
	pieces := gw.writes.Split(w.limit)
	w.service.logger.Warn("Legacy group exceeds one batch",
		zap.String("group", gw.group.name),
		zap.Int("writes", gw.writes.Len()),
		zap.Int("pieces", len(pieces)),
	)

	for i, piece := range pieces {
		if err := w.service.store.Commit(ctx, piece); err != nil {
			w.service.logger.Error("Restructure piece failed",
				zap.String("group", gw.group.name),
				zap.Int("piece", i),
				zap.Error(err),
			)
			w.failGroup(gw, err)
			return
		}
	}
	w.succeedGroup(ctx, gw)
}

func (w *groupWriter) succeedGroup(ctx context.Context, gw groupWrites) {
	w.report.MigratedAssets++
	w.report.NewInstanceRecords += gw.instances
	w.report.LastGroup = gw.group.name
	w.service.metrics.MigrationGroup("migrated")
	w.service.recordCheckpoint(ctx, *w.report)
}

func (w *groupWriter) failGroup(gw groupWrites, err error) {
	w.report.Errors = append(w.report.Errors, GroupError{
		Group:     gw.group.name,
		LegacyIDs: gw.group.legacyIDs(),
		Error:     err.Error(),
	})
	w.service.metrics.MigrationGroup("failed")
	w.service.logger.Warn("Restructure group failed", zap.String("group", gw.group.name), zap.Error(err))
}

func (s *Service) finish(ctx context.Context, report Report, fatal error) Report {
	finishedAt := s.clock.Now()
	report.FinishedAt = &finishedAt

	switch {
	case fatal != nil:
		report.Status = StatusFatalFailure
		report.Fatal = fatal.Error()
		s.logger.Error("Restructure failed", zap.String("run_id", report.RunID), zap.Error(fatal))
	case len(report.Errors) > 0:
		report.Status = StatusCompletedWithErrors
	default:
		report.Status = StatusCompleted
	}

	s.recordFinish(ctx, report)
	s.logger.Info("Restructure finished",
		zap.String("run_id", report.RunID),
		zap.String("status", string(report.Status)),
		zap.Int("skipped_consumables", report.SkippedConsumables),
		zap.Int("skipped_existing", report.SkippedExisting),
		zap.Int("migrated_assets", report.MigratedAssets),
		zap.Int("new_instance_records", report.NewInstanceRecords),
		zap.Int("errors", len(report.Errors)),
	)

	return report
}

// Rollback deletes every migration produced master and instance. Legacy
// documents are untouched, so repeating it is harmless.
func (s *Service) Rollback(ctx context.Context) (RollbackReport, error) {
	var report RollbackReport
	if !s.begin() {
		return report, ErrRunInProgress
	}
	defer s.end()

	masters, err := s.store.Query(ctx, models.CollectionEquipmentMaster, docstore.Eq("migratedFromLegacy", true))
	if err != nil {
		return report, err
	}
	instanceIDs, err := s.rollbackInstances(ctx, masters)
	if err != nil {
		return report, err
	}

	// Instances go before masters so an interrupted rollback leaves no
	// instance without its master.
	batch := docstore.NewBatch()
	for _, id := range instanceIDs {
		batch.Delete(models.CollectionAssetInstances, id)
	}
	instanceWrites := batch.Len()
	for _, doc := range masters {
		batch.Delete(models.CollectionEquipmentMaster, doc.ID)
	}

	committed := 0
	defer func() {
		if committed > 0 && s.invalidator != nil {
			s.invalidator.Invalidate(ctx)
		}
	}()
	for _, piece := range batch.Split(s.limit(0)) {
		if err := s.store.Commit(ctx, piece); err != nil {
			report.DeletedInstances = min(committed, instanceWrites)
			report.DeletedMasters = committed - report.DeletedInstances
			s.logger.Error("Rollback interrupted",
				zap.Int("deleted_instances", report.DeletedInstances),
				zap.Int("deleted_masters", report.DeletedMasters),
				zap.Error(err),
			)
			return report, err
		}
		committed += piece.Len()
	}

	report.DeletedInstances = instanceWrites
	report.DeletedMasters = committed - instanceWrites
	s.logger.Info("Rollback finished",
		zap.Int("deleted_instances", report.DeletedInstances),
		zap.Int("deleted_masters", report.DeletedMasters),
	)

	return report, nil
}

// rollbackInstances collects the migrated instances plus every instance that
// was added to a migrated master afterwards.
func (s *Service) rollbackInstances(ctx context.Context, masters []docstore.Document) ([]string, error) {
	seen := make(map[string]struct{})
	var ids []string
	add := func(docs []docstore.Document) {
		for _, doc := range docs {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
			ids = append(ids, doc.ID)
		}
	}

	migrated, err := s.store.Query(ctx, models.CollectionAssetInstances, docstore.Eq("migratedFromLegacy", true))
	if err != nil {
		return nil, err
	}
	tagged := migrated[:0]
	for _, doc := range migrated {
		if legacyID, _ := doc.Data["legacyId"].(string); legacyID != "" {
			tagged = append(tagged, doc)
		}
	}
	add(tagged)

	masterIDs := make([]string, 0, len(masters))
	for _, doc := range masters {
		masterIDs = append(masterIDs, doc.ID)
	}
	for start := 0; start < len(masterIDs); start += docstore.MaxBatchSize {
		end := min(start+docstore.MaxBatchSize, len(masterIDs))
		restocked, err := s.store.Query(ctx, models.CollectionAssetInstances, docstore.In("equipmentId", masterIDs[start:end]))
		if err != nil {
			return nil, err
		}
		add(restocked)
	}

	return ids, nil
}

// CheckStatus compares the legacy asset count with what the migration has
// produced. It performs no writes.
func (s *Service) CheckStatus(ctx context.Context) (StatusReport, error) {
	var status StatusReport

	legacy, err := s.store.Query(ctx, models.CollectionEquipment)
	if err != nil {
		return status, err
	}
	for _, doc := range legacy {
		category, _ := doc.Data["category"].(string)
		if !metadata.Category(category).IsQuantityTracked() {
			status.LegacyAssets++
		}
	}

	masters, err := s.store.Query(ctx, models.CollectionEquipmentMaster, docstore.Eq("migratedFromLegacy", true))
	if err != nil {
		return status, err
	}
	status.MigratedMasters = len(masters)

	instances, err := s.store.Query(ctx, models.CollectionAssetInstances, docstore.Eq("migratedFromLegacy", true))
	if err != nil {
		return status, err
	}
	status.MigratedInstances = len(instances)

	status.Pending = max(status.LegacyAssets-status.MigratedInstances, 0)
	status.NeedsMigration = status.Pending > 0

	status.LastRun, err = s.lastRun(ctx)
	if err != nil {
		return status, err
	}

	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	switch {
	case running:
		status.State = StatusRunning
	case status.LastRun != nil:
		status.State = status.LastRun.Status
	default:
		status.State = StatusNotStarted
	}

	return status, nil
}

func (s *Service) lastRun(ctx context.Context) (*Report, error) {
	docs, err := s.store.Query(ctx, models.CollectionMigrationRuns)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	runs := make([]Report, 0, len(docs))
	for _, doc := range docs {
		var run Report
		if err := doc.DataTo(&run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })

	return &runs[len(runs)-1], nil
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Service) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Service) limit(requested int) int {
	size := requested
	if size <= 0 {
		size = s.batchSize
	}
	if size <= 0 || size > docstore.MaxBatchSize {
		size = docstore.MaxBatchSize
	}
	return size
}

func diverges(members []models.LegacyEquipment) bool {
	first := members[0]
	for _, member := range members[1:] {
		if member.Unit != first.Unit ||
			member.Picture != first.Picture ||
			member.NameForeign != first.NameForeign ||
			!slices.Equal(member.EquipmentTypes, first.EquipmentTypes) ||
			!slices.Equal(member.EquipmentSubTypes, first.EquipmentSubTypes) {
			return true
		}
	}
	return false
}

func addCreate(batch *docstore.Batch, collection, id string, v any) error {
	data, err := docstore.ToData(v)
	if err != nil {
		return err
	}
	batch.Create(collection, id, data)
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
