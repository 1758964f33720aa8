package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/config"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/datastore"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/archive"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/policy"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/tracker"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/metrics"
)

// fixture wires an engine to in-memory stores and a temp archive root.
type fixture struct {
	policies  *policy.MemoryStore
	tracker   *tracker.MemoryTracker
	collector *metrics.Collector
	root      string
	engine    *Engine
}

func newFixture(t *testing.T, store datastore.Store) *fixture {
	t.Helper()

	registry := datastore.NewRegistry()
	if err := registry.Register("telemetry", &datastore.Handler{Store: store, Description: "device telemetry"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	policies := policy.NewMemoryStore()
	trk := tracker.NewMemoryTracker()
	collector := metrics.NewCollector(&config.MetricsConfig{Namespace: "test"}, nil)
	root := t.TempDir()

	return &fixture{
		policies:  policies,
		tracker:   trk,
		collector: collector,
		root:      root,
		engine:    New(policies, registry, archive.NewWriter(&archive.Config{Root: root}), trk, collector),
	}
}

// createPolicy stores a 30-day telemetry policy, optionally archiving.
func (f *fixture) createPolicy(t *testing.T, withArchive bool) *retention.Policy {
	t.Helper()

	p := &retention.Policy{
		Name:          "expire-telemetry",
		DataType:      "telemetry",
		RetentionDays: 30,
		Schedule:      "0 3 * * *",
		Enabled:       true,
	}
	if withArchive {
		p.ArchiveBeforeDelete = true
		p.Archive = &retention.ArchiveSpec{
			Destination: "telemetry",
			Compression: retention.CompressionGzip,
		}
	}
	if err := f.policies.Create(context.Background(), p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return p
}

// seedRecords inserts n telemetry records aged by the given duration.
func seedRecords(t *testing.T, store datastore.Store, prefix string, n int, age time.Duration) {
	t.Helper()

	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		record := &datastore.Record{
			ID:        fmt.Sprintf("%s-%d", prefix, i),
			DataType:  "telemetry",
			Timestamp: now.Add(-age),
			Attributes: map[string]string{
				"device": fmt.Sprintf("dev-%d", i%2),
			},
			Payload: []byte(`{"reading":42}`),
		}
		if err := store.Insert(context.Background(), record); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
}

// counterValue reads a counter from the collector's registry by metric name
// and label subset.
func counterValue(t *testing.T, collector *metrics.Collector, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := collector.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			match := true
			for _, label := range metric.GetLabel() {
				if want, ok := labels[label.GetName()]; ok && want != label.GetValue() {
					match = false
					break
				}
			}
			if match {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

// TestEngine_Execute_DeleteWithoutArchive verifies the plain delete path:
// expired records removed, recent records untouched, tracker and policy
// counters updated.
func TestEngine_Execute_DeleteWithoutArchive(t *testing.T) {
	ctx := context.Background()
	store := datastore.NewMemoryStore()
	seedRecords(t, store, "old", 10, 45*24*time.Hour)
	seedRecords(t, store, "recent", 5, 24*time.Hour)

	fx := newFixture(t, store)
	pol := fx.createPolicy(t, false)

	record, err := fx.engine.Execute(ctx, pol, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if record.Status != retention.StatusSuccess {
		t.Errorf("expected status %q, got %q (error: %s)", retention.StatusSuccess, record.Status, record.Error)
	}
	if record.RecordsEvaluated != 10 {
		t.Errorf("expected 10 records evaluated, got %d", record.RecordsEvaluated)
	}
	if record.RecordsDeleted != 10 {
		t.Errorf("expected 10 records deleted, got %d", record.RecordsDeleted)
	}
	if record.RecordsArchived != 0 || record.ArchiveID != "" {
		t.Errorf("expected no archive effects, got archived=%d archive_id=%q", record.RecordsArchived, record.ArchiveID)
	}
	if record.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
	if record.DurationMS < 0 {
		t.Errorf("expected non-negative duration, got %d", record.DurationMS)
	}

	if store.Size() != 5 {
		t.Errorf("expected 5 records to survive, got %d", store.Size())
	}

	stored, err := fx.tracker.Get(ctx, record.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != retention.StatusSuccess {
		t.Errorf("expected tracked status %q, got %q", retention.StatusSuccess, stored.Status)
	}

	updated, err := fx.policies.Get(ctx, pol.ID)
	if err != nil {
		t.Fatalf("Get policy failed: %v", err)
	}
	if updated.ExecutionCount != 1 {
		t.Errorf("expected execution count 1, got %d", updated.ExecutionCount)
	}
	if updated.TotalRecordsDeleted != 10 {
		t.Errorf("expected 10 total deleted, got %d", updated.TotalRecordsDeleted)
	}
	if updated.LastExecutionStatus != retention.StatusSuccess {
		t.Errorf("expected last status %q, got %q", retention.StatusSuccess, updated.LastExecutionStatus)
	}
	if updated.LastExecutedAt == nil {
		t.Error("expected LastExecutedAt to be set")
	}
}

// TestEngine_Execute_ArchiveThenDelete verifies that an archiving policy
// publishes a verifiable archive file, records its entry, and only then
// deletes the records.
func TestEngine_Execute_ArchiveThenDelete(t *testing.T) {
	ctx := context.Background()
	store := datastore.NewMemoryStore()
	seedRecords(t, store, "old", 10, 45*24*time.Hour)
	seedRecords(t, store, "recent", 5, 24*time.Hour)

	fx := newFixture(t, store)
	pol := fx.createPolicy(t, true)

	record, err := fx.engine.Execute(ctx, pol, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if record.Status != retention.StatusSuccess {
		t.Fatalf("expected status %q, got %q (error: %s)", retention.StatusSuccess, record.Status, record.Error)
	}
	if record.RecordsEvaluated != 10 || record.RecordsArchived != 10 || record.RecordsDeleted != 10 {
		t.Errorf("expected 10/10/10 evaluated/archived/deleted, got %d/%d/%d",
			record.RecordsEvaluated, record.RecordsArchived, record.RecordsDeleted)
	}
	if record.ArchiveID == "" {
		t.Fatal("expected an archive ID on the record")
	}

	listing, err := fx.tracker.Archives(ctx, &retention.ArchiveQuery{})
	if err != nil {
		t.Fatalf("Archives failed: %v", err)
	}
	if len(listing.Entries) != 1 {
		t.Fatalf("expected 1 archive entry, got %d", len(listing.Entries))
	}
	entry := listing.Entries[0]
	if entry.ID != record.ArchiveID {
		t.Errorf("expected entry ID %q, got %q", record.ArchiveID, entry.ID)
	}
	if entry.ExecutionID != record.ID {
		t.Errorf("expected entry execution ID %q, got %q", record.ID, entry.ExecutionID)
	}
	if entry.RecordCount != 10 {
		t.Errorf("expected entry record count 10, got %d", entry.RecordCount)
	}
	if !strings.HasSuffix(entry.Path, ".jsonl.gz") {
		t.Errorf("expected a .jsonl.gz path, got %q", entry.Path)
	}

	if err := archive.Verify(entry.Path, entry.Checksum); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
	archived, err := archive.ReadRecords(entry.Path)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(archived) != 10 {
		t.Errorf("expected 10 archived records, got %d", len(archived))
	}
	for _, r := range archived {
		if r.DataType != "telemetry" {
			t.Errorf("expected archived data type telemetry, got %q", r.DataType)
		}
	}

	if store.Size() != 5 {
		t.Errorf("expected 5 records to survive, got %d", store.Size())
	}

	value := counterValue(t, fx.collector, "test_executions_total", map[string]string{
		"policy":    "expire-telemetry",
		"data_type": "telemetry",
		"status":    retention.StatusSuccess,
	})
	if value != 1 {
		t.Errorf("expected executions counter 1, got %v", value)
	}
}

// TestEngine_Execute_ZeroMatchesIsSuccess verifies that a selection with no
// expired records completes as success without touching the archiver.
func TestEngine_Execute_ZeroMatchesIsSuccess(t *testing.T) {
	ctx := context.Background()
	store := datastore.NewMemoryStore()
	seedRecords(t, store, "recent", 5, 24*time.Hour)

	fx := newFixture(t, store)
	pol := fx.createPolicy(t, true)

	record, err := fx.engine.Execute(ctx, pol, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if record.Status != retention.StatusSuccess {
		t.Errorf("expected status %q, got %q", retention.StatusSuccess, record.Status)
	}
	if record.RecordsEvaluated != 0 || record.RecordsArchived != 0 || record.RecordsDeleted != 0 {
		t.Errorf("expected zero effects, got %d/%d/%d",
			record.RecordsEvaluated, record.RecordsArchived, record.RecordsDeleted)
	}

	listing, err := fx.tracker.Archives(ctx, &retention.ArchiveQuery{})
	if err != nil {
		t.Fatalf("Archives failed: %v", err)
	}
	if listing.TotalCount != 0 {
		t.Errorf("expected no archive entries, got %d", listing.TotalCount)
	}
	if _, err := os.Stat(filepath.Join(fx.root, "telemetry")); !os.IsNotExist(err) {
		t.Error("expected no archive destination directory to be created")
	}
}

// TestEngine_Execute_DryRun verifies that a dry run reports the matching
// count but archives nothing, deletes nothing, and still lands in history
// and policy counters.
func TestEngine_Execute_DryRun(t *testing.T) {
	ctx := context.Background()
	store := datastore.NewMemoryStore()
	seedRecords(t, store, "old", 10, 45*24*time.Hour)
	seedRecords(t, store, "recent", 5, 24*time.Hour)

	fx := newFixture(t, store)
	pol := fx.createPolicy(t, true)

	record, err := fx.engine.Execute(ctx, pol, true)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if record.Status != retention.StatusSuccess {
		t.Errorf("expected status %q, got %q", retention.StatusSuccess, record.Status)
	}
	if !record.DryRun {
		t.Error("expected DryRun to be set on the record")
	}
	if record.RecordsEvaluated != 10 {
		t.Errorf("expected 10 records evaluated, got %d", record.RecordsEvaluated)
	}
	if record.RecordsArchived != 0 || record.RecordsDeleted != 0 || record.ArchiveID != "" {
		t.Errorf("expected no effects, got archived=%d deleted=%d archive_id=%q",
			record.RecordsArchived, record.RecordsDeleted, record.ArchiveID)
	}

	if store.Size() != 15 {
		t.Errorf("expected all 15 records to survive, got %d", store.Size())
	}
	if _, err := os.Stat(filepath.Join(fx.root, "telemetry")); !os.IsNotExist(err) {
		t.Error("expected no archive destination directory to be created")
	}

	history, err := fx.tracker.History(ctx, &retention.HistoryQuery{PolicyID: pol.ID})
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || !history[0].DryRun {
		t.Errorf("expected one dry-run history record, got %+v", history)
	}

	updated, err := fx.policies.Get(ctx, pol.ID)
	if err != nil {
		t.Fatalf("Get policy failed: %v", err)
	}
	if updated.ExecutionCount != 1 {
		t.Errorf("expected execution count 1, got %d", updated.ExecutionCount)
	}
	if updated.TotalRecordsDeleted != 0 || updated.TotalRecordsArchived != 0 {
		t.Errorf("expected zero counter increments, got deleted=%d archived=%d",
			updated.TotalRecordsDeleted, updated.TotalRecordsArchived)
	}
}

// TestEngine_Execute_HonorsFilters verifies that policy filters narrow the
// selection to matching attribute values only.
func TestEngine_Execute_HonorsFilters(t *testing.T) {
	ctx := context.Background()
	store := datastore.NewMemoryStore()
	// Even indexes land on dev-0, odd on dev-1.
	seedRecords(t, store, "old", 10, 45*24*time.Hour)

	fx := newFixture(t, store)
	pol := &retention.Policy{
		Name:          "expire-dev0-telemetry",
		DataType:      "telemetry",
		Filters:       map[string][]string{"device": {"dev-0"}},
		RetentionDays: 30,
		Schedule:      "0 3 * * *",
		Enabled:       true,
	}
	if err := fx.policies.Create(ctx, pol); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	record, err := fx.engine.Execute(ctx, pol, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if record.Status != retention.StatusSuccess {
		t.Errorf("expected status %q, got %q", retention.StatusSuccess, record.Status)
	}
	if record.RecordsEvaluated != 5 || record.RecordsDeleted != 5 {
		t.Errorf("expected 5 evaluated and deleted, got %d/%d", record.RecordsEvaluated, record.RecordsDeleted)
	}
	if store.Size() != 5 {
		t.Errorf("expected dev-1 records to survive, got %d remaining", store.Size())
	}
}

// TestEngine_Execute_UnknownDataType verifies that a policy naming an
// unregistered data type fails with zero effects.
func TestEngine_Execute_UnknownDataType(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, datastore.NewMemoryStore())

	pol := &retention.Policy{
		Name:          "expire-alerts",
		DataType:      "alerts",
		RetentionDays: 30,
		Schedule:      "0 3 * * *",
		Enabled:       true,
	}
	if err := fx.policies.Create(ctx, pol); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	record, err := fx.engine.Execute(ctx, pol, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if record.Status != retention.StatusFailed {
		t.Errorf("expected status %q, got %q", retention.StatusFailed, record.Status)
	}
	if !strings.Contains(record.Error, "data_type not found") {
		t.Errorf("expected a data type lookup error, got %q", record.Error)
	}
	if record.RecordsEvaluated != 0 || record.RecordsArchived != 0 || record.RecordsDeleted != 0 {
		t.Errorf("expected zero effects, got %d/%d/%d",
			record.RecordsEvaluated, record.RecordsArchived, record.RecordsDeleted)
	}

	updated, err := fx.policies.Get(ctx, pol.ID)
	if err != nil {
		t.Fatalf("Get policy failed: %v", err)
	}
	if updated.ExecutionCount != 1 || updated.LastExecutionStatus != retention.StatusFailed {
		t.Errorf("expected one failed execution on the policy, got count=%d status=%q",
			updated.ExecutionCount, updated.LastExecutionStatus)
	}
}

// streamFailStore serves a fixed count and fails its record stream after the
// first record, simulating a datastore read error mid-archive.
type streamFailStore struct {
	count        int64
	streamErr    error
	deleteCalled bool
}

func (s *streamFailStore) Insert(ctx context.Context, record *datastore.Record) error {
	return nil
}

func (s *streamFailStore) Count(ctx context.Context, sel *datastore.Selection) (int64, error) {
	return s.count, nil
}

func (s *streamFailStore) SelectStream(ctx context.Context, sel *datastore.Selection) (<-chan *datastore.Record, <-chan error, error) {
	records := make(chan *datastore.Record, 1)
	errs := make(chan error, 1)
	records <- &datastore.Record{
		ID:        "rec-0",
		DataType:  sel.DataType,
		Timestamp: time.Now().UTC().Add(-time.Hour),
	}
	errs <- s.streamErr
	close(records)
	close(errs)
	return records, errs, nil
}

func (s *streamFailStore) Delete(ctx context.Context, sel *datastore.Selection) (int64, error) {
	s.deleteCalled = true
	return 0, nil
}

func (s *streamFailStore) Close() error {
	return nil
}

// TestEngine_Execute_StreamFailureSkipsDelete verifies that a failed archive
// stream aborts the run: no file is published, no entry is recorded, and
// deletion is never attempted.
func TestEngine_Execute_StreamFailureSkipsDelete(t *testing.T) {
	ctx := context.Background()
	store := &streamFailStore{
		count:     4,
		streamErr: errors.New("read tcp 10.0.0.5:48372: connection reset by peer"),
	}

	fx := newFixture(t, store)
	pol := fx.createPolicy(t, true)

	record, err := fx.engine.Execute(ctx, pol, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if record.Status != retention.StatusFailed {
		t.Errorf("expected status %q, got %q", retention.StatusFailed, record.Status)
	}
	if !strings.Contains(record.Error, "connection reset") {
		t.Errorf("expected the stream error in the record, got %q", record.Error)
	}
	if record.RecordsArchived != 0 || record.RecordsDeleted != 0 || record.ArchiveID != "" {
		t.Errorf("expected no effects, got archived=%d deleted=%d archive_id=%q",
			record.RecordsArchived, record.RecordsDeleted, record.ArchiveID)
	}
	if store.deleteCalled {
		t.Error("expected delete to be skipped after an archive failure")
	}

	listing, err := fx.tracker.Archives(ctx, &retention.ArchiveQuery{})
	if err != nil {
		t.Fatalf("Archives failed: %v", err)
	}
	if listing.TotalCount != 0 {
		t.Errorf("expected no archive entries, got %d", listing.TotalCount)
	}

	entries, err := os.ReadDir(filepath.Join(fx.root, "telemetry"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no published or temp files, found %d", len(entries))
	}
}

// TestEngine_Execute_ArchiveFailureThenRecovery verifies that a failed
// archive leaves the expired rows for the next run: with the destination
// blocked the run fails without deleting, and once the destination is
// usable again the same rows archive and delete cleanly.
func TestEngine_Execute_ArchiveFailureThenRecovery(t *testing.T) {
	ctx := context.Background()
	store := datastore.NewMemoryStore()
	fx := newFixture(t, store)
	pol := fx.createPolicy(t, true)

	seedRecords(t, store, "old", 6, 45*24*time.Hour)

	// A regular file where the destination directory belongs makes the
	// archive write fail before anything is deleted.
	blocked := filepath.Join(fx.root, "telemetry")
	if err := os.WriteFile(blocked, []byte("in the way"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	record, err := fx.engine.Execute(ctx, pol, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if record.Status != retention.StatusFailed {
		t.Fatalf("expected status %q, got %q", retention.StatusFailed, record.Status)
	}
	if !strings.Contains(record.Error, "archive write error") {
		t.Errorf("expected an archive write error, got %q", record.Error)
	}
	if record.RecordsDeleted != 0 || record.ArchiveID != "" {
		t.Errorf("expected no effects, got deleted=%d archive_id=%q",
			record.RecordsDeleted, record.ArchiveID)
	}
	if store.Size() != 6 {
		t.Errorf("expected the expired rows to survive the failed run, got %d", store.Size())
	}

	if err := os.Remove(blocked); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	record, err = fx.engine.Execute(ctx, pol, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if record.Status != retention.StatusSuccess {
		t.Fatalf("expected status %q after recovery, got %q (%s)",
			retention.StatusSuccess, record.Status, record.Error)
	}
	if record.RecordsArchived != 6 || record.RecordsDeleted != 6 {
		t.Errorf("expected the same 6 rows archived and deleted, got %d/%d",
			record.RecordsArchived, record.RecordsDeleted)
	}
	if store.Size() != 0 {
		t.Errorf("expected an empty store after recovery, got %d records", store.Size())
	}

	listing, err := fx.tracker.Archives(ctx, &retention.ArchiveQuery{})
	if err != nil {
		t.Fatalf("Archives failed: %v", err)
	}
	if listing.TotalCount != 1 {
		t.Fatalf("expected exactly one archive entry, got %d", listing.TotalCount)
	}
	entry := listing.Entries[0]
	if err := archive.Verify(entry.Path, entry.Checksum); err != nil {
		t.Errorf("published archive failed verification: %v", err)
	}
}

// deleteFailStore wraps the memory store and fails every delete with a
// configurable affected-row count.
type deleteFailStore struct {
	*datastore.MemoryStore
	affected int64
	err      error
}

func (s *deleteFailStore) Delete(ctx context.Context, sel *datastore.Selection) (int64, error) {
	return s.affected, s.err
}

// TestEngine_Execute_DeleteFailureStatus verifies the terminal status rules
// when the delete phase errors: failed when nothing was mutated, partial
// when rows were removed or an archive was already published.
func TestEngine_Execute_DeleteFailureStatus(t *testing.T) {
	tests := []struct {
		name        string
		withArchive bool
		affected    int64
		wantStatus  string
	}{
		{
			name:        "failed when no rows affected and nothing archived",
			withArchive: false,
			affected:    0,
			wantStatus:  retention.StatusFailed,
		},
		{
			name:        "partial when rows were removed before the error",
			withArchive: false,
			affected:    3,
			wantStatus:  retention.StatusPartial,
		},
		{
			name:        "partial when an archive was published",
			withArchive: true,
			affected:    0,
			wantStatus:  retention.StatusPartial,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			inner := datastore.NewMemoryStore()
			seedRecords(t, inner, "old", 6, 45*24*time.Hour)
			store := &deleteFailStore{
				MemoryStore: inner,
				affected:    tt.affected,
				err:         errors.New("disk I/O error"),
			}

			fx := newFixture(t, store)
			pol := fx.createPolicy(t, tt.withArchive)

			record, err := fx.engine.Execute(ctx, pol, false)
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}

			if record.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, record.Status)
			}
			if record.RecordsDeleted != tt.affected {
				t.Errorf("expected %d records deleted, got %d", tt.affected, record.RecordsDeleted)
			}
			if !strings.Contains(record.Error, "delete error") {
				t.Errorf("expected a delete error on the record, got %q", record.Error)
			}

			if tt.withArchive {
				if record.ArchiveID == "" {
					t.Fatal("expected the archive to be published before the delete failure")
				}
				listing, err := fx.tracker.Archives(ctx, &retention.ArchiveQuery{})
				if err != nil {
					t.Fatalf("Archives failed: %v", err)
				}
				if len(listing.Entries) != 1 {
					t.Fatalf("expected 1 archive entry, got %d", len(listing.Entries))
				}
				if _, err := os.Stat(listing.Entries[0].Path); err != nil {
					t.Errorf("expected the archive file to survive the failed delete: %v", err)
				}
			}
		})
	}
}

// BenchmarkEngine_Execute_DryRun measures end-to-end dry-run execution over
// a static thousand-record selection.
func BenchmarkEngine_Execute_DryRun(b *testing.B) {
	ctx := context.Background()
	store := datastore.NewMemoryStore()
	now := time.Now().UTC()
	for i := 0; i < 1000; i++ {
		record := &datastore.Record{
			ID:        fmt.Sprintf("rec-%d", i),
			DataType:  "telemetry",
			Timestamp: now.Add(-45 * 24 * time.Hour),
			Payload:   []byte(`{"reading":42}`),
		}
		if err := store.Insert(ctx, record); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}

	registry := datastore.NewRegistry()
	if err := registry.Register("telemetry", &datastore.Handler{Store: store}); err != nil {
		b.Fatalf("Register failed: %v", err)
	}
	policies := policy.NewMemoryStore()
	pol := &retention.Policy{
		Name:          "expire-telemetry",
		DataType:      "telemetry",
		RetentionDays: 30,
		Schedule:      "0 3 * * *",
		Enabled:       true,
	}
	if err := policies.Create(ctx, pol); err != nil {
		b.Fatalf("Create failed: %v", err)
	}
	eng := New(policies, registry, archive.NewWriter(&archive.Config{Root: b.TempDir()}),
		tracker.NewMemoryTracker(), metrics.NewCollector(&config.MetricsConfig{Namespace: "bench"}, nil))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := eng.Execute(ctx, pol, true); err != nil {
			b.Fatalf("Execute failed: %v", err)
		}
	}
}
