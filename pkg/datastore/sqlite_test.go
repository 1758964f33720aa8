package datastore

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	config := DefaultSQLiteConfig()
	config.Path = filepath.Join(t.TempDir(), "records.db")

	store, err := NewSQLiteStore(config)
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestSQLiteStore_InsertAndCount(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	seedRecords(t, store, "telemetry", 20, 40, map[string]string{"site": "plant-a"})
	seedRecords(t, store, "telemetry", 10, 5, map[string]string{"site": "plant-a"})

	cutoff := time.Now().UTC().AddDate(0, 0, -30)

	count, err := store.Count(ctx, &Selection{DataType: "telemetry", Before: cutoff})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 20 {
		t.Errorf("Count() = %d, want 20", count)
	}

	all, err := store.Count(ctx, &Selection{DataType: "telemetry"})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if all != 30 {
		t.Errorf("Count() without cutoff = %d, want 30", all)
	}
}

func TestSQLiteStore_SelectStreamOrdered(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	seedRecords(t, store, "telemetry", 100, 40, map[string]string{"site": "plant-a"})

	sel := &Selection{DataType: "telemetry", Before: time.Now().UTC()}
	recordsCh, errCh, err := store.SelectStream(ctx, sel)
	if err != nil {
		t.Fatalf("SelectStream() failed: %v", err)
	}

	var prev time.Time
	var streamed int
	for record := range recordsCh {
		if record.Timestamp.Before(prev) {
			t.Errorf("stream out of order: %v before %v", record.Timestamp, prev)
		}
		prev = record.Timestamp
		streamed++

		if record.Attributes["site"] != "plant-a" {
			t.Errorf("record.Attributes = %v, want site=plant-a", record.Attributes)
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if streamed != 100 {
		t.Errorf("streamed %d records, want 100", streamed)
	}
}

func TestSQLiteStore_FilteredPredicates(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	seedRecords(t, store, "alerts", 10, 40, map[string]string{"severity": "critical", "site": "plant-a"})
	seedRecords(t, store, "alerts", 10, 40, map[string]string{"severity": "info", "site": "plant-a"})
	seedRecords(t, store, "alerts", 10, 40, map[string]string{"severity": "critical", "site": "plant-b"})

	cutoff := time.Now().UTC().AddDate(0, 0, -30)

	tests := []struct {
		name    string
		filters map[string][]string
		want    int64
	}{
		{"single value", map[string][]string{"severity": {"critical"}}, 20},
		{"multiple values", map[string][]string{"severity": {"critical", "info"}}, 30},
		{"two attributes", map[string][]string{"severity": {"critical"}, "site": {"plant-a"}}, 10},
		{"no match", map[string][]string{"severity": {"low"}}, 0},
		{"absent attribute", map[string][]string{"region": {"eu"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := &Selection{DataType: "alerts", Before: cutoff, Filters: tt.filters}
			count, err := store.Count(ctx, sel)
			if err != nil {
				t.Fatalf("Count() failed: %v", err)
			}
			if count != tt.want {
				t.Errorf("Count() = %d, want %d", count, tt.want)
			}
		})
	}
}

func TestSQLiteStore_DeleteIsPredicateDriven(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	seedRecords(t, store, "telemetry", 10, 40, nil)

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	sel := &Selection{DataType: "telemetry", Before: cutoff}

	// Stream first, as the engine does during archiving
	recordsCh, errCh, err := store.SelectStream(ctx, sel)
	if err != nil {
		t.Fatalf("SelectStream() failed: %v", err)
	}
	for range recordsCh {
	}
	if err := <-errCh; err != nil {
		t.Fatalf("stream error: %v", err)
	}

	// A record arriving between stream and delete, newer than the cutoff,
	// must survive the delete
	late := &Record{
		ID:        "late-arrival",
		DataType:  "telemetry",
		Timestamp: time.Now().UTC(),
	}
	if err := store.Insert(ctx, late); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	deleted, err := store.Delete(ctx, sel)
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if deleted != 10 {
		t.Errorf("Delete() = %d, want 10", deleted)
	}

	remaining, _ := store.Count(ctx, &Selection{DataType: "telemetry"})
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1 (late arrival survives)", remaining)
	}
}

func TestSQLiteStore_CutoffExclusive(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	cutoff := time.Now().UTC().AddDate(0, 0, -30).Truncate(time.Second)

	boundary := &Record{ID: "at-cutoff", DataType: "telemetry", Timestamp: cutoff}
	older := &Record{ID: "older", DataType: "telemetry", Timestamp: cutoff.Add(-time.Nanosecond)}
	if err := store.Insert(ctx, boundary); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, older); err != nil {
		t.Fatal(err)
	}

	count, err := store.Count(ctx, &Selection{DataType: "telemetry", Before: cutoff})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 (cutoff is exclusive)", count)
	}
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	config := DefaultSQLiteConfig()
	config.Path = filepath.Join(t.TempDir(), "records.db")

	store, err := NewSQLiteStore(config)
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
}

func BenchmarkSQLiteStore_Insert(b *testing.B) {
	config := DefaultSQLiteConfig()
	config.Path = filepath.Join(b.TempDir(), "records.db")

	store, err := NewSQLiteStore(config)
	if err != nil {
		b.Fatalf("NewSQLiteStore() failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		record := &Record{
			ID:         fmt.Sprintf("bench-%d", i),
			DataType:   "telemetry",
			Timestamp:  now,
			Attributes: map[string]string{"site": "plant-a"},
			Payload:    []byte(`{"v":1}`),
		}
		_ = store.Insert(ctx, record)
	}
}
