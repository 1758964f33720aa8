package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/datastore"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// newTestWriter creates a writer rooted in a temp directory.
func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	return NewWriter(&Config{Root: t.TempDir()})
}

// makeRecords returns n deterministic records for archive tests.
func makeRecords(n int) []*datastore.Record {
	base := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	records := make([]*datastore.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, &datastore.Record{
			ID:        fmt.Sprintf("rec-%04d", i),
			DataType:  "telemetry",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Attributes: map[string]string{
				"device_id": fmt.Sprintf("dev-%d", i%3),
				"region":    "us-east",
			},
			Payload: []byte(fmt.Sprintf(`{"reading":%d}`, i)),
		})
	}
	return records
}

// stream converts a record slice into the closed channel pair the
// datastore's SelectStream produces on success.
func stream(records []*datastore.Record) (<-chan *datastore.Record, <-chan error) {
	recordsCh := make(chan *datastore.Record, len(records))
	errCh := make(chan error, 1)
	for _, r := range records {
		recordsCh <- r
	}
	close(recordsCh)
	close(errCh)
	return recordsCh, errCh
}

// TestWriter_Write_RoundTrip writes archives in every compression mode and
// reads them back, checking name, checksum, and record fidelity.
func TestWriter_Write_RoundTrip(t *testing.T) {
	tests := []struct {
		compression string
		wantSuffix  string
	}{
		{retention.CompressionNone, ".jsonl"},
		{retention.CompressionGzip, ".jsonl.gz"},
		{retention.CompressionZstd, ".jsonl.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.compression, func(t *testing.T) {
			w := newTestWriter(t)
			records := makeRecords(25)
			recordsCh, errCh := stream(records)

			result, err := w.Write(context.Background(), &Request{
				Destination: "cold/telemetry",
				DataType:    "telemetry",
				ExecutionID: "exec-123",
				Compression: tt.compression,
			}, recordsCh, errCh)
			if err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			if result.RecordCount != 25 {
				t.Errorf("expected 25 records, got %d", result.RecordCount)
			}
			if result.SizeBytes <= 0 {
				t.Errorf("expected positive size, got %d", result.SizeBytes)
			}
			wantName := "telemetry-exec-123" + tt.wantSuffix
			if filepath.Base(result.Path) != wantName {
				t.Errorf("expected file name %s, got %s", wantName, filepath.Base(result.Path))
			}
			if filepath.Dir(result.Path) != filepath.Join(w.Root(), "cold/telemetry") {
				t.Errorf("archive written outside destination: %s", result.Path)
			}

			if err := Verify(result.Path, result.Checksum); err != nil {
				t.Errorf("Verify failed on freshly written archive: %v", err)
			}

			got, err := ReadRecords(result.Path)
			if err != nil {
				t.Fatalf("ReadRecords failed: %v", err)
			}
			if len(got) != len(records) {
				t.Fatalf("expected %d records back, got %d", len(records), len(got))
			}
			for i, r := range got {
				if r.ID != records[i].ID {
					t.Errorf("record %d: expected ID %s, got %s", i, records[i].ID, r.ID)
				}
				if r.Attributes["device_id"] != records[i].Attributes["device_id"] {
					t.Errorf("record %d: attribute mismatch", i)
				}
				if string(r.Payload) != string(records[i].Payload) {
					t.Errorf("record %d: payload mismatch", i)
				}
			}
		})
	}
}

// TestWriter_Write_EmptyStream verifies an empty stream still produces a
// valid, verifiable archive file.
func TestWriter_Write_EmptyStream(t *testing.T) {
	w := newTestWriter(t)
	recordsCh, errCh := stream(nil)

	result, err := w.Write(context.Background(), &Request{
		Destination: "cold",
		DataType:    "alerts",
		ExecutionID: "exec-empty",
		Compression: retention.CompressionGzip,
	}, recordsCh, errCh)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if result.RecordCount != 0 {
		t.Errorf("expected 0 records, got %d", result.RecordCount)
	}
	if err := Verify(result.Path, result.Checksum); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
	got, err := ReadRecords(result.Path)
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

// TestWriter_Write_StreamError verifies a mid-stream datastore error
// discards the temp file and publishes nothing.
func TestWriter_Write_StreamError(t *testing.T) {
	w := newTestWriter(t)

	recordsCh := make(chan *datastore.Record, 4)
	errCh := make(chan error, 1)
	for _, r := range makeRecords(4) {
		recordsCh <- r
	}
	close(recordsCh)
	errCh <- errors.New("datastore: connection reset")
	close(errCh)

	_, err := w.Write(context.Background(), &Request{
		Destination: "cold",
		DataType:    "telemetry",
		ExecutionID: "exec-err",
		Compression: retention.CompressionNone,
	}, recordsCh, errCh)
	if err == nil {
		t.Fatal("expected error from failed stream")
	}

	var writeErr *retention.ArchiveWriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected ArchiveWriteError, got %T", err)
	}
	if !strings.Contains(writeErr.Error(), "connection reset") {
		t.Errorf("expected cause in message, got %q", writeErr.Error())
	}

	assertDirEmpty(t, filepath.Join(w.Root(), "cold"))
}

// TestWriter_Write_ContextCanceled verifies cancellation mid-stream
// discards the temp file.
func TestWriter_Write_ContextCanceled(t *testing.T) {
	w := newTestWriter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recordsCh, errCh := stream(makeRecords(10))
	_, err := w.Write(ctx, &Request{
		Destination: "cold",
		DataType:    "telemetry",
		ExecutionID: "exec-cancel",
		Compression: retention.CompressionZstd,
	}, recordsCh, errCh)
	if err == nil {
		t.Fatal("expected error from canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}

	assertDirEmpty(t, filepath.Join(w.Root(), "cold"))
}

// TestWriter_Write_UnsupportedCompression verifies an unknown codec is
// rejected before anything is published.
func TestWriter_Write_UnsupportedCompression(t *testing.T) {
	w := newTestWriter(t)
	recordsCh, errCh := stream(makeRecords(1))

	_, err := w.Write(context.Background(), &Request{
		Destination: "cold",
		DataType:    "telemetry",
		ExecutionID: "exec-bad",
		Compression: "lz4",
	}, recordsCh, errCh)
	if err == nil {
		t.Fatal("expected error for unsupported compression")
	}
	assertDirEmpty(t, filepath.Join(w.Root(), "cold"))
}

// assertDirEmpty fails the test if dir contains any entries, including
// leftover temp files.
func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("unexpected file left behind: %s", e.Name())
	}
}

func BenchmarkWriter_Write_Gzip(b *testing.B) {
	w := NewWriter(&Config{Root: b.TempDir()})
	records := makeRecords(100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		recordsCh, errCh := stream(records)
		_, err := w.Write(context.Background(), &Request{
			Destination: "bench",
			DataType:    "telemetry",
			ExecutionID: fmt.Sprintf("exec-%d", i),
			Compression: retention.CompressionGzip,
		}, recordsCh, errCh)
		if err != nil {
			b.Fatalf("Write failed: %v", err)
		}
	}
}
