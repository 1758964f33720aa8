package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// writeTestArchive publishes a small archive and returns its result.
func writeTestArchive(t *testing.T, w *Writer, compression string) *Result {
	t.Helper()
	recordsCh, errCh := stream(makeRecords(10))
	result, err := w.Write(context.Background(), &Request{
		Destination: "cold",
		DataType:    "telemetry",
		ExecutionID: "exec-verify",
		Compression: compression,
	}, recordsCh, errCh)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return result
}

// TestVerify_DetectsCorruption flips one byte of a published archive and
// checks Verify reports the mismatch with both digests.
func TestVerify_DetectsCorruption(t *testing.T) {
	w := newTestWriter(t)
	result := writeTestArchive(t, w, retention.CompressionGzip)

	data, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("failed to read archive: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(result.Path, data, 0644); err != nil {
		t.Fatalf("failed to corrupt archive: %v", err)
	}

	err = Verify(result.Path, result.Checksum)
	if err == nil {
		t.Fatal("expected checksum mismatch after corruption")
	}

	var mismatch *retention.ChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ChecksumMismatchError, got %T", err)
	}
	if mismatch.Expected != result.Checksum {
		t.Errorf("expected recorded digest %s, got %s", result.Checksum, mismatch.Expected)
	}
	if mismatch.Actual == result.Checksum {
		t.Error("actual digest should differ after corruption")
	}
	if mismatch.Path != result.Path {
		t.Errorf("expected path %s, got %s", result.Path, mismatch.Path)
	}
}

// TestVerify_MissingFile verifies a deleted archive surfaces the file
// error, not a mismatch.
func TestVerify_MissingFile(t *testing.T) {
	w := newTestWriter(t)
	result := writeTestArchive(t, w, retention.CompressionNone)

	if err := os.Remove(result.Path); err != nil {
		t.Fatalf("failed to remove archive: %v", err)
	}

	err := Verify(result.Path, result.Checksum)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var mismatch *retention.ChecksumMismatchError
	if errors.As(err, &mismatch) {
		t.Error("missing file should not report a checksum mismatch")
	}
}

// TestModeForPath checks compression inference from archive filenames.
func TestModeForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"telemetry-exec-1.jsonl", retention.CompressionNone},
		{"telemetry-exec-1.jsonl.gz", retention.CompressionGzip},
		{"telemetry-exec-1.jsonl.zst", retention.CompressionZstd},
		{"/abs/path/alerts-exec-2.jsonl.gz", retention.CompressionGzip},
	}

	for _, tt := range tests {
		if got := ModeForPath(tt.path); got != tt.want {
			t.Errorf("ModeForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// TestExt checks the suffix each compression mode appends.
func TestExt(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{retention.CompressionNone, ""},
		{retention.CompressionGzip, ".gz"},
		{retention.CompressionZstd, ".zst"},
	}

	for _, tt := range tests {
		if got := Ext(tt.mode); got != tt.want {
			t.Errorf("Ext(%q) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

// TestReachable verifies the writability probe for valid and invalid roots.
func TestReachable(t *testing.T) {
	root := filepath.Join(t.TempDir(), "archives", "nested")
	if err := Reachable(root); err != nil {
		t.Errorf("expected nested root to be creatable: %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Errorf("expected root to exist after probe: %v", err)
	}

	filePath := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(filePath, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := Reachable(filePath); err == nil {
		t.Error("expected error when root is a regular file")
	}
}
