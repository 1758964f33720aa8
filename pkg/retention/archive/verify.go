package archive

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/datastore"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// Checksum computes the SHA-256 hex digest of a file's bytes on disk.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify recomputes an archive file's checksum and compares it against the
// recorded digest. A divergence returns a ChecksumMismatchError.
func Verify(path, expected string) error {
	actual, err := Checksum(path)
	if err != nil {
		return err
	}
	if actual != expected {
		return retention.NewChecksumMismatchError(path, expected, actual)
	}
	return nil
}

// Open returns a reader over an archive file's uncompressed JSON Lines
// content, selecting the decompressor from the filename extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decompressor, err := newDecompressReader(f, ModeForPath(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &archiveReader{file: f, ReadCloser: decompressor}, nil
}

// ReadRecords loads every record from an archive file. Intended for
// verification tooling and tests; the write path never reads archives back.
func ReadRecords(path string) ([]*datastore.Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records []*datastore.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		record := &datastore.Record{}
		if err := json.Unmarshal(scanner.Bytes(), record); err != nil {
			return nil, fmt.Errorf("invalid record at line %d: %w", line, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Reachable checks that the archive root exists and is writable, creating
// it if necessary. Used by readiness probes before executions are allowed.
func Reachable(root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("archive root not reachable: %w", err)
	}
	probe, err := os.CreateTemp(root, ".probe-*")
	if err != nil {
		return fmt.Errorf("archive root not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

// archiveReader closes both the decompressor and the underlying file.
type archiveReader struct {
	io.ReadCloser
	file *os.File
}

func (r *archiveReader) Close() error {
	decErr := r.ReadCloser.Close()
	fileErr := r.file.Close()
	if decErr != nil {
		return decErr
	}
	return fileErr
}
