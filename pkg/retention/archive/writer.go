package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/datastore"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// Config contains configuration for the archive writer.
type Config struct {
	// Root is the base directory all archive destinations resolve under.
	Root string `yaml:"root" json:"root"`
}

// DefaultConfig returns an archive writer configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Root: "data/archives",
	}
}

// Request describes a single archive write.
type Request struct {
	// Destination is the policy's archive subdirectory, relative to the
	// writer's root.
	Destination string

	// DataType and ExecutionID together name the archive file.
	DataType    string
	ExecutionID string

	// Compression selects the stream codec: none, gzip, or zstd.
	Compression string
}

// Result describes a completed archive file.
type Result struct {
	// Path is the absolute location of the published archive file.
	Path string `json:"path"`

	// RecordCount is the number of records serialized into the file.
	RecordCount int64 `json:"record_count"`

	// SizeBytes is the on-disk size of the published file.
	SizeBytes int64 `json:"size_bytes"`

	// Checksum is the SHA-256 hex digest of the file's final bytes,
	// computed after compression.
	Checksum string `json:"checksum"`

	// Compression is the codec the file was written with.
	Compression string `json:"compression"`
}

// Writer streams records into checksummed JSON Lines archive files.
//
// Files are written to a hidden temp name in the destination directory and
// renamed into place only after the stream is fully drained, the compressor
// flushed, and the file synced. A crash or write failure never leaves a
// partial file under the final name.
type Writer struct {
	config *Config
	logger *slog.Logger
}

// NewWriter creates an archive writer rooted at config.Root.
func NewWriter(config *Config) *Writer {
	if config == nil {
		config = DefaultConfig()
	}
	return &Writer{
		config: config,
		logger: slog.Default().With("component", "retention.archive"),
	}
}

// Root returns the writer's base directory.
func (w *Writer) Root() string {
	return w.config.Root
}

// Write drains the record stream into a new archive file and publishes it
// atomically. The error channel is checked after the record channel closes;
// a stream error discards the temp file and nothing is published.
func (w *Writer) Write(ctx context.Context, req *Request, records <-chan *datastore.Record, errs <-chan error) (*Result, error) {
	dir := filepath.Join(w.config.Root, req.Destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, retention.NewArchiveWriteError(dir, err)
	}

	finalName := fmt.Sprintf("%s-%s.jsonl%s", req.DataType, req.ExecutionID, Ext(req.Compression))
	finalPath := filepath.Join(dir, finalName)

	tmp, err := os.CreateTemp(dir, "."+finalName+".tmp-*")
	if err != nil {
		return nil, retention.NewArchiveWriteError(finalPath, err)
	}
	tmpPath := tmp.Name()

	discard := func(cause error) (*Result, error) {
		tmp.Close()
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			w.logger.Warn("failed to remove temp archive file",
				"path", tmpPath,
				"error", rmErr)
		}
		return nil, retention.NewArchiveWriteError(finalPath, cause)
	}

	// The hasher sits beside the file so the checksum covers the exact
	// bytes on disk, including compressor framing.
	hasher := sha256.New()
	sink := io.MultiWriter(tmp, hasher)

	compressor, err := newCompressWriter(sink, req.Compression)
	if err != nil {
		return discard(err)
	}

	encoder := json.NewEncoder(compressor)
	var count int64

	for record := range records {
		select {
		case <-ctx.Done():
			return discard(ctx.Err())
		default:
		}
		if err := encoder.Encode(record); err != nil {
			return discard(err)
		}
		count++
	}
	if streamErr := <-errs; streamErr != nil {
		return discard(streamErr)
	}

	if err := compressor.Close(); err != nil {
		return discard(err)
	}
	if err := tmp.Sync(); err != nil {
		return discard(err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return discard(err)
	}
	if err := tmp.Close(); err != nil {
		return discard(err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			w.logger.Warn("failed to remove temp archive file",
				"path", tmpPath,
				"error", rmErr)
		}
		return nil, retention.NewArchiveWriteError(finalPath, err)
	}

	w.logger.Debug("archive file published",
		"path", finalPath,
		"records", count,
		"size_bytes", info.Size(),
		"compression", req.Compression)

	return &Result{
		Path:        finalPath,
		RecordCount: count,
		SizeBytes:   info.Size(),
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
		Compression: req.Compression,
	}, nil
}
