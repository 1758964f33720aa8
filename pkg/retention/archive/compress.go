package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
)

// Ext returns the filename suffix for a compression mode, appended after
// the .jsonl extension.
func Ext(mode string) string {
	switch mode {
	case retention.CompressionGzip:
		return ".gz"
	case retention.CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// ModeForPath infers the compression mode from an archive filename.
func ModeForPath(path string) string {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return retention.CompressionGzip
	case strings.HasSuffix(path, ".zst"):
		return retention.CompressionZstd
	default:
		return retention.CompressionNone
	}
}

// newCompressWriter wraps w with the requested compression mode. The
// returned WriteCloser must be closed to flush compressor framing; closing
// it does not close w.
func newCompressWriter(w io.Writer, mode string) (io.WriteCloser, error) {
	switch mode {
	case retention.CompressionNone:
		return nopWriteCloser{w}, nil
	case retention.CompressionGzip:
		return gzip.NewWriter(w), nil
	case retention.CompressionZstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported compression mode: %q", mode)
	}
}

// newDecompressReader wraps r with the decompressor for the given mode.
// Closing the returned ReadCloser does not close r.
func newDecompressReader(r io.Reader, mode string) (io.ReadCloser, error) {
	switch mode {
	case retention.CompressionNone:
		return io.NopCloser(r), nil
	case retention.CompressionGzip:
		return gzip.NewReader(r)
	case retention.CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zstdReadCloser{zr}, nil
	default:
		return nil, fmt.Errorf("unsupported compression mode: %q", mode)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// zstdReadCloser adapts zstd.Decoder's valueless Close to io.ReadCloser.
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
