package tabular

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Create opens path for writing. Paths ending in .gz or .zst are compressed
// transparently; closing the returned writer flushes the compressor and
// closes the file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return &stackedWriter{Writer: gzip.NewWriter(f), file: f}, nil
	case ".zst":
		enc, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return &stackedWriter{Writer: enc, file: f}, nil
	}
	return f, nil
}

type stackedWriter struct {
	io.Writer
	file *os.File
}

func (w *stackedWriter) Close() error {
	if c, ok := w.Writer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			_ = w.file.Close()
			return err
		}
	}
	return w.file.Close()
}
