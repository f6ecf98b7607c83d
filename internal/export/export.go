// Package export writes scan reports to disk as JSONL, optionally
// zstd-compressed. Files are written to a temp path and renamed so a
// crashed run never leaves a partial report behind.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Writer exports report rows under a base directory, one file per batch.
type Writer struct {
	baseDir  string
	compress bool
}

func NewWriter(baseDir string, compress bool) *Writer {
	return &Writer{
		baseDir:  baseDir,
		compress: compress,
	}
}

// WriteRows writes rows as JSONL to <baseDir>/<name>.jsonl, or
// <name>.jsonl.zst when compression is on. Returns the final path.
func (w *Writer) WriteRows(name string, rows any) (string, error) {
	destPath := filepath.Join(w.baseDir, name+".jsonl")
	if w.compress {
		destPath += ".zst"
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	// Write to temp file first
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	err = w.writeJSONL(f, rows)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing export: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}

	return destPath, nil
}

func (w *Writer) writeJSONL(out io.Writer, rows any) error {
	if w.compress {
		enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("create zstd encoder: %w", err)
		}
		if err := encodeLines(enc, rows); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	}
	return encodeLines(out, rows)
}

// encodeLines marshals rows to a JSON array first so any slice of row
// structs can be exported without reflection on the element type.
func encodeLines(out io.Writer, rows any) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("rows must be a slice: %w", err)
	}

	for _, item := range items {
		compact, err := json.Marshal(item)
		if err != nil {
			return err
		}
		if _, err := out.Write(compact); err != nil {
			return err
		}
		if _, err := io.WriteString(out, "\n"); err != nil {
			return err
		}
	}

	return nil
}

// ReadLines reads a JSONL export back, transparently decompressing
// .zst files.
func ReadLines(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer dec.Close()
		reader = dec
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		items = append(items, json.RawMessage(line))
	}

	return items, nil
}
