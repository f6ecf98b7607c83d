package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testRow struct {
	Ticker  string  `json:"ticker"`
	Returns float64 `json:"returns"`
}

func TestWriteRows_JSONL(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	rows := []testRow{
		{Ticker: "AAA", Returns: 0.27},
		{Ticker: "BBB", Returns: 0.89},
	}

	path, err := w.WriteRows("income_2025-10-17", rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(path, "income_2025-10-17.jsonl") {
		t.Errorf("unexpected export path: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first testRow
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 0 is not valid JSON: %v", err)
	}
	if first.Ticker != "AAA" {
		t.Errorf("expected first row AAA, got %s", first.Ticker)
	}
}

func TestWriteRows_Compressed(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, true)

	rows := []testRow{{Ticker: "AAA", Returns: 0.27}}

	path, err := w.WriteRows("income", rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(path, ".jsonl.zst") {
		t.Errorf("expected .jsonl.zst suffix, got %s", path)
	}

	items, err := ReadLines(path)
	if err != nil {
		t.Fatalf("failed to read compressed export: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	var row testRow
	if err := json.Unmarshal(items[0], &row); err != nil {
		t.Fatalf("item is not valid JSON: %v", err)
	}
	if row.Ticker != "AAA" || row.Returns != 0.27 {
		t.Errorf("round-trip mismatch: %+v", row)
	}
}

func TestWriteRows_EmptySlice(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	path, err := w.WriteRows("empty", []testRow{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty file, got %q", string(data))
	}
}

func TestWriteRows_NoPartialFileOnError(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	// A bare object is not a slice and must not leave a file behind.
	if _, err := w.WriteRows("bad", testRow{Ticker: "AAA"}); err == nil {
		t.Fatal("expected error for non-slice rows")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list export dir: %v", err)
	}
	for _, e := range entries {
		t.Errorf("unexpected file left behind: %s", filepath.Join(dir, e.Name()))
	}
}
