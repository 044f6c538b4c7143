package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var _ Table = (*CSVTable)(nil)

// UTF-8 byte order mark so spreadsheet tools detect Korean text correctly.
var bom = []byte{0xEF, 0xBB, 0xBF}

// CSVTable keeps the output table in a local CSV file. Rows are appended
// and synced one at a time.
type CSVTable struct {
	path string
	mu   sync.Mutex
}

func NewCSVTable(path string) (*CSVTable, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return &CSVTable{path: path}, nil
}

func (t *CSVTable) ReadAll(ctx context.Context) ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return [][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.path, err)
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom)))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", t.path, err)
	}
	if rows == nil {
		rows = [][]string{}
	}

	return rows, nil
}

func (t *CSVTable) AppendRow(ctx context.Context, row []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", t.path, err)
	}

	if err := t.write(f, row); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to %s: %w", t.path, err)
	}

	return f.Close()
}

func (t *CSVTable) write(f *os.File, row []string) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}

	if info.Size() == 0 {
		if _, err := f.Write(bom); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	return f.Sync()
}
