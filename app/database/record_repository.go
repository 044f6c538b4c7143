package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const timeLayout = time.RFC3339Nano

// RecordTable stores output rows in the records table, one JSON array of
// cells per row, in insertion order. It satisfies store.Table.
type RecordTable struct {
	db *DB
}

func NewRecordTable(db *DB) *RecordTable {
	return &RecordTable{db: db}
}

func (t *RecordTable) ReadAll(ctx context.Context) ([][]string, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT cells FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	defer rows.Close()

	out := [][]string{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}

		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("failed to decode record cells: %w", err)
		}
		out = append(out, cells)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return out, nil
}

func (t *RecordTable) AppendRow(ctx context.Context, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode record cells: %w", err)
	}

	postURL := ""
	if len(row) > 1 {
		postURL = row[1]
	}

	_, err = t.db.ExecContext(ctx, `
		INSERT INTO records (post_url, cells, created_at)
		VALUES (?, ?, ?)
	`, postURL, string(cells), time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}

	return nil
}

// GetRecordCount returns the number of data rows, header excluded
func (t *RecordTable) GetRecordCount() (int, error) {
	var count int
	err := t.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get record count: %w", err)
	}
	if count > 0 {
		count--
	}
	return count, nil
}
