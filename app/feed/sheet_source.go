package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	PostedAtColumn    = "포스팅 날짜"
	PostLinkColumn    = "포스팅 링크"
	SourceLabelColumn = "업체명"
)

var _ Source = (*SheetSource)(nil)

// SheetSource reads feed records from a table whose first row names the
// columns.
type SheetSource struct {
	reader RowReader
}

func NewSheetSource(reader RowReader) *SheetSource {
	return &SheetSource{reader: reader}
}

func (s *SheetSource) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.reader.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{PostedAtColumn, PostLinkColumn} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("feed header is missing column %q", required)
		}
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		link := cell(row, columns, PostLinkColumn)
		if link == "" {
			slog.Debug("Skipping feed row without link", "row", row)
			continue
		}

		records = append(records, Record{
			SourceLabel: cell(row, columns, SourceLabelColumn),
			PostURL:     link,
			PostedAt:    cell(row, columns, PostedAtColumn),
		})
	}

	return records, nil
}

func cell(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
