package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/lysyi3m/listing-comb/app/listing"
)

// Table is an append-only grid of text cells whose first row is the header.
type Table interface {
	ReadAll(ctx context.Context) ([][]string, error)
	AppendRow(ctx context.Context, row []string) error
}

// EnsureHeader writes the output header to an empty table. A non-empty
// table whose first row differs from the header is left untouched.
func EnsureHeader(ctx context.Context, table Table) error {
	rows, err := table.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read output table: %w", err)
	}

	header := listing.Header()

	if len(rows) == 0 {
		if err := table.AppendRow(ctx, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		slog.Info("Output header written", "columns", len(header))
		return nil
	}

	if !slices.Equal(rows[0], header) {
		slog.Warn("Output table header differs from expected columns", "got", rows[0], "expected", header)
	}

	return nil
}
