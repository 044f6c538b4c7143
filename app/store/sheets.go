package store

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var _ Table = (*SheetsTable)(nil)

// NewSheetsService authenticates with service-account credentials.
func NewSheetsService(ctx context.Context, credentialsJSON []byte, opts ...option.ClientOption) (*sheets.Service, error) {
	opts = append([]option.ClientOption{
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(sheets.SpreadsheetsScope),
	}, opts...)

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return srv, nil
}

// SheetsTable reads and appends rows on one sheet of a spreadsheet. An
// empty sheet name means the first sheet.
type SheetsTable struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetsTable(service *sheets.Service, spreadsheetID, sheetName string) *SheetsTable {
	return &SheetsTable{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}
}

func (t *SheetsTable) dataRange() string {
	if t.sheetName == "" {
		return "A:Z"
	}
	return fmt.Sprintf("'%s'!A:Z", t.sheetName)
}

func (t *SheetsTable) ReadAll(ctx context.Context) ([][]string, error) {
	resp, err := t.service.Spreadsheets.Values.Get(t.spreadsheetID, t.dataRange()).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", t.spreadsheetID, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (t *SheetsTable) AppendRow(ctx context.Context, row []string) error {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}

	_, err := t.service.Spreadsheets.Values.Append(t.spreadsheetID, t.dataRange(), &sheets.ValueRange{
		Values: [][]interface{}{values},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to sheet %s: %w", t.spreadsheetID, err)
	}

	return nil
}
