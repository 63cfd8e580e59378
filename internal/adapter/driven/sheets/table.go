package sheets

import (
	"context"
	"fmt"
	"strings"

	gsheets "google.golang.org/api/sheets/v4"

	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Table = (*Table)(nil)

// Table is a handle to one worksheet of a spreadsheet.
type Table struct {
	svc           *gsheets.Service
	spreadsheetID string
	sheetTitle    string
}

// AppendRow appends cells after the last row of the worksheet. Values are
// stored as typed (RAW) so dates and times stay the strings that were written.
func (t *Table) AppendRow(ctx context.Context, cells []string) error {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}

	_, err := t.svc.Spreadsheets.Values.Append(t.spreadsheetID, t.a1Range(), &gsheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{row},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %q: %w", t.sheetTitle, err)
	}
	return nil
}

// Values returns every row of the worksheet as displayed strings. The API
// drops trailing empty cells, so rows can be ragged.
func (t *Table) Values(ctx context.Context) ([][]string, error) {
	resp, err := t.svc.Spreadsheets.Values.Get(t.spreadsheetID, t.a1Range()).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("get values of %q: %w", t.sheetTitle, err)
	}

	values := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cellString(v)
		}
		values = append(values, cells)
	}
	return values, nil
}

// a1Range addresses the whole worksheet.
func (t *Table) a1Range() string {
	return "'" + strings.ReplaceAll(t.sheetTitle, "'", "''") + "'"
}

func cellString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
