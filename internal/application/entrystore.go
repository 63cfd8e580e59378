package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/ericfisherdev/mealtracker/internal/domain/model"
	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// EntryStore is the append-only meal log. It types the stringly rows of the
// underlying table into MealEntry values. Nothing is cached: every Scan
// fetches the whole table.
type EntryStore struct {
	provider *TableProvider
	logger   *slog.Logger
}

// NewEntryStore creates an EntryStore on the table held by provider.
func NewEntryStore(provider *TableProvider, logger *slog.Logger) *EntryStore {
	return &EntryStore{
		provider: provider,
		logger:   logger,
	}
}

// Connect establishes the table handle, or confirms the existing one.
// Failures are returned as *model.ConnectionError.
func (s *EntryStore) Connect(ctx context.Context) error {
	_, err := s.table(ctx)
	return err
}

// Connected reports whether a table handle has been established.
func (s *EntryStore) Connected() bool {
	return s.provider.HasTable()
}

// Append validates entry and appends it as the last row.
func (s *EntryStore) Append(ctx context.Context, entry model.MealEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	table, err := s.table(ctx)
	if err != nil {
		return err
	}

	if err := table.AppendRow(ctx, entry.Row()); err != nil {
		s.logger.Error("failed to append meal entry", "date", model.FormatDate(entry.Date), "error", err)
		return &model.WriteError{Err: err}
	}

	s.logger.Info("meal entry appended", "date", model.FormatDate(entry.Date), "meal_type", entry.MealType)
	return nil
}

// Scan returns every entry dated within [start, end], inclusive, in table
// order. Any fetch or parse failure fails the whole scan with
// *model.ReadError; no partial result is returned.
func (s *EntryStore) Scan(ctx context.Context, start, end civil.Date) ([]model.MealEntry, error) {
	if !start.IsValid() || !end.IsValid() {
		return nil, fmt.Errorf("%w: start and end dates are required", model.ErrInvalidInput)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date %s is after end date %s", model.ErrInvalidInput, start, end)
	}

	table, err := s.table(ctx)
	if err != nil {
		return nil, err
	}

	values, err := table.Values(ctx)
	if err != nil {
		s.logger.Error("failed to read meal table", "error", err)
		return nil, &model.ReadError{Err: err}
	}

	entries, err := parseTable(values)
	if err != nil {
		return nil, err
	}

	matched := make([]model.MealEntry, 0, len(entries))
	for _, e := range entries {
		if model.InRange(e.Date, start, end) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// InitializeHeader writes the header row into a table that has no rows at
// all. A table with any content is left untouched.
func (s *EntryStore) InitializeHeader(ctx context.Context) error {
	table, err := s.table(ctx)
	if err != nil {
		return err
	}

	values, err := table.Values(ctx)
	if err != nil {
		return &model.ReadError{Err: err}
	}
	if len(values) > 0 {
		return nil
	}

	if err := table.AppendRow(ctx, model.Columns); err != nil {
		return &model.WriteError{Err: err}
	}
	s.logger.Info("meal table header written")
	return nil
}

func (s *EntryStore) table(ctx context.Context) (driven.Table, error) {
	table, err := s.provider.Get(ctx)
	if err != nil {
		s.logger.Error("failed to connect to meal table", "error", err)
		return nil, &model.ConnectionError{Err: err}
	}
	return table, nil
}

var errEmptyTable = errors.New("table is empty; expected a header row")

// parseTable maps the header row to the six known columns and parses every
// data row. Spreadsheet row numbers in errors are 1-based with the header as
// row 1.
func parseTable(values [][]string) ([]model.MealEntry, error) {
	if len(values) == 0 {
		return nil, &model.ReadError{Err: errEmptyTable}
	}

	index, err := columnIndex(values[0])
	if err != nil {
		return nil, &model.ReadError{Row: 1, Err: err}
	}

	entries := make([]model.MealEntry, 0, len(values)-1)
	for i, row := range values[1:] {
		if blankRow(row) {
			continue
		}

		cells := make([]string, len(model.Columns))
		for c, idx := range index {
			if idx < len(row) {
				cells[c] = row[idx]
			}
		}

		entry, err := model.ParseRow(cells)
		if err != nil {
			return nil, &model.ReadError{Row: i + 2, Err: err}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// columnIndex returns, for each of model.Columns in order, the position of
// that column in header. Names match case-insensitively after trimming.
func columnIndex(header []string) ([]int, error) {
	index := make([]int, len(model.Columns))
	var missing []string
	for c, name := range model.Columns {
		index[c] = -1
		for i, cell := range header {
			if strings.EqualFold(strings.TrimSpace(cell), name) {
				index[c] = i
				break
			}
		}
		if index[c] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header is missing column(s) %s", strings.Join(missing, ", "))
	}
	return index, nil
}
