package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ericfisherdev/mealtracker/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.Table          = (*TableRepo)(nil)
	_ driven.TableConnector = (*TableRepo)(nil)
)

// TableRepo is the SQLite implementation of the Table port. Each row is
// stored as a JSON array of cells; rows of different sheets share one SQL
// table and are told apart by sheet name.
type TableRepo struct {
	db    *DB
	sheet string
}

// NewTableRepo creates a TableRepo for the named sheet.
func NewTableRepo(db *DB, sheet string) *TableRepo {
	return &TableRepo{db: db, sheet: sheet}
}

// Connect checks the database is reachable and returns the repo itself as the
// table handle.
func (r *TableRepo) Connect(ctx context.Context) (driven.Table, error) {
	if err := r.db.Reader.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite table %q: %w", r.sheet, err)
	}
	return r, nil
}

// AppendRow inserts cells as the newest row of the sheet.
func (r *TableRepo) AppendRow(ctx context.Context, cells []string) error {
	if cells == nil {
		cells = []string{}
	}
	encoded, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	const query = `INSERT INTO sheet_rows (sheet, cells) VALUES (?, ?)`
	if _, err := r.db.Writer.ExecContext(ctx, query, r.sheet, string(encoded)); err != nil {
		return fmt.Errorf("append row to %q: %w", r.sheet, err)
	}
	return nil
}

// Values returns every row of the sheet in insertion order.
func (r *TableRepo) Values(ctx context.Context) ([][]string, error) {
	const query = `SELECT id, cells FROM sheet_rows WHERE sheet = ? ORDER BY id`
	rows, err := r.db.Reader.QueryContext(ctx, query, r.sheet)
	if err != nil {
		return nil, fmt.Errorf("list rows of %q: %w", r.sheet, err)
	}
	defer rows.Close()

	var values [][]string
	for rows.Next() {
		var id int64
		var encoded string
		if err := rows.Scan(&id, &encoded); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		var cells []string
		if err := json.Unmarshal([]byte(encoded), &cells); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", id, err)
		}
		values = append(values, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows of %q: %w", r.sheet, err)
	}

	return values, nil
}
