package driven

import "context"

// Table defines the driven port for the append-only remote table backing the
// meal log. Rows are plain strings; typing happens in the application layer.
type Table interface {
	// AppendRow appends cells as the last row. The row is either fully
	// appended or not at all.
	AppendRow(ctx context.Context, cells []string) error

	// Values returns every row of the table, header first, in insertion order.
	// Rows may be shorter than the header when trailing cells are empty.
	Values(ctx context.Context) ([][]string, error)
}

// TableConnector opens a handle to the meal table.
type TableConnector interface {
	Connect(ctx context.Context) (Table, error)
}
