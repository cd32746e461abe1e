package types

import "context"

// Row is one ordered row of cell values. Cells hold strings, numbers,
// booleans or nil.
type Row []any

// Listing maps table names to their backend ids, as returned by
// Gateway.ListTables. It is a snapshot taken at the start of a cycle.
type Listing map[string]int64

// Has reports whether name was present when the listing was taken.
func (l Listing) Has(name string) bool {
	_, ok := l[name]
	return ok
}

// Clone returns an independent copy of l.
func (l Listing) Clone() Listing {
	out := make(Listing, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Gateway is the capability surface of a tabular spreadsheet store. Tables
// are addressed by name and ranges in A1 notation without the table prefix
// (for example "A2:P").
//
// Every method except Exists returns errors wrapping ErrIO on transport or
// API failure. Exists is best effort: any failure reads as "not found".
type Gateway interface {
	// Exists reports whether a table with the given name exists.
	Exists(ctx context.Context, table string) bool

	// Create adds an empty table.
	Create(ctx context.Context, table string) error

	// ReadRange returns the populated rows of rng. Trailing empty cells of
	// each row and trailing empty rows are dropped; an empty range returns
	// nil.
	ReadRange(ctx context.Context, table, rng string) ([]Row, error)

	// WriteRange clears rng and then writes rows starting at its top-left
	// cell. The two steps are not atomic.
	WriteRange(ctx context.Context, table, rng string, rows []Row) error

	// ClearRange empties every cell of rng.
	ClearRange(ctx context.Context, table, rng string) error

	// ListTables returns every table name with its id.
	ListTables(ctx context.Context) (Listing, error)

	// DeleteTables removes the tables with the given ids in one batch.
	// An empty slice is a no-op.
	DeleteTables(ctx context.Context, ids []int64) error
}

// Fixed table names and the per-investment entries prefix.
const (
	InvestmentsTable   = "Investments List"
	ForecastsTable     = "Forecasts"
	EntriesTablePrefix = "Investment entries - "
)
