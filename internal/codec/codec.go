// Package codec maps domain records to and from spreadsheet rows.
//
// Each record kind has its own codec value with a fixed column order. Decode
// distinguishes three outcomes: a record, the end of populated data (an empty
// row), and an error for a row whose cells cannot be coerced.
package codec

import (
	"github.com/mesh-intelligence/investtrack/internal/coerce"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Codec converts between records of type T and rows.
type Codec[T any] interface {
	// Header returns the column titles written to the first row of a table.
	Header() types.Row

	// Encode returns the row for v, with "" in place of absent fields so
	// every row has the same length.
	Encode(v T) types.Row

	// Decode returns the record in row, or EndOfData when row is empty.
	Decode(row types.Row) (Decoded[T], error)
}

// Decoded is the result of decoding one row: either a record or the end of
// populated data.
type Decoded[T any] struct {
	Value     T
	EndOfData bool
}

// Record wraps a decoded value.
func Record[T any](v T) Decoded[T] {
	return Decoded[T]{Value: v}
}

// End signals that no more records follow.
func End[T any]() Decoded[T] {
	return Decoded[T]{EndOfData: true}
}

// cell returns row[i], or nil when the row is shorter. Spreadsheet APIs drop
// trailing empty cells, so short rows are normal.
func cell(row types.Row, i int) any {
	if i < len(row) {
		return row[i]
	}
	return nil
}

// isEmpty reports whether every cell of row is blank.
func isEmpty(row types.Row) bool {
	for _, v := range row {
		if coerce.String(v) != "" {
			return false
		}
	}
	return true
}
