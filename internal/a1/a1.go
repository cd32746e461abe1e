// Package a1 parses A1-notation ranges and maps rows onto cell grids.
//
// Gateways that emulate a spreadsheet locally share this code so they trim
// and bound ranges the way a hosted spreadsheet does.
package a1

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// ErrRange marks a range string that is not valid A1 notation, or a write
// that does not fit its range.
var ErrRange = errors.New("invalid range")

// Open marks an unbounded end row.
const Open = -1

// Range is a zero-based rectangle. ToRow is Open for ranges such as "A2:P".
type Range struct {
	FromCol, FromRow int
	ToCol, ToRow     int
}

// Cell is one populated cell at zero-based coordinates.
type Cell struct {
	Row, Col int
	Value    any
}

// Parse reads "A2:P", "A1:H10" or a single cell such as "B3".
func Parse(s string) (Range, error) {
	from, to, found := strings.Cut(strings.TrimSpace(s), ":")
	fc, fr, err := parseRef(from)
	if err != nil || fc < 0 {
		return Range{}, fmt.Errorf("%w: %q", ErrRange, s)
	}
	if fr < 0 {
		fr = 0
	}
	if !found {
		return Range{FromCol: fc, FromRow: fr, ToCol: fc, ToRow: fr}, nil
	}
	tc, tr, err := parseRef(to)
	if err != nil || tc < fc || (tr != Open && tr < fr) {
		return Range{}, fmt.Errorf("%w: %q", ErrRange, s)
	}
	return Range{FromCol: fc, FromRow: fr, ToCol: tc, ToRow: tr}, nil
}

// parseRef splits "AB12" into column 27 and row 11. A missing part is -1.
func parseRef(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	letters, digits := ref[:i], ref[i:]
	if letters == "" && digits == "" {
		return 0, 0, ErrRange
	}

	col = -1
	if letters != "" {
		col = 0
		for _, c := range letters {
			col = col*26 + int(c-'A'+1)
		}
		col--
	}

	row = Open
	if digits != "" {
		n, err := strconv.Atoi(digits)
		if err != nil || n < 1 {
			return 0, 0, ErrRange
		}
		row = n - 1
	}
	return col, row, nil
}

// Contains reports whether the zero-based cell lies inside r.
func (r Range) Contains(row, col int) bool {
	return row >= r.FromRow && (r.ToRow == Open || row <= r.ToRow) &&
		col >= r.FromCol && col <= r.ToCol
}

// Blank reports whether a cell value counts as empty.
func Blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// Rows assembles cells inside r into rows anchored at r's top-left corner.
// Trailing blank cells of each row and trailing blank rows are dropped, so a
// range with no populated cells returns nil. Blank rows between populated
// ones are returned as empty rows.
func Rows(cells []Cell, r Range) []types.Row {
	byRow := make(map[int][]Cell)
	last := -1
	for _, c := range cells {
		if Blank(c.Value) || !r.Contains(c.Row, c.Col) {
			continue
		}
		byRow[c.Row] = append(byRow[c.Row], c)
		if c.Row > last {
			last = c.Row
		}
	}
	if last < 0 {
		return nil
	}

	rows := make([]types.Row, 0, last-r.FromRow+1)
	for ri := r.FromRow; ri <= last; ri++ {
		rc := byRow[ri]
		sort.Slice(rc, func(i, j int) bool { return rc[i].Col < rc[j].Col })
		var row types.Row
		if len(rc) > 0 {
			row = make(types.Row, rc[len(rc)-1].Col-r.FromCol+1)
			for i := range row {
				row[i] = ""
			}
			for _, c := range rc {
				row[c.Col-r.FromCol] = c.Value
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Cells places rows at r's top-left corner and returns the populated cells.
// Rows or cells that fall outside r are an error.
func Cells(r Range, rows []types.Row) ([]Cell, error) {
	var cells []Cell
	for i, row := range rows {
		ri := r.FromRow + i
		for j, v := range row {
			ci := r.FromCol + j
			if !r.Contains(ri, ci) {
				return nil, fmt.Errorf("%w: cell at row %d column %d is outside the range", ErrRange, ri+1, ci+1)
			}
			if Blank(v) {
				continue
			}
			cells = append(cells, Cell{Row: ri, Col: ci, Value: v})
		}
	}
	return cells, nil
}

// Quote prefixes rng with the table name in the form the Sheets API expects:
// 'Name'!A2:P, with embedded quotes doubled.
func Quote(table, rng string) string {
	return "'" + strings.ReplaceAll(table, "'", "''") + "'!" + rng
}

// ColumnName returns the letters of the zero-based column index: 0 is "A",
// 26 is "AA".
func ColumnName(col int) string {
	var b []byte
	for col >= 0 {
		b = append([]byte{byte('A' + col%26)}, b...)
		col = col/26 - 1
	}
	return string(b)
}

// RowRange returns the range covering width cells of the zero-based row,
// for example "A1:J1".
func RowRange(row, width int) string {
	n := strconv.Itoa(row + 1)
	return "A" + n + ":" + ColumnName(width-1) + n
}
