package sqlite

// Schema DDL. A workbook is a set of named sheets; each sheet stores only
// its populated cells. Cell values are JSON so strings, numbers and
// booleans keep their type.
const (
	createSheets = `CREATE TABLE IF NOT EXISTS sheets (
    sheet_id INTEGER PRIMARY KEY,
    title TEXT NOT NULL UNIQUE
);`

	createCells = `CREATE TABLE IF NOT EXISTS cells (
    sheet_id INTEGER NOT NULL,
    row_idx INTEGER NOT NULL,
    col_idx INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (sheet_id, row_idx, col_idx)
);`
)

// schemaDDL lists all statements run on attach, in order.
var schemaDDL = []string{
	createSheets,
	createCells,
}
