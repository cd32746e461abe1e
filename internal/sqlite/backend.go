// Package sqlite implements a local workbook gateway on SQLite. It stands in
// for a hosted spreadsheet when working offline: tables are sheets, and
// ranges behave the way the hosted store trims and bounds them.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/investtrack/internal/a1"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// DBFile is the workbook file name inside DataDir.
const DBFile = "workbook.db"

// Errors specific to the SQLite gateway. They are returned wrapped in
// types.ErrIO.
var (
	ErrAlreadyAttached = errors.New("gateway already attached")
	ErrDetached        = errors.New("gateway is detached")
)

// Gateway implements types.Gateway over a SQLite database file.
type Gateway struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

var _ types.Gateway = (*Gateway)(nil)

// NewGateway creates a gateway. It is not attached; call Attach with a
// Config to open the database.
func NewGateway() *Gateway {
	return &Gateway{}
}

// Attach opens (creating when needed) the workbook in config.DataDir.
func (g *Gateway) Attach(config types.Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.attached {
		return ErrAlreadyAttached
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFile))
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	// One connection keeps transactions and reads serialized.
	db.SetMaxOpenConns(1)

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	g.db = db
	g.config = config
	g.attached = true
	return nil
}

// Detach closes the database. It is idempotent.
func (g *Gateway) Detach() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.attached {
		return nil
	}
	if err := g.db.Close(); err != nil {
		return err
	}
	g.db = nil
	g.attached = false
	return nil
}

func (g *Gateway) Exists(ctx context.Context, table string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.attached {
		return false
	}
	_, err := sheetID(ctx, g.db, table)
	return err == nil
}

func (g *Gateway) Create(ctx context.Context, table string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(); err != nil {
		return err
	}
	if _, err := g.db.ExecContext(ctx, `INSERT INTO sheets (title) VALUES (?)`, table); err != nil {
		return ioErr("creating table "+table, err)
	}
	return nil
}

func (g *Gateway) ReadRange(ctx context.Context, table, rng string) ([]types.Row, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.check(); err != nil {
		return nil, err
	}
	r, err := a1.Parse(rng)
	if err != nil {
		return nil, ioErr("reading "+table, err)
	}
	id, err := sheetID(ctx, g.db, table)
	if err != nil {
		return nil, ioErr("reading "+table, err)
	}

	rows, err := g.db.QueryContext(ctx, `SELECT row_idx, col_idx, value FROM cells
		WHERE sheet_id = ? AND row_idx >= ? AND (? < 0 OR row_idx <= ?) AND col_idx BETWEEN ? AND ?`,
		id, r.FromRow, r.ToRow, r.ToRow, r.FromCol, r.ToCol)
	if err != nil {
		return nil, ioErr("reading "+table, err)
	}
	defer rows.Close()

	var cells []a1.Cell
	for rows.Next() {
		var c a1.Cell
		var raw string
		if err := rows.Scan(&c.Row, &c.Col, &raw); err != nil {
			return nil, ioErr("scanning "+table, err)
		}
		if c.Value, err = decodeValue(raw); err != nil {
			return nil, ioErr("decoding "+table, err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("reading "+table, err)
	}
	return a1.Rows(cells, r), nil
}

func (g *Gateway) WriteRange(ctx context.Context, table, rng string, data []types.Row) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(); err != nil {
		return err
	}
	r, err := a1.Parse(rng)
	if err != nil {
		return ioErr("writing "+table, err)
	}
	cells, err := a1.Cells(r, data)
	if err != nil {
		return ioErr("writing "+table, err)
	}

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return ioErr("writing "+table, err)
	}
	defer tx.Rollback()

	id, err := sheetID(ctx, tx, table)
	if err != nil {
		return ioErr("writing "+table, err)
	}
	if err := clearCells(ctx, tx, id, r); err != nil {
		return ioErr("clearing "+table, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cells (sheet_id, row_idx, col_idx, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return ioErr("writing "+table, err)
	}
	defer stmt.Close()
	for _, c := range cells {
		raw, err := encodeValue(c.Value)
		if err != nil {
			return ioErr("encoding "+table, err)
		}
		if _, err := stmt.ExecContext(ctx, id, c.Row, c.Col, raw); err != nil {
			return ioErr("writing "+table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ioErr("committing "+table, err)
	}
	return nil
}

func (g *Gateway) ClearRange(ctx context.Context, table, rng string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(); err != nil {
		return err
	}
	r, err := a1.Parse(rng)
	if err != nil {
		return ioErr("clearing "+table, err)
	}
	id, err := sheetID(ctx, g.db, table)
	if err != nil {
		return ioErr("clearing "+table, err)
	}
	if err := clearCells(ctx, g.db, id, r); err != nil {
		return ioErr("clearing "+table, err)
	}
	return nil
}

func (g *Gateway) ListTables(ctx context.Context) (types.Listing, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.check(); err != nil {
		return nil, err
	}
	rows, err := g.db.QueryContext(ctx, `SELECT sheet_id, title FROM sheets`)
	if err != nil {
		return nil, ioErr("listing tables", err)
	}
	defer rows.Close()

	l := make(types.Listing)
	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, ioErr("listing tables", err)
		}
		l[title] = id
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("listing tables", err)
	}
	return l, nil
}

// DeleteTables removes every table in ids in one transaction. An unknown id
// fails the whole batch.
func (g *Gateway) DeleteTables(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.check(); err != nil {
		return err
	}
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return ioErr("deleting tables", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `DELETE FROM sheets WHERE sheet_id = ?`, id)
		if err != nil {
			return ioErr("deleting tables", err)
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return ioErr("deleting tables", fmt.Errorf("no table with id %d", id))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cells WHERE sheet_id = ?`, id); err != nil {
			return ioErr("deleting tables", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return ioErr("deleting tables", err)
	}
	return nil
}

func (g *Gateway) check() error {
	if !g.attached {
		return fmt.Errorf("%w: %w", types.ErrIO, ErrDetached)
	}
	return nil
}

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func sheetID(ctx context.Context, q querier, table string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT sheet_id FROM sheets WHERE title = ?`, table).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("table %q does not exist", table)
	}
	return id, err
}

func clearCells(ctx context.Context, q querier, id int64, r a1.Range) error {
	_, err := q.ExecContext(ctx, `DELETE FROM cells
		WHERE sheet_id = ? AND row_idx >= ? AND (? < 0 OR row_idx <= ?) AND col_idx BETWEEN ? AND ?`,
		id, r.FromRow, r.ToRow, r.ToRow, r.FromCol, r.ToCol)
	return err
}

func ioErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", types.ErrIO, op, err)
}

// encodeValue stores a cell as JSON so its type survives a round trip.
func encodeValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeValue reads a stored cell. Numbers come back as float64, the way a
// hosted spreadsheet returns them.
func decodeValue(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}
