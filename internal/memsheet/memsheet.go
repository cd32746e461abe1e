// Package memsheet is an in-memory spreadsheet gateway. It backs tests and
// dry runs, records every call it receives, and can be told to fail
// specific operations.
package memsheet

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mesh-intelligence/investtrack/internal/a1"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Operation names used in the call log and for fault injection.
const (
	OpExists       = "exists"
	OpCreate       = "create"
	OpReadRange    = "read"
	OpWriteRange   = "write"
	OpClearRange   = "clear"
	OpListTables   = "list"
	OpDeleteTables = "delete"
)

// Call is one recorded gateway call.
type Call struct {
	Op    string
	Table string
	Range string
}

// Workbook implements types.Gateway over maps held in memory.
type Workbook struct {
	mu     sync.Mutex
	nextID int64
	sheets map[string]*sheet
	calls  []Call
	faults map[string]error
}

type sheet struct {
	id    int64
	cells map[[2]int]any
}

var _ types.Gateway = (*Workbook)(nil)

// New returns an empty workbook.
func New() *Workbook {
	return &Workbook{
		sheets: make(map[string]*sheet),
		faults: make(map[string]error),
	}
}

// FailOn makes every later call of op return err wrapped in types.ErrIO.
// Exists reports false instead of failing. A nil err clears the fault.
func (w *Workbook) FailOn(op string, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err == nil {
		delete(w.faults, op)
		return
	}
	w.faults[op] = err
}

// Calls returns a copy of the call log.
func (w *Workbook) Calls() []Call {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Call(nil), w.calls...)
}

// ResetCalls empties the call log.
func (w *Workbook) ResetCalls() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = nil
}

// Tables returns the names of every table, sorted.
func (w *Workbook) Tables() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.sheets))
	for name := range w.sheets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Put writes rows at rng of table without logging the call, creating the
// table when needed. It seeds fixtures in tests.
func (w *Workbook) Put(table, rng string, rows ...types.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sheets[table]
	if !ok {
		s = w.addSheetLocked(table)
	}
	return s.write(rng, rows)
}

// record logs a call and returns the injected fault for op, if any.
func (w *Workbook) record(op, table, rng string) error {
	w.calls = append(w.calls, Call{Op: op, Table: table, Range: rng})
	if err, ok := w.faults[op]; ok {
		return fmt.Errorf("%w: %s %s: %v", types.ErrIO, op, table, err)
	}
	return nil
}

func (w *Workbook) addSheetLocked(table string) *sheet {
	s := &sheet{id: w.nextID, cells: make(map[[2]int]any)}
	w.nextID++
	w.sheets[table] = s
	return s
}

func (w *Workbook) Exists(_ context.Context, table string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.record(OpExists, table, ""); err != nil {
		return false
	}
	_, ok := w.sheets[table]
	return ok
}

func (w *Workbook) Create(_ context.Context, table string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.record(OpCreate, table, ""); err != nil {
		return err
	}
	if _, ok := w.sheets[table]; ok {
		return fmt.Errorf("%w: creating %s: table already exists", types.ErrIO, table)
	}
	w.addSheetLocked(table)
	return nil
}

func (w *Workbook) ReadRange(_ context.Context, table, rng string) ([]types.Row, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.record(OpReadRange, table, rng); err != nil {
		return nil, err
	}
	s, err := w.lookup(table)
	if err != nil {
		return nil, err
	}
	r, err := a1.Parse(rng)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", types.ErrIO, table, err)
	}
	return a1.Rows(s.list(), r), nil
}

func (w *Workbook) WriteRange(_ context.Context, table, rng string, rows []types.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.record(OpWriteRange, table, rng); err != nil {
		return err
	}
	s, err := w.lookup(table)
	if err != nil {
		return err
	}
	if err := s.write(rng, rows); err != nil {
		return fmt.Errorf("%w: writing %s: %v", types.ErrIO, table, err)
	}
	return nil
}

func (w *Workbook) ClearRange(_ context.Context, table, rng string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.record(OpClearRange, table, rng); err != nil {
		return err
	}
	s, err := w.lookup(table)
	if err != nil {
		return err
	}
	r, err := a1.Parse(rng)
	if err != nil {
		return fmt.Errorf("%w: clearing %s: %v", types.ErrIO, table, err)
	}
	s.clear(r)
	return nil
}

func (w *Workbook) ListTables(_ context.Context) (types.Listing, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.record(OpListTables, "", ""); err != nil {
		return nil, err
	}
	l := make(types.Listing, len(w.sheets))
	for name, s := range w.sheets {
		l[name] = s.id
	}
	return l, nil
}

func (w *Workbook) DeleteTables(_ context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.record(OpDeleteTables, "", fmt.Sprint(ids)); err != nil {
		return err
	}
	// The batch is all or nothing.
	byID := make(map[int64]string, len(w.sheets))
	for name, s := range w.sheets {
		byID[s.id] = name
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: deleting tables: no table with id %d", types.ErrIO, id)
		}
	}
	for _, id := range ids {
		delete(w.sheets, byID[id])
	}
	return nil
}

func (w *Workbook) lookup(table string) (*sheet, error) {
	s, ok := w.sheets[table]
	if !ok {
		return nil, fmt.Errorf("%w: table %q does not exist", types.ErrIO, table)
	}
	return s, nil
}

func (s *sheet) list() []a1.Cell {
	cells := make([]a1.Cell, 0, len(s.cells))
	for k, v := range s.cells {
		cells = append(cells, a1.Cell{Row: k[0], Col: k[1], Value: v})
	}
	return cells
}

func (s *sheet) clear(r a1.Range) {
	for k := range s.cells {
		if r.Contains(k[0], k[1]) {
			delete(s.cells, k)
		}
	}
}

// write clears rng and places rows at its top-left cell.
func (s *sheet) write(rng string, rows []types.Row) error {
	r, err := a1.Parse(rng)
	if err != nil {
		return err
	}
	cells, err := a1.Cells(r, rows)
	if err != nil {
		return err
	}
	s.clear(r)
	for _, c := range cells {
		s.cells[[2]int{c.Row, c.Col}] = c.Value
	}
	return nil
}
