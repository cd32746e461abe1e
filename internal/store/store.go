// Package store reads and writes the investment domain as a set of tables
// behind a Gateway.
//
// A write cycle overwrites every table it owns and then deletes every table
// it did not touch, except those on the allow-list. Cycles are not atomic:
// a failure part way leaves earlier tables written and later ones stale, and
// the next successful cycle converges the store again.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/investtrack/internal/codec"
	"github.com/mesh-intelligence/investtrack/internal/tables"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Ranges of each table. Reads skip the header row; writes include it.
const (
	investmentsReadRange  = "A2:P"
	investmentsWriteRange = "A1:P"
	entriesReadRange      = "A2:P"
	entriesWriteRange     = "A1:P"
	forecastsReadRange    = "A2:H"
	forecastsWriteRange   = "A1:H"
)

// Store is the persistence adapter for one spreadsheet. A mutex serializes
// whole cycles; concurrent writers from other processes are not detected.
type Store struct {
	mu        sync.Mutex
	gw        types.Gateway
	allowlist []string
	logger    *zap.Logger
	now       func() time.Time
	seq       *Sequence

	investments codec.InvestmentCodec
	entries     codec.EntryCodec
	forecasts   codec.ForecastCodec
}

// Option configures a Store.
type Option func(*Store)

// WithAllowlist names tables that write cycles never delete.
func WithAllowlist(names ...string) Option {
	return func(s *Store) { s.allowlist = append(s.allowlist, names...) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSequence shares an id sequence between stores.
func WithSequence(seq *Sequence) Option {
	return func(s *Store) { s.seq = seq }
}

// New returns a Store over gw.
func New(gw types.Gateway, opts ...Option) *Store {
	s := &Store{
		gw:     gw,
		logger: zap.NewNop(),
		now:    time.Now,
		seq:    NewSequence(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.forecasts = codec.ForecastCodec{Logger: s.logger}
	return s
}

// Sequence returns the id counters fed by reads.
func (s *Store) Sequence() *Sequence {
	return s.seq
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// ReadInvestments loads every investment with its entries and forecasts.
// A missing investments table is created and reads as empty. Decoding stops
// at the first empty investment row. Entries read without an id are given
// one from the sequence.
func (s *Store) ReadInvestments(ctx context.Context) ([]*types.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.cycle("read-investments")
	log.Info("reading investments")

	listing, err := s.gw.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	tm := tables.NewManager(s.gw, listing, log)

	created, err := tm.Ensure(ctx, types.InvestmentsTable, s.investments.Header())
	if err != nil {
		return nil, err
	}
	if created {
		return []*types.Investment{}, nil
	}

	rows, err := s.gw.ReadRange(ctx, types.InvestmentsTable, investmentsReadRange)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", types.InvestmentsTable, err)
	}
	log.Info("investment rows found", zap.Int("rows", len(rows)))

	investments := []*types.Investment{}
	var unassigned []*types.InvestmentEntry
	for i, row := range rows {
		d, err := s.investments.Decode(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", types.InvestmentsTable, i+2, err)
		}
		if d.EndOfData {
			log.Debug("empty investment row, ignoring the rest", zap.Int("row", i+2))
			break
		}
		inv := d.Value
		s.seq.Investments.Observe(inv.ID)

		entries, err := s.readEntries(ctx, tm, inv)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.ID == 0 {
				unassigned = append(unassigned, e)
			} else {
				s.seq.Entries.Observe(e.ID)
			}
			inv.AddEntry(e)
		}
		investments = append(investments, inv)
	}

	// Every id in the sheet is observed before any is issued.
	for _, e := range unassigned {
		e.ID = s.seq.Entries.Next()
	}

	if len(investments) == 0 {
		return investments, nil
	}
	forecasts, err := s.readForecasts(ctx, tm, log)
	if err != nil {
		return nil, err
	}
	Merge(investments, forecasts, log)

	log.Info("investments read", zap.Int("investments", len(investments)), zap.Int("forecasts", len(forecasts)))
	return investments, nil
}

// readEntries decodes the entries table of inv, creating it when missing.
// Every row up to the last populated one must be a valid entry.
func (s *Store) readEntries(ctx context.Context, tm *tables.Manager, inv *types.Investment) ([]*types.InvestmentEntry, error) {
	table := inv.EntriesTableName()
	created, err := tm.Ensure(ctx, table, s.entries.Header())
	if err != nil {
		return nil, err
	}
	if created {
		return nil, nil
	}

	rows, err := s.gw.ReadRange(ctx, table, entriesReadRange)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}
	entries := make([]*types.InvestmentEntry, 0, len(rows))
	for i, row := range rows {
		d, err := s.entries.Decode(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", table, i+2, err)
		}
		if d.EndOfData {
			return nil, fmt.Errorf("%s row %d: empty entry row: %w", table, i+2, types.ErrValidation)
		}
		entries = append(entries, d.Value)
	}
	return entries, nil
}

// readForecasts decodes the forecasts table, creating it when missing.
// Empty rows are skipped.
func (s *Store) readForecasts(ctx context.Context, tm *tables.Manager, log *zap.Logger) ([]*types.Forecast, error) {
	created, err := tm.Ensure(ctx, types.ForecastsTable, s.forecasts.Header())
	if err != nil {
		return nil, err
	}
	if created {
		return []*types.Forecast{}, nil
	}

	rows, err := s.gw.ReadRange(ctx, types.ForecastsTable, forecastsReadRange)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", types.ForecastsTable, err)
	}
	forecasts := make([]*types.Forecast, 0, len(rows))
	for i, row := range rows {
		d, err := s.forecasts.Decode(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", types.ForecastsTable, i+2, err)
		}
		if d.EndOfData {
			log.Debug("skipping empty forecast row", zap.Int("row", i+2))
			continue
		}
		s.seq.Forecasts.Observe(d.Value.ID)
		forecasts = append(forecasts, d.Value)
	}
	return forecasts, nil
}

// WriteInvestments overwrites the store with investments: the investments
// table, one entries table per investment and the forecasts table. Tables
// that were present before the cycle, were not written and are not on the
// allow-list are deleted at the end.
func (s *Store) WriteInvestments(ctx context.Context, investments []*types.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkNames(investments); err != nil {
		return err
	}

	log := s.cycle("write-investments")
	log.Info("writing investments", zap.Int("investments", len(investments)))

	listing, err := s.gw.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("listing tables: %w", err)
	}
	untouched := listing.Clone()
	for _, name := range s.allowlist {
		delete(untouched, name)
	}
	tm := tables.NewManager(s.gw, listing, log)

	if err := s.writeInvestmentsTable(ctx, tm, investments); err != nil {
		return err
	}
	delete(untouched, types.InvestmentsTable)

	for _, inv := range investments {
		table := inv.EntriesTableName()
		if err := s.writeEntries(ctx, tm, table, inv.Entries, log); err != nil {
			return err
		}
		delete(untouched, table)
	}

	var forecasts []*types.Forecast
	for _, inv := range investments {
		forecasts = append(forecasts, inv.Forecasts...)
	}
	if len(forecasts) > 0 || tm.Exists(ctx, types.ForecastsTable) {
		if err := s.writeForecasts(ctx, tm, forecasts); err != nil {
			return err
		}
	}
	delete(untouched, types.ForecastsTable)

	return s.cleanup(ctx, untouched, log)
}

func (s *Store) writeInvestmentsTable(ctx context.Context, tm *tables.Manager, investments []*types.Investment) error {
	if _, err := tm.Ensure(ctx, types.InvestmentsTable, nil); err != nil {
		return err
	}
	rows := make([]types.Row, 0, len(investments)+1)
	rows = append(rows, s.investments.Header())
	for _, inv := range investments {
		rows = append(rows, s.investments.Encode(inv))
	}
	if err := s.gw.WriteRange(ctx, types.InvestmentsTable, investmentsWriteRange, rows); err != nil {
		return fmt.Errorf("writing %s: %w", types.InvestmentsTable, err)
	}
	return nil
}

// writeEntries overwrites one entries table, or clears its data rows when
// there are no entries.
func (s *Store) writeEntries(ctx context.Context, tm *tables.Manager, table string, entries []*types.InvestmentEntry, log *zap.Logger) error {
	if _, err := tm.Ensure(ctx, table, s.entries.Header()); err != nil {
		return err
	}
	if len(entries) == 0 {
		log.Info("no entries, clearing table", zap.String("table", table))
		if err := s.gw.ClearRange(ctx, table, entriesReadRange); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
		return nil
	}

	rows := make([]types.Row, 0, len(entries)+1)
	rows = append(rows, s.entries.Header())
	for _, e := range entries {
		rows = append(rows, s.entries.Encode(e))
	}
	if err := s.gw.WriteRange(ctx, table, entriesWriteRange, rows); err != nil {
		return fmt.Errorf("writing %s: %w", table, err)
	}
	return nil
}

func (s *Store) writeForecasts(ctx context.Context, tm *tables.Manager, forecasts []*types.Forecast) error {
	if _, err := tm.Ensure(ctx, types.ForecastsTable, nil); err != nil {
		return err
	}
	rows := make([]types.Row, 0, len(forecasts)+1)
	rows = append(rows, s.forecasts.Header())
	for _, f := range forecasts {
		rows = append(rows, s.forecasts.Encode(f))
	}
	if err := s.gw.WriteRange(ctx, types.ForecastsTable, forecastsWriteRange, rows); err != nil {
		return fmt.Errorf("writing %s: %w", types.ForecastsTable, err)
	}
	return nil
}

// cleanup deletes the untouched tables in one batch.
func (s *Store) cleanup(ctx context.Context, untouched types.Listing, log *zap.Logger) error {
	if len(untouched) == 0 {
		return nil
	}
	names := make([]string, 0, len(untouched))
	for name := range untouched {
		names = append(names, name)
	}
	sort.Strings(names)
	ids := make([]int64, len(names))
	for i, name := range names {
		ids[i] = untouched[name]
	}

	log.Info("deleting untouched tables", zap.Strings("tables", names))
	if err := s.gw.DeleteTables(ctx, ids); err != nil {
		return fmt.Errorf("deleting untouched tables: %w", err)
	}
	return nil
}

// ReadForecasts loads the forecasts table on its own, creating it when
// missing.
func (s *Store) ReadForecasts(ctx context.Context) ([]*types.Forecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.cycle("read-forecasts")
	return s.readForecasts(ctx, tables.NewManager(s.gw, nil, log), log)
}

// WriteForecasts overwrites the forecasts table with forecasts. Other tables
// are left alone.
func (s *Store) WriteForecasts(ctx context.Context, forecasts []*types.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.cycle("write-forecasts")
	log.Info("writing forecasts", zap.Int("forecasts", len(forecasts)))
	return s.writeForecasts(ctx, tables.NewManager(s.gw, nil, log), forecasts)
}

// cycle returns a logger tagged with a fresh correlation id.
func (s *Store) cycle(op string) *zap.Logger {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return s.logger.With(zap.String("cycle", id.String()), zap.String("op", op))
}

// checkNames rejects investments that would share an entries table.
func checkNames(investments []*types.Investment) error {
	seen := make(map[string]bool, len(investments))
	for _, inv := range investments {
		if seen[inv.Name] {
			return fmt.Errorf("%w: %q", types.ErrDuplicateName, inv.Name)
		}
		seen[inv.Name] = true
	}
	return nil
}
