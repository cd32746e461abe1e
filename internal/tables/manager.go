// Package tables tracks which tables exist during one operation cycle and
// creates missing ones on demand.
package tables

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/investtrack/internal/a1"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

type state int

const (
	stateUnknown state = iota
	stateExists
	stateAbsent
)

// Manager caches table existence for one cycle. Build a new Manager per
// cycle; it is not safe for concurrent use.
type Manager struct {
	gw      types.Gateway
	listing types.Listing
	states  map[string]state
	logger  *zap.Logger
}

// NewManager returns a manager over gw. When listing is non-nil it is
// trusted as the set of existing tables; otherwise each table is probed once
// with Gateway.Exists.
func NewManager(gw types.Gateway, listing types.Listing, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		gw:      gw,
		listing: listing,
		states:  make(map[string]state),
		logger:  logger,
	}
}

// Exists reports whether table exists, resolving its state on first use.
func (m *Manager) Exists(ctx context.Context, table string) bool {
	switch m.states[table] {
	case stateExists:
		return true
	case stateAbsent:
		return false
	}

	var ok bool
	if m.listing != nil {
		ok = m.listing.Has(table)
	} else {
		ok = m.gw.Exists(ctx, table)
	}
	if ok {
		m.states[table] = stateExists
	} else {
		m.states[table] = stateAbsent
	}
	return ok
}

// Ensure creates table when it does not exist and writes header to its
// first row. created is true only when this call created the table, which
// tells readers there is nothing to read. Calling Ensure again for the same
// table in the cycle is a no-op.
func (m *Manager) Ensure(ctx context.Context, table string, header types.Row) (created bool, err error) {
	if m.Exists(ctx, table) {
		return false, nil
	}

	if err := m.gw.Create(ctx, table); err != nil {
		return false, fmt.Errorf("creating table %q: %w", table, err)
	}
	m.states[table] = stateExists
	m.logger.Info("table created", zap.String("table", table))

	if len(header) > 0 {
		rng := a1.RowRange(0, len(header))
		if err := m.gw.WriteRange(ctx, table, rng, []types.Row{header}); err != nil {
			return true, fmt.Errorf("writing header of %q: %w", table, err)
		}
	}
	return true, nil
}
