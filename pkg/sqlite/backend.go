// Package sqlite exposes the SQLite workbook gateway while keeping its
// implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/investtrack/internal/sqlite"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Workbook is a gateway that holds a database handle until detached.
type Workbook interface {
	types.Gateway
	Detach() error
}

// Open attaches a SQLite workbook in config.DataDir, creating it when
// missing.
//
// Example:
//
//	wb, err := sqlite.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "~/.local/share/investtrack",
//	})
//	defer wb.Detach()
func Open(config types.Config) (Workbook, error) {
	g := sqlite.NewGateway()
	if err := g.Attach(config); err != nil {
		return nil, err
	}
	return g, nil
}
