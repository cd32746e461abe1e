package types

import "errors"

// Persistence error taxonomy. Callers match with errors.Is; every returned
// error carries context about the table and row involved.
var (
	// ErrIO marks a transport or API failure talking to the tabular store.
	ErrIO = errors.New("tabular store i/o failure")

	// ErrFormat marks a cell whose content matches no accepted pattern for
	// its declared type.
	ErrFormat = errors.New("malformed cell value")

	// ErrValidation marks a mandatory field that is absent or empty.
	ErrValidation = errors.New("mandatory field is missing")
)

// Domain lookup errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrUnknownScenario = errors.New("unknown forecast scenario")
	ErrDuplicateName   = errors.New("investment name already in use")
)
