package types

import "errors"

// Config selects and parameterizes the Gateway backend behind the store.
type Config struct {
	Backend   string       `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir   string       `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Sheets    SheetsConfig `json:"sheets" yaml:"sheets" mapstructure:"sheets"`
	Allowlist []string     `json:"allowlist" yaml:"allowlist" mapstructure:"allowlist"`
	Log       LogConfig    `json:"log" yaml:"log" mapstructure:"log"`
}

// SheetsConfig holds Google Sheets settings.
type SheetsConfig struct {
	SpreadsheetID   string `json:"spreadsheet_id" yaml:"spreadsheet_id" mapstructure:"spreadsheet_id"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file" mapstructure:"credentials_file"`
	// ValueRender is FORMATTED_VALUE or UNFORMATTED_VALUE.
	ValueRender string `json:"value_render" yaml:"value_render" mapstructure:"value_render"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level             string `json:"level" yaml:"level" mapstructure:"level"`
	Encoding          string `json:"encoding" yaml:"encoding" mapstructure:"encoding"`
	Development       bool   `json:"development" yaml:"development" mapstructure:"development"`
	DisableCaller     bool   `json:"disable_caller" yaml:"disable_caller" mapstructure:"disable_caller"`
	DisableStacktrace bool   `json:"disable_stacktrace" yaml:"disable_stacktrace" mapstructure:"disable_stacktrace"`
}

// Supported backend names.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// Value render options understood by the Sheets backend.
const (
	RenderFormatted   = "FORMATTED_VALUE"
	RenderUnformatted = "UNFORMATTED_VALUE"
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSpreadsheetIDMissing = errors.New("sheets backend requires a spreadsheet id")
	ErrValueRenderUnknown   = errors.New("unknown value render option")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSheets: true,
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed and returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendSheets {
		if c.Sheets.SpreadsheetID == "" {
			return ErrSpreadsheetIDMissing
		}
		switch c.Sheets.ValueRender {
		case "", RenderFormatted, RenderUnformatted:
		default:
			return ErrValueRenderUnknown
		}
	}
	return nil
}
