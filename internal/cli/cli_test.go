package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/investtrack/pkg/sqlite"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// env holds the directories of one isolated CLI installation.
type env struct {
	t         *testing.T
	configDir string
	dataDir   string
	newLogger func(types.LogConfig) (*zap.Logger, error)
	now       func() time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	return &env{
		t:         t,
		configDir: filepath.Join(dir, "config"),
		dataDir:   filepath.Join(dir, "data"),
	}
}

// run executes one command and returns stdout, stderr and the exit code.
func (e *env) run(args ...string) (string, string, int) {
	e.t.Helper()
	root, a := newRoot()
	if e.newLogger != nil {
		a.newLogger = e.newLogger
	}
	if e.now != nil {
		a.now = e.now
	}
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := run(root, a, full, &stderr)
	return stdout.String(), stderr.String(), code
}

// mustRun fails the test unless the command exits zero.
func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, errOut, code := e.run(args...)
	require.Equal(e.t, exitSuccess, code, "args %v: %s", args, errOut)
	return out
}

func (e *env) listJSON() []*types.Investment {
	e.t.Helper()
	var invs []*types.Investment
	require.NoError(e.t, json.Unmarshal([]byte(e.mustRun("--json", "list")), &invs))
	return invs
}

func (e *env) tables() types.Listing {
	e.t.Helper()
	wb, err := sqlite.Open(types.Config{Backend: types.BackendSQLite, DataDir: e.dataDir})
	require.NoError(e.t, err)
	defer wb.Detach()
	l, err := wb.ListTables(context.Background())
	require.NoError(e.t, err)
	return l
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun("version")
	assert.Equal(t, "investtrack "+Version+"\n", out)
}

func TestInit(t *testing.T) {
	e := newEnv(t)

	out := e.mustRun("init")
	assert.Contains(t, out, "wrote config to")
	assert.Contains(t, out, "sqlite backend ready, 0 investments")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.True(t, e.tables().Has(types.InvestmentsTable))

	out = e.mustRun("init")
	assert.NotContains(t, out, "wrote config to")
}

func TestInvestmentLifecycle(t *testing.T) {
	e := newEnv(t)

	e.mustRun("investment", "add", "Fund", "--description", "index fund", "--start", "2024-01-01")
	e.mustRun("entry", "add", "Fund", "--date", "2024-02-01", "--initial", "1000", "--profitability", "5%")
	e.mustRun("entry", "add", "Fund", "--date", "2024-03-01", "--initial", "1.000,00 €", "--reinvested", "500", "--profitability", "0.1")

	invs := e.listJSON()
	require.Len(t, invs, 1)
	inv := invs[0]
	assert.Equal(t, int64(1), inv.ID)
	assert.Equal(t, "Fund", inv.Name)
	assert.Equal(t, "index fund", inv.Description)
	assert.Equal(t, "EUR", inv.Currency)
	require.Len(t, inv.Entries, 2)
	assert.Equal(t, int64(1), inv.Entries[0].ID)
	assert.Equal(t, int64(2), inv.Entries[1].ID)
	assert.InDelta(t, 1050.0, inv.Entries[0].Obtained(), 1e-9)
	assert.InDelta(t, 1500.0, inv.Entries[1].TotalInvested(), 1e-9)
	assert.InDelta(t, 150.0, inv.Entries[1].Benefit(), 1e-9)

	var sum types.Summary
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("--json", "summary")), &sum))
	assert.InDelta(t, 1500.0, sum.Invested, 1e-9)
	assert.InDelta(t, 1650.0, sum.Obtained, 1e-9)
	assert.InDelta(t, 0.1, sum.Profitability, 1e-9)

	out := e.mustRun("show", "Fund")
	assert.Contains(t, out, "Fund (#1)")
	assert.Contains(t, out, "2024-03-01")

	e.mustRun("entry", "delete", "Fund", "1")
	invs = e.listJSON()
	require.Len(t, invs[0].Entries, 1)
	assert.Equal(t, int64(2), invs[0].Entries[0].ID)

	e.mustRun("investment", "delete", "Fund")
	assert.Empty(t, e.listJSON())
	assert.False(t, e.tables().Has(types.EntriesTablePrefix+"Fund"))
}

func TestInvestmentRename(t *testing.T) {
	e := newEnv(t)
	e.mustRun("investment", "add", "Fund")
	e.mustRun("entry", "add", "Fund", "--initial", "100")

	e.mustRun("investment", "update", "Fund", "--name", "Growth", "--end", "2020-01-01")

	invs := e.listJSON()
	require.Len(t, invs, 1)
	assert.Equal(t, "Growth", invs[0].Name)
	require.NotNil(t, invs[0].End)
	require.Len(t, invs[0].Entries, 1)

	l := e.tables()
	assert.True(t, l.Has(types.EntriesTablePrefix+"Growth"))
	assert.False(t, l.Has(types.EntriesTablePrefix+"Fund"))

	var active []*types.Investment
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("--json", "list", "--active")), &active))
	assert.Empty(t, active)
}

func TestForecasts(t *testing.T) {
	e := newEnv(t)
	e.mustRun("investment", "add", "Fund")
	e.mustRun("forecast", "add", "Fund", "--name", "base", "--rate", "NEUTRAL=0.03", "--rate", "OPTIMIST=8%")

	var forecasts []*types.Forecast
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("--json", "forecast", "list")), &forecasts))
	require.Len(t, forecasts, 1)
	f := forecasts[0]
	assert.Equal(t, int64(1), f.ID)
	assert.Equal(t, int64(1), f.InvestmentID)
	assert.Equal(t, "base", f.Name)
	assert.InDelta(t, 0.03, f.Rate(types.ScenarioNeutral), 1e-9)
	assert.InDelta(t, 0.08, f.Rate(types.ScenarioOptimist), 1e-9)
	assert.Zero(t, f.Rate(types.ScenarioPessimist))

	invs := e.listJSON()
	require.Len(t, invs[0].Forecasts, 1)

	e.mustRun("forecast", "delete", "Fund", "1")
	assert.Empty(t, e.listJSON()[0].Forecasts)

	_, _, code := e.run("forecast", "add", "Fund", "--rate", "HOPEFUL=1")
	assert.Equal(t, exitUserError, code)
}

func TestExportImport(t *testing.T) {
	e := newEnv(t)
	e.mustRun("investment", "add", "Fund")
	e.mustRun("entry", "add", "Fund", "--initial", "250", "--comments", "first")
	e.mustRun("forecast", "add", "Fund", "--rate", "PESSIMIST=-0.01")

	file := filepath.Join(t.TempDir(), "backup.jsonl")
	e.mustRun("export", file)
	e.mustRun("investment", "delete", "Fund")
	require.Empty(t, e.listJSON())

	out := e.mustRun("import", file)
	assert.Contains(t, out, "imported 1 investments")

	invs := e.listJSON()
	require.Len(t, invs, 1)
	require.Len(t, invs[0].Entries, 1)
	assert.Equal(t, "first", invs[0].Entries[0].Comments)
	require.Len(t, invs[0].Forecasts, 1)
	assert.InDelta(t, -0.01, invs[0].Forecasts[0].Rate(types.ScenarioPessimist), 1e-9)
}

func TestUserErrors(t *testing.T) {
	e := newEnv(t)
	e.mustRun("investment", "add", "Fund")
	e.mustRun("investment", "add", "Bond")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"show missing", []string{"show", "Cash"}, "entity not found"},
		{"duplicate add", []string{"investment", "add", "Fund"}, "name already in use"},
		{"rename onto existing", []string{"investment", "update", "Fund", "--name", "Bond"}, "name already in use"},
		{"bad entry id", []string{"entry", "delete", "Fund", "abc"}, "invalid entry id"},
		{"missing entry", []string{"entry", "delete", "Fund", "99"}, "entity not found"},
		{"bad amount", []string{"entry", "add", "Fund", "--initial", "lots"}, "invalid amount"},
		{"bad date", []string{"entry", "add", "Fund", "--initial", "1", "--date", "yesterday"}, "invalid date"},
		{"unknown backend", []string{"--backend", "ftp", "list"}, "unknown backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := e.run(tt.args...)
			assert.Equal(t, exitUserError, code)
			assert.Contains(t, errOut, tt.wantErr)
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", errors.New("boom"), exitUserError},
		{"io", fmt.Errorf("read: %w", types.ErrIO), exitSysError},
		{"sys", sysErr(errors.New("disk")), exitSysError},
		{"user wrapping io", userErr(fmt.Errorf("x: %w", types.ErrIO)), exitUserError},
		{"not found", fmt.Errorf("x: %w", types.ErrNotFound), exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		cfg, err := loadConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, types.BackendSQLite, cfg.Backend)
		assert.Equal(t, types.RenderFormatted, cfg.Sheets.ValueRender)
		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("file values", func(t *testing.T) {
		dir := t.TempDir()
		yaml := "backend: sheets\nsheets:\n  spreadsheet_id: abc\n  credentials_file: /tmp/creds.json\nallowlist:\n  - Notes\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

		cfg, err := loadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, types.BackendSheets, cfg.Backend)
		assert.Equal(t, "abc", cfg.Sheets.SpreadsheetID)
		assert.Equal(t, "/tmp/creds.json", cfg.Sheets.CredentialsFile)
		assert.Equal(t, types.RenderFormatted, cfg.Sheets.ValueRender)
		assert.Equal(t, []string{"Notes"}, cfg.Allowlist)
	})

	t.Run("written config reads back", func(t *testing.T) {
		dir := t.TempDir()
		want := types.Config{Backend: types.BackendSQLite, DataDir: "/var/lib/investtrack"}
		written, err := writeConfigIfMissing(dir, want)
		require.NoError(t, err)
		assert.True(t, written)

		written, err = writeConfigIfMissing(dir, types.Config{Backend: types.BackendSheets})
		require.NoError(t, err)
		assert.False(t, written)

		cfg, err := loadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, want.Backend, cfg.Backend)
		assert.Equal(t, want.DataDir, cfg.DataDir)
	})
}

func TestParsers(t *testing.T) {
	amounts := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"1000.50", 1000.5},
		{"1.000,50 €", 1000.5},
		{"-20", -20},
	}
	for _, tt := range amounts {
		got, err := parseAmount(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	ratios := []struct {
		in   string
		want float64
	}{
		{"0.05", 0.05},
		{"5%", 0.05},
		{"5,5%", 0.055},
		{"-2%", -0.02},
	}
	for _, tt := range ratios {
		got, err := parseRatio(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	d, err := parseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", formatDate(d))

	d, err = parseDate("15/03/2024 10:30:00")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	d, err = parseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		want   string
	}{
		{1234.5, "USD", "$1,234.50"},
		{1234.5, "XYZ", "1234.50 XYZ"},
		{1234.5, "", "1234.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(tt.amount, tt.code), tt.code)
	}
	assert.Equal(t, "5.00%", formatRatio(0.05))
}

func TestRun_FlushesLogger(t *testing.T) {
	e := newEnv(t)
	var buf bytes.Buffer
	ws := &zapcore.BufferedWriteSyncer{WS: zapcore.AddSync(&buf), FlushInterval: time.Hour}
	defer ws.Stop()
	e.newLogger = func(types.LogConfig) (*zap.Logger, error) {
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		return zap.New(zapcore.NewCore(enc, ws, zap.InfoLevel)), nil
	}

	e.mustRun("list")
	assert.Contains(t, buf.String(), "reading investments")
}

func TestEntryUpdate(t *testing.T) {
	e := newEnv(t)
	e.mustRun("investment", "add", "Fund")
	e.mustRun("entry", "add", "Fund", "--date", "2024-02-01", "--initial", "1000", "--reinvested", "100", "--comments", "first")

	e.mustRun("entry", "update", "Fund", "1", "--profitability", "10%", "--date", "2024-02-15")

	entries := e.listJSON()[0].Entries
	require.Len(t, entries, 1)
	got := entries[0]
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "2024-02-15", formatDate(&got.Date))
	assert.InDelta(t, 1000.0, got.InitialInvested(), 1e-9)
	assert.InDelta(t, 100.0, got.ReinvestedAmount(), 1e-9)
	assert.InDelta(t, 0.1, got.Profitability(), 1e-9)
	assert.InDelta(t, 1210.0, got.Obtained(), 1e-9)
	assert.InDelta(t, 110.0, got.Benefit(), 1e-9)
	assert.Equal(t, "first", got.Comments)

	e.mustRun("entry", "update", "Fund", "1", "--initial", "2.000,00 €", "--comments", "")
	got = e.listJSON()[0].Entries[0]
	assert.InDelta(t, 2100.0, got.TotalInvested(), 1e-9)
	assert.InDelta(t, 2310.0, got.Obtained(), 1e-9)
	assert.Empty(t, got.Comments)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing entry", []string{"entry", "update", "Fund", "7", "--initial", "1"}, "entity not found"},
		{"missing investment", []string{"entry", "update", "Bond", "1"}, "entity not found"},
		{"bad id", []string{"entry", "update", "Fund", "x"}, "invalid entry id"},
		{"empty date", []string{"entry", "update", "Fund", "1", "--date", ""}, "cannot be empty"},
		{"bad ratio", []string{"entry", "update", "Fund", "1", "--profitability", "much"}, "invalid ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, code := e.run(tt.args...)
			assert.Equal(t, exitUserError, code)
			assert.Contains(t, errOut, tt.wantErr)
		})
	}
}

func TestForecastUpdate(t *testing.T) {
	e := newEnv(t)
	created := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.Local)
	updated := created.Add(48 * time.Hour)

	e.now = func() time.Time { return created }
	e.mustRun("investment", "add", "Fund")
	e.mustRun("forecast", "add", "Fund", "--name", "base", "--start", "2024-01-01",
		"--rate", "PESSIMIST=-1%", "--rate", "NEUTRAL=0.02")

	e.now = func() time.Time { return updated }
	e.mustRun("forecast", "update", "Fund", "1", "--name", "revised", "--end", "2025-01-01", "--rate", "OPTIMIST=9%")

	forecasts := e.listJSON()[0].Forecasts
	require.Len(t, forecasts, 1)
	f := forecasts[0]
	assert.Equal(t, "revised", f.Name)
	assert.Equal(t, "2024-01-01", formatDate(f.Start))
	assert.Equal(t, "2025-01-01", formatDate(f.End))
	assert.InDelta(t, -0.01, f.Rate(types.ScenarioPessimist), 1e-9)
	assert.InDelta(t, 0.02, f.Rate(types.ScenarioNeutral), 1e-9)
	assert.InDelta(t, 0.09, f.Rate(types.ScenarioOptimist), 1e-9)
	require.NotNil(t, f.CreatedAt)
	require.NotNil(t, f.UpdatedAt)
	assert.True(t, created.Equal(*f.CreatedAt), "created at %v", f.CreatedAt)
	assert.True(t, updated.Equal(*f.UpdatedAt), "updated at %v", f.UpdatedAt)

	e.mustRun("forecast", "update", "Fund", "1", "--start", "")
	assert.Nil(t, e.listJSON()[0].Forecasts[0].Start)

	_, errOut, code := e.run("forecast", "update", "Fund", "5", "--name", "x")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "entity not found")

	_, _, code = e.run("forecast", "update", "Fund", "1", "--rate", "BULLISH=1")
	assert.Equal(t, exitUserError, code)
}
