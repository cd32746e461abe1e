package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/investtrack/pkg/types"
)

func setupGateway(t *testing.T) (*Gateway, string) {
	t.Helper()
	dir := t.TempDir()
	g := NewGateway()
	require.NoError(t, g.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { g.Detach() })
	return g, dir
}

func TestGateway_Attach(t *testing.T) {
	g, dir := setupGateway(t)

	_, err := os.Stat(filepath.Join(dir, DBFile))
	assert.NoError(t, err, "workbook file not created")

	err = g.Attach(types.Config{DataDir: dir})
	assert.ErrorIs(t, err, ErrAlreadyAttached)
}

func TestGateway_Detach(t *testing.T) {
	g, _ := setupGateway(t)

	require.NoError(t, g.Detach())
	assert.NoError(t, g.Detach(), "second Detach should not error")

	_, err := g.ListTables(context.Background())
	assert.ErrorIs(t, err, types.ErrIO)
	assert.ErrorIs(t, err, ErrDetached)
	assert.False(t, g.Exists(context.Background(), "anything"))
}

func TestGateway_CreateExistsList(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGateway(t)

	assert.False(t, g.Exists(ctx, types.InvestmentsTable))
	require.NoError(t, g.Create(ctx, types.InvestmentsTable))
	require.NoError(t, g.Create(ctx, types.ForecastsTable))
	assert.True(t, g.Exists(ctx, types.InvestmentsTable))

	assert.ErrorIs(t, g.Create(ctx, types.InvestmentsTable), types.ErrIO)

	l, err := g.ListTables(ctx)
	require.NoError(t, err)
	assert.Len(t, l, 2)
	assert.True(t, l.Has(types.InvestmentsTable))
	assert.True(t, l.Has(types.ForecastsTable))
	assert.NotEqual(t, l[types.InvestmentsTable], l[types.ForecastsTable])
}

func TestGateway_WriteRead(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGateway(t)
	require.NoError(t, g.Create(ctx, "T"))

	require.NoError(t, g.WriteRange(ctx, "T", "A1:D", []types.Row{
		{"id", "name", "amount", "flag"},
		{int64(1), "a", 10.5, true},
		{},
		{int64(2), "b", "", false},
	}))

	rows, err := g.ReadRange(ctx, "T", "A2:D")
	require.NoError(t, err)
	assert.Equal(t, []types.Row{
		{1.0, "a", 10.5, true},
		nil,
		{2.0, "b", "", false},
	}, rows)

	rows, err = g.ReadRange(ctx, "T", "B1:B")
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"name"}, {"a"}, nil, {"b"}}, rows)
}

func TestGateway_WriteReplacesRange(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGateway(t)
	require.NoError(t, g.Create(ctx, "T"))

	require.NoError(t, g.WriteRange(ctx, "T", "A1:B", []types.Row{{"h"}, {"1", "x"}, {"2", "y"}}))
	require.NoError(t, g.WriteRange(ctx, "T", "A1:B", []types.Row{{"h"}}))

	rows, err := g.ReadRange(ctx, "T", "A1:B")
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"h"}}, rows)
}

func TestGateway_WriteRejected(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGateway(t)

	assert.ErrorIs(t, g.WriteRange(ctx, "missing", "A1:B", []types.Row{{"x"}}), types.ErrIO)

	require.NoError(t, g.Create(ctx, "T"))
	assert.ErrorIs(t, g.WriteRange(ctx, "T", "A1:A", []types.Row{{"x", "y"}}), types.ErrIO)
	assert.ErrorIs(t, g.WriteRange(ctx, "T", "not a range", nil), types.ErrIO)
}

func TestGateway_Clear(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGateway(t)
	require.NoError(t, g.Create(ctx, "T"))
	require.NoError(t, g.WriteRange(ctx, "T", "A1:C", []types.Row{{"a", "b", "c"}, {"d", "e", "f"}}))

	require.NoError(t, g.ClearRange(ctx, "T", "B2:C"))
	rows, err := g.ReadRange(ctx, "T", "A1:C")
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"a", "b", "c"}, {"d"}}, rows)
}

func TestGateway_DeleteTables(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGateway(t)
	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, g.Create(ctx, name))
	}
	require.NoError(t, g.WriteRange(ctx, "A", "A1:A", []types.Row{{"x"}}))
	l, err := g.ListTables(ctx)
	require.NoError(t, err)

	require.NoError(t, g.DeleteTables(ctx, nil))

	err = g.DeleteTables(ctx, []int64{l["A"], 9999})
	assert.ErrorIs(t, err, types.ErrIO)
	assert.True(t, g.Exists(ctx, "A"), "failed batch must not delete anything")

	require.NoError(t, g.DeleteTables(ctx, []int64{l["A"], l["C"]}))
	after, err := g.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Listing{"B": l["B"]}, after)

	// A table recreated under the same name starts empty.
	require.NoError(t, g.Create(ctx, "A"))
	rows, err := g.ReadRange(ctx, "A", "A1:A")
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestGateway_Persists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	g := NewGateway()
	require.NoError(t, g.Attach(cfg))
	require.NoError(t, g.Create(ctx, "T"))
	require.NoError(t, g.WriteRange(ctx, "T", "A1:A", []types.Row{{"kept"}}))
	require.NoError(t, g.Detach())

	g2 := NewGateway()
	require.NoError(t, g2.Attach(cfg))
	defer g2.Detach()
	rows, err := g2.ReadRange(ctx, "T", "A1:A")
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"kept"}}, rows)
}

func TestEncodeDecodeValue(t *testing.T) {
	for _, v := range []any{"3.147,21 €", 12.5, true, "", "line\nbreak"} {
		raw, err := encodeValue(v)
		require.NoError(t, err)
		got, err := decodeValue(raw)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	_, err := decodeValue("{")
	assert.Error(t, err)
}
