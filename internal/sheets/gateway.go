// Package sheets implements the gateway against a hosted Google Sheets
// spreadsheet. Each table is one sheet of the spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mesh-intelligence/investtrack/internal/a1"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// ValueInputRaw stores written values as given, without parsing them the
// way the spreadsheet UI would.
const ValueInputRaw = "RAW"

// Gateway implements types.Gateway with the Sheets v4 API.
type Gateway struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	render        string
	logger        *zap.Logger
}

var _ types.Gateway = (*Gateway)(nil)

// New builds a gateway for cfg.SpreadsheetID. opts configure transport and
// credentials; pass option.WithCredentials or option.WithHTTPClient.
func New(ctx context.Context, cfg types.SheetsConfig, logger *zap.Logger, opts ...option.ClientOption) (*Gateway, error) {
	if cfg.SpreadsheetID == "" {
		return nil, types.ErrSpreadsheetIDMissing
	}
	render := cfg.ValueRender
	if render == "" {
		render = types.RenderFormatted
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	return &Gateway{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		render:        render,
		logger:        logger.Named("sheets"),
	}, nil
}

// NewFromCredentialsFile reads a service account or authorized user JSON
// file and builds a gateway scoped to spreadsheets.
func NewFromCredentialsFile(ctx context.Context, cfg types.SheetsConfig, logger *zap.Logger) (*Gateway, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return New(ctx, cfg, logger, option.WithCredentials(creds))
}

// Exists reports false on any API failure.
func (g *Gateway) Exists(ctx context.Context, table string) bool {
	l, err := g.ListTables(ctx)
	if err != nil {
		g.logger.Debug("table lookup failed", zap.String("table", table), zap.Error(err))
		return false
	}
	return l.Has(table)
}

func (g *Gateway) Create(ctx context.Context, table string) error {
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: table},
			},
		}},
	}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return ioErr("creating table "+table, err)
	}
	g.logger.Debug("table created", zap.String("table", table))
	return nil
}

func (g *Gateway) ReadRange(ctx context.Context, table, rng string) ([]types.Row, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, a1.Quote(table, rng)).
		ValueRenderOption(g.render).
		Context(ctx).
		Do()
	if err != nil {
		return nil, ioErr("reading "+table, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	rows := make([]types.Row, len(resp.Values))
	for i, v := range resp.Values {
		rows[i] = types.Row(v)
	}
	g.logger.Debug("range read", zap.String("table", table), zap.String("range", rng), zap.Int("rows", len(rows)))
	return rows, nil
}

func (g *Gateway) WriteRange(ctx context.Context, table, rng string, rows []types.Row) error {
	if err := g.ClearRange(ctx, table, rng); err != nil {
		return err
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = []any(r)
	}
	vr := &sheetsapi.ValueRange{Values: values}
	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, a1.Quote(table, rng), vr).
		ValueInputOption(ValueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return ioErr("writing "+table, err)
	}
	g.logger.Debug("range written", zap.String("table", table), zap.String("range", rng), zap.Int("rows", len(rows)))
	return nil
}

func (g *Gateway) ClearRange(ctx context.Context, table, rng string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, a1.Quote(table, rng), &sheetsapi.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return ioErr("clearing "+table, err)
	}
	return nil
}

func (g *Gateway) ListTables(ctx context.Context) (types.Listing, error) {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, ioErr("listing tables", err)
	}
	l := make(types.Listing, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		l[s.Properties.Title] = s.Properties.SheetId
	}
	return l, nil
}

func (g *Gateway) DeleteTables(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	reqs := make([]*sheetsapi.Request, len(ids))
	for i, id := range ids {
		// Sheet id 0 is valid and must not be dropped as an empty field.
		reqs[i] = &sheetsapi.Request{
			DeleteSheet: &sheetsapi.DeleteSheetRequest{SheetId: id, ForceSendFields: []string{"SheetId"}},
		}
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{Requests: reqs}
	if _, err := g.svc.Spreadsheets.BatchUpdate(g.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return ioErr("deleting tables", err)
	}
	g.logger.Debug("tables deleted", zap.Int64s("ids", ids))
	return nil
}

func ioErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", types.ErrIO, op, err)
}
