// Shared helpers for investtrack commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/investtrack/internal/coerce"
	"github.com/mesh-intelligence/investtrack/internal/sheets"
	"github.com/mesh-intelligence/investtrack/internal/store"
	"github.com/mesh-intelligence/investtrack/pkg/sqlite"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// dateLayout is the form dates are given in on the command line.
const dateLayout = "2006-01-02"

// openStore builds the configured gateway and a Store over it. The returned
// close function releases the gateway and must be called.
func (a *app) openStore(ctx context.Context) (*store.Store, func(), error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, userErr(fmt.Errorf("invalid config: %w", err))
	}

	var (
		gw      types.Gateway
		closeFn = func() {}
	)
	switch a.cfg.Backend {
	case types.BackendSheets:
		g, err := sheets.NewFromCredentialsFile(ctx, a.cfg.Sheets, a.logger)
		if err != nil {
			return nil, nil, sysErr(fmt.Errorf("connect sheets: %w", err))
		}
		gw = g
	case types.BackendSQLite:
		wb, err := sqlite.Open(a.cfg)
		if err != nil {
			return nil, nil, sysErr(fmt.Errorf("attach sqlite: %w", err))
		}
		gw = wb
		closeFn = func() {
			if err := wb.Detach(); err != nil {
				a.logger.Warn("detach sqlite", zap.Error(err))
			}
		}
	}

	s := store.New(gw,
		store.WithAllowlist(allowlist(a.cfg.Allowlist)...),
		store.WithLogger(a.logger),
		store.WithClock(a.now),
	)
	return s, closeFn, nil
}

// allowlist drops blank names and surrounding spaces.
func allowlist(names []string) []string {
	var out []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// withInvestments reads every investment and passes them to fn.
func (a *app) withInvestments(ctx context.Context, fn func(s *store.Store, invs []*types.Investment) error) error {
	s, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	invs, err := s.ReadInvestments(ctx)
	if err != nil {
		return fmt.Errorf("read investments: %w", err)
	}
	return fn(s, invs)
}

// mutate reads every investment, lets fn change the slice and writes the
// result back in one cycle.
func (a *app) mutate(ctx context.Context, fn func(s *store.Store, invs []*types.Investment) ([]*types.Investment, error)) error {
	return a.withInvestments(ctx, func(s *store.Store, invs []*types.Investment) error {
		out, err := fn(s, invs)
		if err != nil {
			return err
		}
		if err := s.WriteInvestments(ctx, out); err != nil {
			return fmt.Errorf("write investments: %w", err)
		}
		return nil
	})
}

// findInvestment returns the investment named name.
func findInvestment(invs []*types.Investment, name string) (*types.Investment, error) {
	for _, inv := range invs {
		if inv.Name == name {
			return inv, nil
		}
	}
	return nil, fmt.Errorf("investment %q: %w", name, types.ErrNotFound)
}

// parseDate accepts yyyy-mm-dd or the cell timestamp format. An empty
// string is no date.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, coerce.Location); err == nil {
		return &t, nil
	}
	t, err := coerce.DateTime(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (expected %s or %s)", s, dateLayout, coerce.DateTimeLayout)
	}
	return t, nil
}

// parseAmount accepts a plain number ("1000.50") or locale currency text
// ("1.000,50 €").
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, nil
	}
	f, err := coerce.CurrencyDouble(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return f, nil
}

// parseRatio accepts a fraction ("0.05") or a percentage ("5%", "5,5%").
func parseRatio(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if !strings.Contains(s, "%") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
	}
	f, err := coerce.PercentageDouble(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ratio %q", s)
	}
	return f, nil
}

// formatMoney renders amount in the currency named code. Unknown codes fall
// back to two decimals followed by the code.
func formatMoney(amount float64, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		if code == "" {
			return decimal.NewFromFloat(amount).StringFixed(2)
		}
		return decimal.NewFromFloat(amount).StringFixed(2) + " " + code
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

// formatRatio renders a fraction as a percentage with two decimals.
func formatRatio(r float64) string {
	return decimal.NewFromFloat(r).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// formatDate renders t as yyyy-mm-dd, or "-" when absent.
func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(coerce.Location).Format(dateLayout)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
