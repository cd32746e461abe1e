package codec

import (
	"fmt"

	"github.com/mesh-intelligence/investtrack/internal/coerce"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Entries table columns.
const (
	entryColID = iota
	entryColDate
	entryColInitial
	entryColReinvested
	entryColProfitability
	entryColComments
)

var entryHeader = types.Row{
	"Entry ID",
	"Date",
	"Initial Invested Amount",
	"Reinvested Amount",
	"Profitability",
	"Comments",
}

// EntryCodec encodes rows of a per-investment entries table. An empty id
// cell decodes to 0, meaning "not yet assigned". Date and the three amounts
// are mandatory. Derived amounts are never read from the sheet; they are
// recomputed from the inputs.
type EntryCodec struct{}

var _ Codec[*types.InvestmentEntry] = EntryCodec{}

func (EntryCodec) Header() types.Row { return append(types.Row(nil), entryHeader...) }

func (EntryCodec) Encode(e *types.InvestmentEntry) types.Row {
	var id any = ""
	if e.ID != 0 {
		id = e.ID
	}
	return types.Row{
		id,
		coerce.FormatDateTime(&e.Date),
		e.InitialInvested(),
		e.ReinvestedAmount(),
		e.Profitability(),
		e.Comments,
	}
}

func (EntryCodec) Decode(row types.Row) (Decoded[*types.InvestmentEntry], error) {
	if isEmpty(row) {
		return End[*types.InvestmentEntry](), nil
	}
	fail := func(field string, err error) (Decoded[*types.InvestmentEntry], error) {
		return Decoded[*types.InvestmentEntry]{}, fmt.Errorf("entry %s: %w", field, err)
	}

	var id int64
	if raw := cell(row, entryColID); coerce.String(raw) != "" {
		n, err := coerce.Long(raw)
		if err != nil {
			return fail("id", err)
		}
		id = n
	}

	rawDate, err := coerce.Mandatory(cell(row, entryColDate))
	if err != nil {
		return fail("date", err)
	}
	date, err := coerce.DateTime(rawDate)
	if err != nil {
		return fail("date", err)
	}

	amounts := [3]float64{}
	parsers := [3]struct {
		field string
		col   int
		parse func(any) (float64, error)
	}{
		{"initial invested amount", entryColInitial, coerce.CurrencyDouble},
		{"reinvested amount", entryColReinvested, coerce.CurrencyDouble},
		{"profitability", entryColProfitability, coerce.PercentageDouble},
	}
	for i, p := range parsers {
		raw, err := coerce.Mandatory(cell(row, p.col))
		if err != nil {
			return fail(p.field, err)
		}
		amounts[i], err = p.parse(raw)
		if err != nil {
			return fail(p.field, err)
		}
	}

	e := &types.InvestmentEntry{
		ID:       id,
		Date:     *date,
		Comments: coerce.String(cell(row, entryColComments)),
	}
	e.SetAmounts(amounts[0], amounts[1], amounts[2])
	return Record(e), nil
}
