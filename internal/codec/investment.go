package codec

import (
	"fmt"

	"github.com/mesh-intelligence/investtrack/internal/coerce"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Investment list columns.
const (
	invColID = iota
	invColName
	invColDescription
	invColCurrency
	invColStart
	invColEnd
	invColReinvested
	invColInitialAmount
	invColReinvestedAmount
	invColProfitability
)

var investmentHeader = types.Row{
	"Investment ID",
	"Name",
	"Description",
	"Currency",
	"Start Date",
	"End Date",
	"Reinvested",
	"Initial Invested Amount",
	"Reinvested Amount",
	"Profitability",
}

// InvestmentCodec encodes rows of the investments list table. The last three
// columns mirror the inputs of the investment's last entry for people
// reading the sheet; they are ignored on decode because the entries table is
// authoritative.
type InvestmentCodec struct{}

var _ Codec[*types.Investment] = InvestmentCodec{}

func (InvestmentCodec) Header() types.Row { return append(types.Row(nil), investmentHeader...) }

func (InvestmentCodec) Encode(inv *types.Investment) types.Row {
	row := types.Row{
		inv.ID,
		inv.Name,
		inv.Description,
		inv.Currency,
		coerce.FormatDateTime(inv.Start),
		coerce.FormatDateTime(inv.End),
		inv.Reinvested,
		"",
		"",
		"",
	}
	if last := inv.LastEntry(); last != nil {
		row[invColInitialAmount] = last.InitialInvested()
		row[invColReinvestedAmount] = last.ReinvestedAmount()
		row[invColProfitability] = last.Profitability()
	}
	return row
}

func (InvestmentCodec) Decode(row types.Row) (Decoded[*types.Investment], error) {
	if isEmpty(row) {
		return End[*types.Investment](), nil
	}

	id, err := coerce.Long(cell(row, invColID))
	if err != nil {
		return Decoded[*types.Investment]{}, fmt.Errorf("investment id: %w", err)
	}
	start, err := coerce.DateTime(cell(row, invColStart))
	if err != nil {
		return Decoded[*types.Investment]{}, fmt.Errorf("investment %d start date: %w", id, err)
	}
	end, err := coerce.DateTime(cell(row, invColEnd))
	if err != nil {
		return Decoded[*types.Investment]{}, fmt.Errorf("investment %d end date: %w", id, err)
	}

	return Record(&types.Investment{
		ID:          id,
		Name:        coerce.String(cell(row, invColName)),
		Description: coerce.String(cell(row, invColDescription)),
		Currency:    coerce.String(cell(row, invColCurrency)),
		Start:       start,
		End:         end,
		Reinvested:  coerce.Boolean(cell(row, invColReinvested)),
	}), nil
}
