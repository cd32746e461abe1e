package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/investtrack/internal/coerce"
	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Forecasts table columns.
const (
	fcColID = iota
	fcColInvestmentID
	fcColName
	fcColStart
	fcColEnd
	fcColRates
	fcColCreatedAt
	fcColUpdatedAt
)

var forecastHeader = types.Row{
	"Forecast ID",
	"Investment ID",
	"Name",
	"Start Date",
	"End Date",
	"Scenario Rates",
	"Created At",
	"Updated At",
}

// ForecastCodec encodes rows of the shared forecasts table. Scenario rates
// are stored in one cell as "NAME:rate,NAME:rate". Decoding that cell is
// best effort: malformed pairs are logged and skipped, and missing scenarios
// default to zero. Every other column is strict.
type ForecastCodec struct {
	Logger *zap.Logger
}

var _ Codec[*types.Forecast] = ForecastCodec{}

func (ForecastCodec) Header() types.Row { return append(types.Row(nil), forecastHeader...) }

func (ForecastCodec) Encode(f *types.Forecast) types.Row {
	return types.Row{
		f.ID,
		f.InvestmentID,
		f.Name,
		coerce.FormatDateTime(f.Start),
		coerce.FormatDateTime(f.End),
		FormatScenarioRates(f.ScenarioRates),
		coerce.FormatDateTime(f.CreatedAt),
		coerce.FormatDateTime(f.UpdatedAt),
	}
}

func (c ForecastCodec) Decode(row types.Row) (Decoded[*types.Forecast], error) {
	if isEmpty(row) {
		return End[*types.Forecast](), nil
	}
	fail := func(field string, err error) (Decoded[*types.Forecast], error) {
		return Decoded[*types.Forecast]{}, fmt.Errorf("forecast %s: %w", field, err)
	}

	id, err := coerce.Long(cell(row, fcColID))
	if err != nil {
		return fail("id", err)
	}
	invID, err := coerce.Long(cell(row, fcColInvestmentID))
	if err != nil {
		return fail("investment id", err)
	}

	dates := make([]*time.Time, 0, 4)
	for _, d := range []struct {
		field string
		col   int
	}{
		{"start date", fcColStart},
		{"end date", fcColEnd},
		{"created at", fcColCreatedAt},
		{"updated at", fcColUpdatedAt},
	} {
		t, err := coerce.DateTime(cell(row, d.col))
		if err != nil {
			return fail(d.field, err)
		}
		dates = append(dates, t)
	}

	f := &types.Forecast{
		ID:            id,
		InvestmentID:  invID,
		Name:          coerce.String(cell(row, fcColName)),
		Start:         dates[0],
		End:           dates[1],
		ScenarioRates: c.parseScenarioRates(coerce.String(cell(row, fcColRates))),
		CreatedAt:     dates[2],
		UpdatedAt:     dates[3],
	}
	f.Normalize()
	return Record(f), nil
}

// parseScenarioRates reads "NAME:rate" pairs, skipping the malformed ones.
func (c ForecastCodec) parseScenarioRates(s string) map[types.Scenario]float64 {
	rates := make(map[types.Scenario]float64, len(types.Scenarios))
	if strings.TrimSpace(s) == "" {
		return rates
	}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.Split(pair, ":")
		if len(kv) != 2 {
			c.logger().Warn("skipping malformed scenario rate", zap.String("pair", pair))
			continue
		}
		sc, err := types.ParseScenario(kv[0])
		if err != nil {
			c.logger().Warn("skipping scenario rate", zap.String("pair", pair), zap.Error(err))
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			c.logger().Warn("skipping scenario rate", zap.String("pair", pair), zap.Error(err))
			continue
		}
		rates[sc] = rate
	}
	return rates
}

func (c ForecastCodec) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// FormatScenarioRates renders rates in canonical scenario order, skipping
// scenarios without a rate.
func FormatScenarioRates(rates map[types.Scenario]float64) string {
	parts := make([]string, 0, len(rates))
	for _, sc := range types.Scenarios {
		rate, ok := rates[sc]
		if !ok {
			continue
		}
		parts = append(parts, string(sc)+":"+strconv.FormatFloat(rate, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}
