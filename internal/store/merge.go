package store

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/investtrack/pkg/types"
)

// Merge attaches each forecast to the first investment whose id matches its
// InvestmentID, in forecast order. Forecasts without a match are logged and
// returned as dropped.
func Merge(investments []*types.Investment, forecasts []*types.Forecast, logger *zap.Logger) (dropped []*types.Forecast) {
	if logger == nil {
		logger = zap.NewNop()
	}
	byID := make(map[int64]*types.Investment, len(investments))
	for _, inv := range investments {
		if _, seen := byID[inv.ID]; !seen {
			byID[inv.ID] = inv
		}
	}

	for _, f := range forecasts {
		inv, ok := byID[f.InvestmentID]
		if !ok {
			logger.Debug("dropping forecast without investment",
				zap.Int64("forecast", f.ID), zap.Int64("investment", f.InvestmentID))
			dropped = append(dropped, f)
			continue
		}
		inv.AddForecast(f)
	}
	return dropped
}
