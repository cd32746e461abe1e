package types

import "time"

// Summary aggregates the current state of all active investments.
// It is derived on demand and never persisted.
type Summary struct {
	Invested      float64 `json:"invested"`
	Obtained      float64 `json:"obtained"`
	Benefit       float64 `json:"benefit"`
	Profitability float64 `json:"profitability"`
}

// Summarize sums the last entry of every investment active at now.
// Investments without entries contribute nothing.
func Summarize(investments []*Investment, now time.Time) Summary {
	var s Summary
	for _, inv := range investments {
		if !inv.IsActive(now) {
			continue
		}
		last := inv.LastEntry()
		if last == nil {
			continue
		}
		s.Invested += last.TotalInvested()
		s.Obtained += last.Obtained()
		s.Benefit += last.Benefit()
	}
	if s.Invested != 0 {
		s.Profitability = s.Benefit / s.Invested
	}
	return s
}
