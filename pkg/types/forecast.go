package types

import (
	"fmt"
	"strings"
	"time"
)

// Scenario is one of the closed set of forecast outlooks.
type Scenario string

// Forecast scenarios, in their canonical order.
const (
	ScenarioPessimist Scenario = "PESSIMIST"
	ScenarioNeutral   Scenario = "NEUTRAL"
	ScenarioOptimist  Scenario = "OPTIMIST"
)

// Scenarios lists every scenario in canonical order.
var Scenarios = []Scenario{ScenarioPessimist, ScenarioNeutral, ScenarioOptimist}

// ParseScenario returns the scenario named s. Surrounding spaces are ignored;
// case is not.
func ParseScenario(s string) (Scenario, error) {
	s = strings.TrimSpace(s)
	for _, sc := range Scenarios {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScenario, s)
}

// Forecast projects an investment's growth under each scenario rate.
// Rates are fractions.
type Forecast struct {
	ID            int64                `json:"id"`
	InvestmentID  int64                `json:"investment_id"`
	Name          string               `json:"name"`
	Start         *time.Time           `json:"start,omitempty"`
	End           *time.Time           `json:"end,omitempty"`
	ScenarioRates map[Scenario]float64 `json:"scenario_rates"`
	CreatedAt     *time.Time           `json:"created_at,omitempty"`
	UpdatedAt     *time.Time           `json:"updated_at,omitempty"`
}

// Normalize makes sure every scenario has a rate, defaulting missing ones
// to zero.
func (f *Forecast) Normalize() {
	if f.ScenarioRates == nil {
		f.ScenarioRates = make(map[Scenario]float64, len(Scenarios))
	}
	for _, sc := range Scenarios {
		if _, ok := f.ScenarioRates[sc]; !ok {
			f.ScenarioRates[sc] = 0
		}
	}
}

// Rate returns the rate for sc, or zero when unset.
func (f *Forecast) Rate(sc Scenario) float64 {
	return f.ScenarioRates[sc]
}
