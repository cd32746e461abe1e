package types

import (
	"encoding/json"
	"time"
)

// Investment is a named position tracked over time. Entries are kept in
// append order, which is chronological; the last entry is the current state.
type Investment struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Currency    string             `json:"currency"`
	Start       *time.Time         `json:"start,omitempty"`
	End         *time.Time         `json:"end,omitempty"`
	Reinvested  bool               `json:"reinvested"`
	Entries     []*InvestmentEntry `json:"entries"`
	Forecasts   []*Forecast        `json:"forecasts"`
}

// IsActive reports whether the investment has no end date or ends after now.
func (inv *Investment) IsActive(now time.Time) bool {
	return inv.End == nil || inv.End.After(now)
}

// LastEntry returns the most recent entry, or nil when there are none.
func (inv *Investment) LastEntry() *InvestmentEntry {
	if len(inv.Entries) == 0 {
		return nil
	}
	return inv.Entries[len(inv.Entries)-1]
}

// AddEntry appends e and points its back-reference at inv.
func (inv *Investment) AddEntry(e *InvestmentEntry) {
	e.Investment = inv
	inv.Entries = append(inv.Entries, e)
}

// AddForecast appends f and sets its foreign key to inv.ID.
func (inv *Investment) AddForecast(f *Forecast) {
	f.InvestmentID = inv.ID
	inv.Forecasts = append(inv.Forecasts, f)
}

// EntriesTableName returns the name of the table holding inv's entries.
func (inv *Investment) EntriesTableName() string {
	return EntriesTablePrefix + inv.Name
}

// InvestmentEntry is one dated observation of an investment.
//
// The three inputs (initial, reinvested, profitability) are only settable
// together through SetAmounts, which recomputes total invested, obtained and
// benefit. Profitability is a fraction, not a percentage.
type InvestmentEntry struct {
	ID       int64
	Date     time.Time
	Comments string

	// Investment is the owning investment. It is never serialized.
	Investment *Investment

	initial       float64
	reinvested    float64
	profitability float64

	total    float64
	obtained float64
	benefit  float64
}

// NewInvestmentEntry builds an entry. A zero date defaults to now.
func NewInvestmentEntry(date time.Time, initial, reinvested, profitability float64, comments string) *InvestmentEntry {
	if date.IsZero() {
		date = time.Now()
	}
	e := &InvestmentEntry{Date: date, Comments: comments}
	e.SetAmounts(initial, reinvested, profitability)
	return e
}

// SetAmounts replaces the three input amounts and recomputes the derived ones.
func (e *InvestmentEntry) SetAmounts(initial, reinvested, profitability float64) {
	e.initial = initial
	e.reinvested = reinvested
	e.profitability = profitability

	e.total = initial + reinvested
	e.obtained = e.total + e.total*profitability
	e.benefit = e.total * profitability
}

func (e *InvestmentEntry) InitialInvested() float64  { return e.initial }
func (e *InvestmentEntry) ReinvestedAmount() float64 { return e.reinvested }
func (e *InvestmentEntry) Profitability() float64    { return e.profitability }
func (e *InvestmentEntry) TotalInvested() float64    { return e.total }
func (e *InvestmentEntry) Obtained() float64         { return e.obtained }
func (e *InvestmentEntry) Benefit() float64          { return e.benefit }

// entryJSON is the wire form of an entry. Derived values are emitted for
// readers but ignored on decode.
type entryJSON struct {
	ID               int64     `json:"id"`
	Date             time.Time `json:"date"`
	InitialInvested  float64   `json:"initial_invested"`
	ReinvestedAmount float64   `json:"reinvested_amount"`
	Profitability    float64   `json:"profitability"`
	Comments         string    `json:"comments"`
	TotalInvested    float64   `json:"total_invested"`
	Obtained         float64   `json:"obtained"`
	Benefit          float64   `json:"benefit"`
}

// MarshalJSON emits the entry without its back-reference.
func (e *InvestmentEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		ID:               e.ID,
		Date:             e.Date,
		InitialInvested:  e.initial,
		ReinvestedAmount: e.reinvested,
		Profitability:    e.profitability,
		Comments:         e.Comments,
		TotalInvested:    e.total,
		Obtained:         e.obtained,
		Benefit:          e.benefit,
	})
}

// UnmarshalJSON reads the inputs and recomputes the derived values.
func (e *InvestmentEntry) UnmarshalJSON(data []byte) error {
	var w entryJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.ID = w.ID
	e.Date = w.Date
	e.Comments = w.Comments
	e.SetAmounts(w.InitialInvested, w.ReinvestedAmount, w.Profitability)
	return nil
}

// LinkEntries points every entry's back-reference at inv. Used after
// decoding, where the reference is not carried on the wire.
func (inv *Investment) LinkEntries() {
	for _, e := range inv.Entries {
		e.Investment = inv
	}
}
