package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestmentEntryDerivedValues(t *testing.T) {
	tests := []struct {
		name                                 string
		initial, reinvested, profitability   float64
		wantTotal, wantObtained, wantBenefit float64
	}{
		{"no profit", 1000, 0, 0, 1000, 1000, 0},
		{"positive profitability", 1000, 500, 0.1, 1500, 1650, 150},
		{"loss", 200, 0, -0.25, 200, 150, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewInvestmentEntry(time.Now(), tt.initial, tt.reinvested, tt.profitability, "")
			assert.InDelta(t, tt.wantTotal, e.TotalInvested(), 1e-9)
			assert.InDelta(t, tt.wantObtained, e.Obtained(), 1e-9)
			assert.InDelta(t, tt.wantBenefit, e.Benefit(), 1e-9)
		})
	}
}

func TestInvestmentEntrySetAmountsRecomputes(t *testing.T) {
	e := NewInvestmentEntry(time.Now(), 100, 0, 0, "")
	e.SetAmounts(100, 100, 0.5)

	assert.Equal(t, 200.0, e.TotalInvested())
	assert.Equal(t, 300.0, e.Obtained())
	assert.Equal(t, 100.0, e.Benefit())
}

func TestNewInvestmentEntryDefaultsDateToNow(t *testing.T) {
	before := time.Now()
	e := NewInvestmentEntry(time.Time{}, 1, 2, 0.3, "c")
	assert.False(t, e.Date.Before(before))
	assert.False(t, e.Date.After(time.Now()))
}

func TestInvestmentIsActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&Investment{}).IsActive(now))
	assert.True(t, (&Investment{End: &future}).IsActive(now))
	assert.False(t, (&Investment{End: &past}).IsActive(now))
	assert.False(t, (&Investment{End: &now}).IsActive(now))
}

func TestInvestmentLastEntryAndAddEntry(t *testing.T) {
	inv := &Investment{ID: 1, Name: "Fund"}
	assert.Nil(t, inv.LastEntry())

	first := NewInvestmentEntry(time.Now(), 1, 0, 0, "")
	second := NewInvestmentEntry(time.Now(), 2, 0, 0, "")
	inv.AddEntry(first)
	inv.AddEntry(second)

	assert.Same(t, second, inv.LastEntry())
	assert.Same(t, inv, first.Investment)
	assert.Equal(t, "Investment entries - Fund", inv.EntriesTableName())
}

func TestInvestmentAddForecastSetsForeignKey(t *testing.T) {
	inv := &Investment{ID: 42}
	f := &Forecast{ID: 7, InvestmentID: 1}
	inv.AddForecast(f)

	assert.Equal(t, int64(42), f.InvestmentID)
	require.Len(t, inv.Forecasts, 1)
}

func TestInvestmentJSONOmitsBackReference(t *testing.T) {
	inv := &Investment{ID: 1, Name: "Fund", Currency: "EUR"}
	date := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	inv.AddEntry(NewInvestmentEntry(date, 100, 50, 0.2, "note"))

	data, err := json.Marshal(inv)
	require.NoError(t, err)

	var got Investment
	require.NoError(t, json.Unmarshal(data, &got))
	got.LinkEntries()

	require.Len(t, got.Entries, 1)
	e := got.Entries[0]
	assert.Same(t, &got, e.Investment)
	assert.Equal(t, 150.0, e.TotalInvested())
	assert.InDelta(t, 180.0, e.Obtained(), 1e-9)
	assert.Equal(t, "note", e.Comments)
	assert.True(t, date.Equal(e.Date))
}

func TestEntryUnmarshalIgnoresDerivedValues(t *testing.T) {
	raw := `{"id":3,"initial_invested":10,"reinvested_amount":0,"profitability":1,"total_invested":999,"obtained":999,"benefit":999}`

	var e InvestmentEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, 10.0, e.TotalInvested())
	assert.Equal(t, 20.0, e.Obtained())
	assert.Equal(t, 10.0, e.Benefit())
}
