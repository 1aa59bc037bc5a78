package positions

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askourtis/payoff/internal/events"
)

const sampleCSV = `Financial Instrument,Position,Last,Cost Basis,Underlying Price,Unrealized P&L
NVDA,100,187.50,"$18,000.00",,750.00
NVDA Jan16'26 200 CALL,-1,5.16,(516.00),187.50,-96.00
"IREN Jan30'26 40 CALL",2,3.10,500.00,,120.00
MU,0,272.50,250.00,,0
,,,,,
`

func newTestService(t *testing.T) (*Service, *events.Bus) {
	t.Helper()
	repo := newTestRepository(t)
	bus := events.NewBus(zerolog.Nop())
	return NewService(repo, bus, zerolog.Nop()), bus
}

func TestImportCSV(t *testing.T) {
	svc, bus := newTestService(t)

	eventCh, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	result, err := svc.ImportCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// MU has zero quantity and the last row is blank, both are skipped
	require.Len(t, result.Positions, 3)
	assert.Equal(t, 2, result.Skipped)

	assert.Equal(t, Stock, result.Positions[0].Type)
	assert.Equal(t, "NVDA", result.Positions[0].Ticker)
	assert.Equal(t, 180.0, result.Positions[0].CostBasis)
	assert.Equal(t, 750.0, result.Positions[0].Unrealized)

	// Short call: paren-negative cost basis, per-contract total to per-share
	short := result.Positions[1]
	assert.Equal(t, Call, short.Type)
	assert.Equal(t, -1.0, short.Qty)
	assert.Equal(t, 200.0, short.Strike)
	assert.Equal(t, "2026-01-16", short.Expiry)
	assert.InDelta(t, 5.16, short.CostBasis, 1e-9)

	// NVDA price comes from the stock row, IREN is estimated from its call
	require.Contains(t, result.Prices, "NVDA")
	assert.Equal(t, 187.5, result.Prices["NVDA"].Price)
	assert.False(t, result.Prices["NVDA"].Estimated)

	require.Contains(t, result.Prices, "IREN")
	assert.InDelta(t, 43.10, result.Prices["IREN"].Price, 1e-9)
	assert.True(t, result.Prices["IREN"].Estimated)

	select {
	case evt := <-eventCh:
		assert.Equal(t, events.PositionsImported, evt.Type)
	case <-time.After(time.Second):
		t.Fatal("expected a positions-imported event")
	}
}

func TestImportCSVRoundTripsThroughActive(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.ImportCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	posList, prices, session, err := svc.Active()
	require.NoError(t, err)
	assert.Equal(t, result.SessionID, session.ID)
	assert.Len(t, posList, 3)
	assert.Len(t, prices, 2)
}

func TestImportCSVBadHeader(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ImportCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestResolvePricesOptionOnlyFallsBackToStrikeMidpoint(t *testing.T) {
	posList := []Position{
		{Ticker: "AMD", Type: Call, Qty: 1, Strike: 100},
		{Ticker: "AMD", Type: Put, Qty: 1, Strike: 140},
	}
	rows := []Row{{}, {}}

	prices := resolvePrices(posList, rows)
	require.Len(t, prices, 1)
	assert.Equal(t, 120.0, prices[0].Price)
	assert.True(t, prices[0].Estimated)
}

func TestResolvePricesEstimatesFromBothSides(t *testing.T) {
	posList := []Position{
		{Ticker: "AMD", Type: Call, Qty: 1, Strike: 100},
		{Ticker: "AMD", Type: Put, Qty: 1, Strike: 140},
	}
	rows := []Row{
		NewRow([]string{"Last"}, []string{"22.00"}), // call at 22 suggests 122
		NewRow([]string{"Last"}, []string{"18.00"}), // put at 18 suggests 122
	}

	prices := resolvePrices(posList, rows)
	require.Len(t, prices, 1)
	assert.InDelta(t, 122.0, prices[0].Price, 1e-9)
	assert.True(t, prices[0].Estimated)
}

func TestUnrealizedByTicker(t *testing.T) {
	posList := []Position{
		{Ticker: "NVDA", Unrealized: 100},
		{Ticker: "NVDA", Unrealized: -30},
		{Ticker: "AMD", Unrealized: 5},
	}
	totals := UnrealizedByTicker(posList)
	assert.Equal(t, 70.0, totals["NVDA"])
	assert.Equal(t, 5.0, totals["AMD"])
}

func TestTickersSortedUnique(t *testing.T) {
	posList := []Position{
		{Ticker: "NVDA"}, {Ticker: "AMD"}, {Ticker: "NVDA"},
	}
	assert.Equal(t, []string{"AMD", "NVDA"}, Tickers(posList))
}

func TestByTicker(t *testing.T) {
	posList := []Position{
		{Ticker: "NVDA"}, {Ticker: "AMD"},
	}
	assert.Len(t, ByTicker(posList, "nvda"), 1)
	assert.Empty(t, ByTicker(posList, "TSLA"))
}
