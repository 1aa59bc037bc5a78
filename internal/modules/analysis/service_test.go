package analysis

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askourtis/payoff/internal/database"
	"github.com/askourtis/payoff/internal/modules/payoff"
	"github.com/askourtis/payoff/internal/modules/positions"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "portfolio.db"),
		Profile: database.ProfileCache,
		Name:    "portfolio",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewCache(db.Conn())
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)

	original := &TickerAnalysis{
		Ticker:       "NVDA",
		CurrentPrice: 187.5,
		Breakevens:   []float64{105.2},
	}
	require.NoError(t, cache.Set("analysis:s1:NVDA", original, time.Minute))

	var got TickerAnalysis
	hit, err := cache.Get("analysis:s1:NVDA", &got)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, original.Ticker, got.Ticker)
	assert.Equal(t, original.CurrentPrice, got.CurrentPrice)
	assert.Equal(t, original.Breakevens, got.Breakevens)
}

func TestCacheMissAndExpiry(t *testing.T) {
	cache := newTestCache(t)

	var dest TickerAnalysis
	hit, err := cache.Get("analysis:absent", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	// Already expired
	require.NoError(t, cache.Set("analysis:old", &TickerAnalysis{Ticker: "X"}, -time.Minute))
	hit, err = cache.Get("analysis:old", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheDeleteByPrefix(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.Set("analysis:s1:A", &TickerAnalysis{}, time.Minute))
	require.NoError(t, cache.Set("analysis:s1:B", &TickerAnalysis{}, time.Minute))
	require.NoError(t, cache.DeleteByPrefix("analysis:"))

	var dest TickerAnalysis
	hit, err := cache.Get("analysis:s1:A", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestComputeCombinesEngines(t *testing.T) {
	posList := []positions.Position{
		{Ticker: "X", Type: positions.Call, Qty: 1, Strike: 100, CostBasis: 5, Expiry: "2026-01-16"},
	}
	result := compute(posList, positions.TickerPrice{Ticker: "X", Price: 100})

	assert.Equal(t, "X", result.Ticker)
	require.Len(t, result.Curve.Combined, payoff.GridPoints)
	require.Len(t, result.Breakevens, 1)
	assert.InDelta(t, 105.0, result.Breakevens[0], 0.01)
	assert.True(t, math.IsInf(result.Bounds.MaxProfit, 1))
	assert.Equal(t, -500.0, result.Bounds.MaxLoss)
	assert.False(t, math.IsInf(result.SampledBounds.MaxProfit, 1))
	assert.Equal(t, -500.0, result.CurrentPnL) // ATM at expiry loses the premium
	assert.Nil(t, result.ExpiryCurves)         // single expiry needs no split
}

func TestExpiryCurvesSplit(t *testing.T) {
	posList := []positions.Position{
		{Ticker: "X", Type: positions.Stock, Qty: 100, CostBasis: 90},
		{Ticker: "X", Type: positions.Call, Qty: 1, Strike: 100, CostBasis: 2, Expiry: "2026-01-16"},
		{Ticker: "X", Type: positions.Call, Qty: 1, Strike: 110, CostBasis: 1, Expiry: "2026-06-18"},
	}
	grid := payoff.PriceRange(posList, 100)

	curves := expiryCurves(posList, grid)
	require.Len(t, curves, 2)
	assert.Equal(t, "2026-01-16", curves[0].Expiry)
	assert.Equal(t, "2026-06-18", curves[1].Expiry)

	// Each expiry curve includes the stock leg plus only its own options
	jan := payoff.Evaluate([]positions.Position{posList[0], posList[1]}, grid)
	assert.Equal(t, jan.Combined, curves[0].PnL)
}
