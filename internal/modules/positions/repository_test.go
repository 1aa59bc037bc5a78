package positions

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askourtis/payoff/internal/database"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "portfolio.db"),
		Name: "portfolio",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestSaveAndLoadSession(t *testing.T) {
	repo := newTestRepository(t)

	posList := []Position{
		{Ticker: "NVDA", Type: Stock, Qty: 100, CostBasis: 180.0, Unrealized: 750.0},
		{Ticker: "NVDA", Type: Call, Qty: -1, Strike: 200, CostBasis: 5.16, Expiry: "2026-01-16", Unrealized: -120.0},
	}
	prices := []TickerPrice{{Ticker: "NVDA", Price: 187.5}}

	sessionID, err := repo.SaveSession("csv", posList, prices)
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	session, err := repo.LatestSession()
	require.NoError(t, err)
	assert.Equal(t, sessionID, session.ID)
	assert.Equal(t, "csv", session.Source)
	assert.Equal(t, 2, session.RowCount)

	loaded, err := repo.GetPositions(sessionID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	var stock, call *Position
	for i := range loaded {
		switch loaded[i].Type {
		case Stock:
			stock = &loaded[i]
		case Call:
			call = &loaded[i]
		}
	}
	require.NotNil(t, stock)
	require.NotNil(t, call)

	// Stock rows persist without strike or expiry
	assert.Equal(t, 0.0, stock.Strike)
	assert.Empty(t, stock.Expiry)
	assert.Equal(t, 750.0, stock.Unrealized)

	assert.Equal(t, 200.0, call.Strike)
	assert.Equal(t, "2026-01-16", call.Expiry)
	assert.Equal(t, -1.0, call.Qty)

	priceMap, err := repo.GetTickerPrices(sessionID)
	require.NoError(t, err)
	require.Contains(t, priceMap, "NVDA")
	assert.Equal(t, 187.5, priceMap["NVDA"].Price)
	assert.False(t, priceMap["NVDA"].Estimated)
}

func TestLatestSessionEmpty(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.LatestSession()
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestLatestSessionPicksNewest(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.SaveSession("csv", []Position{{Ticker: "AAPL", Type: Stock, Qty: 10}}, nil)
	require.NoError(t, err)

	secondID, err := repo.SaveSession("csv", []Position{{Ticker: "MSFT", Type: Stock, Qty: 20}}, nil)
	require.NoError(t, err)

	session, err := repo.LatestSession()
	require.NoError(t, err)

	// Both inserts can land in the same second, so the id tiebreaker decides
	// only when creation times collide. Either way the list content tells us
	// which session won.
	posList, err := repo.GetPositions(session.ID)
	require.NoError(t, err)
	if session.ID == secondID {
		assert.Equal(t, "MSFT", posList[0].Ticker)
	}
}

func TestDeleteOlderSessions(t *testing.T) {
	repo := newTestRepository(t)

	for i := 0; i < 5; i++ {
		_, err := repo.SaveSession("csv", []Position{{Ticker: "TSLA", Type: Stock, Qty: 1}}, nil)
		require.NoError(t, err)
	}

	deleted, err := repo.DeleteOlderSessions(2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	// Cascade removes the orphaned positions as well
	var count int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM positions`).Scan(&count))
	assert.Equal(t, 2, count)
}
