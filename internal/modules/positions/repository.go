package positions

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TickerPrice is the resolved underlying price for one ticker.
// Estimated is true when the price was derived from option quotes instead of
// a real stock or underlying price column.
type TickerPrice struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	Estimated bool    `json:"estimated"`
}

// ImportSession is one immutable CSV import
type ImportSession struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists import sessions and their positions.
// Sessions are immutable: a new import inserts a new session, and readers
// always resolve the latest one.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new positions repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "positions").Logger(),
	}
}

// SaveSession stores a new import session with its positions and resolved
// ticker prices in one transaction, returning the session ID.
func (r *Repository) SaveSession(source string, posList []Position, prices []TickerPrice) (string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sessionID := uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO import_sessions (id, source, row_count, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, source, len(posList), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert import session: %w", err)
	}

	for _, pos := range posList {
		var strike, expiry interface{}
		if pos.Type.IsOption() {
			strike = pos.Strike
			expiry = pos.Expiry
		}
		_, err = tx.Exec(
			`INSERT INTO positions (session_id, ticker, position_type, qty, strike, cost_basis, expiry, unrealized)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, pos.Ticker, string(pos.Type), pos.Qty, strike, pos.CostBasis, expiry, pos.Unrealized,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert position for %s: %w", pos.Ticker, err)
		}
	}

	for _, tp := range prices {
		_, err = tx.Exec(
			`INSERT INTO ticker_prices (session_id, ticker, price, estimated) VALUES (?, ?, ?, ?)`,
			sessionID, tp.Ticker, tp.Price, tp.Estimated,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert ticker price for %s: %w", tp.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit import session: %w", err)
	}

	r.log.Info().
		Str("session_id", sessionID).
		Int("positions", len(posList)).
		Msg("Import session saved")

	return sessionID, nil
}

// LatestSession returns the most recent import session, or sql.ErrNoRows
// when nothing has been imported yet.
func (r *Repository) LatestSession() (*ImportSession, error) {
	var s ImportSession
	var createdAt int64
	err := r.db.QueryRow(
		`SELECT id, source, row_count, created_at FROM import_sessions ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&s.ID, &s.Source, &s.RowCount, &createdAt)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &s, nil
}

// GetPositions returns all positions of a session
func (r *Repository) GetPositions(sessionID string) ([]Position, error) {
	rows, err := r.db.Query(
		`SELECT ticker, position_type, qty, strike, cost_basis, expiry, unrealized
		 FROM positions WHERE session_id = ?`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var result []Position
	for rows.Next() {
		var pos Position
		var typ string
		var strike sql.NullFloat64
		var expiry sql.NullString
		if err := rows.Scan(&pos.Ticker, &typ, &pos.Qty, &strike, &pos.CostBasis, &expiry, &pos.Unrealized); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		pos.Type = PositionType(typ)
		if strike.Valid {
			pos.Strike = strike.Float64
		}
		if expiry.Valid {
			pos.Expiry = expiry.String
		}
		result = append(result, pos)
	}
	return result, rows.Err()
}

// GetTickerPrices returns the resolved underlying prices of a session
func (r *Repository) GetTickerPrices(sessionID string) (map[string]TickerPrice, error) {
	rows, err := r.db.Query(
		`SELECT ticker, price, estimated FROM ticker_prices WHERE session_id = ?`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticker prices: %w", err)
	}
	defer rows.Close()

	result := make(map[string]TickerPrice)
	for rows.Next() {
		var tp TickerPrice
		if err := rows.Scan(&tp.Ticker, &tp.Price, &tp.Estimated); err != nil {
			return nil, fmt.Errorf("failed to scan ticker price: %w", err)
		}
		result[tp.Ticker] = tp
	}
	return result, rows.Err()
}

// DeleteOlderSessions removes all sessions except the newest keep ones.
// Positions and prices cascade via foreign keys.
func (r *Repository) DeleteOlderSessions(keep int) (int64, error) {
	res, err := r.db.Exec(
		`DELETE FROM import_sessions WHERE id NOT IN (
			SELECT id FROM import_sessions ORDER BY created_at DESC, id DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old sessions: %w", err)
	}
	return res.RowsAffected()
}
