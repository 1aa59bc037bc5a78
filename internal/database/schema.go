package database

// schemas maps database names to their embedded DDL.
// portfolio.db holds import sessions and their positions; the cache table
// stores msgpack-encoded analysis results keyed by positions hash.
var schemas = map[string]string{
	"portfolio": portfolioSchema,
}

const portfolioSchema = `
CREATE TABLE IF NOT EXISTS import_sessions (
    id          TEXT PRIMARY KEY,
    source      TEXT NOT NULL DEFAULT 'csv',
    row_count   INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
    session_id   TEXT NOT NULL REFERENCES import_sessions(id) ON DELETE CASCADE,
    ticker       TEXT NOT NULL,
    position_type TEXT NOT NULL CHECK (position_type IN ('stock', 'call', 'put')),
    qty          REAL NOT NULL,
    strike       REAL,
    cost_basis   REAL NOT NULL,
    expiry       TEXT,
    unrealized   REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_positions_session ON positions(session_id);
CREATE INDEX IF NOT EXISTS idx_positions_ticker ON positions(session_id, ticker);

CREATE TABLE IF NOT EXISTS ticker_prices (
    session_id  TEXT NOT NULL REFERENCES import_sessions(id) ON DELETE CASCADE,
    ticker      TEXT NOT NULL,
    price       REAL NOT NULL,
    estimated   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (session_id, ticker)
);

CREATE TABLE IF NOT EXISTS analysis_cache (
    key         TEXT PRIMARY KEY,
    value       BLOB NOT NULL,
    expires_at  INTEGER NOT NULL
);
`
