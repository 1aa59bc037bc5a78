// Package analysis combines the payoff and risk engines into per-ticker
// analysis results served to the dashboard, with a small persistent cache.
package analysis

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache provides key-value storage for computed analysis results.
// Values are msgpack-encoded; rows expire via an expires_at timestamp.
// Every computation is a pure function of the import session, so serving a
// cached result is indistinguishable from recomputing it.
type Cache struct {
	db *sql.DB
}

// NewCache creates a new cache instance
func NewCache(db *sql.DB) *Cache {
	return &Cache{db: db}
}

// Set stores a msgpack-encoded value with a TTL
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT INTO analysis_cache (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, key, data, time.Now().Add(ttl).Unix())
	return err
}

// Get retrieves a value from the cache and decodes it into dest.
// Returns false when the key is missing or expired.
func (c *Cache) Get(key string, dest interface{}) (bool, error) {
	var data []byte
	var expiresAt int64
	err := c.db.QueryRow(
		`SELECT value, expires_at FROM analysis_cache WHERE key = ?`, key,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if expiresAt < time.Now().Unix() {
		return false, nil
	}

	if err := msgpack.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache value: %w", err)
	}
	return true, nil
}

// DeleteByPrefix removes all cache entries matching a prefix
func (c *Cache) DeleteByPrefix(prefix string) error {
	_, err := c.db.Exec(`DELETE FROM analysis_cache WHERE key LIKE ?`, prefix+"%")
	return err
}

// Sweep removes expired entries and returns how many were deleted
func (c *Cache) Sweep() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM analysis_cache WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
