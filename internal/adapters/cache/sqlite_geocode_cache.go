package cache

import (
	"database/sql"
	"time"
)

var sqliteDialect = dialect{
	name: "sqlite",
	get: `
	SELECT
		address,
		lon,
		lat
	FROM geocode_cache
	WHERE query = ? AND updated_at >= ?;
	`,
	upsert: `
	INSERT OR REPLACE INTO geocode_cache (
		query,
		address,
		lon,
		lat,
		updated_at
	)
	VALUES (?, ?, ?, ?, ?);
	`,
}

// NewSqliteGeocodeCache expects a database opened with the modernc sqlite
// driver. Query keys are expected to be normalized by the caller.
func NewSqliteGeocodeCache(db *sql.DB, ttl time.Duration) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, TTL: ttl, dialect: sqliteDialect, now: time.Now}
}
