package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/platform/obs"
)

type dialect struct {
	name   string
	get    string
	upsert string
}

var postgresDialect = dialect{
	name: "postgres",
	get: `
	SELECT address, lon, lat
	FROM geocode_cache
	WHERE query = $1 AND updated_at >= $2;
	`,
	upsert: `
	INSERT INTO geocode_cache (query, address, lon, lat, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (query) DO UPDATE
	SET address = EXCLUDED.address,
		lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		updated_at = EXCLUDED.updated_at;
	`,
}

// SQLGeocodeCache is a SQL-backed cache mapping normalized queries to
// geocode results. Rows older than the TTL are treated as misses.
type SQLGeocodeCache struct {
	DB  *sql.DB
	TTL time.Duration

	dialect dialect
	now     func() time.Time
}

// NewPostgresGeocodeCache expects a database opened with the pgx driver.
func NewPostgresGeocodeCache(db *sql.DB, ttl time.Duration) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db, TTL: ttl, dialect: postgresDialect, now: time.Now}
}

func (s *SQLGeocodeCache) Get(ctx context.Context, key string) (_ *domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "geocode.cache."+s.dialect.name+".Get")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}

	var cutoff int64
	if s.TTL > 0 {
		cutoff = s.now().Add(-s.TTL).Unix()
	}

	var r domain.GeocodeResult
	err = s.DB.QueryRowContext(ctx, s.dialect.get, key, cutoff).
		Scan(&r.Address, &r.Coordinates.Lon, &r.Coordinates.Lat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}

	return &r, nil
}

func (s *SQLGeocodeCache) Put(ctx context.Context, key string, result domain.GeocodeResult) error {
	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("insert geocode cache: empty query key")
	}

	_, err := s.DB.ExecContext(
		ctx, s.dialect.upsert,
		key, result.Address, result.Coordinates.Lon, result.Coordinates.Lat, s.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert geocode cache query=%q: %w", key, err)
	}

	return nil
}
