package main

import (
	"database/sql"
	"flag"
	"strings"

	"technician-route-service/internal/adapters/cache"
	"technician-route-service/internal/config"
	"technician-route-service/internal/platform/db"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// dbtool prepares the geocode cache schema ahead of a deployment.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found (using environment variables)")
	}

	backend := flag.String("backend", config.Get("GEOCODE_CACHE", "postgres"), "cache backend: postgres or sqlite")
	flag.Parse()

	var (
		conn *sql.DB
		err  error
	)
	switch strings.ToLower(*backend) {
	case "postgres":
		databaseURL := config.Get("DATABASE_URL", "")
		if strings.TrimSpace(databaseURL) == "" {
			log.Fatal("DATABASE_URL is required")
		}
		conn, err = db.Open(databaseURL)
	case "sqlite":
		conn, err = db.OpenSQLite(config.Get("SQLITE_PATH", "data/geocode.db"))
	default:
		log.Fatalf("unsupported backend %q (want postgres or sqlite)", *backend)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.WithField("backend", *backend).Info("Initializing geocode cache schema...")
	if err := cache.InitSchema(conn, strings.ToLower(*backend)); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Info("Schema ready.")
}
