package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"technician-route-service/internal/adapters/cache"
	"technician-route-service/internal/adapters/events"
	"technician-route-service/internal/adapters/mapbox"
	"technician-route-service/internal/adapters/oracle"
	"technician-route-service/internal/adapters/repositories"
	"technician-route-service/internal/api"
	"technician-route-service/internal/config"
	"technician-route-service/internal/platform/db"
	"technician-route-service/internal/platform/metrics"
	"technician-route-service/internal/platform/obs"
	"technician-route-service/internal/ports"
	"technician-route-service/internal/services"

	log "github.com/sirupsen/logrus"
)

// main is the application composition root.
// It wires concrete adapters behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := obs.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()

	client := mapbox.NewClient(
		cfg.MapboxToken,
		mapbox.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		mapbox.WithBaseURL(cfg.MapboxBaseURL),
		mapbox.WithProfile(cfg.MapboxProfile),
		mapbox.WithObserver(collector),
	)
	if !client.Configured() {
		log.Warn("MAPBOX_ACCESS_TOKEN is not set; directions and address checks will report a configuration error")
	}

	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.WithError(err).Warn("shutdown: close failed")
			}
		}
	}()

	geocoder, closer, err := buildGeocoder(ctx, cfg, client, collector)
	if err != nil {
		log.Fatal(err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	repo, err := repositories.LoadJSONStopRepository(cfg.SeedPath)
	if err != nil {
		log.Fatal(err)
	}

	var reorderer ports.ReorderOracle
	switch cfg.OracleKind {
	case "nearest":
		reorderer = oracle.NewNearestNeighbor(repo)
	default:
		reorderer = oracle.NewLLM(
			cfg.OracleAPIKey, cfg.OracleBaseURL, cfg.OracleModel,
			oracle.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
			oracle.WithObserver(collector),
		)
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		log.Fatal(err)
	}
	closers = append(closers, publisher)

	registry, err := services.LoadRegistry(ctx, repo, client, reorderer,
		services.WithPublisher(publisher),
		services.WithObserver(collector),
	)
	if err != nil {
		log.Fatal(err)
	}

	// Routes are usable before their directions arrive.
	go func() {
		refreshCtx, cancel := context.WithTimeout(ctx, 2*cfg.HTTPTimeout)
		defer cancel()
		if err := registry.RefreshAll(refreshCtx); err != nil {
			log.WithError(err).Warn("initial route refresh failed")
		}
	}()

	desk := services.NewBookingDesk(geocoder, cfg.ServiceArea, cfg.DefaultAddress, cfg.AddressDebounce,
		services.WithDeskPublisher(publisher),
		services.WithDeskObserver(collector),
	)

	router := api.NewRouter(api.Deps{
		Registry:             registry,
		Desk:                 desk,
		Geocoder:             geocoder,
		ServiceArea:          cfg.ServiceArea,
		DirectionsConfigured: client.Configured(),
		Metrics:              collector.Handler(),
		CORSOrigins:          cfg.CORSOrigins,
	})

	// Timeouts leave room for a slow oracle answer.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":   srv.Addr,
			"routes": registry.Names(),
			"oracle": cfg.OracleKind,
		}).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}
	log.Info("server stopped")
}

// buildGeocoder wraps the Mapbox client with the configured geocode cache.
// Without a token every lookup fails fast, so no cache is opened.
func buildGeocoder(
	ctx context.Context,
	cfg *config.Config,
	client *mapbox.Client,
	collector *metrics.Collector,
) (ports.Geocoder, io.Closer, error) {
	if cfg.GeocodeCache == "" || !client.Configured() {
		return client, nil, nil
	}

	var (
		store  ports.GeocodeCache
		closer io.Closer
	)

	switch cfg.GeocodeCache {
	case "postgres":
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		if err := cache.InitSchema(conn, "postgres"); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		store, closer = cache.NewPostgresGeocodeCache(conn, cfg.GeocodeCacheTTL), conn
	case "sqlite":
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		if err := cache.InitSchema(conn, "sqlite"); err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		store, closer = cache.NewSqliteGeocodeCache(conn, cfg.GeocodeCacheTTL), conn
	case "redis":
		rdb, err := db.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("geocode cache: %w", err)
		}
		store, closer = cache.NewRedisGeocodeCache(rdb, cfg.GeocodeCacheTTL), rdb
	default:
		return nil, nil, fmt.Errorf("geocode cache: unknown backend %q", cfg.GeocodeCache)
	}

	log.WithFields(log.Fields{
		"backend": cfg.GeocodeCache,
		"ttl":     cfg.GeocodeCacheTTL.String(),
	}).Info("geocode cache enabled")

	return cache.NewCachedGeocoder(client, store, collector), closer, nil
}

func buildPublisher(cfg *config.Config) (ports.EventPublisher, error) {
	switch cfg.EventsBackend {
	case "nats":
		p, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			return nil, fmt.Errorf("events: %w", err)
		}
		return p, nil
	case "amqp":
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("events: %w", err)
		}
		return p, nil
	default:
		return events.Nop{}, nil
	}
}
