package main

import (
	"context"
	"log"
	stdhttp "net/http"

	"shortlink/pkg/cache"
	"shortlink/pkg/config"
	"shortlink/pkg/geoip"
	"shortlink/pkg/http"
	"shortlink/pkg/logging"
	"shortlink/pkg/service"
	"shortlink/pkg/storage"
	"shortlink/pkg/storage/migrations"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(logging.LogLevel(cfg.LogLevel))

	if err := migrations.Up(cfg.DatabaseURL); err != nil {
		log.Fatal(err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}
	redisClient := redis.NewClient(opt)
	defer redisClient.Close()

	// Storage
	linkStorage := storage.NewPostgresLinkStorage(pool)
	clickStorage := storage.NewPostgresClickStorage(pool)

	// Geo enrichment
	geoCache := cache.NewGeoCache(redisClient)
	geoClient := geoip.NewClient(cfg.GeoAPIURL, cfg.GeoTimeout)

	// Services
	linkService := service.NewLinkService(linkStorage, logger)
	clickService := service.NewClickService(clickStorage, linkStorage, geoCache, geoClient, logger)

	// Handler
	handler := http.NewHandler(linkService, clickService)

	// Router
	r := chi.NewRouter()
	http.SetupRoutes(r, handler)

	// Server
	log.Println("Starting API server on", cfg.APIAddr)
	log.Fatal(stdhttp.ListenAndServe(cfg.APIAddr, r))
}
