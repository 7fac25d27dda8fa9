package main

import (
	"context"
	"log"
	stdhttp "net/http"

	"shortlink/pkg/cache"
	"shortlink/pkg/config"
	"shortlink/pkg/geoip"
	httphandler "shortlink/pkg/http"
	"shortlink/pkg/logging"
	"shortlink/pkg/service"
	"shortlink/pkg/storage"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(logging.LogLevel(cfg.LogLevel))

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

	linkStorage := storage.NewPostgresLinkStorage(pool)
	clickStorage := storage.NewPostgresClickStorage(pool)

	geoCache := cache.NewGeoCache(redisClient)
	geoClient := geoip.NewClient(cfg.GeoAPIURL, cfg.GeoTimeout)

	linkService := service.NewLinkService(linkStorage, logger)
	clickService := service.NewClickService(clickStorage, linkStorage, geoCache, geoClient, logger)

	handler := httphandler.NewHandler(linkService, clickService)

	r := chi.NewRouter()
	httphandler.SetupRedirectRoutes(r, handler)

	log.Println("Starting redirect server on", cfg.RedirectAddr)
	log.Fatal(stdhttp.ListenAndServe(cfg.RedirectAddr, r))
}
