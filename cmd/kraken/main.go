package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antigravity/kraken-worker/internal/config"
	"github.com/antigravity/kraken-worker/internal/datasetload"
	"github.com/antigravity/kraken-worker/internal/disruption"
	"github.com/antigravity/kraken-worker/internal/transit"
	"github.com/antigravity/kraken-worker/internal/transport/httpbind"
	"github.com/antigravity/kraken-worker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DBURL)
	if err != nil {
		log.Fatal("unable to parse DB URL:", err)
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatal("unable to create connection pool:", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal("unable to connect to database:", err)
	}
	log.Println("✅ connected to PostGIS database")

	production := transit.ProductionPeriod{Begin: cfg.ProductionDateBegin, End: cfg.ProductionDateEnd}
	loader := datasetload.NewLoader(pool)
	dataset, err := loader.Load(context.Background(), production)
	if err != nil {
		log.Fatal("unable to load dataset:", err)
	}

	dm := transit.NewDataManager(dataset)
	logger := log.New(os.Stderr, "kraken ", log.LstdFlags)

	disruptionEngine := disruption.NewEngine(dm, logger)

	w := worker.NewWorker(dm, logger, cfg.SlowRequestThreshold)
	router := httpbind.NewRouter(&httpbind.Server{Worker: w, DM: dm, Disruption: disruptionEngine})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 kraken-worker listening on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
