package main

import (
	"context"
	"log"
	"os"
	"time"

	"studypile/internal/api"
	"studypile/internal/auth"
	"studypile/internal/config"
	"studypile/internal/objectstore"
	"studypile/internal/pipeline"
	"studypile/internal/redis"
	"studypile/internal/service/extract"
	"studypile/internal/service/material"
	"studypile/internal/service/summarize"
	"studypile/internal/status"
	"studypile/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("STUDYPILE_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("STUDYPILE_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	rdb, err := redis.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("create redis client: %v", err)
	}
	defer rdb.Close()

	content, err := objectstore.New(cfg)
	if err != nil {
		log.Fatalf("init object store: %v", err)
	}
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := content.EnsureBucket(startupCtx); err != nil {
		log.Fatalf("ensure bucket: %v", err)
	}

	materials := material.NewService(db)
	tracker := status.NewTracker(rdb)

	verifier, err := auth.NewProviderVerifier(cfg)
	if err != nil {
		log.Fatalf("init token verifier: %v", err)
	}
	authService := auth.NewService(verifier)

	extractors, err := extract.NewRegistry(startupCtx, cfg)
	if err != nil {
		log.Fatalf("init extractors: %v", err)
	}
	reader := extract.NewURLReader(cfg)
	summarizer, err := summarize.New(startupCtx, cfg)
	if err != nil {
		log.Fatalf("init summarizer: %v", err)
	}

	runner := pipeline.NewRunner(pipeline.Deps{
		Status:     tracker,
		Content:    content,
		Extractors: extractors,
		Reader:     reader,
		Summarizer: summarizer,
		Summaries:  materials,
	}, pipeline.Config{
		Timeout:    time.Duration(cfg.BasicConfig.PipelineTimeout) * time.Minute,
		MaxWorkers: cfg.BasicConfig.MaxPipelineWorkers,
	})

	handlers := api.NewHandler(materials, tracker, content, runner, authService)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
