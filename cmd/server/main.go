package main

import (
	"context"
	"log"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/news"
	"github.com/AndreiCalugar/NewsGenerator/pipeline"
	"github.com/AndreiCalugar/NewsGenerator/script"
	"github.com/AndreiCalugar/NewsGenerator/server"
	"github.com/AndreiCalugar/NewsGenerator/store"
	"github.com/AndreiCalugar/NewsGenerator/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("config %s not readable, using defaults: %v", cfgPath, err)
		cfg = config.Default()
	}

	st, err := store.Open(cfg.Paths.DB)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	redisAddr := cfg.Secrets.RedisURL
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connection test failed: %v", err)
	}

	fetcher := news.NewFetcher(cfg)
	scripts := script.NewGenerator(cfg)
	pipe := pipeline.New(cfg)
	srv := server.New(cfg, st, rdb, fetcher, scripts)

	ctx := context.Background()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		w := worker.New(cfg, rdb, st, pipe, scripts)
		go w.Listen(ctx)
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Worker.NewsCron, func() {
		if err := srv.RefreshNews(context.Background()); err != nil {
			log.Printf("[cron] ⚠️ news refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid news cron expression %q: %v", cfg.Worker.NewsCron, err)
	}
	c.Start()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("API listening on :%s", port)
	if err := srv.Router().Run(":" + port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
