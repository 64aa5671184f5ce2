package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/news"
	"github.com/AndreiCalugar/NewsGenerator/pipeline"
	"github.com/AndreiCalugar/NewsGenerator/script"
	"github.com/AndreiCalugar/NewsGenerator/store"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

func main() {
	// Load .env (local dev only)
	_ = godotenv.Load()

	var (
		cfgPath  = flag.String("config", "config.yaml", "path to config.yaml")
		text     = flag.String("text", "", "narrate this text instead of fetching news")
		title    = flag.String("title", "", "video title when -text is used")
		keywords = flag.String("keywords", "", "comma-separated footage keywords (optional)")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Printf("config %s not readable, using defaults: %v", *cfgPath, err)
		cfg = config.Default()
	}
	if err := os.MkdirAll(cfg.Paths.Output, 0o755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	ctx := context.Background()
	generator := script.NewGenerator(cfg)

	var videoScript types.Script
	var scriptID *uint
	var st *store.Store

	if *text != "" {
		videoScript = types.Script{Title: *title, Text: *text}
		if videoScript.Title == "" {
			videoScript.Title = "Custom video"
		}
	} else {
		st, err = store.Open(cfg.Paths.DB)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		articles, err := news.NewFetcher(cfg).Fetch(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch news: %v", err)
		}
		if _, err := st.SaveArticles(articles); err != nil {
			log.Fatalf("Failed to save articles: %v", err)
		}
		article, err := st.NextUnusedArticle()
		if err != nil {
			log.Fatalf("No unused article available: %v", err)
		}
		log.Printf("🎬 Generating video for: %s", article.Title)

		generated, err := generator.Generate(ctx, types.Article{
			Title:       article.Title,
			Description: article.Description,
			Source:      article.Source,
			URL:         article.URL,
			PublishedAt: article.PublishedAt,
		})
		if err != nil {
			log.Fatalf("Failed to generate script: %v", err)
		}
		record, err := st.SaveScript(&article.ID, *generated)
		if err != nil {
			log.Fatalf("Failed to save script: %v", err)
		}
		scriptID = &record.ID
		videoScript = *generated
	}

	var kw []string
	if *keywords != "" {
		for _, k := range strings.Split(*keywords, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kw = append(kw, k)
			}
		}
	} else {
		kw = generator.ExtractKeywords(ctx, videoScript.Text)
	}
	log.Printf("🔍 Footage keywords: %s", strings.Join(kw, ", "))

	result, err := pipeline.New(cfg).Run(ctx, videoScript, kw)
	if err != nil {
		log.Fatalf("❌ Pipeline failed: %v", err)
	}
	if st != nil {
		if _, err := st.SaveVideo(scriptID, result, strings.Join(kw, ",")); err != nil {
			log.Printf("⚠️ video rendered but not recorded: %v", err)
		}
	}

	log.Printf("✅ Standard video: %s", result.Standard.VideoPath)
	log.Printf("✅ Vertical video: %s", result.Vertical.VideoPath)
	log.Printf("   narration %.1fs via %s, captions %s", result.DurationSec, result.TierUsed, result.StrategyUsed)
}
