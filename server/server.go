package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/news"
	"github.com/AndreiCalugar/NewsGenerator/script"
	"github.com/AndreiCalugar/NewsGenerator/store"
	"github.com/AndreiCalugar/NewsGenerator/types"
	"github.com/AndreiCalugar/NewsGenerator/worker"
)

// Server exposes the HTTP API for fetching news, generating scripts
// and queueing video renders.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	rdb     *redis.Client
	news    *news.Fetcher
	scripts *script.Generator
}

func New(cfg *config.Config, st *store.Store, rdb *redis.Client, fetcher *news.Fetcher, scripts *script.Generator) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		rdb:     rdb,
		news:    fetcher,
		scripts: scripts,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/news_articles", s.listArticles)
		api.POST("/fetch_news", s.fetchNews)
		api.POST("/generate_script", s.generateScript)
		api.POST("/generate_video_from_article", s.generateFromArticle)
		api.POST("/generate_video_from_custom_text", s.generateFromText)
		api.GET("/videos", s.listVideos)
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	sqlDB, err := s.store.DB().DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listArticles(c *gin.Context) {
	articles, err := s.store.RecentArticles(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// fetchNews pulls fresh headlines and stores the new ones
func (s *Server) fetchNews(c *gin.Context) {
	articles, err := s.news.Fetch(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	saved, err := s.store.SaveArticles(articles)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fetched": len(articles), "new": saved})
}

type generateScriptRequest struct {
	ArticleID uint `json:"article_id" binding:"required"`
}

func (s *Server) generateScript(c *gin.Context) {
	var req generateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id is required"})
		return
	}
	article, err := s.store.GetArticle(req.ArticleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	generated, err := s.scripts.Generate(c.Request.Context(), types.Article{
		Title:       article.Title,
		Description: article.Description,
		Source:      article.Source,
		URL:         article.URL,
		PublishedAt: article.PublishedAt,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	record, err := s.store.SaveScript(&article.ID, *generated)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"script": record})
}

type generateFromArticleRequest struct {
	ScriptID uint `json:"script_id" binding:"required"`
}

// generateFromArticle queues a render for an existing script
func (s *Server) generateFromArticle(c *gin.Context) {
	var req generateFromArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "script_id is required"})
		return
	}
	record, err := s.store.GetScript(req.ScriptID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Script not found"})
		return
	}
	task := worker.Task{
		ScriptID: &record.ID,
		Title:    record.Title,
		Text:     record.ScriptText,
	}
	if err := worker.Enqueue(c.Request.Context(), s.rdb, s.cfg.Worker.Queue, task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Queue error"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true, "script_id": record.ID})
}

type generateFromTextRequest struct {
	Title    string   `json:"title"`
	Text     string   `json:"text" binding:"required"`
	Keywords []string `json:"keywords"`
}

// generateFromText queues a render for caller-supplied narration text
func (s *Server) generateFromText(c *gin.Context) {
	var req generateFromTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Custom video"
	}
	task := worker.Task{
		Title:    title,
		Text:     req.Text,
		Keywords: req.Keywords,
	}
	if err := worker.Enqueue(c.Request.Context(), s.rdb, s.cfg.Worker.Queue, task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Queue error"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

func (s *Server) listVideos(c *gin.Context) {
	videos, err := s.store.RecentVideos(50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": videos})
}

// RefreshNews is the cron entry point that keeps the article table fresh
func (s *Server) RefreshNews(ctx context.Context) error {
	articles, err := s.news.Fetch(ctx)
	if err != nil {
		return err
	}
	_, err = s.store.SaveArticles(articles)
	return err
}
