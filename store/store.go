package store

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AndreiCalugar/NewsGenerator/types"
)

// Article is a persisted news item, deduplicated by URL and title
type Article struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Title         string `gorm:"uniqueIndex;not null" json:"title"`
	Description   string `json:"description"`
	Source        string `json:"source"`
	URL           string `gorm:"uniqueIndex" json:"url"`
	PublishedAt   string `json:"published_at"`
	UsedForScript bool   `gorm:"default:false" json:"used_for_script"`
	CreatedAt     time.Time
}

// ScriptRecord is a generated narration script tied to its article
type ScriptRecord struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ArticleID  *uint  `gorm:"index" json:"article_id"`
	Title      string `json:"title"`
	ScriptText string `gorm:"not null" json:"script_text"`
	CreatedAt  time.Time
}

// VideoRecord tracks one completed render
type VideoRecord struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	ScriptID     *uint   `gorm:"index" json:"script_id"`
	StandardPath string  `json:"standard_path"`
	VerticalPath string  `json:"vertical_path"`
	DurationSec  float64 `json:"duration_sec"`
	TierUsed     string  `json:"tier_used"`
	Strategy     string  `json:"caption_strategy"`
	Keywords     string  `json:"keywords"`
	CreatedAt    time.Time
}

// Store wraps the sqlite database behind the operations the rest of
// the system needs.
type Store struct {
	db *gorm.DB
}

// Open connects to the sqlite file and migrates the schema
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Article{}, &ScriptRecord{}, &VideoRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *gorm.DB { return s.db }

// SaveArticles inserts new articles, silently skipping duplicates,
// and reports how many were actually new.
func (s *Store) SaveArticles(articles []types.Article) (int, error) {
	saved := 0
	for _, a := range articles {
		record := Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		}
		var existing Article
		err := s.db.Where("url = ? OR title = ?", a.URL, a.Title).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return saved, fmt.Errorf("check article: %w", err)
		}
		if err := s.db.Create(&record).Error; err != nil {
			return saved, fmt.Errorf("save article: %w", err)
		}
		saved++
	}
	return saved, nil
}

// RecentArticles returns the newest stored articles
func (s *Store) RecentArticles(limit int) ([]Article, error) {
	var articles []Article
	err := s.db.Order("created_at DESC").Limit(limit).Find(&articles).Error
	return articles, err
}

// GetArticle fetches one article by ID
func (s *Store) GetArticle(id uint) (*Article, error) {
	var a Article
	if err := s.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// NextUnusedArticle returns the newest article not yet scripted
func (s *Store) NextUnusedArticle() (*Article, error) {
	var a Article
	err := s.db.Where("used_for_script = ?", false).Order("created_at DESC").First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveScript records a generated script and marks its article as used
func (s *Store) SaveScript(articleID *uint, script types.Script) (*ScriptRecord, error) {
	record := ScriptRecord{
		ArticleID:  articleID,
		Title:      script.Title,
		ScriptText: script.Text,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		if articleID != nil {
			return tx.Model(&Article{}).Where("id = ?", *articleID).
				Update("used_for_script", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save script: %w", err)
	}
	return &record, nil
}

// GetScript fetches one script by ID
func (s *Store) GetScript(id uint) (*ScriptRecord, error) {
	var r ScriptRecord
	if err := s.db.First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveVideo records a finished render
func (s *Store) SaveVideo(scriptID *uint, result *types.Result, keywords string) (*VideoRecord, error) {
	record := VideoRecord{
		ScriptID:    scriptID,
		DurationSec: result.DurationSec,
		TierUsed:    string(result.TierUsed),
		Strategy:    string(result.StrategyUsed),
		Keywords:    keywords,
	}
	if result.Standard != nil {
		record.StandardPath = result.Standard.VideoPath
	}
	if result.Vertical != nil {
		record.VerticalPath = result.Vertical.VideoPath
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("save video: %w", err)
	}
	return &record, nil
}

// RecentVideos returns the newest renders
func (s *Store) RecentVideos(limit int) ([]VideoRecord, error) {
	var videos []VideoRecord
	err := s.db.Order("created_at DESC").Limit(limit).Find(&videos).Error
	return videos, err
}
