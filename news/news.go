package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

const gnewsBaseURL = "https://gnews.io/api/v4"

// GNewsClient fetches headlines from the GNews API
type GNewsClient struct {
	apiKey     string
	country    string
	language   string
	maxResults int
	httpClient *http.Client
}

func NewGNewsClient(cfg *config.Config) *GNewsClient {
	return &GNewsClient{
		apiKey:     cfg.Secrets.GNewsAPIKey,
		country:    cfg.News.Country,
		language:   cfg.News.Language,
		maxResults: cfg.News.MaxResults,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type gnewsResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// TopHeadlines returns the current top stories
func (c *GNewsClient) TopHeadlines(ctx context.Context) ([]types.Article, error) {
	return c.call(ctx, "/top-headlines", url.Values{})
}

// Search returns stories matching a query
func (c *GNewsClient) Search(ctx context.Context, query string) ([]types.Article, error) {
	v := url.Values{}
	v.Set("q", query)
	return c.call(ctx, "/search", v)
}

func (c *GNewsClient) call(ctx context.Context, path string, v url.Values) ([]types.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("gnews: no API key configured")
	}
	v.Set("apikey", c.apiKey)
	v.Set("country", c.country)
	v.Set("lang", c.language)
	v.Set("max", strconv.Itoa(c.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gnewsBaseURL+path+"?"+v.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gnews %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed gnewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("gnews %s: decode: %w", path, err)
	}
	articles := make([]types.Article, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		articles = append(articles, types.Article{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}
	return articles, nil
}

// RSSFetcher pulls headlines from configured RSS feeds
type RSSFetcher struct {
	feeds      []string
	maxPerFeed int
	parser     *gofeed.Parser
}

func NewRSSFetcher(cfg *config.Config) *RSSFetcher {
	return &RSSFetcher{
		feeds:      cfg.News.RSSFeeds,
		maxPerFeed: cfg.News.MaxResults,
		parser:     gofeed.NewParser(),
	}
}

// Fetch reads every configured feed; feeds that error are skipped
func (r *RSSFetcher) Fetch(ctx context.Context) []types.Article {
	var articles []types.Article
	for _, feedURL := range r.feeds {
		feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			log.Printf("[news] ⚠️ feed %s skipped: %v", feedURL, err)
			continue
		}
		count := 0
		for _, item := range feed.Items {
			if count >= r.maxPerFeed {
				break
			}
			published := ""
			if item.PublishedParsed != nil {
				published = item.PublishedParsed.UTC().Format(time.RFC3339)
			}
			articles = append(articles, types.Article{
				Title:       item.Title,
				Description: item.Description,
				Source:      feed.Title,
				URL:         item.Link,
				PublishedAt: published,
			})
			count++
		}
	}
	return articles
}

// Fetcher combines GNews with the RSS fallback
type Fetcher struct {
	gnews *GNewsClient
	rss   *RSSFetcher
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		gnews: NewGNewsClient(cfg),
		rss:   NewRSSFetcher(cfg),
	}
}

// Fetch returns fresh articles, preferring GNews and falling back to
// RSS when the API is unavailable or returns nothing.
func (f *Fetcher) Fetch(ctx context.Context) ([]types.Article, error) {
	articles, err := f.gnews.TopHeadlines(ctx)
	if err != nil {
		log.Printf("[news] ⚠️ gnews unavailable, reading RSS feeds: %v", err)
	}
	if len(articles) == 0 {
		articles = f.rss.Fetch(ctx)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("news: no articles from any source")
	}
	log.Printf("[news] ✅ fetched %d articles", len(articles))
	return Dedupe(articles), nil
}

// Dedupe drops articles sharing a URL or title with an earlier one
func Dedupe(articles []types.Article) []types.Article {
	seen := map[string]struct{}{}
	out := articles[:0]
	for _, a := range articles {
		keyURL := strings.TrimSpace(a.URL)
		keyTitle := strings.ToLower(strings.TrimSpace(a.Title))
		if _, dup := seen[keyURL]; dup && keyURL != "" {
			continue
		}
		if _, dup := seen[keyTitle]; dup && keyTitle != "" {
			continue
		}
		if keyURL != "" {
			seen[keyURL] = struct{}{}
		}
		if keyTitle != "" {
			seen[keyTitle] = struct{}{}
		}
		out = append(out, a)
	}
	return out
}
