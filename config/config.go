package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	News      NewsConfig      `yaml:"news"`
	Script    ScriptConfig    `yaml:"script"`
	Narration NarrationConfig `yaml:"narration"`
	Footage   FootageConfig   `yaml:"footage"`
	Assembly  AssemblyConfig  `yaml:"assembly"`
	Captions  CaptionsConfig  `yaml:"captions"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Worker    WorkerConfig    `yaml:"worker"`
	Paths     PathsConfig     `yaml:"paths"`

	// Secrets are loaded from the environment, not the yaml file,
	// so a config file can be committed without leaking keys.
	Secrets Secrets `yaml:"-"`
}

type NewsConfig struct {
	Country    string   `yaml:"country"`
	Language   string   `yaml:"language"`
	MaxResults int      `yaml:"max_results"`
	RSSFeeds   []string `yaml:"rss_feeds"`
}

type ScriptConfig struct {
	Model       string  `yaml:"model"`
	MaxWords    int     `yaml:"max_words"`
	Temperature float64 `yaml:"temperature"`
	MaxKeywords int     `yaml:"max_keywords"`
}

type NarrationConfig struct {
	VoiceID      string `yaml:"voice_id"`
	ModelID      string `yaml:"model_id"`
	OutputFormat string `yaml:"output_format"`
	Language     string `yaml:"language"`
	ESpeakVoice  string `yaml:"espeak_voice"`
}

type FootageConfig struct {
	PerPage          int     `yaml:"per_page"`
	MaxClips         int     `yaml:"max_clips"`
	MinClips         int     `yaml:"min_clips"`
	MinClipSec       float64 `yaml:"min_clip_sec"`
	MaxClipSec       float64 `yaml:"max_clip_sec"`
	DownloadParallel int     `yaml:"download_parallel"`
	FallbackKeyword  string  `yaml:"fallback_keyword"`
}

type AssemblyConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FPS        int     `yaml:"fps"`
	SegmentSec float64 `yaml:"segment_sec"`
}

type CaptionsConfig struct {
	// Disabled turns caption rendering off entirely; the pipeline then
	// returns the assembled video with strategy "none".
	Disabled        bool   `yaml:"disabled"`
	Font            string `yaml:"font"`
	FontSize        int    `yaml:"font_size"`
	MaxCharsPerLine int    `yaml:"max_chars_per_line"`
	MarginBottom    int    `yaml:"margin_bottom"`
	FixedMaxChars   int    `yaml:"fixed_max_chars"`
	WhisperModel    string `yaml:"whisper_model"`
	// GapToleranceSec is the largest transcript gap left uncovered;
	// anything wider is closed by extending the neighboring segment.
	GapToleranceSec float64 `yaml:"gap_tolerance_sec"`
}

type TimeoutsConfig struct {
	ExternalCallSec int `yaml:"external_call_sec"`
}

type WorkerConfig struct {
	Concurrency int    `yaml:"concurrency"`
	RenderSlots int    `yaml:"render_slots"`
	Queue       string `yaml:"queue"`
	NewsCron    string `yaml:"news_cron"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	DB     string `yaml:"db"`
}

// Secrets holds external credentials, read once from the environment
// and passed along inside the Config (never re-read from ambient state).
type Secrets struct {
	GNewsAPIKey      string
	OpenAIAPIKey     string
	PexelsAPIKey     string
	ElevenLabsAPIKey string
	RedisURL         string
}

// Load reads config.yaml, applies defaults and attaches env secrets
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.Secrets = SecretsFromEnv()
	return &cfg, nil
}

// Default returns a usable configuration when no config.yaml is present
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Secrets = SecretsFromEnv()
	return cfg
}

// SecretsFromEnv snapshots credentials from the environment
func SecretsFromEnv() Secrets {
	return Secrets{
		GNewsAPIKey:      os.Getenv("GNEWS_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		PexelsAPIKey:     os.Getenv("PEXELS_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		RedisURL:         os.Getenv("REDIS_URL"),
	}
}

func (c *Config) applyDefaults() {
	if c.News.Country == "" {
		c.News.Country = "us"
	}
	if c.News.Language == "" {
		c.News.Language = "en"
	}
	if c.News.MaxResults == 0 {
		c.News.MaxResults = 8
	}
	if len(c.News.RSSFeeds) == 0 {
		c.News.RSSFeeds = []string{
			"http://rss.cnn.com/rss/cnn_topstories.rss",
			"https://feeds.npr.org/1001/rss.xml",
			"https://rss.nytimes.com/services/xml/rss/nyt/HomePage.xml",
			"http://rssfeeds.usatoday.com/usatoday-NewsTopStories",
		}
	}
	if c.Script.Model == "" {
		c.Script.Model = "gpt-4o-mini"
	}
	if c.Script.MaxWords == 0 {
		c.Script.MaxWords = 90
	}
	if c.Script.Temperature == 0 {
		c.Script.Temperature = 0.7
	}
	if c.Script.MaxKeywords == 0 {
		c.Script.MaxKeywords = 5
	}
	if c.Narration.VoiceID == "" {
		c.Narration.VoiceID = "DMyrgzQFny3JI1Y1paM5"
	}
	if c.Narration.ModelID == "" {
		c.Narration.ModelID = "eleven_multilingual_v2"
	}
	if c.Narration.OutputFormat == "" {
		c.Narration.OutputFormat = "mp3_44100_128"
	}
	if c.Narration.Language == "" {
		c.Narration.Language = "en"
	}
	if c.Narration.ESpeakVoice == "" {
		c.Narration.ESpeakVoice = "en-us"
	}
	if c.Footage.PerPage == 0 {
		c.Footage.PerPage = 5
	}
	if c.Footage.MaxClips == 0 {
		c.Footage.MaxClips = 5
	}
	if c.Footage.MinClips == 0 {
		c.Footage.MinClips = 1
	}
	if c.Footage.MinClipSec == 0 {
		c.Footage.MinClipSec = 5
	}
	if c.Footage.MaxClipSec == 0 {
		c.Footage.MaxClipSec = 20
	}
	if c.Footage.DownloadParallel == 0 {
		c.Footage.DownloadParallel = 3
	}
	if c.Footage.FallbackKeyword == "" {
		c.Footage.FallbackKeyword = "news"
	}
	if c.Assembly.Width == 0 {
		c.Assembly.Width = 1280
	}
	if c.Assembly.Height == 0 {
		c.Assembly.Height = 720
	}
	if c.Assembly.FPS == 0 {
		c.Assembly.FPS = 30
	}
	if c.Assembly.SegmentSec == 0 {
		c.Assembly.SegmentSec = 6
	}
	if c.Captions.Font == "" {
		c.Captions.Font = "Arial"
	}
	if c.Captions.FontSize == 0 {
		c.Captions.FontSize = 24
	}
	if c.Captions.MaxCharsPerLine == 0 {
		c.Captions.MaxCharsPerLine = 40
	}
	if c.Captions.MarginBottom == 0 {
		c.Captions.MarginBottom = 50
	}
	if c.Captions.FixedMaxChars == 0 {
		c.Captions.FixedMaxChars = 120
	}
	if c.Captions.WhisperModel == "" {
		c.Captions.WhisperModel = "base"
	}
	if c.Captions.GapToleranceSec == 0 {
		c.Captions.GapToleranceSec = 0.5
	}
	if c.Timeouts.ExternalCallSec == 0 {
		c.Timeouts.ExternalCallSec = 120
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 2
	}
	if c.Worker.RenderSlots == 0 {
		c.Worker.RenderSlots = 2
	}
	if c.Worker.Queue == "" {
		c.Worker.Queue = "q_video_generate"
	}
	if c.Worker.NewsCron == "" {
		c.Worker.NewsCron = "0 * * * *"
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "videos"
	}
	if c.Paths.DB == "" {
		c.Paths.DB = "news_database.db"
	}
}
