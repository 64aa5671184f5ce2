package types

// Article is one news item as fetched from GNews or an RSS feed
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
}

// Script is the narration text for one video, immutable once created
type Script struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Clip is one piece of stock footage after download and normalization.
// After normalization every clip in a pool shares resolution, codec and fps.
type Clip struct {
	SourceID    string  `json:"source_id"`
	FilePath    string  `json:"file_path"`
	DurationSec float64 `json:"duration_sec"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Codec       string  `json:"codec"`
	Keyword     string  `json:"keyword"`
}

// NarrationTier identifies which speech engine produced the narration
type NarrationTier string

const (
	TierPrimary   NarrationTier = "primary"
	TierFallback1 NarrationTier = "fallback1"
	TierFallback2 NarrationTier = "fallback2"
)

// NarrationAsset is the synthesized narration track.
// DurationSec is measured from the produced file with ffprobe, never
// estimated from text length: all downstream timing hangs off it.
type NarrationAsset struct {
	AudioPath   string        `json:"audio_path"`
	DurationSec float64       `json:"duration_sec"`
	TierUsed    NarrationTier `json:"tier_used"`
	VoiceID     string        `json:"voice_id,omitempty"`
}

// TranscriptSegment is a time-bounded unit of transcript text
type TranscriptSegment struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Text     string  `json:"text"`
}

// Orientation of an output video
type Orientation string

const (
	OrientationStandard Orientation = "standard"
	OrientationVertical Orientation = "vertical"
)

// AssembledVideo is the silent composite matched to narration duration
type AssembledVideo struct {
	VideoPath   string      `json:"video_path"`
	Orientation Orientation `json:"orientation"`
	DurationSec float64     `json:"duration_sec"`
}

// CaptionStrategy identifies which caption tier produced the output
type CaptionStrategy string

const (
	CaptionBurned         CaptionStrategy = "burned"
	CaptionSegmentOverlay CaptionStrategy = "segment_overlay"
	CaptionFixed          CaptionStrategy = "fixed_caption"
	CaptionNone           CaptionStrategy = "none"
)

// CaptionedVideo is a terminal artifact, one per orientation
type CaptionedVideo struct {
	VideoPath    string          `json:"video_path"`
	Orientation  Orientation     `json:"orientation"`
	StrategyUsed CaptionStrategy `json:"caption_strategy_used"`
}

// PipelineRun tracks the full state of one video-generation request.
// It lives only for the duration of the request and is never persisted
// by the core; the store keeps its own records.
type PipelineRun struct {
	RunID       string                          `json:"run_id"`
	StartedAt   string                          `json:"started_at"`
	CompletedAt string                          `json:"completed_at"`
	Script      *Script                         `json:"script"`
	Keywords    []string                        `json:"keywords"`
	Clips       []Clip                          `json:"clips"`
	Narration   *NarrationAsset                 `json:"narration"`
	Segments    []TranscriptSegment             `json:"segments"`
	Assembled   map[Orientation]*AssembledVideo `json:"assembled"`
	Standard    *CaptionedVideo                 `json:"standard"`
	Vertical    *CaptionedVideo                 `json:"vertical"`
	Error       string                          `json:"error,omitempty"`
}

// Result is what the core hands back to its caller on success
type Result struct {
	Standard     *CaptionedVideo `json:"standard"`
	Vertical     *CaptionedVideo `json:"vertical"`
	DurationSec  float64         `json:"duration_sec"`
	TierUsed     NarrationTier   `json:"tier_used"`
	StrategyUsed CaptionStrategy `json:"caption_strategy_used"`
}
