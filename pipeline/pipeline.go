package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AndreiCalugar/NewsGenerator/assemble"
	"github.com/AndreiCalugar/NewsGenerator/captions"
	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/footage"
	"github.com/AndreiCalugar/NewsGenerator/media"
	"github.com/AndreiCalugar/NewsGenerator/narration"
	"github.com/AndreiCalugar/NewsGenerator/transcript"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

// ClipFetcher sources and normalizes stock footage for a keyword set
type ClipFetcher interface {
	FetchClips(ctx context.Context, keywords []string, targetTotalSeconds float64, workDir string) ([]types.Clip, error)
}

// NarrationSynthesizer turns script text into a narration audio file
type NarrationSynthesizer interface {
	Synthesize(ctx context.Context, scriptText, workDir string) (*types.NarrationAsset, error)
}

// TranscriptGenerator produces timed segments for the narration
type TranscriptGenerator interface {
	Generate(ctx context.Context, narration *types.NarrationAsset, scriptText string) []types.TranscriptSegment
}

// ClipAssembler builds the silent composites from the clip pool
type ClipAssembler interface {
	Assemble(ctx context.Context, clips []types.Clip, targetSec float64, workDir string) (map[types.Orientation]*types.AssembledVideo, error)
}

// CaptionRenderer writes captions onto one narrated video
type CaptionRenderer interface {
	Render(ctx context.Context, video *types.AssembledVideo, segments []types.TranscriptSegment, scriptText, workDir string) (*types.CaptionedVideo, error)
}

// Muxer combines a silent composite with the narration track
type Muxer interface {
	Mux(ctx context.Context, video, audio, out string) error
}

// Pipeline runs the full text-to-video flow for one script
type Pipeline struct {
	cfg         *config.Config
	fetcher     ClipFetcher
	synthesizer NarrationSynthesizer
	transcripts TranscriptGenerator
	assembler   ClipAssembler
	renderer    CaptionRenderer
	muxer       Muxer
}

// New wires the production components around a shared ffmpeg wrapper
func New(cfg *config.Config) *Pipeline {
	ff := media.New()
	provider := footage.NewPexelsClient(cfg.Secrets.PexelsAPIKey, cfg.Footage.PerPage, cfg.Footage.MinClipSec, cfg.Footage.MaxClipSec)
	return &Pipeline{
		cfg:         cfg,
		fetcher:     footage.NewFetcher(provider, ff, cfg),
		synthesizer: narration.NewSynthesizer(cfg, ff),
		transcripts: transcript.NewGenerator(transcript.NewWhisperCLI(cfg.Captions.WhisperModel, cfg.Narration.Language), cfg.Captions.GapToleranceSec),
		assembler:   assemble.New(ff, cfg),
		renderer:    captions.New(ff, cfg),
		muxer:       ff,
	}
}

// NewWithComponents builds a pipeline from explicit components
func NewWithComponents(cfg *config.Config, fetcher ClipFetcher, synth NarrationSynthesizer, transcripts TranscriptGenerator, assembler ClipAssembler, renderer CaptionRenderer, muxer Muxer) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		fetcher:     fetcher,
		synthesizer: synth,
		transcripts: transcripts,
		assembler:   assembler,
		renderer:    renderer,
		muxer:       muxer,
	}
}

// Run executes the full pipeline for one script. On success the terminal
// artifacts live under <output>/<runID>/ and everything intermediate is
// gone; on a fatal error the whole run directory is removed.
func (p *Pipeline) Run(ctx context.Context, script types.Script, keywords []string) (*types.Result, error) {
	runID := uuid.NewString()[:8]
	runDir := filepath.Join(p.cfg.Paths.Output, runID)
	workDir := filepath.Join(runDir, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	log.Printf("[pipeline] run %s started: %q (%d keywords)", runID, script.Title, len(keywords))

	state := &types.PipelineRun{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Script:    &script,
		Keywords:  keywords,
	}

	result, err := p.run(ctx, script, keywords, runDir, workDir, state)
	if err != nil {
		state.Error = err.Error()
		log.Printf("[pipeline] ⚠️ run %s failed: %v", runID, err)
		os.RemoveAll(runDir)
		return nil, err
	}

	state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	if err := saveJSON(filepath.Join(runDir, "run.json"), state); err != nil {
		log.Printf("[pipeline] ⚠️ could not save run state: %v", err)
	}
	os.RemoveAll(workDir)
	log.Printf("[pipeline] ✅ run %s complete: %s", runID, result.Standard.VideoPath)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, script types.Script, keywords []string, runDir, workDir string, state *types.PipelineRun) (*types.Result, error) {
	timeout := time.Duration(p.cfg.Timeouts.ExternalCallSec) * time.Second

	// Narration first: its measured duration drives how much footage
	// is needed and the exact length of the composites. The synthesizer
	// applies its own per-engine deadlines, so a hanging tier times out
	// without starving the tiers after it.
	asset, err := p.synthesizer.Synthesize(ctx, script.Text, workDir)
	if err != nil {
		return nil, fatal(FailureNarrationUnavailable, "narration", err)
	}
	state.Narration = asset
	log.Printf("[pipeline] narration ready: %.2fs via %s", asset.DurationSec, asset.TierUsed)

	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	clips, err := p.fetcher.FetchClips(fetchCtx, keywords, asset.DurationSec, workDir)
	cancel()
	if err != nil {
		return nil, fatal(FailureInsufficientFootage, "footage", err)
	}
	state.Clips = clips
	log.Printf("[pipeline] %d clips in pool", len(clips))

	assembled, err := p.assembler.Assemble(ctx, clips, asset.DurationSec, workDir)
	if err != nil {
		return nil, fatal(FailureAssemblyError, "assemble", err)
	}
	state.Assembled = assembled

	// Mux narration into each silent composite before captioning so the
	// caption tiers carry the audio through with -c:a copy.
	narrated := make(map[types.Orientation]*types.AssembledVideo, len(assembled))
	for orient, video := range assembled {
		out := filepath.Join(workDir, fmt.Sprintf("narrated_%s.mp4", orient))
		if err := p.muxer.Mux(ctx, video.VideoPath, asset.AudioPath, out); err != nil {
			return nil, fatal(FailureAssemblyError, "mux", fmt.Errorf("mux %s: %w", orient, err))
		}
		narrated[orient] = &types.AssembledVideo{
			VideoPath:   out,
			Orientation: orient,
			DurationSec: video.DurationSec,
		}
	}

	segments := p.transcripts.Generate(ctx, asset, script.Text)
	state.Segments = segments

	finals := make(map[types.Orientation]*types.CaptionedVideo, len(narrated))
	for orient, video := range narrated {
		captioned := p.caption(ctx, video, segments, script.Text, workDir)
		final := filepath.Join(runDir, fmt.Sprintf("news_%s.mp4", orient))
		if err := os.Rename(captioned.VideoPath, final); err != nil {
			return nil, fatal(FailureAssemblyError, "finalize", fmt.Errorf("move %s output: %w", orient, err))
		}
		captioned.VideoPath = final
		finals[orient] = captioned
	}
	state.Standard = finals[types.OrientationStandard]
	state.Vertical = finals[types.OrientationVertical]

	return &types.Result{
		Standard:     finals[types.OrientationStandard],
		Vertical:     finals[types.OrientationVertical],
		DurationSec:  asset.DurationSec,
		TierUsed:     asset.TierUsed,
		StrategyUsed: finals[types.OrientationStandard].StrategyUsed,
	}, nil
}

// caption renders captions for one orientation. Caption failures are
// never fatal: if every tier fails the narrated video ships as-is.
func (p *Pipeline) caption(ctx context.Context, video *types.AssembledVideo, segments []types.TranscriptSegment, scriptText, workDir string) *types.CaptionedVideo {
	if p.cfg.Captions.Disabled {
		return &types.CaptionedVideo{
			VideoPath:    video.VideoPath,
			Orientation:  video.Orientation,
			StrategyUsed: types.CaptionNone,
		}
	}
	captioned, err := p.renderer.Render(ctx, video, segments, scriptText, workDir)
	if err != nil {
		log.Printf("[pipeline] ⚠️ captions failed for %s, keeping uncaptioned video: %v", video.Orientation, err)
		return &types.CaptionedVideo{
			VideoPath:    video.VideoPath,
			Orientation:  video.Orientation,
			StrategyUsed: types.CaptionNone,
		}
	}
	return captioned
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
