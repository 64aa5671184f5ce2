package captions

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

// sliceEpsilon is the smallest gap worth cutting a dedicated slice for
const sliceEpsilon = 0.05

// VideoTool is the slice of the video engine the renderer needs
type VideoTool interface {
	BurnSubtitles(ctx context.Context, video, subFile, out, font string, fontSize, marginV int) error
	DrawText(ctx context.Context, in, out, text string, fontSize, marginBottom int, startSec, durationSec float64) error
	TrimAV(ctx context.Context, in, out string, startSec, durationSec float64) error
	Concat(ctx context.Context, listFile, out string) error
}

// Renderer overlays captions onto an assembled video, walking the tier
// chain per orientation: subtitle burn-in, then per-segment overlays, then
// one fixed caption. Only the caption application step is retried between
// tiers; the base video is never re-transcoded on failure.
type Renderer struct {
	tool VideoTool
	cfg  config.CaptionsConfig
}

func New(tool VideoTool, cfg *config.Config) *Renderer {
	return &Renderer{tool: tool, cfg: cfg.Captions}
}

// Render produces a captioned terminal artifact for one orientation
func (r *Renderer) Render(ctx context.Context, video *types.AssembledVideo, segments []types.TranscriptSegment, scriptText, workDir string) (*types.CaptionedVideo, error) {
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, err
	}

	if out, err := r.burnSubtitles(ctx, video, segments, workDir); err == nil {
		log.Printf("[captions] ✅ %s: burned subtitles", video.Orientation)
		return &types.CaptionedVideo{VideoPath: out, Orientation: video.Orientation, StrategyUsed: types.CaptionBurned}, nil
	} else {
		log.Printf("[captions] ⚠️  %s: subtitle burn failed: %v — trying segment overlay", video.Orientation, err)
	}

	if out, err := r.segmentOverlay(ctx, video, segments, workDir); err == nil {
		log.Printf("[captions] ✅ %s: segment overlay", video.Orientation)
		return &types.CaptionedVideo{VideoPath: out, Orientation: video.Orientation, StrategyUsed: types.CaptionSegmentOverlay}, nil
	} else {
		log.Printf("[captions] ⚠️  %s: segment overlay failed: %v — trying fixed caption", video.Orientation, err)
	}

	out, err := r.fixedCaption(ctx, video, scriptText, workDir)
	if err != nil {
		return nil, fmt.Errorf("all caption tiers failed: %w", err)
	}
	log.Printf("[captions] ✅ %s: fixed caption", video.Orientation)
	return &types.CaptionedVideo{VideoPath: out, Orientation: video.Orientation, StrategyUsed: types.CaptionFixed}, nil
}

// burnSubtitles is tier 1: write an SRT from the segments and burn it in
func (r *Renderer) burnSubtitles(ctx context.Context, video *types.AssembledVideo, segments []types.TranscriptSegment, workDir string) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("no segments")
	}

	srtPath := filepath.Join(workDir, fmt.Sprintf("subtitles_%s.srt", video.Orientation))
	if err := WriteSRT(segments, srtPath, r.cfg.MaxCharsPerLine); err != nil {
		return "", err
	}

	out := filepath.Join(workDir, fmt.Sprintf("burned_%s.mp4", video.Orientation))
	if err := r.tool.BurnSubtitles(ctx, video.VideoPath, srtPath, out, r.cfg.Font, r.cfg.FontSize, r.cfg.MarginBottom); err != nil {
		os.Remove(out)
		return "", err
	}
	return out, nil
}

// segmentOverlay is tier 2: slice the video at segment boundaries, draw each
// segment's text on its slice, and concatenate the slices back in order.
// A slice whose drawtext fails is retained without text, so captioning
// degrades locally, not globally. The tier itself fails only when slicing
// or concatenation cannot produce a valid video.
func (r *Renderer) segmentOverlay(ctx context.Context, video *types.AssembledVideo, segments []types.TranscriptSegment, workDir string) (string, error) {
	slices := sliceBoundaries(segments, video.DurationSec)
	if len(slices) == 0 {
		return "", fmt.Errorf("no slices to overlay")
	}

	var sliceFiles []string
	for i, sl := range slices {
		out := filepath.Join(workDir, fmt.Sprintf("slice_%s_%02d.mp4", video.Orientation, i))

		var err error
		if sl.text != "" {
			caption := strings.Join(WrapText(sl.text, r.cfg.MaxCharsPerLine), "\n")
			err = r.tool.DrawText(ctx, video.VideoPath, out, caption, r.cfg.FontSize, r.cfg.MarginBottom, sl.start, sl.duration)
			if err != nil {
				log.Printf("[captions] ⚠️  slice %d drawtext failed: %v — keeping it without text", i, err)
				os.Remove(out)
				err = r.tool.TrimAV(ctx, video.VideoPath, out, sl.start, sl.duration)
			}
		} else {
			// TrimAV, not a plain trim: the input is the narrated video and
			// filler slices must keep their audio for the concat to be valid.
			err = r.tool.TrimAV(ctx, video.VideoPath, out, sl.start, sl.duration)
		}
		if err != nil {
			os.Remove(out)
			return "", fmt.Errorf("slice %d: %w", i, err)
		}
		sliceFiles = append(sliceFiles, out)
	}

	listFile := filepath.Join(workDir, fmt.Sprintf("slices_%s.txt", video.Orientation))
	var lines []string
	for _, f := range sliceFiles {
		lines = append(lines, fmt.Sprintf("file '%s'", f))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", err
	}

	out := filepath.Join(workDir, fmt.Sprintf("overlay_%s.mp4", video.Orientation))
	if err := r.tool.Concat(ctx, listFile, out); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("concat slices: %w", err)
	}
	return out, nil
}

// fixedCaption is tier 3, the final guarantee: one static excerpt of the
// script across the whole video, no per-segment timing involved.
func (r *Renderer) fixedCaption(ctx context.Context, video *types.AssembledVideo, scriptText, workDir string) (string, error) {
	caption := Excerpt(scriptText, r.cfg.FixedMaxChars)
	out := filepath.Join(workDir, fmt.Sprintf("fixed_%s.mp4", video.Orientation))
	if err := r.tool.DrawText(ctx, video.VideoPath, out, caption, r.cfg.FontSize, r.cfg.MarginBottom, 0, 0); err != nil {
		os.Remove(out)
		return "", err
	}
	return out, nil
}

type timeSlice struct {
	start    float64
	duration float64
	text     string
}

// sliceBoundaries converts segments into contiguous slices covering
// [0, totalSec], inserting untexted filler where the transcript has gaps.
func sliceBoundaries(segments []types.TranscriptSegment, totalSec float64) []timeSlice {
	var slices []timeSlice
	cursor := 0.0

	for _, seg := range segments {
		if seg.StartSec >= totalSec {
			break
		}
		if seg.StartSec-cursor > sliceEpsilon {
			slices = append(slices, timeSlice{start: cursor, duration: seg.StartSec - cursor})
		}
		end := seg.EndSec
		if end > totalSec {
			end = totalSec
		}
		start := seg.StartSec
		if start < cursor {
			start = cursor
		}
		if end-start > sliceEpsilon {
			slices = append(slices, timeSlice{start: start, duration: end - start, text: seg.Text})
			cursor = end
		}
	}

	if totalSec-cursor > sliceEpsilon {
		slices = append(slices, timeSlice{start: cursor, duration: totalSec - cursor})
	}
	return slices
}
