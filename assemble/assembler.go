package assemble

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

// ErrAssembly marks unrecoverable encode errors; the pipeline surfaces it
// as a fatal AssemblyError.
var ErrAssembly = errors.New("assembly failed")

// VideoTool is the slice of the video engine the assembler needs
type VideoTool interface {
	Trim(ctx context.Context, in, out string, startSec, durationSec float64) error
	TrimWithLoop(ctx context.Context, in, out string, durationSec, clipDurationSec float64) error
	Concat(ctx context.Context, listFile, out string) error
	CropVertical(ctx context.Context, in, out string, srcHeight int) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Assembler builds the silent composites whose duration matches narration
type Assembler struct {
	tool   VideoTool
	cfg    config.AssemblyConfig
	height int
}

func New(tool VideoTool, cfg *config.Config) *Assembler {
	return &Assembler{tool: tool, cfg: cfg.Assembly, height: cfg.Assembly.Height}
}

// piece is one planned slice of the composite
type piece struct {
	ClipIndex   int
	DurationSec float64
	Loop        bool
}

// Plan decides how much of each clip is used. Clips contribute at most the
// fixed segment length, in source order, until the target is covered; if the
// pool runs out the last clip is looped to fill the remainder instead of
// failing the run. The plan always sums to exactly targetSec.
func Plan(clipDurations []float64, segmentSec, targetSec float64) []piece {
	var pieces []piece
	accumulated := 0.0

	for i, dur := range clipDurations {
		if accumulated >= targetSec {
			break
		}
		take := segmentSec
		if dur < take {
			take = dur
		}
		if remaining := targetSec - accumulated; take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		pieces = append(pieces, piece{ClipIndex: i, DurationSec: take})
		accumulated += take
	}

	// Pool exhausted before the target: loop the last clip for the rest
	if remaining := targetSec - accumulated; remaining > 0 && len(pieces) > 0 {
		last := len(clipDurations) - 1
		pieces = append(pieces, piece{ClipIndex: last, DurationSec: remaining, Loop: true})
	}

	return pieces
}

// Assemble produces the standard and vertical silent composites, each
// exactly targetSec long (one trim pass guarantees it even when clip
// boundaries land short or long).
func (a *Assembler) Assemble(ctx context.Context, clips []types.Clip, targetSec float64, workDir string) (map[types.Orientation]*types.AssembledVideo, error) {
	if len(clips) == 0 {
		return nil, fmt.Errorf("%w: no clips to assemble", ErrAssembly)
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssembly, err)
	}

	durations := make([]float64, len(clips))
	for i, c := range clips {
		durations[i] = c.DurationSec
	}
	pieces := Plan(durations, a.cfg.SegmentSec, targetSec)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: empty assembly plan", ErrAssembly)
	}

	log.Printf("[assemble] %d pieces planned for %.2fs composite", len(pieces), targetSec)

	var pieceFiles []string
	for i, p := range pieces {
		clip := clips[p.ClipIndex]
		out := filepath.Join(workDir, fmt.Sprintf("piece_%02d.mp4", i))

		var err error
		if p.Loop {
			err = a.tool.TrimWithLoop(ctx, clip.FilePath, out, p.DurationSec, clip.DurationSec)
		} else {
			err = a.tool.Trim(ctx, clip.FilePath, out, 0, p.DurationSec)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: piece %d from clip %s: %v", ErrAssembly, i, clip.SourceID, err)
		}
		pieceFiles = append(pieceFiles, out)
	}

	listFile := filepath.Join(workDir, "concat_list.txt")
	var lines []string
	for _, f := range pieceFiles {
		lines = append(lines, fmt.Sprintf("file '%s'", f))
	}
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssembly, err)
	}

	concatOut := filepath.Join(workDir, "composite_raw.mp4")
	if err := a.tool.Concat(ctx, listFile, concatOut); err != nil {
		return nil, fmt.Errorf("%w: concat: %v", ErrAssembly, err)
	}

	// Final trim pins the composite to the narration duration exactly
	standardOut := filepath.Join(workDir, "composite_standard.mp4")
	if err := a.tool.Trim(ctx, concatOut, standardOut, 0, targetSec); err != nil {
		return nil, fmt.Errorf("%w: final trim: %v", ErrAssembly, err)
	}

	standardDur, err := a.tool.ProbeDuration(ctx, standardOut)
	if err != nil {
		return nil, fmt.Errorf("%w: probe standard: %v", ErrAssembly, err)
	}

	// Vertical is derived from the standard composite so both orientations
	// show identical content, never re-sourced from the clip pool.
	verticalOut := filepath.Join(workDir, "composite_vertical.mp4")
	if err := a.tool.CropVertical(ctx, standardOut, verticalOut, a.height); err != nil {
		return nil, fmt.Errorf("%w: vertical crop: %v", ErrAssembly, err)
	}

	verticalDur, err := a.tool.ProbeDuration(ctx, verticalOut)
	if err != nil {
		return nil, fmt.Errorf("%w: probe vertical: %v", ErrAssembly, err)
	}

	log.Printf("[assemble] ✅ composites ready: standard %.2fs, vertical %.2fs", standardDur, verticalDur)

	return map[types.Orientation]*types.AssembledVideo{
		types.OrientationStandard: {
			VideoPath:   standardOut,
			Orientation: types.OrientationStandard,
			DurationSec: standardDur,
		},
		types.OrientationVertical: {
			VideoPath:   verticalOut,
			Orientation: types.OrientationVertical,
			DurationSec: verticalDur,
		},
	}, nil
}
