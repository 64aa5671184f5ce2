package transcript

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/AndreiCalugar/NewsGenerator/types"
)

// syntheticPrefixChars bounds the label used when transcription is
// unavailable; the caption renderer's lowest tier truncates further.
const syntheticPrefixChars = 200

// Generator wraps a Transcriber with the degradation rule: any failure
// yields a single synthetic segment spanning the whole narration, seeded
// with a prefix of the original script text. Transcript generation never
// fails a run.
type Generator struct {
	transcriber Transcriber
	gapTolSec   float64
}

func NewGenerator(t Transcriber, gapToleranceSec float64) *Generator {
	return &Generator{transcriber: t, gapTolSec: gapToleranceSec}
}

// Generate returns ordered, non-overlapping segments covering
// [0, narration.DurationSec].
func (g *Generator) Generate(ctx context.Context, narration *types.NarrationAsset, scriptText string) []types.TranscriptSegment {
	if g.transcriber != nil {
		segments, err := g.transcriber.Transcribe(ctx, narration.AudioPath)
		if err == nil && len(segments) > 0 {
			cleaned := Normalize(segments, narration.DurationSec, g.gapTolSec)
			if len(cleaned) > 0 {
				log.Printf("[transcript] ✅ %d segments from transcription", len(cleaned))
				return cleaned
			}
		}
		if err != nil {
			log.Printf("[transcript] ⚠️  transcription failed: %v — using synthetic segment", err)
		}
	} else {
		log.Println("[transcript] No transcriber available — using synthetic segment")
	}

	return []types.TranscriptSegment{Synthetic(scriptText, narration.DurationSec)}
}

// Synthetic builds the single full-duration segment used when speech-to-text
// is unavailable.
func Synthetic(scriptText string, durationSec float64) types.TranscriptSegment {
	text := strings.TrimSpace(scriptText)
	if len(text) > syntheticPrefixChars {
		text = strings.TrimSpace(text[:syntheticPrefixChars-3]) + "..."
	}
	return types.TranscriptSegment{StartSec: 0, EndSec: durationSec, Text: text}
}

// Normalize enforces the segment invariants: sorted by start time, ends
// clamped to the audio duration, overlaps trimmed, empty segments dropped,
// and together the segments span [0, durationSec] with no gap wider than
// gapToleranceSec (wider gaps are closed by extending a neighbor).
func Normalize(segments []types.TranscriptSegment, durationSec, gapToleranceSec float64) []types.TranscriptSegment {
	out := make([]types.TranscriptSegment, 0, len(segments))
	for _, s := range segments {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartSec < out[j].StartSec })

	cleaned := out[:0]
	prevEnd := 0.0
	for _, s := range out {
		if s.StartSec < prevEnd {
			s.StartSec = prevEnd
		}
		if s.StartSec >= durationSec {
			break
		}
		if s.EndSec > durationSec {
			s.EndSec = durationSec
		}
		if s.EndSec <= s.StartSec {
			continue
		}
		cleaned = append(cleaned, s)
		prevEnd = s.EndSec
	}

	return closeGaps(cleaned, durationSec, gapToleranceSec)
}

// closeGaps widens segments over any silence longer than the tolerance so
// the set spans [0, durationSec]: a caption stays on screen through the
// pause instead of leaving the viewer an unexplained blank.
func closeGaps(segments []types.TranscriptSegment, durationSec, tolSec float64) []types.TranscriptSegment {
	if len(segments) == 0 {
		return segments
	}
	if segments[0].StartSec > tolSec {
		segments[0].StartSec = 0
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].StartSec-segments[i-1].EndSec > tolSec {
			segments[i-1].EndSec = segments[i].StartSec
		}
	}
	last := len(segments) - 1
	if durationSec-segments[last].EndSec > tolSec {
		segments[last].EndSec = durationSec
	}
	return segments
}
