package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AndreiCalugar/NewsGenerator/types"
)

type fakeTranscriber struct {
	segments []types.TranscriptSegment
	err      error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) ([]types.TranscriptSegment, error) {
	return f.segments, f.err
}

func narrationAsset(dur float64) *types.NarrationAsset {
	return &types.NarrationAsset{AudioPath: "n.mp3", DurationSec: dur, TierUsed: types.TierPrimary}
}

func TestGenerateUsesTranscription(t *testing.T) {
	g := NewGenerator(&fakeTranscriber{segments: []types.TranscriptSegment{
		{StartSec: 0, EndSec: 4, Text: "part one"},
		{StartSec: 4, EndSec: 8, Text: "part two"},
	}}, 0.5)
	got := g.Generate(context.Background(), narrationAsset(8), "script")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 transcribed segments", len(got))
	}
}

func TestGenerateFallsBackToSyntheticOnError(t *testing.T) {
	g := NewGenerator(&fakeTranscriber{err: errors.New("whisper not installed")}, 0.5)
	got := g.Generate(context.Background(), narrationAsset(30), "the script text")
	if len(got) != 1 {
		t.Fatalf("len = %d, want one synthetic segment", len(got))
	}
	if got[0].StartSec != 0 || got[0].EndSec != 30 {
		t.Errorf("synthetic segment spans [%v, %v], want [0, 30]", got[0].StartSec, got[0].EndSec)
	}
	if !strings.Contains(got[0].Text, "the script text") {
		t.Errorf("synthetic text = %q, want script prefix", got[0].Text)
	}
}

func TestGenerateFallsBackWithNilTranscriber(t *testing.T) {
	g := NewGenerator(nil, 0.5)
	got := g.Generate(context.Background(), narrationAsset(12), "script")
	if len(got) != 1 || got[0].EndSec != 12 {
		t.Fatalf("got %v, want one full-duration synthetic segment", got)
	}
}

func TestSyntheticTruncatesLongScripts(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 100)
	seg := Synthetic(long, 60)
	if len(seg.Text) > syntheticPrefixChars {
		t.Errorf("len = %d, want <= %d", len(seg.Text), syntheticPrefixChars)
	}
	if !strings.HasSuffix(seg.Text, "...") {
		t.Errorf("truncated text should end with ellipsis, got %q", seg.Text[len(seg.Text)-10:])
	}
}

func TestNormalizeSortsAndClamps(t *testing.T) {
	segments := []types.TranscriptSegment{
		{StartSec: 5, EndSec: 9, Text: "second"},
		{StartSec: 0, EndSec: 6, Text: "first"},
		{StartSec: 9, EndSec: 20, Text: "runs past the end"},
	}
	got := Normalize(segments, 10, 0.5)

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	prevEnd := 0.0
	for i, s := range got {
		if s.StartSec < prevEnd {
			t.Errorf("segment %d overlaps previous: start %v < %v", i, s.StartSec, prevEnd)
		}
		if s.EndSec > 10 {
			t.Errorf("segment %d end %v exceeds duration", i, s.EndSec)
		}
		prevEnd = s.EndSec
	}
}

func TestNormalizeDropsEmptyAndOutOfRange(t *testing.T) {
	segments := []types.TranscriptSegment{
		{StartSec: 0, EndSec: 2, Text: "   "},
		{StartSec: 2, EndSec: 4, Text: "kept"},
		{StartSec: 15, EndSec: 18, Text: "past the end"},
	}
	got := Normalize(segments, 10, 0.5)
	if len(got) != 1 || got[0].Text != "kept" {
		t.Fatalf("got %v, want only the in-range non-empty segment", got)
	}
}

func TestNormalizeSpansFullDuration(t *testing.T) {
	// Leading, interior and trailing gaps all exceed the tolerance and
	// must be closed so the set spans [0, duration].
	segments := []types.TranscriptSegment{
		{StartSec: 1.5, EndSec: 3, Text: "intro"},
		{StartSec: 6, EndSec: 8, Text: "middle"},
	}
	got := Normalize(segments, 12, 0.5)

	if got[0].StartSec != 0 {
		t.Errorf("first segment starts at %v, want leading gap closed to 0", got[0].StartSec)
	}
	for i := 1; i < len(got); i++ {
		if gap := got[i].StartSec - got[i-1].EndSec; gap > 0.5 {
			t.Errorf("gap of %.2fs between segments %d and %d exceeds tolerance", gap, i-1, i)
		}
	}
	if last := got[len(got)-1]; last.EndSec != 12 {
		t.Errorf("last segment ends at %v, want trailing gap closed to 12", last.EndSec)
	}
}

func TestNormalizeLeavesSmallGapsAlone(t *testing.T) {
	segments := []types.TranscriptSegment{
		{StartSec: 0.2, EndSec: 5, Text: "a"},
		{StartSec: 5.3, EndSec: 9.8, Text: "b"},
	}
	got := Normalize(segments, 10, 0.5)

	if got[0].StartSec != 0.2 {
		t.Errorf("start = %v, want a sub-tolerance lead kept as-is", got[0].StartSec)
	}
	if got[1].StartSec != 5.3 || got[0].EndSec != 5 {
		t.Error("sub-tolerance interior gap should not be altered")
	}
	if got[1].EndSec != 9.8 {
		t.Errorf("end = %v, want a sub-tolerance tail kept as-is", got[1].EndSec)
	}
}
