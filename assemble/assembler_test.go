package assemble

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

func planTotal(pieces []piece) float64 {
	total := 0.0
	for _, p := range pieces {
		total += p.DurationSec
	}
	return total
}

func TestPlanSumsExactlyToTarget(t *testing.T) {
	cases := []struct {
		name      string
		durations []float64
		target    float64
	}{
		{"plenty of footage", []float64{8, 8, 8, 8}, 20},
		{"target inside first clip", []float64{8, 8}, 4},
		{"short clips", []float64{2, 3, 1.5}, 6},
		{"loop needed", []float64{8, 8}, 30},
		{"single short clip looped", []float64{3}, 45},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pieces := Plan(c.durations, 6, c.target)
			if got := planTotal(pieces); math.Abs(got-c.target) > 1e-9 {
				t.Errorf("plan sums to %.4f, want %.4f", got, c.target)
			}
		})
	}
}

func TestPlanUsesSegmentCap(t *testing.T) {
	pieces := Plan([]float64{30, 30, 30, 30}, 6, 24)
	if len(pieces) != 4 {
		t.Fatalf("len(pieces) = %d, want 4 six-second segments", len(pieces))
	}
	for i, p := range pieces {
		if p.DurationSec != 6 {
			t.Errorf("piece %d = %.2fs, want 6s", i, p.DurationSec)
		}
		if p.Loop {
			t.Errorf("piece %d looped with footage to spare", i)
		}
	}
}

func TestPlanLoopsLastClipWhenPoolRunsOut(t *testing.T) {
	pieces := Plan([]float64{5, 5}, 6, 25)
	last := pieces[len(pieces)-1]
	if !last.Loop {
		t.Fatal("last piece should loop to cover the remainder")
	}
	if last.ClipIndex != 1 {
		t.Errorf("loop piece uses clip %d, want the last clip", last.ClipIndex)
	}
	if got := planTotal(pieces); got != 25 {
		t.Errorf("plan sums to %.2f, want 25", got)
	}
}

func TestPlanPreservesClipOrder(t *testing.T) {
	pieces := Plan([]float64{8, 8, 8}, 6, 18)
	for i, p := range pieces {
		if p.ClipIndex != i {
			t.Errorf("piece %d sourced from clip %d, want source order kept", i, p.ClipIndex)
		}
	}
}

// fakeVideoTool records calls and fabricates outputs
type fakeVideoTool struct {
	trims    int
	loops    int
	concats  int
	crops    int
	probeDur float64
	lastTrim float64
}

func (f *fakeVideoTool) Trim(ctx context.Context, in, out string, startSec, durationSec float64) error {
	f.trims++
	f.lastTrim = durationSec
	return os.WriteFile(out, []byte("v"), 0o644)
}

func (f *fakeVideoTool) TrimWithLoop(ctx context.Context, in, out string, durationSec, clipDurationSec float64) error {
	f.loops++
	return os.WriteFile(out, []byte("v"), 0o644)
}

func (f *fakeVideoTool) Concat(ctx context.Context, listFile, out string) error {
	f.concats++
	return os.WriteFile(out, []byte("v"), 0o644)
}

func (f *fakeVideoTool) CropVertical(ctx context.Context, in, out string, srcHeight int) error {
	f.crops++
	return os.WriteFile(out, []byte("v"), 0o644)
}

func (f *fakeVideoTool) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return f.probeDur, nil
}

func testClips(durations ...float64) []types.Clip {
	clips := make([]types.Clip, len(durations))
	for i, d := range durations {
		clips[i] = types.Clip{SourceID: "c", FilePath: "clip.mp4", DurationSec: d}
	}
	return clips
}

func TestAssembleProducesBothOrientations(t *testing.T) {
	tool := &fakeVideoTool{probeDur: 20}
	a := New(tool, config.Default())

	out, err := a.Assemble(context.Background(), testClips(8, 8, 8), 20, t.TempDir())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if out[types.OrientationStandard] == nil || out[types.OrientationVertical] == nil {
		t.Fatal("both orientations must be produced")
	}
	if tool.crops != 1 {
		t.Errorf("crops = %d, want the vertical derived once from the standard", tool.crops)
	}
	if tool.concats != 1 {
		t.Errorf("concats = %d, want 1", tool.concats)
	}
	// The last Trim call is the final pin to the narration duration.
	if tool.lastTrim != 20 {
		t.Errorf("final trim = %.2fs, want 20s", tool.lastTrim)
	}
}

func TestAssembleRejectsEmptyPool(t *testing.T) {
	a := New(&fakeVideoTool{}, config.Default())
	if _, err := a.Assemble(context.Background(), nil, 20, t.TempDir()); err == nil {
		t.Fatal("expected error for empty clip pool")
	}
}

func TestAssembleLoopsWhenFootageShort(t *testing.T) {
	tool := &fakeVideoTool{probeDur: 30}
	a := New(tool, config.Default())

	if _, err := a.Assemble(context.Background(), testClips(5, 5), 30, t.TempDir()); err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if tool.loops != 1 {
		t.Errorf("loops = %d, want the last clip looped once for the remainder", tool.loops)
	}
}
