package narration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/AndreiCalugar/NewsGenerator/types"
)

type fakeEngine struct {
	name string
	tier types.NarrationTier
	fail bool
}

func (f *fakeEngine) Name() string              { return f.name }
func (f *fakeEngine) Tier() types.NarrationTier { return f.tier }

func (f *fakeEngine) Synthesize(ctx context.Context, text, outPath string) error {
	if f.fail {
		return errors.New(f.name + " down")
	}
	return os.WriteFile(outPath, []byte("audio"), 0o644)
}

type fakeProber struct {
	durationSec float64
	err         error
}

func (f *fakeProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return f.durationSec, f.err
}

func TestSynthesizeUsesPrimaryWhenHealthy(t *testing.T) {
	dir := t.TempDir()
	s := NewSynthesizerWithEngines(&fakeProber{durationSec: 42.5},
		&fakeEngine{name: "primary", tier: types.TierPrimary},
		&fakeEngine{name: "offline", tier: types.TierFallback1},
	)
	s.voiceID = "voice-1"

	asset, err := s.Synthesize(context.Background(), "breaking story", dir)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if asset.TierUsed != types.TierPrimary {
		t.Errorf("TierUsed = %s, want %s", asset.TierUsed, types.TierPrimary)
	}
	if asset.DurationSec != 42.5 {
		t.Errorf("DurationSec = %v, want measured 42.5", asset.DurationSec)
	}
	if asset.VoiceID != "voice-1" {
		t.Errorf("VoiceID = %q, want voice-1 on the primary tier", asset.VoiceID)
	}
}

func TestSynthesizeFallsThroughToLastTier(t *testing.T) {
	dir := t.TempDir()
	s := NewSynthesizerWithEngines(&fakeProber{durationSec: 10},
		&fakeEngine{name: "primary", tier: types.TierPrimary, fail: true},
		&fakeEngine{name: "offline", tier: types.TierFallback1, fail: true},
		&fakeEngine{name: "generic", tier: types.TierFallback2},
	)

	asset, err := s.Synthesize(context.Background(), "breaking story", dir)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if asset.TierUsed != types.TierFallback2 {
		t.Errorf("TierUsed = %s, want %s", asset.TierUsed, types.TierFallback2)
	}
	if asset.VoiceID != "" {
		t.Errorf("VoiceID = %q, want empty for a fallback tier", asset.VoiceID)
	}
}

func TestSynthesizeAllEnginesFailed(t *testing.T) {
	dir := t.TempDir()
	s := NewSynthesizerWithEngines(&fakeProber{durationSec: 10},
		&fakeEngine{name: "primary", tier: types.TierPrimary, fail: true},
		&fakeEngine{name: "offline", tier: types.TierFallback1, fail: true},
		&fakeEngine{name: "generic", tier: types.TierFallback2, fail: true},
	)

	_, err := s.Synthesize(context.Background(), "breaking story", dir)
	if !errors.Is(err, ErrAllEnginesFailed) {
		t.Fatalf("err = %v, want ErrAllEnginesFailed", err)
	}
	// Nothing should be left behind when the whole chain fails.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("workDir has %d leftover files, want 0", len(entries))
	}
}

func TestSynthesizeSkipsEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	empty := &emptyEngine{fakeEngine{name: "primary", tier: types.TierPrimary}}
	s := NewSynthesizerWithEngines(&fakeProber{durationSec: 10},
		empty,
		&fakeEngine{name: "generic", tier: types.TierFallback2},
	)

	asset, err := s.Synthesize(context.Background(), "breaking story", dir)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if asset.TierUsed != types.TierFallback2 {
		t.Errorf("TierUsed = %s, want fallback past the empty file", asset.TierUsed)
	}
}

// hangingEngine blocks until its context expires, like a stalled provider
type hangingEngine struct {
	fakeEngine
}

func (h *hangingEngine) Synthesize(ctx context.Context, text, outPath string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSynthesizeHangingTierStillFallsBack(t *testing.T) {
	dir := t.TempDir()
	s := NewSynthesizerWithEngines(&fakeProber{durationSec: 10},
		&hangingEngine{fakeEngine{name: "primary", tier: types.TierPrimary}},
		&fakeEngine{name: "generic", tier: types.TierFallback2},
	)
	// Each attempt gets its own deadline; the first tier burning through
	// its whole budget must leave the next tier a live context.
	s.attemptTimeout = 50 * time.Millisecond

	asset, err := s.Synthesize(context.Background(), "breaking story", dir)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if asset.TierUsed != types.TierFallback2 {
		t.Errorf("TierUsed = %s, want %s after the primary timed out", asset.TierUsed, types.TierFallback2)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	s := NewSynthesizerWithEngines(&fakeProber{durationSec: 10},
		&fakeEngine{name: "primary", tier: types.TierPrimary},
	)
	if _, err := s.Synthesize(context.Background(), "   ", t.TempDir()); err == nil {
		t.Fatal("expected error for blank script text")
	}
}

// emptyEngine reports success but writes a zero-byte file
type emptyEngine struct {
	fakeEngine
}

func (e *emptyEngine) Synthesize(ctx context.Context, text, outPath string) error {
	return os.WriteFile(outPath, nil, 0o644)
}

func TestAudioExtByTier(t *testing.T) {
	if got := audioExt(&fakeEngine{tier: types.TierFallback1}); got != ".wav" {
		t.Errorf("fallback1 ext = %s, want .wav", got)
	}
	if got := audioExt(&fakeEngine{tier: types.TierPrimary}); got != ".mp3" {
		t.Errorf("primary ext = %s, want .mp3", got)
	}
}
