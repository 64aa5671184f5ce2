package narration

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

// ErrAllEnginesFailed is wrapped by the pipeline into a NarrationUnavailable
// fatal failure: there is no silent-video fallback for narration.
var ErrAllEnginesFailed = fmt.Errorf("all narration engines failed")

// DurationProber measures a produced audio file; satisfied by media.FFmpeg
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Synthesizer turns script text into a narration track, walking an ordered
// engine chain and stopping at the first success.
type Synthesizer struct {
	engines        []Engine
	prober         DurationProber
	voiceID        string
	attemptTimeout time.Duration
}

// NewSynthesizer builds the production chain: ElevenLabs, then espeak-ng,
// then the Google Translate endpoint.
func NewSynthesizer(cfg *config.Config, prober DurationProber) *Synthesizer {
	return &Synthesizer{
		engines:        []Engine{NewElevenLabs(cfg), NewESpeak(cfg), NewGoogleTTS(cfg)},
		prober:         prober,
		voiceID:        cfg.Narration.VoiceID,
		attemptTimeout: time.Duration(cfg.Timeouts.ExternalCallSec) * time.Second,
	}
}

// NewSynthesizerWithEngines is the test constructor
func NewSynthesizerWithEngines(prober DurationProber, engines ...Engine) *Synthesizer {
	return &Synthesizer{engines: engines, prober: prober}
}

// Synthesize writes narration audio into workDir and returns the asset.
// Engine failures are tier-internal: logged, never surfaced. Only when the
// whole chain is exhausted does the error escape.
func (s *Synthesizer) Synthesize(ctx context.Context, scriptText, workDir string) (*types.NarrationAsset, error) {
	if strings.TrimSpace(scriptText) == "" {
		return nil, fmt.Errorf("empty script text")
	}

	var lastErr error
	for _, engine := range s.engines {
		outPath := filepath.Join(workDir, fmt.Sprintf("narration_%s%s", engine.Name(), audioExt(engine)))

		log.Printf("[narration] Trying %s (%s tier)...", engine.Name(), engine.Tier())
		if err := s.attempt(ctx, engine, scriptText, outPath); err != nil {
			// Sweep partial output so a later tier can't pick up garbage
			os.Remove(outPath)
			log.Printf("[narration] ⚠️  %s failed: %v — trying next engine", engine.Name(), err)
			lastErr = err
			continue
		}

		if fi, err := os.Stat(outPath); err != nil || fi.Size() == 0 {
			os.Remove(outPath)
			log.Printf("[narration] ⚠️  %s produced an empty file — trying next engine", engine.Name())
			lastErr = fmt.Errorf("%s: empty output", engine.Name())
			continue
		}

		// Read the real duration from the file; downstream timing depends
		// on measured duration, not a words-per-second estimate.
		dur, err := s.prober.ProbeDuration(ctx, outPath)
		if err != nil {
			os.Remove(outPath)
			log.Printf("[narration] ⚠️  could not measure %s output: %v — trying next engine", engine.Name(), err)
			lastErr = err
			continue
		}

		asset := &types.NarrationAsset{
			AudioPath:   outPath,
			DurationSec: dur,
			TierUsed:    engine.Tier(),
		}
		if engine.Tier() == types.TierPrimary {
			asset.VoiceID = s.voiceID
		}
		log.Printf("[narration] ✅ %s succeeded: %.2fs of audio", engine.Name(), dur)
		return asset, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrAllEnginesFailed, lastErr)
}

// attempt runs one engine under its own deadline. The timeout is scoped to
// the single attempt so a tier that hangs until its deadline cannot poison
// the remaining tiers with an already-expired context.
func (s *Synthesizer) attempt(ctx context.Context, engine Engine, scriptText, outPath string) error {
	if s.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()
	}
	return engine.Synthesize(ctx, scriptText, outPath)
}

func audioExt(e Engine) string {
	if e.Tier() == types.TierFallback1 {
		return ".wav"
	}
	return ".mp3"
}
