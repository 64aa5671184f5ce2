package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/AndreiCalugar/NewsGenerator/config"
	"github.com/AndreiCalugar/NewsGenerator/types"
)

// Engine is one speech synthesis strategy in the fallback chain. A failed
// attempt must not leave a partial file at outPath; the synthesizer also
// sweeps up after engines that cannot guarantee this.
type Engine interface {
	Name() string
	Tier() types.NarrationTier
	Synthesize(ctx context.Context, text, outPath string) error
}

// ErrNotConfigured marks an engine that cannot run in this environment
// (missing credentials or runtime); the chain advances past it.
var ErrNotConfigured = errors.New("engine not configured")

// ElevenLabsEngine is the primary tier: the premium cloud voice service
type ElevenLabsEngine struct {
	APIKey  string
	VoiceID string
	ModelID string
	Format  string
	Client  *http.Client
}

func NewElevenLabs(cfg *config.Config) *ElevenLabsEngine {
	return &ElevenLabsEngine{
		APIKey:  cfg.Secrets.ElevenLabsAPIKey,
		VoiceID: cfg.Narration.VoiceID,
		ModelID: cfg.Narration.ModelID,
		Format:  cfg.Narration.OutputFormat,
		Client:  http.DefaultClient,
	}
}

func (e *ElevenLabsEngine) Name() string              { return "elevenlabs" }
func (e *ElevenLabsEngine) Tier() types.NarrationTier { return types.TierPrimary }

func (e *ElevenLabsEngine) Synthesize(ctx context.Context, text, outPath string) error {
	if e.APIKey == "" {
		return ErrNotConfigured
	}

	payload := map[string]interface{}{
		"text":     text,
		"model_id": e.ModelID,
		"voice_settings": map[string]interface{}{
			"stability":         0.5,
			"similarity_boost":  0.75,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("https://api.elevenlabs.io/v1/text-to-speech/%s?output_format=%s",
		e.VoiceID, e.Format)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("elevenlabs error: %s - %s", resp.Status, string(msg))
	}

	return writeAudio(resp.Body, outPath)
}

// ESpeakEngine is the first fallback: a local offline synthesizer via the
// espeak-ng binary. No network, no credentials, robotic but dependable.
type ESpeakEngine struct {
	Voice  string
	Binary string
}

func NewESpeak(cfg *config.Config) *ESpeakEngine {
	return &ESpeakEngine{Voice: cfg.Narration.ESpeakVoice, Binary: "espeak-ng"}
}

func (e *ESpeakEngine) Name() string              { return "espeak" }
func (e *ESpeakEngine) Tier() types.NarrationTier { return types.TierFallback1 }

func (e *ESpeakEngine) Synthesize(ctx context.Context, text, outPath string) error {
	if _, err := exec.LookPath(e.Binary); err != nil {
		return ErrNotConfigured
	}

	cmd := exec.CommandContext(ctx, e.Binary, "-v", e.Voice, "-w", outPath, text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("espeak: %v: %s", err, stderr.String())
	}

	if fi, err := os.Stat(outPath); err != nil || fi.Size() == 0 {
		os.Remove(outPath)
		return errors.New("espeak produced no audio")
	}
	return nil
}

// GoogleTTSEngine is the last fallback: the free Translate speech endpoint.
// Text is synthesized in chunks because the endpoint caps query length;
// the MP3 frames concatenate cleanly.
type GoogleTTSEngine struct {
	Language string
	Client   *http.Client
}

func NewGoogleTTS(cfg *config.Config) *GoogleTTSEngine {
	return &GoogleTTSEngine{Language: cfg.Narration.Language, Client: http.DefaultClient}
}

func (e *GoogleTTSEngine) Name() string              { return "gtts" }
func (e *GoogleTTSEngine) Tier() types.NarrationTier { return types.TierFallback2 }

const gttsChunkChars = 200

func (e *GoogleTTSEngine) Synthesize(ctx context.Context, text, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, chunk := range splitChunks(text, gttsChunkChars) {
		endpoint := "https://translate.google.com/translate_tts?ie=UTF-8&client=tw-ob&tl=" +
			url.QueryEscape(e.Language) + "&q=" + url.QueryEscape(chunk)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			os.Remove(outPath)
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := e.Client.Do(req)
		if err != nil {
			os.Remove(outPath)
			return fmt.Errorf("gtts request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			os.Remove(outPath)
			return fmt.Errorf("gtts error: %s", resp.Status)
		}
		_, err = io.Copy(f, resp.Body)
		resp.Body.Close()
		if err != nil {
			os.Remove(outPath)
			return err
		}
	}
	return nil
}

// splitChunks breaks text on word boundaries into pieces of at most max chars
func splitChunks(text string, max int) []string {
	words := strings.Fields(text)
	var chunks []string
	current := ""
	for _, w := range words {
		if current == "" {
			current = w
		} else if len(current)+1+len(w) <= max {
			current += " " + w
		} else {
			chunks = append(chunks, current)
			current = w
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func writeAudio(r io.Reader, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, r)
	closeErr := f.Close()
	if err != nil {
		os.Remove(outPath)
		return err
	}
	if closeErr != nil {
		os.Remove(outPath)
		return closeErr
	}
	if n == 0 {
		os.Remove(outPath)
		return errors.New("empty audio response")
	}
	return nil
}
