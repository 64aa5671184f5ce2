package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/AndreiCalugar/NewsGenerator/types"
)

// Transcriber produces time-aligned segments from a narration audio file
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]types.TranscriptSegment, error)
}

// WhisperCLI shells out to the whisper command-line tool and parses its
// JSON output file.
type WhisperCLI struct {
	Model    string
	Language string
	Binary   string
}

func NewWhisperCLI(model, language string) *WhisperCLI {
	return &WhisperCLI{Model: model, Language: language, Binary: "whisper"}
}

// whisperResult mirrors the relevant piece of whisper's JSON output
type whisperResult struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) ([]types.TranscriptSegment, error) {
	if _, err := exec.LookPath(w.Binary); err != nil {
		return nil, fmt.Errorf("whisper not installed: %w", err)
	}

	outDir, err := os.MkdirTemp("", "whisper")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx, w.Binary,
		audioPath,
		"--model", w.Model,
		"--language", w.Language,
		"--output_format", "json",
		"--output_dir", outDir,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper failed: %v: %s", err, lastLines(string(out), 3))
	}

	// Whisper names the output after the audio file
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	data, err := os.ReadFile(filepath.Join(outDir, base+".json"))
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	var result whisperResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}
	if len(result.Segments) == 0 {
		return nil, fmt.Errorf("whisper returned no segments")
	}

	segments := make([]types.TranscriptSegment, 0, len(result.Segments))
	for _, s := range result.Segments {
		segments = append(segments, types.TranscriptSegment{
			StartSec: s.Start,
			EndSec:   s.End,
			Text:     strings.TrimSpace(s.Text),
		})
	}
	return segments, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
