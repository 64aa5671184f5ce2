package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Runner executes an external process and returns its stdout. Production
// code uses the exec-backed runner; tests inject fakes so no ffmpeg binary
// is needed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &ProcessError{
			Name:   name,
			Args:   args,
			Stderr: tail(stderr.String(), 5),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// ProcessError carries the diagnostic tail of a failed external invocation
type ProcessError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed: %v: %s", e.Name, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Name, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// FFmpeg wraps the video processing engine. Every method is one blocking
// invocation taking input path(s) plus parameters and producing an output
// path.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
	runner  Runner
}

// New returns an FFmpeg wrapper using the binaries on PATH
func New() *FFmpeg {
	return &FFmpeg{ffmpeg: "ffmpeg", ffprobe: "ffprobe", runner: execRunner{}}
}

// NewWithRunner is the test constructor
func NewWithRunner(r Runner) *FFmpeg {
	return &FFmpeg{ffmpeg: "ffmpeg", ffprobe: "ffprobe", runner: r}
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	_, err := f.runner.Run(ctx, f.ffmpeg, append([]string{"-y", "-v", "error"}, args...)...)
	return err
}

// ProbeDuration reads a media file's duration in seconds from its container
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	out, err := f.runner.Run(ctx, f.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe duration: %w", err)
	}
	return dur, nil
}

// Normalize re-encodes a clip to the canonical resolution, fps and codec.
// Pillar-boxes instead of stretching so mixed aspect ratios survive.
func (f *FFmpeg) Normalize(ctx context.Context, in, out string, width, height, fps int) error {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d,setsar=1",
		width, height, width, height, fps,
	)
	return f.run(ctx,
		"-i", in,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-an",
		out,
	)
}

// Trim cuts [startSec, startSec+durationSec) out of a video, video only
func (f *FFmpeg) Trim(ctx context.Context, in, out string, startSec, durationSec float64) error {
	return f.run(ctx,
		"-i", in,
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-an",
		out,
	)
}

// TrimAV cuts a segment like Trim but carries the audio track through.
// Used on narrated video, where dropping audio would lose narration.
func (f *FFmpeg) TrimAV(ctx context.Context, in, out string, startSec, durationSec float64) error {
	return f.run(ctx,
		"-i", in,
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "copy",
		out,
	)
}

// TrimWithLoop loops the input enough times to cover durationSec, then trims.
// Used when a clip is shorter than the slot it has to fill.
func (f *FFmpeg) TrimWithLoop(ctx context.Context, in, out string, durationSec, clipDurationSec float64) error {
	loops := 1
	if clipDurationSec > 0 {
		loops = int(durationSec/clipDurationSec) + 2
	}
	return f.run(ctx,
		"-stream_loop", strconv.Itoa(loops),
		"-i", in,
		"-t", formatSeconds(durationSec),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-an",
		out,
	)
}

// Concat joins files listed in listFile (ffmpeg concat demuxer format)
// without re-encoding. Inputs must already share codec parameters.
func (f *FFmpeg) Concat(ctx context.Context, listFile, out string) error {
	return f.run(ctx,
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		out,
	)
}

// Mux combines a silent video with an audio track, trimming to the shorter
func (f *FFmpeg) Mux(ctx context.Context, video, audio, out string) error {
	return f.run(ctx,
		"-i", video,
		"-i", audio,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		"-movflags", "+faststart",
		out,
	)
}

// CropVertical center-crops a landscape video to 9:16
func (f *FFmpeg) CropVertical(ctx context.Context, in, out string, srcHeight int) error {
	// crop width = height*9/16, rounded to an even pixel count for yuv420p
	cropW := srcHeight * 9 / 16
	if cropW%2 != 0 {
		cropW--
	}
	vf := fmt.Sprintf("crop=%d:%d:(iw-%d)/2:0", cropW, srcHeight, cropW)
	return f.run(ctx,
		"-i", in,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "copy",
		out,
	)
}

// BurnSubtitles burns a subtitle file into video pixels with forced styling
func (f *FFmpeg) BurnSubtitles(ctx context.Context, video, subFile, out, font string, fontSize, marginV int) error {
	filter := fmt.Sprintf(
		"subtitles=%s:force_style='FontName=%s,FontSize=%d,PrimaryColour=&H00FFFFFF,OutlineColour=&H00000000,Outline=2,Alignment=2,MarginV=%d'",
		EscapeFilterPath(subFile), font, fontSize, marginV,
	)
	return f.run(ctx,
		"-i", video,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "copy",
		out,
	)
}

// DrawText overlays boxed caption text near the bottom of the frame.
// A zero durationSec means the whole input is kept; otherwise the input is
// sliced at [startSec, startSec+durationSec) in the same pass.
func (f *FFmpeg) DrawText(ctx context.Context, in, out, text string, fontSize, marginBottom int, startSec, durationSec float64) error {
	filter := fmt.Sprintf(
		"drawtext=text='%s':fontcolor=white:fontsize=%d:box=1:boxcolor=black@0.7:boxborderw=5:x=(w-text_w)/2:y=h-th-%d",
		EscapeDrawText(text), fontSize, marginBottom,
	)
	args := []string{"-i", in}
	if durationSec > 0 {
		args = append(args, "-ss", formatSeconds(startSec), "-t", formatSeconds(durationSec))
	}
	args = append(args,
		"-vf", filter,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "copy",
		out,
	)
	return f.run(ctx, args...)
}

// EscapeDrawText escapes text for use inside a drawtext filter argument
func EscapeDrawText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	s = strings.ReplaceAll(s, ":", "\\:")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "%", "\\%")
	return s
}

// EscapeFilterPath escapes a file path for use inside a filter string
func EscapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
