package media

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// recordingRunner captures every invocation instead of executing it
type recordingRunner struct {
	calls  [][]string
	stdout []byte
	err    error
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.stdout, r.err
}

func (r *recordingRunner) last() []string {
	return r.calls[len(r.calls)-1]
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestProbeDurationParsesOutput(t *testing.T) {
	r := &recordingRunner{stdout: []byte("42.335000\n")}
	f := NewWithRunner(r)

	dur, err := f.ProbeDuration(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("ProbeDuration: %v", err)
	}
	if dur != 42.335 {
		t.Errorf("dur = %v, want 42.335", dur)
	}
	if r.last()[0] != "ffprobe" {
		t.Errorf("probe ran %s, want ffprobe", r.last()[0])
	}
}

func TestProbeDurationBadOutput(t *testing.T) {
	f := NewWithRunner(&recordingRunner{stdout: []byte("N/A")})
	if _, err := f.ProbeDuration(context.Background(), "in.mp4"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNormalizeBuildsPadFilter(t *testing.T) {
	r := &recordingRunner{}
	f := NewWithRunner(r)
	if err := f.Normalize(context.Background(), "in.mp4", "out.mp4", 1280, 720, 30); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	args := r.last()
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "scale=1280:720") || !strings.Contains(joined, "pad=1280:720") {
		t.Errorf("filter missing scale/pad: %s", joined)
	}
	if !strings.Contains(joined, "fps=30") {
		t.Errorf("filter missing fps: %s", joined)
	}
	if !hasArgPair(args, "-pix_fmt", "yuv420p") {
		t.Error("normalization must pin pixel format")
	}
	// Footage audio is discarded; narration is the only audio track.
	if !strings.Contains(joined, " -an ") {
		t.Errorf("normalize should strip audio: %s", joined)
	}
}

func TestTrimWithLoopRepeatsEnough(t *testing.T) {
	r := &recordingRunner{}
	f := NewWithRunner(r)
	if err := f.TrimWithLoop(context.Background(), "in.mp4", "out.mp4", 20, 3); err != nil {
		t.Fatalf("TrimWithLoop: %v", err)
	}
	// 20/3 = 6 full plays, +2 margin
	if !hasArgPair(r.last(), "-stream_loop", "8") {
		t.Errorf("args = %v, want -stream_loop 8", r.last())
	}
	if !hasArgPair(r.last(), "-t", "20.000") {
		t.Errorf("args = %v, want -t 20.000", r.last())
	}
}

func TestTrimStripsAudioButTrimAVKeepsIt(t *testing.T) {
	r := &recordingRunner{}
	f := NewWithRunner(r)

	if err := f.Trim(context.Background(), "in.mp4", "out.mp4", 0, 5); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if !strings.Contains(strings.Join(r.last(), " "), " -an ") {
		t.Error("Trim is for silent composites and must drop audio")
	}

	if err := f.TrimAV(context.Background(), "in.mp4", "out.mp4", 2, 5); err != nil {
		t.Fatalf("TrimAV: %v", err)
	}
	args := r.last()
	joined := strings.Join(args, " ")
	if strings.Contains(joined, " -an ") || strings.HasSuffix(joined, " -an") {
		t.Errorf("TrimAV must not strip audio: %s", joined)
	}
	if !hasArgPair(args, "-c:a", "copy") {
		t.Errorf("TrimAV must carry the audio track through: %s", joined)
	}
	if !hasArgPair(args, "-ss", "2.000") || !hasArgPair(args, "-t", "5.000") {
		t.Errorf("TrimAV slicing flags wrong: %s", joined)
	}
}

func TestConcatUsesDemuxerWithoutReencode(t *testing.T) {
	r := &recordingRunner{}
	f := NewWithRunner(r)
	if err := f.Concat(context.Background(), "list.txt", "out.mp4"); err != nil {
		t.Fatalf("Concat: %v", err)
	}
	args := r.last()
	if !hasArgPair(args, "-f", "concat") || !hasArgPair(args, "-safe", "0") {
		t.Errorf("args = %v, want concat demuxer flags", args)
	}
	if !hasArgPair(args, "-c", "copy") {
		t.Errorf("args = %v, want stream copy", args)
	}
}

func TestCropVerticalCentersAndRoundsEven(t *testing.T) {
	r := &recordingRunner{}
	f := NewWithRunner(r)
	if err := f.CropVertical(context.Background(), "in.mp4", "out.mp4", 720); err != nil {
		t.Fatalf("CropVertical: %v", err)
	}
	joined := strings.Join(r.last(), " ")
	// 720*9/16 = 405, rounded down to 404 for yuv420p
	if !strings.Contains(joined, "crop=404:720:(iw-404)/2:0") {
		t.Errorf("crop filter wrong: %s", joined)
	}
}

func TestMuxStopsAtShorterStream(t *testing.T) {
	r := &recordingRunner{}
	f := NewWithRunner(r)
	if err := f.Mux(context.Background(), "v.mp4", "a.mp3", "out.mp4"); err != nil {
		t.Fatalf("Mux: %v", err)
	}
	joined := strings.Join(r.last(), " ")
	if !strings.Contains(joined, "-shortest") {
		t.Errorf("mux args missing -shortest: %s", joined)
	}
	if !hasArgPair(r.last(), "-c:v", "copy") {
		t.Error("mux must not re-encode video")
	}
}

func TestDrawTextSlicesOnlyWhenAsked(t *testing.T) {
	r := &recordingRunner{}
	f := NewWithRunner(r)

	if err := f.DrawText(context.Background(), "in.mp4", "out.mp4", "hello", 24, 50, 0, 0); err != nil {
		t.Fatalf("DrawText: %v", err)
	}
	if strings.Contains(strings.Join(r.last(), " "), "-ss") {
		t.Error("whole-video drawtext must not slice")
	}

	if err := f.DrawText(context.Background(), "in.mp4", "out.mp4", "hello", 24, 50, 2, 3); err != nil {
		t.Fatalf("DrawText: %v", err)
	}
	if !hasArgPair(r.last(), "-ss", "2.000") || !hasArgPair(r.last(), "-t", "3.000") {
		t.Errorf("args = %v, want slicing flags", r.last())
	}
}

func TestEscapeDrawText(t *testing.T) {
	got := EscapeDrawText(`it's 50%: a,b`)
	for _, want := range []string{`\'`, `\%`, `\:`, `\,`} {
		if !strings.Contains(got, want) {
			t.Errorf("escaped %q missing %q", got, want)
		}
	}
}

func TestEscapeFilterPath(t *testing.T) {
	if got := EscapeFilterPath(`C:\videos\subs.srt`); got != `C\:/videos/subs.srt` {
		t.Errorf("got %q", got)
	}
}

func TestRunSurfacesProcessError(t *testing.T) {
	procErr := &ProcessError{Name: "ffmpeg", Stderr: "boom", Err: errors.New("exit status 1")}
	f := NewWithRunner(&recordingRunner{err: procErr})

	err := f.Trim(context.Background(), "in.mp4", "out.mp4", 0, 5)
	var pe *ProcessError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ProcessError", err)
	}
	if !strings.Contains(pe.Error(), "boom") {
		t.Errorf("Error() = %q, want stderr tail included", pe.Error())
	}
}

func TestTail(t *testing.T) {
	in := "1\n2\n3\n4\n5\n6\n7"
	if got := tail(in, 5); got != "3\n4\n5\n6\n7" {
		t.Errorf("tail = %q", got)
	}
	if got := tail("only", 5); got != "only" {
		t.Errorf("tail short = %q", got)
	}
}
