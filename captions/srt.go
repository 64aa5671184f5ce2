package captions

import (
	"fmt"
	"os"
	"strings"

	"github.com/AndreiCalugar/NewsGenerator/types"
)

// WriteSRT renders transcript segments as a SubRip file, wrapping each
// cue at maxCharsPerLine on word boundaries.
func WriteSRT(segments []types.TranscriptSegment, path string, maxCharsPerLine int) error {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatSRTTime(seg.StartSec), formatSRTTime(seg.EndSec))
		b.WriteString(strings.Join(WrapText(seg.Text, maxCharsPerLine), "\n"))
		b.WriteString("\n\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// WrapText splits text into lines of at most maxChars, breaking on words
func WrapText(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, w := range words[1:] {
		if len(current)+1+len(w) <= maxChars {
			current += " " + w
		} else {
			lines = append(lines, current)
			current = w
		}
	}
	return append(lines, current)
}

// formatSRTTime renders seconds as HH:MM:SS,mmm
func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMs := int(seconds*1000 + 0.5)
	h := totalMs / 3600000
	m := totalMs % 3600000 / 60000
	s := totalMs % 60000 / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// Excerpt truncates script text for the fixed-caption tier
func Excerpt(text string, maxChars int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxChars {
		return text
	}
	return strings.TrimSpace(text[:maxChars-3]) + "..."
}
