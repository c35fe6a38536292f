package core

import (
	"regexp"
	"strings"
)

var (
	// Reasoning scratch content some backends prepend, possibly spanning lines.
	thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	// First fenced code block, optionally tagged openscad or scad.
	codeFenceRe = regexp.MustCompile("(?is)```(?:openscad|scad)?\n?(.*?)```")
)

// Extract recovers OpenSCAD source from raw model output. It strips
// <think>...</think> spans, trims, and unwraps the first fenced code block if
// one is present. It never fails; an empty result is passed on to the
// compiler, which will produce the diagnostic.
func Extract(raw string) string {
	clean := strings.TrimSpace(thinkTagRe.ReplaceAllString(raw, ""))

	if m := codeFenceRe.FindStringSubmatch(clean); m != nil {
		return strings.TrimSpace(m[1])
	}
	return clean
}
