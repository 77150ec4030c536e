// Package format cleans up LLM output and inbound request text so that
// only plain text with real line breaks flows through the pipeline.
package format

import (
	"regexp"
	"strings"
)

var (
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	inlineHashRe = regexp.MustCompile(`#{2,}`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// Normalize strips markdown artifacts and un-escapes literal newline
// sequences. It is deterministic and idempotent: Normalize(Normalize(x))
// == Normalize(x) for any input.
//
// Rules, applied in order: literal \n and \t escape sequences become
// real control characters; markdown emphasis (**, __, backticks) and
// heading markers are removed, preserving the enclosed text; runs of
// three or more newlines collapse to a single blank line; leading and
// trailing whitespace is trimmed.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ReplaceAll(raw, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")

	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	s = headingRe.ReplaceAllString(s, "")
	s = inlineHashRe.ReplaceAllString(s, "")

	s = trimLineEnds(s)
	s = blankRunRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// trimLineEnds drops trailing spaces per line so whitespace-only lines
// collapse into the blank-line run handling above
func trimLineEnds(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}
