package perception

import (
	"regexp"
	"strings"
)

var (
	// Leading list, quote and heading markup. Matched per line, repeatedly,
	// so nested markers such as "> - 1. text" are all removed. Every marker
	// needs trailing whitespace: ">50% loss" is prose, not a quote.
	lineMarkerRe = regexp.MustCompile(`^\s*(?:[-*+•]\s+|\d+[.)]\s+|>+\s+|#{1,6}\s+)`)
	// A lone marker with nothing after it, like the "*" left of "* * *".
	bareMarkerRe = regexp.MustCompile(`^(?:[-*+•]|\d+[.)]|>+|#{1,6})$`)
	emphasisRe   = regexp.MustCompile(`\*\*|__`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n+`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
	periodRunRe  = regexp.MustCompile(`\.{2,}`)
)

// Sanitize turns model prose into a single clean line: list and quote
// markers are stripped from every line, blank lines and whitespace runs
// collapse, and runs of periods become one. Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(s string) string {
	// After the first pass the text is a single line, so every further
	// change strictly shortens it and the loop terminates.
	for {
		next := sanitizePass(s)
		if next == s {
			return next
		}
		s = next
	}
}

func sanitizePass(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = stripLineMarkers(line)
	}
	s = strings.Join(lines, "\n")
	s = emphasisRe.ReplaceAllString(s, "")
	s = blankLinesRe.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\n", " ")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = periodRunRe.ReplaceAllString(s, ".")
	return strings.TrimSpace(s)
}

// stripLineMarkers removes leading markup from one line. A line whose
// markers lead only to another marker ("1. 2.", "* * *") is text, not a
// list item, and is returned untouched.
func stripLineMarkers(line string) string {
	stripped := line
	for {
		next := lineMarkerRe.ReplaceAllString(stripped, "")
		if next == stripped {
			break
		}
		stripped = next
	}
	if stripped != line && bareMarkerRe.MatchString(strings.TrimSpace(stripped)) {
		return line
	}
	return stripped
}

// sanitizeAll sanitizes each entry and drops the ones that end up empty.
func sanitizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if c := Sanitize(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}
