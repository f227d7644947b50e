package perception

import (
	"regexp"
	"strings"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?is)<think>.*?</think>`)
	codeFenceRe  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
)

// stripWrappers removes reasoning blocks and markdown code fences that
// models wrap around their JSON.
func stripWrappers(s string) string {
	s = thinkBlockRe.ReplaceAllString(s, "")
	s = codeFenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// findJSONCandidates returns every top-level brace-balanced substring of s,
// in order of appearance. An opening brace that never closes is skipped and
// scanning resumes at the next one, so a stray '{' in prose does not hide the
// object that follows.
//
// Quotes are only tracked inside an object so an apostrophe or stray quote
// in the surrounding prose does not hide the object either. Iterating bytes
// is safe: UTF-8 never uses ASCII bytes inside multi-byte sequences.
func findJSONCandidates(s string) []string {
	var candidates []string
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if end, ok := balancedEnd(s, i); ok {
			candidates = append(candidates, s[i:end+1])
			i = end
		}
	}
	return candidates
}

// balancedEnd returns the index of the '}' closing the object opened at
// s[start], or false when the input ends first.
func balancedEnd(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escape := false

	for i := start; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// greedyObject returns the span from the first '{' to the last '}'.
// It is the last resort when no balanced candidate parses.
func greedyObject(s string) (string, bool) {
	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first < 0 || last <= first {
		return "", false
	}
	return s[first : last+1], true
}
