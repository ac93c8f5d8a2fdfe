package tracker

import (
	"fmt"
	"regexp"
	"strings"
)

// Extraction selects how the bootstrap object is cut out of the page
type Extraction string

const (
	// ExtractRegex takes everything up to the first "};". A string value
	// containing "};" truncates the capture and the parse then fails.
	ExtractRegex Extraction = "regex"
	// ExtractScanner balances braces outside string literals.
	ExtractScanner Extraction = "scanner"
)

const bootstrapIdent = "trackpollBootstrap"

var bootstrapPattern = regexp.MustCompile(`(?s)(?:var\s+)?trackpollBootstrap\s*=\s*(\{.+?\});`)

// ParseExtraction validates a configured extraction mode; "" selects regex
func ParseExtraction(s string) (Extraction, error) {
	switch Extraction(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExtractRegex:
		return ExtractRegex, nil
	case ExtractScanner:
		return ExtractScanner, nil
	default:
		return "", fmt.Errorf("unknown extraction mode: %s", s)
	}
}

// ExtractBootstrap returns the object literal assigned to trackpollBootstrap
func ExtractBootstrap(page string, mode Extraction) (string, bool) {
	if mode == ExtractScanner {
		return scanBootstrap(page)
	}
	m := bootstrapPattern.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// scanBootstrap finds the first "trackpollBootstrap = {" assignment and returns
// the object through its matching closing brace
func scanBootstrap(page string) (string, bool) {
	rest := page
	for {
		i := strings.Index(rest, bootstrapIdent)
		if i < 0 {
			return "", false
		}
		rest = rest[i+len(bootstrapIdent):]

		j := skipSpace(rest, 0)
		if j >= len(rest) || rest[j] != '=' {
			continue
		}
		j = skipSpace(rest, j+1)
		if j >= len(rest) || rest[j] != '{' {
			continue
		}

		if end, ok := matchBrace(rest, j); ok {
			return rest[j : end+1], true
		}
		return "", false
	}
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// matchBrace returns the index of the brace closing the one at start.
// Braces inside quoted strings are ignored.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	var quote byte
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
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
