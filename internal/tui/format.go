package tui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/npratt/phasegraph/internal/graph"
)

const truncateIndicator = "…"

// truncate shortens text to maxLen runes, adding an indicator if truncated.
func truncate(s string, maxLen int) string {
	s = safeString(s)
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return truncateIndicator
	}
	return string(runes[:maxLen-1]) + truncateIndicator
}

// safeString sanitizes a string for display by removing control characters
// and newlines.
func safeString(s string) string {
	s = stripANSI(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// pluralize returns "1 node" or "3 nodes".
func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}

// summary describes the graph for the header line.
func summary(m *graph.Model) string {
	return pluralize(m.Len(), "node", "nodes") + " · " + pluralize(len(m.Phases()), "phase", "phases")
}

// safeWidth returns a width that is at least 1 to prevent negative values.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// clamp bounds v to [lo, hi]. When hi < lo the result is lo.
func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
