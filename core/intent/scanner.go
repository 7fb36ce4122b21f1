package intent

import (
	"regexp"
	"strings"
)

// scanner holds the lowered query. Every extractor blanks the spans it
// consumed, so later patterns never match inside an earlier match.
type scanner struct {
	text string
}

func newScanner(text string) *scanner {
	return &scanner{text: strings.ToLower(text)}
}

// consume returns the submatches of every match of re and blanks them
func (s *scanner) consume(re *regexp.Regexp) [][]string {
	return s.consumeIf(re, nil)
}

// consumeIf is consume for the matches accepted by accept, which sees the
// text following a match. A nil accept takes every match.
func (s *scanner) consumeIf(re *regexp.Regexp, accept func(rest string) bool) [][]string {
	var indexes [][]int
	for _, loc := range re.FindAllStringSubmatchIndex(s.text, -1) {
		if accept == nil || accept(s.text[loc[1]:]) {
			indexes = append(indexes, loc)
		}
	}
	if len(indexes) == 0 {
		return nil
	}

	matches := make([][]string, 0, len(indexes))
	for _, loc := range indexes {
		groups := make([]string, len(loc)/2)
		for g := range groups {
			if loc[2*g] >= 0 {
				groups[g] = s.text[loc[2*g]:loc[2*g+1]]
			}
		}
		matches = append(matches, groups)
	}

	var b strings.Builder
	last := 0
	for _, loc := range indexes {
		b.WriteString(s.text[last:loc[0]])
		b.WriteString(strings.Repeat(" ", loc[1]-loc[0]))
		last = loc[1]
	}
	b.WriteString(s.text[last:])
	s.text = b.String()

	return matches
}
