package grep

import (
	"iter"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Match is a matching line paired with its 1-based position in the content.
type Match struct {
	Number int
	Line   string
}

// Lines yields every line of content with its 1-based line number.
func Lines(content string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		n := 0
		for len(content) > 0 {
			n++
			var line string
			if i := strings.IndexByte(content, '\n'); i >= 0 {
				line, content = content[:i], content[i+1:]
				line = strings.TrimSuffix(line, "\r")
			} else {
				line, content = content, ""
			}
			if !yield(n, line) {
				return
			}
		}
	}
}

// Search returns the lines of content that contain query.
func Search(query, content string) []string {
	return lines(search(query, content, false))
}

// SearchCaseInsensitive returns the lines of content that contain query when
// both are lowercased.
func SearchCaseInsensitive(query, content string) []string {
	return lines(search(query, content, true))
}

// SearchWithLineNumbers is Search with the position of every matching line.
func SearchWithLineNumbers(query, content string) []Match {
	return search(query, content, false)
}

// SearchCaseInsensitiveWithLineNumbers is SearchCaseInsensitive with the
// position of every matching line.
func SearchCaseInsensitiveWithLineNumbers(query, content string) []Match {
	return search(query, content, true)
}

func search(query, content string, ignoreCase bool) []Match {
	var results []Match

	contains := strings.Contains
	if ignoreCase {
		// Casers keep state between calls and must not be shared.
		lower := cases.Lower(language.Und)
		query = lower.String(query)
		contains = func(line, q string) bool {
			return strings.Contains(lower.String(line), q)
		}
	}

	for n, line := range Lines(content) {
		if contains(line, query) {
			results = append(results, Match{Number: n, Line: line})
		}
	}

	return results
}

func lines(matches []Match) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Line)
	}
	return out
}
