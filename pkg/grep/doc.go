// Package grep is the line search engine behind minigrep.
//
// # Overview
//
// The package maps a query, a content buffer and a set of mode flags to the
// ordered list of lines that contain the query. It has no state and performs
// no I/O: loading content, choosing flags and printing results belong to the
// callers (the CLI in package cmd and the HTTP API in package api).
//
// # Operations
//
//   - Search: case-sensitive, returns matching lines
//   - SearchCaseInsensitive: Unicode-aware lowercase comparison
//   - SearchWithLineNumbers: like Search, paired with 1-based positions
//   - SearchCaseInsensitiveWithLineNumbers: both of the above
//   - Run: one entry point parameterized by Options
//
// # Lines
//
// A line ends at '\n'. A '\r' directly before the '\n' is not part of the
// line. A trailing segment without a terminator is a line when it is not
// empty, so "a\nb" and "a\nb\n" both have two lines and "" has none.
//
// Returned lines are substrings of the content, so they share its memory and
// nothing is copied.
//
// # Case insensitivity
//
// Lowercasing uses golang.org/x/text/cases with the undetermined language tag,
// which applies the full Unicode mappings (including special casing such as
// 'İ' → "i̇") independently of the host locale.
//
// # Usage
//
//	for _, line := range grep.Search("duct", content) {
//		fmt.Println(line)
//	}
//
//	res := grep.Run(query, content, grep.Options{IgnoreCase: true, LineNumbers: true})
//	fmt.Println(res.Count())
//
// All functions are safe for concurrent use.
package grep
