package api

import (
	"time"

	"github.com/rubiojr/minigrep/pkg/grep"
)

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query   string `json:"query"`
	Content string `json:"content"`
}

// SearchResponse lists the matching lines of a case-sensitive search.
// Matches is never null.
type SearchResponse struct {
	Matches []string `json:"matches"`
	Count   int      `json:"count"`
}

// GrepRequest is the body of POST /api/grep and of each websocket message.
type GrepRequest struct {
	Query       string `json:"query"`
	Content     string `json:"content"`
	IgnoreCase  bool   `json:"ignore_case"`
	LineNumbers bool   `json:"line_numbers"`
	Count       bool   `json:"count"`
}

func (r GrepRequest) options() grep.Options {
	return grep.Options{
		IgnoreCase:  r.IgnoreCase,
		LineNumbers: r.LineNumbers,
		Count:       r.Count,
	}
}

type GrepMatch struct {
	LineNumber int    `json:"line_number,omitzero"`
	Line       string `json:"line"`
}

// GrepResponse omits Matches for count requests and line numbers unless they
// were asked for.
type GrepResponse struct {
	Matches []GrepMatch `json:"matches,omitzero"`
	Count   int         `json:"count"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func newSearchResponse(lines []string) SearchResponse {
	if lines == nil {
		lines = []string{}
	}
	return SearchResponse{
		Matches: lines,
		Count:   len(lines),
	}
}

func newGrepResponse(res grep.Result) GrepResponse {
	response := GrepResponse{Count: res.Count()}
	if res.Options.Count {
		return response
	}

	response.Matches = make([]GrepMatch, 0, len(res.Matches))
	for _, m := range res.Matches {
		match := GrepMatch{Line: m.Line}
		if res.Options.LineNumbers {
			match.LineNumber = m.Number
		}
		response.Matches = append(response.Matches, match)
	}
	return response
}
