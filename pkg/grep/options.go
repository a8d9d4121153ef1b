package grep

// Options selects how a search runs and how its result is meant to be shown.
// The flags are independent of each other.
type Options struct {
	// IgnoreCase compares lowercased query and lines.
	IgnoreCase bool

	// LineNumbers asks the caller to prefix each line with its number.
	LineNumbers bool

	// Count asks the caller to print only the number of matches. It wins
	// over LineNumbers.
	Count bool
}

// Result is the outcome of Run.
type Result struct {
	Query   string
	Options Options
	Matches []Match
}

// Count returns the number of matching lines.
func (r Result) Count() int {
	return len(r.Matches)
}

// Lines returns the matching lines without their numbers.
func (r Result) Lines() []string {
	return lines(r.Matches)
}

// Run searches content with the case rule selected by opts. Matches always
// carry their line numbers; LineNumbers and Count only affect presentation.
func Run(query, content string, opts Options) Result {
	return Result{
		Query:   query,
		Options: opts,
		Matches: search(query, content, opts.IgnoreCase),
	}
}
