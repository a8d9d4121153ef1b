package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rubiojr/minigrep/pkg/config"
	"github.com/rubiojr/minigrep/pkg/content"
	"github.com/rubiojr/minigrep/pkg/grep"
	"github.com/rubiojr/minigrep/pkg/log"
	"github.com/rubiojr/minigrep/pkg/output"
	"github.com/urfave/cli/v3"
)

// Exit codes of the grep command.
const (
	exitLoadError  = 1
	exitUsageError = 2
)

// ErrUsage is returned when the query or the file name is missing.
var ErrUsage = errors.New("not enough arguments")

// GrepOptions is the resolved configuration of one grep invocation.
type GrepOptions struct {
	grep.Options

	// Color is auto, always or never.
	Color string

	// MaxFileBytes bounds the loaded file. Zero means no limit.
	MaxFileBytes int64
}

// Grepper loads a file, searches it and prints the result.
type Grepper struct {
	opts   GrepOptions
	out    io.Writer
	logger *log.Logger
}

// NewGrepper returns a Grepper that prints to out. Every mode comes from opts;
// nothing is read from the environment or the configuration file here.
func NewGrepper(opts GrepOptions, out io.Writer) *Grepper {
	return &Grepper{
		opts:   opts,
		out:    out,
		logger: log.ForService("grep"),
	}
}

// Run searches filename (or stdin for "-") for query.
func (g *Grepper) Run(query, filename string) error {
	g.logger.Debugf("searching for %q in %s (%+v)", query, filename, g.opts.Options)

	text, err := content.LoadFile(filename, content.Options{MaxBytes: g.opts.MaxFileBytes})
	if err != nil {
		return err
	}

	res := grep.Run(query, text, g.opts.Options)
	g.logger.Debugf("%d matching lines", res.Count())

	return output.New(g.out, output.UseColor(g.opts.Color, g.out)).Write(res)
}

func grepAction(ctx context.Context, c *cli.Command) error {
	query, filename, err := parseArgs(c.Args().Slice())
	if err != nil {
		return cli.Exit(fmt.Sprintf("%v\nusage: %s [options] <query> <file>", err, c.Name), exitUsageError)
	}
	return runGrep(c, query, filename)
}

// searchWhenArgs makes a subcommand act as a query when it is given a file.
// Subcommands take no positional arguments, so "minigrep init notes.txt"
// searches notes.txt for "init".
func searchWhenArgs(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		if c.Args().Present() {
			return runGrep(c, c.Name, c.Args().First())
		}
		return action(ctx, c)
	}
}

func runGrep(c *cli.Command, query, filename string) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("loading config: %v", err), exitLoadError)
	}

	opts, err := resolveGrepOptions(c, cfg.Search)
	if err != nil {
		return cli.Exit(err.Error(), exitUsageError)
	}

	if err := NewGrepper(opts, c.Root().Writer).Run(query, filename); err != nil {
		return cli.Exit(fmt.Sprintf("application error: %v", err), exitLoadError)
	}
	return nil
}

// parseArgs extracts the query and file name. Extra arguments are ignored.
func parseArgs(args []string) (query, filename string, err error) {
	if len(args) < 2 {
		return "", "", ErrUsage
	}
	return args[0], args[1], nil
}

// resolveGrepOptions merges the command line (flags and their environment
// variables) over the [search] section of the configuration file.
func resolveGrepOptions(c *cli.Command, defaults config.SearchConfig) (GrepOptions, error) {
	opts := GrepOptions{
		Options: grep.Options{
			IgnoreCase:  boolFlagOr(c, "ignore-case", defaults.IgnoreCase),
			LineNumbers: boolFlagOr(c, "line-number", defaults.LineNumbers),
			Count:       boolFlagOr(c, "count", defaults.Count),
		},
		Color:        defaults.Color,
		MaxFileBytes: defaults.MaxFileBytes,
	}

	if c.IsSet("color") {
		opts.Color = c.String("color")
	}
	if err := config.ValidateColor(opts.Color); err != nil {
		return GrepOptions{}, err
	}

	return opts, nil
}

func boolFlagOr(c *cli.Command, name string, fallback bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return fallback
}
