package cmd

import (
	"context"

	"github.com/rubiojr/minigrep/pkg/config"
	"github.com/rubiojr/minigrep/pkg/log"
	"github.com/urfave/cli/v3"
)

// RootCommand builds the minigrep command tree. Without a subcommand it
// searches a file for a query.
func RootCommand(defaultConfigPath string) *cli.Command {
	return &cli.Command{
		Name:      "minigrep",
		Usage:     "Print the lines of a file that contain a query",
		ArgsUsage: "<query> <file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: defaultConfigPath,
			},
			&cli.BoolFlag{
				Name:    "ignore-case",
				Aliases: []string{"i"},
				Usage:   "Match without regard to letter case",
				Sources: cli.EnvVars("MINIGREP_IGNORE_CASE"),
			},
			&cli.BoolFlag{
				Name:    "line-number",
				Aliases: []string{"n"},
				Usage:   "Prefix each line with its line number",
				Sources: cli.EnvVars("MINIGREP_LINE_NUMBERS"),
			},
			&cli.BoolFlag{
				Name:    "count",
				Aliases: []string{"c"},
				Usage:   "Print only the number of matching lines",
				Sources: cli.EnvVars("MINIGREP_COUNT"),
			},
			&cli.StringFlag{
				Name:    "color",
				Usage:   "Colorize output: auto, always or never",
				Sources: cli.EnvVars("MINIGREP_COLOR"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			log.SetGlobalDebug(c.Bool("debug"))
			enableDebugServices(c.String("config"))
			return ctx, nil
		},
		Action:          grepAction,
		HideHelpCommand: true,
		Commands: searchable(
			ServeCommand(),
			InitCommand(),
			VersionCommand(),
		),
	}
}

// searchable wraps each command so that a query equal to its name is still
// searched when a file follows it.
func searchable(commands ...*cli.Command) []*cli.Command {
	for _, cmd := range commands {
		cmd.Action = searchWhenArgs(cmd.Action)
	}
	return commands
}

// enableDebugServices turns on debug output for the services listed in
// [log] debug_services. A config that fails to load is reported by the
// command that needs it.
func enableDebugServices(configPath string) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return
	}
	for _, name := range cfg.Log.DebugServices {
		log.EnableDebugFor(name)
	}
}
