package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/minigrep/pkg/config"
	"github.com/urfave/cli/v3"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a sample configuration file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing configuration file",
			},
			&cli.BoolFlag{
				Name:  "defaults",
				Usage: "Write the default settings without the sample's comments",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return initConfig(c, c.String("config"), c.Bool("force"), c.Bool("defaults"))
		},
	}
}

// initConfig initializes the configuration file
func initConfig(c *cli.Command, configPath string, force, defaults bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s (use --force to overwrite)", configPath)
	}

	save := config.SaveTemplateConfig
	if defaults {
		save = config.GetDefaultConfig().SaveConfig
	}
	if err := save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(c.Root().Writer, "Configuration initialized at %s\n", configPath)
	return nil
}
