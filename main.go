package main

import (
	"context"
	"log"
	"os"

	"github.com/rubiojr/minigrep/cmd"
	"github.com/rubiojr/minigrep/pkg/config"
)

func main() {
	app := cmd.RootCommand(getDefaultConfigPathOrExit())

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func getDefaultConfigPathOrExit() string {
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		log.Fatalf("Failed to get default config path: %v", err)
	}
	return path
}
