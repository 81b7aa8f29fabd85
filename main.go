package main

import (
	"fmt"
	"os"

	"github.com/vireolabs/machinevision/cmd"
	"github.com/vireolabs/machinevision/internal/conf"
	"github.com/vireolabs/machinevision/internal/logging"
)

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
