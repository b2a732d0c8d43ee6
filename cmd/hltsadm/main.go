package main

import (
	"fmt"
	"os"

	"github.com/tnahs/hlts/internal/cli"
	"github.com/tnahs/hlts/internal/platform/logger"
	"github.com/tnahs/hlts/internal/utils"
)

func main() {
	mode := os.Getenv("LOG_MODE")
	if mode == "" {
		mode = "production"
	}
	log, err := logger.New(mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	utils.LoadDotEnv(".", log)

	if err := cli.NewAdminCmd(log, cli.DefaultOpener(log)).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
