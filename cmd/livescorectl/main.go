package main

import (
	"os"

	"github.com/riskibarqy/soccer-livescore/internal/config"
	"github.com/riskibarqy/soccer-livescore/internal/platform/logging"
)

func main() {
	_ = config.LoadDotEnv()

	logger := logging.NewConsole(os.Stderr, logging.LevelWarn)
	if err := newRootCommand(os.Stdout, logger).Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
