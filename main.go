package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/deploymenttheory/go-rom-manager/cmd"
	"github.com/deploymenttheory/go-rom-manager/internal/config"
	"github.com/deploymenttheory/go-rom-manager/internal/logger"
)

func main() {
	// Get app configuration file from environment if specified
	configFile := os.Getenv("ROM_MANAGER_CONFIG")

	// 1. Initialize application configuration
	if err := config.Initialize(configFile); err != nil {
		// Without a configuration there is nothing to audit
		fmt.Fprintf(os.Stderr, "Error initializing configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logging; flags may rebuild it once parsed
	if _, err := logger.InitLogger(logger.LoggerConfig{
		Debug:     config.Instance.Debug,
		LogFormat: config.Instance.LogFormat,
		LogFile:   config.Instance.LogFile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	// 3. Run the CLI; Ctrl-C cancels a running scan
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()

	// Ensure logs are flushed before exit
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
