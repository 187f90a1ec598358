package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/semmidev/keeper/internal/app"
	"github.com/semmidev/keeper/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v\n", err)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to config file")
	pflag.Parse()

	// The default file is optional; one named on the command line must exist.
	cfg, err := config.Load(*configPath, pflag.CommandLine.Changed("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	return application.Run(ctx)
}
