// Command storefront serves the WDB storefront.
//
// Configuration comes from the environment (see storefront.Config) and,
// optionally, a JSON or YAML file passed with -config.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	storefront "github.com/vishxl-0001/vipn"
	"github.com/vishxl-0001/vipn/pkg/logger"
)

const (
	exitOK     = 0
	exitError  = 1
	exitConfig = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("STOREFRONT_CONFIG"), "path to a JSON or YAML config file")
	port := fs.Int("port", -1, "listen port (0 picks one)")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return exitConfig
	}

	if *showVersion {
		fmt.Printf("storefront %s (commit %s, built %s)\n", storefront.Version, storefront.GitCommit, storefront.BuildDate)
		return exitOK
	}

	log := logger.NewFromEnv("storefront")

	var opts []storefront.Option
	if *configPath != "" {
		opts = append(opts, storefront.WithConfigFile(*configPath))
	}
	if *port >= 0 {
		opts = append(opts, storefront.WithPort(*port))
	}

	cfg, err := storefront.NewConfig(opts...)
	if err != nil {
		log.Error("Configuration error", "error", err)
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := storefront.NewApp(ctx, cfg)
	if err != nil {
		log.Error("Failed to start storefront", "error", err)
		if storefront.IsConfigurationError(err) {
			return exitConfig
		}
		return exitError
	}

	if err := app.Run(ctx); err != nil {
		app.Logger().Error("Storefront stopped with error", "error", err)
		return exitError
	}
	app.Logger().Info("Storefront shutdown complete")
	return exitOK
}
