package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocat/catalogd/pkg/checks"
	"github.com/geocat/catalogd/pkg/node"
	"github.com/geocat/catalogd/pkg/pg"
	"github.com/geocat/catalogd/pkg/settings"
	"github.com/geocat/catalogd/pkg/version"
	"github.com/spf13/viper"
)

func main() {
	// Define flags
	useMemory := flag.Bool("memory", false, "Use the in-memory settings store (development mode)")
	runChecks := flag.Bool("check", false, "Run startup requirement checks and exit")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersion())
		return
	}

	// Set the file name of the configurations file
	viper.SetConfigName("catalogd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".") // optionally look for config in the working directory

	// Read the configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore the error
			log.Println("No config file found, proceeding with environment variables only.")
		} else {
			// Config file was found but another error occurred
			log.Fatalf("Error reading config file, %s", err)
		}
	}

	viper.AutomaticEnv()       // Read also environment variables
	viper.SetEnvPrefix("CATD") // Set a prefix for environment variables

	logger := node.NewLogger()
	ctx := context.Background()

	if *runChecks {
		if err := checks.CheckStartupRequirements(ctx, logger); err != nil {
			logger.Fatalf("Startup checks failed: %v", err)
		}
		logger.Info("All startup checks passed")
		return
	}

	var store settings.Store
	if *useMemory {
		logger.Warn("Using in-memory settings store, nothing will be persisted")
		store = settings.NewMemStore()
	} else {
		pgConfig, err := pg.ConfigFromViper(nil)
		if err != nil {
			logger.Fatalf("Invalid PostgreSQL configuration: %v", err)
		}
		pool, err := pg.NewPool(ctx, pgConfig)
		if err != nil {
			logger.Fatalf("Failed to create PostgreSQL pool: %v", err)
		}
		waitFor := time.Duration(pgConfig.StartupWaitSeconds) * time.Second
		if err := pg.WaitReady(ctx, pool, waitFor); err != nil {
			logger.Fatalf("PostgreSQL did not become ready: %v", err)
		}
		pgStore := settings.NewPGStore(pool, logger)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatalf("Failed to ensure settings schema: %v", err)
		}
		store = pgStore
	}

	n, err := node.New(ctx, store, logger)
	if err != nil {
		logger.Fatalf("Failed to assemble catalog node: %v", err)
	}
	if err := n.Start(ctx); err != nil {
		logger.Fatalf("Failed to start catalog node: %v", err)
	}

	// Block until asked to stop.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	received := <-signals
	logger.Infof("Received %s, shutting down", received)

	n.Stop()
}
