package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/cmd/utils/internal/commands"
)

const (
	appName    = "orderflow-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	positional, flags := splitArgs(os.Args[2:])

	config, err := apt.LoadConfig("UTILS", flags)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel := config.GetStringOrDef("log.level", "info")
	logger := apt.NewLogger(logLevel)

	ctx := context.Background()
	command := os.Args[1]

	switch command {
	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		logger.Info("Demo seeding completed successfully")

	case "clear-demo":
		if err := commands.ClearDemo(ctx, config, logger); err != nil {
			log.Fatalf("Clear demo data failed: %v", err)
		}
		logger.Info("Demo data cleared successfully")

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("Database reset failed: %v", err)
		}
		logger.Info("Database reset completed successfully")

	case "send":
		if err := commands.Send(ctx, config, logger, positional); err != nil {
			log.Fatalf("Send command failed: %v", err)
		}

	case "watch":
		watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		err := commands.Watch(watchCtx, config, logger, positional, os.Stdout)
		stop()
		if err != nil {
			log.Fatalf("Watch failed: %v", err)
		}

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// splitArgs separates positional arguments from flags meant for the config loader.
func splitArgs(args []string) (positional, flags []string) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			continue
		}
		positional = append(positional, arg)
	}
	return positional, flags
}

func printUsage() {
	fmt.Printf(`%s - Orderflow utility commands

Usage:
  %s <command> [arguments] [options]

Commands:
  seed-demo                      Create the demo orders when the store is empty
  clear-demo                     Remove every stored order
  reset-db                       Drop the orderflow database (USE WITH CAUTION)
  send <order-id> <kind> [note]  Publish a lifecycle command, e.g. complete-bake
  watch [bucket]                 Stream board updates (pending, in_process, completed)
  version                        Print version information
  help                           Show this help message

Environment Variables:
  UTILS_DB_MONGO_URL   MongoDB connection URL (default: mongodb://localhost:27017)
  UTILS_DB_MONGO_NAME  Database name (default: orderflow)
  UTILS_NATS_URL       NATS URL (default: nats://localhost:4222)
  UTILS_GRPC_ADDR      Board stream address (default: localhost:50051)
  UTILS_LOG_LEVEL      Log level: debug, info, warn, error (default: info)

Examples:
  %s seed-demo
  %s send 5f0c... start-kitchen
  %s watch pending
  UTILS_DB_MONGO_URL=mongodb://localhost:27017 %s reset-db

`, appName, appName, appName, appName, appName, appName)
}
