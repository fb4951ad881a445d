package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"payouts/cmd"
	"payouts/config"
	"payouts/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env file: %v", err)
	}

	cfg := config.Get()
	cmd.ConfigureLogging(cfg)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(cfg); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if len(os.Args) > 1 {
		if err := handleCommand(ctx, cfg, os.Args[1], os.Args[2:]); err != nil {
			log.Fatal("Command error:", err)
		}
		return
	}

	if err := cmd.Run(ctx, cfg); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleCommand(ctx context.Context, cfg *config.Config, command string, args []string) error {
	switch command {
	case "process-month":
		if len(args) != 1 {
			return fmt.Errorf("usage: payouts process-month YYYY-MM")
		}
		return cmd.ProcessMonth(ctx, cfg, args[0])
	case "confirm":
		if len(args) == 0 {
			return fmt.Errorf("usage: payouts confirm ID [ID...]")
		}
		ids := make([]int64, 0, len(args))
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid payout id %q", arg)
			}
			ids = append(ids, id)
		}
		return cmd.Confirm(ctx, cfg, ids)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func handleMigrationCommand(cfg *config.Config) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: payouts migrate [up|down|status] [args...]")
	}

	databaseURL := cfg.GetDatabaseURL()
	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp(databaseURL)
	case "down":
		steps := 1
		if len(os.Args) > 3 {
			parsed, err := strconv.Atoi(os.Args[3])
			if err != nil || parsed < 1 {
				return fmt.Errorf("invalid number of steps: %s", os.Args[3])
			}
			steps = parsed
		}
		return database.MigrateDown(databaseURL, steps)
	case "status":
		status, err := database.MigrateStatus(databaseURL)
		if err != nil {
			return err
		}
		if !status.Applied {
			log.Println("No migrations applied")
			return nil
		}
		log.Printf("Migration version: %d (dirty: %t)", status.Version, status.Dirty)
		return nil
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
