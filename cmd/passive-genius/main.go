package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"passive-genius/internal/app"
	"passive-genius/internal/config"
	"passive-genius/internal/database"
	"passive-genius/internal/metrics"
)

func main() {
	ctx := context.Background()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	switch os.Args[1] {
	case "brainstorm":
		cmd := flag.NewFlagSet("brainstorm", flag.ExitOnError)
		user := cmd.String("user", "cli:default", "User id whose profile, favorites and progress are used")
		out := cmd.String("out", ".", "Directory for exported PDF/XLSX files")
		cache := cmd.String("cache", "", "Optional JSON file caching AI responses")
		cmd.Parse(os.Args[2:])

		services, err := app.NewServices(ctx, cfg, app.Options{CachePath: *cache})
		if err != nil {
			log.Fatalf("Failed to initialize services: %v", err)
		}
		defer func() {
			if err := services.Close(); err != nil {
				log.Printf("Warning: failed to close services: %v", err)
			}
		}()

		machine := services.Sessions.Get(ctx, *user)
		if err := app.NewBrainstorm(machine, os.Stdin, os.Stdout, *out).Run(ctx); err != nil {
			log.Fatalf("Brainstorm failed: %v", err)
		}
	case "migrate":
		direction := "up"
		if len(os.Args) > 2 {
			direction = os.Args[2]
		}
		switch direction {
		case "up":
			err = database.RunMigrations(cfg.DatabasePath)
		case "down":
			err = database.RollbackMigrations(cfg.DatabasePath)
		default:
			log.Fatalf("Unknown migrate direction %q (want up or down)", direction)
		}
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Printf("Migrations %s complete for %s.\n", direction, cfg.DatabasePath)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: passive-genius <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  brainstorm         Interactive idea, refinement and plan session")
	fmt.Println("                     [-user id] [-out dir] [-cache file]")
	fmt.Println("  migrate [up|down]  Apply or roll back database migrations")
	fmt.Println("  metrics-cleanup    Remove old metric records [-days N]")
}
