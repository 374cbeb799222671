// Manual smoke check for the database layer: connects with DATABASE_URL,
// ensures the schema, and prints current stats. Run it after pointing the
// bot at a fresh database.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go-jobpilot-automation/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		godotenv.Load("../../.env") // Fallback
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set. Please check your .env file.")
	}

	fmt.Println("Attempting to connect to PostgreSQL...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := database.ConnectDB(ctx, dbURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to the database: %v", err)
	}
	defer repo.Close()
	fmt.Println("✅ Connected, schema ensured.")

	stats, err := repo.Stats(ctx)
	if err != nil {
		log.Fatalf("❌ Stats query failed: %v", err)
	}

	fmt.Printf("Jobs: %d, applications: %d\n", stats["total_jobs"], stats["total_applications"])
	for _, status := range []string{"PENDING", "APPLIED", "SKIPPED", "FAILED"} {
		if n, ok := stats[status]; ok {
			fmt.Printf("  %s: %d\n", status, n)
		}
	}
}
