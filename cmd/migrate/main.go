package main

import (
	"log"
	"os"

	"catalog-service/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Applies migrations/schema.sql to the configured database. The schema is
// idempotent, so re-running is safe.
func main() {
	cfg := config.Load()

	path := "migrations/schema.sql"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	schema, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read schema file %s: %v", path, err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(string(schema)); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	log.Println("Schema applied")
}
