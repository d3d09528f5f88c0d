package main

import (
	"log"
	"os"
	"path/filepath"

	migrate "github.com/rubenv/sql-migrate"

	"github.com/johnquangdev/meeting-rag/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-rag/pkg/config"
)

func mainn() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database using GORM
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("✅ Database connected successfully")

	// Apply migrations
	log.Println("🔄 Applying migrations from migrations/ directory...")

	migrations := &migrate.FileMigrationSource{
		Dir: filepath.Join("migrations", cfg.Database.Driver),
	}

	// Get the underlying SQL database connection from GORM
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}

	dialect := "postgres"
	if cfg.Database.Driver == "sqlite" {
		dialect = "sqlite3"
	}

	n, err := migrate.Exec(sqlDB, dialect, migrations, migrate.Up)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Printf("✅ Successfully applied %d migration(s)!\n", n)
	os.Exit(0)
}
