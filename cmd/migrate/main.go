// Command migrate applies the embedded schema migrations of the configured
// database driver.
package main

import (
	"fmt"
	"os"

	"github.com/terrain-ouvert/datahub/internal/config"
	"github.com/terrain-ouvert/datahub/internal/repository/sqlstore"
	"github.com/terrain-ouvert/datahub/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := sqlstore.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", db.Dialect)

	schema, err := migrations.For(cfg.Database.Driver)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load migrations: %v\n", err)
		os.Exit(1)
	}

	applied, err := sqlstore.RunMigrations(db, schema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed after %d applied: %v\n", applied, err)
		os.Exit(1)
	}

	if applied == 0 {
		fmt.Println("Schema is up to date")
		return
	}
	fmt.Printf("Applied %d migration(s)\n", applied)
}
