package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/database"
	"github.com/babcheck/babcheck/backend/internal/logger"
)

const rollbackSuffix = "_rollback.sql"

func main() {
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	dir := flag.String("dir", "migrations", "Directory holding the SQL migrations")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	log := logger.New(cfg)

	if cfg.StoreBackend != config.StorePostgres {
		log.Fatalf("SQL migrations only apply to the postgres store, STORE_BACKEND is %q", cfg.StoreBackend)
	}

	// DATABASE_URL wins so the runner can target a database other than the
	// one the API uses.
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = database.PostgresDSN(cfg)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	files, err := migrationFiles(*dir)
	if err != nil {
		log.Fatal(err)
	}

	if *rollback {
		if err := rollbackLast(db, *dir); err != nil {
			log.Fatal(err)
		}
		return
	}

	for _, file := range files {
		applied, err := apply(db, *dir, file)
		if err != nil {
			log.Fatal(err)
		}
		entry := log.WithField("migration", file)
		if applied {
			entry.Info("Applied migration")
		} else {
			entry.Debug("Migration already applied")
		}
	}
	log.Info("All migrations applied successfully")
}

// migrationFiles lists forward migrations (VERSION_NAME.sql) in order.
func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".sql" || strings.HasSuffix(name, rollbackSuffix) {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func version(file string) string {
	return strings.Split(file, "_")[0]
}

// apply runs file in a transaction unless it is recorded already. Before the
// first migration there is no bookkeeping table to ask.
func apply(db *sql.DB, dir, file string) (bool, error) {
	v := version(file)

	var tracked bool
	if err := db.QueryRow("SELECT to_regclass('schema_migrations') IS NOT NULL").Scan(&tracked); err != nil {
		return false, fmt.Errorf("failed to check migration table: %w", err)
	}
	if tracked {
		var applied bool
		if err := db.QueryRow("SELECT migration_applied($1)", v).Scan(&applied); err != nil {
			return false, fmt.Errorf("failed to check migration status: %w", err)
		}
		if applied {
			return false, nil
		}
	}

	content, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return false, fmt.Errorf("failed to read migration %s: %w", file, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to apply migration %s: %w", file, err)
	}
	if _, err := tx.Exec("SELECT record_migration($1, $2)", v, file); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("failed to record migration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit migration: %w", err)
	}
	return true, nil
}

func rollbackLast(db *sql.DB, dir string) error {
	var last struct {
		Version string
		Name    string
	}
	err := db.QueryRow(`
		SELECT version, name
		FROM schema_migrations
		ORDER BY applied_at DESC, version DESC
		LIMIT 1
	`).Scan(&last.Version, &last.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("no migrations to rollback")
	}
	if err != nil {
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	path := filepath.Join(dir, strings.TrimSuffix(last.Name, ".sql")+rollbackSuffix)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read rollback file %s: %w", path, err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute rollback: %w", err)
	}
	if _, err := tx.Exec("SELECT remove_migration($1)", last.Version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rollback: %w", err)
	}
	logrus.WithField("migration", last.Name).Info("Rolled back migration")
	return nil
}
