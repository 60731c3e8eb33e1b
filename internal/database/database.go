package database

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"

	"salmon-stats/internal/config"
	"salmon-stats/internal/constants"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func New(cfg *config.Config, logger zerolog.Logger) (*sql.DB, error) {
	return Open(cfg.DBPath, logger)
}

// Open connects to the SQLite file at path and applies pending migrations.
func Open(path string, logger zerolog.Logger) (*sql.DB, error) {
	log := logger.With().Str("path", path).Logger()
	log.Info().Msg("connecting to database")

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	if err := checkJournal(db, log); err != nil {
		db.Close()
		return nil, err
	}
	if err := Migrate(db, log); err != nil {
		db.Close()
		log.Error().Err(err).Msg("failed to run migrations")
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info().Msg("database ready")
	return db, nil
}

// dsn carries the connection settings as driver parameters so every pooled
// connection gets them, not only the first.
func dsn(path string) string {
	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", "5000")
	params.Set("_journal_mode", "WAL")
	params.Set("_synchronous", "NORMAL")
	return "file:" + path + "?" + params.Encode()
}

func checkJournal(db *sql.DB, log zerolog.Logger) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		log.Error().Err(err).Msg("database unreachable")
		return fmt.Errorf("failed to read journal mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		log.Warn().Str("journal_mode", mode).Msg("database not in WAL mode")
	}
	return nil
}

func Migrate(db *sql.DB, logger zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	before, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	after, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info().Int64("from", before).Int64("to", after).Msg("migrations completed")
	return nil
}
