package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"studypile/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database for the given driver type.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// Every pool connection to :memory: is its own empty database.
		if dbCfg.DSN == ":memory:" || strings.Contains(dbCfg.DSN, "mode=memory") {
			db.SetMaxOpenConns(1)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dbCfg.Params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the required tables are present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users_profile (
				uid TEXT PRIMARY KEY,
				email TEXT,
				display_name TEXT,
				preferences TEXT NOT NULL DEFAULT '{}',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS files (
				file_id TEXT PRIMARY KEY,
				owner_uid TEXT NOT NULL,
				file_name TEXT NOT NULL,
				file_type TEXT NOT NULL,
				storage_path TEXT NOT NULL,
				upload_time DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_files_owner_upload ON files(owner_uid, upload_time DESC)`,
			`CREATE TABLE IF NOT EXISTS documents_metadata (
				id TEXT PRIMARY KEY,
				owner_uid TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS summaries (
				id TEXT PRIMARY KEY,
				document_id TEXT NOT NULL,
				summary_text TEXT NOT NULL,
				version INTEGER NOT NULL,
				created_at DATETIME NOT NULL,
				UNIQUE(document_id, version),
				FOREIGN KEY(document_id) REFERENCES documents_metadata(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_summaries_document ON summaries(document_id, version DESC)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users_profile (
				uid VARCHAR(128) NOT NULL,
				email VARCHAR(255),
				display_name VARCHAR(255),
				preferences TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				PRIMARY KEY (uid)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS files (
				file_id VARCHAR(36) NOT NULL,
				owner_uid VARCHAR(128) NOT NULL,
				file_name VARCHAR(512) NOT NULL,
				file_type VARCHAR(16) NOT NULL,
				storage_path TEXT NOT NULL,
				upload_time DATETIME NOT NULL,
				PRIMARY KEY (file_id),
				INDEX idx_files_owner_upload (owner_uid, upload_time)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS documents_metadata (
				id VARCHAR(36) NOT NULL,
				owner_uid VARCHAR(128) NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS summaries (
				id VARCHAR(36) NOT NULL,
				document_id VARCHAR(36) NOT NULL,
				summary_text MEDIUMTEXT NOT NULL,
				version INT NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				UNIQUE KEY uniq_document_version (document_id, version),
				INDEX idx_summaries_document (document_id, version),
				CONSTRAINT fk_summaries_document FOREIGN KEY (document_id) REFERENCES documents_metadata(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
