package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"docuflow/internal/config"
)

type Database struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewDatabase(cfg *config.Config, logger *zap.Logger) (*Database, error) {
	// Build PostgreSQL connection string
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connected successfully",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("dbname", cfg.Database.DBName),
	)

	database := &Database{
		DB:     db,
		logger: logger,
	}

	// Run migrations
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

func (d *Database) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL UNIQUE,
			content TEXT NOT NULL,
			division VARCHAR(16) NOT NULL,
			doc_type VARCHAR(16) NOT NULL,
			access VARCHAR(16) NOT NULL DEFAULT 'public',
			uploader_id VARCHAR(255) NOT NULL,
			uploader_role VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'saved',
			signing_mode VARCHAR(16),
			current_rank INTEGER NOT NULL DEFAULT 0,
			date_expired TIMESTAMP,
			date_complete TIMESTAMP,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE TABLE IF NOT EXISTS approval_entries (
			id BIGSERIAL PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			signer_id VARCHAR(255) NOT NULL,
			signed BOOLEAN NOT NULL DEFAULT FALSE,
			date_sent TIMESTAMP,
			date_signed TIMESTAMP,
			page INTEGER NOT NULL,
			pos_x DOUBLE PRECISION NOT NULL,
			pos_y DOUBLE PRECISION NOT NULL,
			width DOUBLE PRECISION NOT NULL,
			height DOUBLE PRECISION NOT NULL,
			UNIQUE (document_id, signer_id)
		);`,

		`CREATE TABLE IF NOT EXISTS counters (
			name VARCHAR(64) PRIMARY KEY,
			value INTEGER NOT NULL DEFAULT 0
		);`,

		`CREATE TABLE IF NOT EXISTS audit_events (
			id BIGSERIAL PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			actor_id VARCHAR(255) NOT NULL,
			action VARCHAR(16) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		`CREATE INDEX IF NOT EXISTS idx_documents_uploader ON documents(uploader_id);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);`,
		`CREATE INDEX IF NOT EXISTS idx_approval_entries_document ON approval_entries(document_id);`,
		`CREATE INDEX IF NOT EXISTS idx_approval_entries_signer ON approval_entries(signer_id);`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_document ON audit_events(document_id);`,
	}

	for _, stmt := range statements {
		if _, err := d.DB.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

func (d *Database) Close() error {
	return d.DB.Close()
}
