package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to the PostgreSQL audit database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	PostgresDB.SetMaxOpenConns(10)
	PostgresDB.SetMaxIdleConns(2)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	return InitPostgresTables(PostgresDB)
}

// InitPostgresTables creates the payment review ledger if it doesn't exist
func InitPostgresTables(db *sql.DB) error {
	queries := []string{
		// Append-only: one row per applied payment verdict
		`CREATE TABLE IF NOT EXISTS payment_reviews (
			id BIGSERIAL PRIMARY KEY,
			payment_id VARCHAR(24) NOT NULL,
			session_id VARCHAR(24) NOT NULL,
			admin_id VARCHAR(24) NOT NULL,
			verdict VARCHAR(16) NOT NULL,
			session_missing BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_reviews_payment_id ON payment_reviews(payment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_reviews_created_at ON payment_reviews(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
