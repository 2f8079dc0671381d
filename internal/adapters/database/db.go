package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/internal/adapters/config"
	"github.com/hat3ck/cryptosense/pkg/logger"
)

// DB wraps a sqlx database connection
type DB struct {
	conn *sqlx.DB
}

// New creates new Postgres connection
func New(cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.Connect("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	return &DB{conn: conn}, nil
}

// NewClickHouse creates new ClickHouse connection over the same sqlx surface
func NewClickHouse(dsn string) (*DB, error) {
	conn, err := sqlx.Connect("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)

	return &DB{conn: conn}, nil
}

// Close closes database connection
func (db *DB) Close() error {
	if db.conn != nil {
		logger.Info("closing database connection")
		return db.conn.Close()
	}
	return nil
}

// Conn returns underlying *sql.DB connection (for migrations)
func (db *DB) Conn() *sql.DB {
	return db.conn.DB
}

// DB returns the sqlx handle
func (db *DB) DB() *sqlx.DB {
	return db.conn
}

// Ping checks if database is alive
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Health checks database health with a short timeout
func (db *DB) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}
