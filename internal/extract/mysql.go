package extract

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// MySQLClient handles MySQL database connections.
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient creates a new MySQL client from a DSN such as
// user:pass@tcp(host:3306)/dbname.
func NewMySQLClient(dsn string) (*MySQLClient, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// ParseDatabaseName extracts the database name from a MySQL DSN.
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("no database name in DSN")
	}
	return strings.TrimSpace(cfg.DBName), nil
}
