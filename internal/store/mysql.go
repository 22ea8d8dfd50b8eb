package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL is a KV backend over a single two-column table. The table holds the
// same keys and JSON payloads as the other backends; SQL is used purely as a
// durable string map.
type MySQL struct {
	db *sql.DB
}

// OpenMySQL connects, verifies the connection and ensures the kv table
// exists.
func OpenMySQL(user, pass, host, port, name string) (*MySQL, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime is irrelevant here (values are opaque strings) but loc=UTC
	// keeps the DSN consistent with the rest of the deployment.
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&loc=UTC", auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS kv (k VARCHAR(191) PRIMARY KEY, v MEDIUMTEXT NOT NULL)"); err != nil {
		return nil, err
	}
	return &MySQL{db: db}, nil
}

func (m *MySQL) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := m.db.QueryRowContext(ctx, "SELECT v FROM kv WHERE k=?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (m *MySQL) Set(ctx context.Context, key, value string) error {
	_, err := m.db.ExecContext(ctx,
		"INSERT INTO kv (k, v) VALUES (?,?) ON DUPLICATE KEY UPDATE v=VALUES(v)",
		key, value)
	return err
}

func (m *MySQL) Remove(ctx context.Context, key string) error {
	_, err := m.db.ExecContext(ctx, "DELETE FROM kv WHERE k=?", key)
	return err
}

// Close releases the underlying connection pool.
func (m *MySQL) Close() error { return m.db.Close() }
