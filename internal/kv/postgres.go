package kv

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres stores the cache in a single two-column table, for deployments
// that already run the campus database and want the mirror state durable
// across host reboots.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection and ensures the backing table exists.
func NewPostgres(connString string) (*Postgres, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orarsync_kv (
			key   TEXT PRIMARY KEY,
			value BYTEA NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) Get(key string) ([]byte, error) {
	var v []byte
	err := p.db.QueryRow(`SELECT value FROM orarsync_kv WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (p *Postgres) Set(key string, value []byte) error {
	_, err := p.db.Exec(`
		INSERT INTO orarsync_kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	return err
}

func (p *Postgres) Delete(key string) error {
	_, err := p.db.Exec(`DELETE FROM orarsync_kv WHERE key = $1`, key)
	return err
}

func (p *Postgres) Keys(prefix string) ([]string, error) {
	rows, err := p.db.Query(`SELECT key FROM orarsync_kv WHERE key LIKE $1 || '%'`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
