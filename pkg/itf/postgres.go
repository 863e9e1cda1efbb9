package itf

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/precinct/pkg/configuration"
)

// PostgreSQL identifiers are limited to 63 bytes.
const (
	maxDBNameLength  = 63
	hashSuffixLength = 9
)

// NewDatabase creates a fresh database named after the test and returns a
// pool to it. The pool is closed on cleanup.
func NewDatabase(tb testing.TB, db configuration.DatabaseOptions) *pgxpool.Pool {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	name := sanitizeDBName(tb.Name())
	admin := db
	admin.Name = "postgres"
	conn, err := pgx.Connect(ctx, admin.ConnectionString())
	if err != nil {
		tb.Skipf("postgres unavailable: %v", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	ident := pgx.Identifier{name}.Sanitize()
	if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
		tb.Fatal(err)
	}
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
		tb.Fatal(err)
	}

	target := db
	target.Name = name
	config, err := pgxpool.ParseConfig(target.ConnectionString())
	if err != nil {
		tb.Fatal(err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		tb.Fatalf("failed to create database pool: %v", err)
	}
	tb.Cleanup(pool.Close)
	return pool
}

// sanitizeDBName lowercases name, replaces separators with underscores and
// truncates with a hash suffix when the result exceeds the identifier limit.
func sanitizeDBName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', ' ', '-', '.', '(', ')', '[', ']':
			return '_'
		}
		return r
	}, strings.ToLower(name))
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}
	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s_%x", sanitized[:maxDBNameLength-hashSuffixLength], sum[:4])
}
