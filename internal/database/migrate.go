package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

func ensureDatabase(ctx context.Context, databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return fmt.Errorf("database name is empty in url")
	}
	u.Path = "/postgres"
	adminURL := u.String()
	db, err := sql.Open("postgres", adminURL)
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping admin connection: %w", err)
	}
	var exists bool
	err = db.QueryRowContext(ctx, "SELECT true FROM pg_database WHERE datname = $1", dbName).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check database existence: %w", err)
	}
	if exists {
		return nil
	}
	if _, err = db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return fmt.Errorf("create database %q: %w", dbName, err)
	}
	slog.Info("database created", "component", "database", "name", dbName)
	return nil
}

// openMigrator готовит goose под диалект и открывает отдельное соединение
// (миграции не делят пул с gorm).
func openMigrator(ctx context.Context, databaseURL string) (*sql.DB, string, error) {
	target, err := ParseURL(databaseURL)
	if err != nil {
		return nil, "", err
	}
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})

	var driver, gooseDialect string
	switch target.Dialect {
	case DialectPostgres:
		if err := ensureDatabase(ctx, target.DSN); err != nil {
			return nil, "", fmt.Errorf("ensure database: %w", err)
		}
		driver, gooseDialect = "postgres", "postgres"
	case DialectSQLite:
		driver, gooseDialect = "sqlite", "sqlite3"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return nil, "", fmt.Errorf("goose dialect: %w", err)
	}
	db, err := sql.Open(driver, target.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", driver, err)
	}
	return db, "migrations/" + string(target.Dialect), nil
}

// MigrateUp применяет все ожидающие миграции.
func MigrateUp(ctx context.Context, databaseURL string) error {
	db, dir, err := openMigrator(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("db version: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("db version: %w", err)
	}
	if after == before {
		slog.Info("migrate: no pending migrations", "component", "database", "version", after)
	} else {
		slog.Info("migrate: up ok", "component", "database", "from", before, "to", after)
	}
	return nil
}

// MigrateStatus печатает состояние миграций через логгер goose.
func MigrateStatus(ctx context.Context, databaseURL string) error {
	db, dir, err := openMigrator(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.StatusContext(ctx, db, dir)
}

// gooseLogger направляет вывод goose в slog.
type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}
