package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Dialect — тип хранилища, выбирается по схеме DATABASE_URL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// sqlitePragmas включают каскадное удаление и ожидание блокировки.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// Target — разобранный DATABASE_URL.
type Target struct {
	Dialect Dialect
	// DSN передаётся драйверу как есть: URL для postgres, путь с прагмами для sqlite.
	DSN string
}

// ParseURL определяет диалект. Поддерживаются postgres://, postgresql://,
// sqlite://<path> и file:<path>.
func ParseURL(databaseURL string) (Target, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return Target{}, fmt.Errorf("database url is empty")
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return Target{Dialect: DialectPostgres, DSN: u}, nil
	case strings.HasPrefix(u, "sqlite://"):
		return sqliteTarget(strings.TrimPrefix(u, "sqlite://"))
	case strings.HasPrefix(u, "file:"):
		return sqliteTarget(strings.TrimPrefix(u, "file:"))
	}
	return Target{}, fmt.Errorf("unsupported database url scheme: %q", u)
}

func sqliteTarget(path string) (Target, error) {
	if path == "" {
		return Target{}, fmt.Errorf("sqlite path is empty")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return Target{Dialect: DialectSQLite, DSN: path + sep + sqlitePragmas}, nil
}

// Open открывает пул gorm для DATABASE_URL.
func Open(databaseURL string) (*gorm.DB, error) {
	target, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	var dialector gorm.Dialector
	switch target.Dialect {
	case DialectPostgres:
		dialector = postgres.Open(target.DSN)
	case DialectSQLite:
		dialector = &sqlite.Dialector{DriverName: "sqlite", DSN: target.DSN}
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target.Dialect, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db: %w", err)
	}
	if target.Dialect == DialectSQLite {
		// один писатель: SQLITE_BUSY при параллельных транзакциях
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Close закрывает пул соединений.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
