// Package testutil — общие хелперы тестов: временная sqlite-база с
// применёнными миграциями и детерминированные часы.
//
// Хелперы вызывают t.Fatalf при ошибке: сбой подготовки теста не
// восстанавливается.
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/ticket-bot/internal/database"
	"gorm.io/gorm"
)

// DatabaseURL возвращает sqlite://-URL во временном каталоге теста.
func DatabaseURL(t testing.TB) string {
	t.Helper()
	return "sqlite://" + filepath.Join(t.TempDir(), "tickets.db")
}

// NewDB создаёт базу, применяет миграции и закрывает её по окончании теста.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	url := DatabaseURL(t)
	if err := database.MigrateUp(context.Background(), url); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// Clock — часы, которые сдвигаются на Step при каждом вызове Now.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewClock стартует с фиксированного момента, шаг одна секунда.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), Step: time.Second}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.Step)
	return c.now
}

// Peek возвращает текущее значение без сдвига.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance сдвигает часы на d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
