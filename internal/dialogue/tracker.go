// Package dialogue хранит состояние пошаговой формы «новый тикет»
// (тема, затем описание) для каждого пользователя.
//
// Состояние живёт только в памяти процесса: после рестарта незавершённые
// диалоги теряются. Записи старше TTL считаются отсутствующими.
package dialogue

import (
	"strings"
	"sync"
	"time"
)

// Stage — шаг формы. Отсутствие записи означает StageIdle.
type Stage int

const (
	StageIdle Stage = iota
	StageAwaitSubject
	StageAwaitDescription
)

func (s Stage) String() string {
	switch s {
	case StageAwaitSubject:
		return "await_subject"
	case StageAwaitDescription:
		return "await_description"
	default:
		return "idle"
	}
}

// DefaultTTL — сколько ждём следующего сообщения пользователя.
const DefaultTTL = 30 * time.Minute

type entry struct {
	stage   Stage
	subject string
	touched time.Time
}

// Result — итог Advance.
type Result struct {
	// Stage — шаг после перехода.
	Stage Stage
	// Completed выставлен, когда получено описание и запись удалена.
	Completed   bool
	Subject     string
	Description string
}

// Tracker — потокобезопасное хранилище userID -> шаг формы.
type Tracker struct {
	mu      sync.Mutex
	entries map[int64]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewTracker; ttl <= 0 отключает истечение.
func NewTracker(ttl time.Duration) *Tracker {
	return &Tracker{
		entries: make(map[int64]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock подменяет источник времени (тесты).
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// Start переводит пользователя в await_subject, затирая прежнее состояние.
func (t *Tracker) Start(userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[userID] = &entry{stage: StageAwaitSubject, touched: t.now()}
}

// Advance применяет свободный текст к форме. ok == false, если диалога нет.
func (t *Tracker) Advance(userID int64, text string) (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.lookup(userID)
	if e == nil {
		return Result{}, false
	}
	text = strings.TrimSpace(text)
	switch e.stage {
	case StageAwaitSubject:
		e.subject = text
		e.stage = StageAwaitDescription
		e.touched = t.now()
		return Result{Stage: StageAwaitDescription, Subject: text}, true
	case StageAwaitDescription:
		delete(t.entries, userID)
		return Result{
			Stage:       StageIdle,
			Completed:   true,
			Subject:     e.subject,
			Description: text,
		}, true
	}
	return Result{}, false
}

// Cancel удаляет незавершённый диалог; true, если он был.
func (t *Tracker) Cancel(userID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lookup(userID) == nil {
		return false
	}
	delete(t.entries, userID)
	return true
}

// Stage возвращает текущий шаг пользователя.
func (t *Tracker) Stage(userID int64) Stage {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.lookup(userID); e != nil {
		return e.stage
	}
	return StageIdle
}

// Pending — есть ли у пользователя незавершённый диалог.
func (t *Tracker) Pending(userID int64) bool {
	return t.Stage(userID) != StageIdle
}

// Len — число живых записей (включая ещё не вычищенные просроченные).
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Sweep удаляет просроченные записи и возвращает их количество.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ttl <= 0 {
		return 0
	}
	now := t.now()
	removed := 0
	for id, e := range t.entries {
		if now.Sub(e.touched) > t.ttl {
			delete(t.entries, id)
			removed++
		}
	}
	return removed
}

// lookup вызывается под mu; просроченную запись удаляет.
func (t *Tracker) lookup(userID int64) *entry {
	e, ok := t.entries[userID]
	if !ok {
		return nil
	}
	if t.ttl > 0 && t.now().Sub(e.touched) > t.ttl {
		delete(t.entries, userID)
		return nil
	}
	return e
}
