// Package toast keeps the list of transient notifications. Every toast belongs
// to one audience and owns a single-shot timer that removes it after the
// board's TTL; dismissing a toast or resetting the board stops the timers it
// owned.
package toast

import (
	"sync"
	"time"

	"leviro/models"

	"github.com/google/uuid"
)

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 3000 * time.Millisecond

const (
	EventShown   = "toast.shown"
	EventRemoved = "toast.removed"
)

type Event struct {
	Type  string       `json:"type"`
	Toast models.Toast `json:"toast"`
}

type Board struct {
	mu        sync.Mutex
	ttl       time.Duration
	toasts    []models.Toast
	timers    map[string]*time.Timer
	listeners []func(Event)
}

func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Board{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Listen registers fn to be called after every show and removal.
func (b *Board) Listen(fn func(Event)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Show appends a toast for audience and schedules its removal.
func (b *Board) Show(audience, message string, kind models.ToastKind) models.Toast {
	if kind == "" {
		kind = models.ToastSuccess
	}
	t := models.Toast{
		ID:        uuid.NewString(),
		Audience:  audience,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
	}

	b.mu.Lock()
	b.toasts = append(b.toasts, t)
	b.timers[t.ID] = time.AfterFunc(b.ttl, func() { b.remove(t.ID, false) })
	listeners := b.listeners
	b.mu.Unlock()

	emit(listeners, Event{Type: EventShown, Toast: t})
	return t
}

// List returns the visible toasts of audience, oldest first.
func (b *Board) List(audience string) []models.Toast {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Toast{}
	for _, t := range b.toasts {
		if t.Audience == audience {
			out = append(out, t)
		}
	}
	return out
}

// Len is the number of visible toasts across all audiences.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.toasts)
}

// Dismiss removes a toast of audience before it expires. Toasts of other
// audiences are left alone.
func (b *Board) Dismiss(audience, id string) bool {
	b.mu.Lock()
	owned := false
	for _, t := range b.toasts {
		if t.ID == id {
			owned = t.Audience == audience
			break
		}
	}
	b.mu.Unlock()
	if !owned {
		return false
	}
	return b.remove(id, true)
}

// Reset clears every toast and stops all pending timers.
func (b *Board) Reset() {
	b.mu.Lock()
	for id, tm := range b.timers {
		tm.Stop()
		delete(b.timers, id)
	}
	b.toasts = nil
	b.mu.Unlock()
}

// Pending is the number of expiry timers still scheduled.
func (b *Board) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.timers)
}

func (b *Board) remove(id string, stop bool) bool {
	b.mu.Lock()
	tm, ok := b.timers[id]
	if !ok {
		b.mu.Unlock()
		return false
	}
	if stop {
		tm.Stop()
	}
	delete(b.timers, id)

	var removed models.Toast
	for i := range b.toasts {
		if b.toasts[i].ID == id {
			removed = b.toasts[i]
			b.toasts = append(b.toasts[:i], b.toasts[i+1:]...)
			break
		}
	}
	listeners := b.listeners
	b.mu.Unlock()

	emit(listeners, Event{Type: EventRemoved, Toast: removed})
	return true
}

func emit(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
