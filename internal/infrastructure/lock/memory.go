// Package lock implementa el bloqueo por ítem que serializa las mutaciones de un ledger.
package lock

import (
	"context"
	"sync"

	"github.com/jhoicas/Cafeteria-api/internal/application/inventory"
)

var _ inventory.ItemLocker = (*MemoryLocker)(nil)

// MemoryLocker bloqueo por clave dentro del proceso. Sirve cuando hay una sola instancia
// de la API; con varias, usar RedisLocker.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{} // buffer 1: lleno = tomado
	refs int
}

// NewMemoryLocker construye el locker en memoria.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*slot)}
}

// Lock espera el bloqueo de itemID o la cancelación de ctx.
func (l *MemoryLocker) Lock(ctx context.Context, itemID string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[itemID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[itemID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.drop(itemID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.drop(itemID, s)
		})
	}, nil
}

// drop libera la entrada del mapa cuando nadie más espera por la clave.
func (l *MemoryLocker) drop(itemID string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, itemID)
	}
}

// size claves activas (tests).
func (l *MemoryLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
