package session

import (
	"context"
	"log"
	"sync"
	"time"

	"passive-genius/internal/storage"
)

// sweepInterval bounds how often Get scans for idle machines.
const sweepInterval = time.Minute

type managedMachine struct {
	machine  *Machine
	lastUsed time.Time
}

// Manager owns one Machine per user. Machines unused for idleTTL are
// dropped; persisted profile, favorites and progress survive eviction.
type Manager struct {
	mu        sync.Mutex
	machines  map[string]*managedMachine
	advisor   Advisor
	stores    *storage.Stores
	notifyTTL time.Duration
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewManager creates a manager. An idleTTL of zero keeps machines forever.
func NewManager(advisor Advisor, stores *storage.Stores, notifyTTL, idleTTL time.Duration) *Manager {
	return &Manager{
		machines:  make(map[string]*managedMachine),
		advisor:   advisor,
		stores:    stores,
		notifyTTL: notifyTTL,
		idleTTL:   idleTTL,
		now:       time.Now,
	}
}

// Get returns the user's machine, creating and hydrating it on first use.
func (m *Manager) Get(ctx context.Context, userID string) *Machine {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweepLocked(now)
	if mm, ok := m.machines[userID]; ok {
		mm.lastUsed = now
		return mm.machine
	}
	mc := NewMachine(ctx, userID, m.advisor, m.stores, m.notifyTTL)
	m.machines[userID] = &managedMachine{machine: mc, lastUsed: now}
	return mc
}

func (m *Manager) sweepLocked(now time.Time) {
	if m.idleTTL <= 0 || now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	evicted := 0
	for id, mm := range m.machines {
		if now.Sub(mm.lastUsed) > m.idleTTL {
			delete(m.machines, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Printf("Evicted %d idle sessions", evicted)
	}
}

// Len returns the number of live machines.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.machines)
}
