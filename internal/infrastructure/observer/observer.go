// Package observer broadcasts turn-lifecycle events purely for
// monitoring: nothing on the pipeline's decision path reads from it.
package observer

import (
	"sync"
	"time"
)

// TurnObserver receives lifecycle callbacks for one conversation turn.
// Every method may be called from a different goroutine than the one
// driving the turn; implementations must be safe for concurrent use.
type TurnObserver interface {
	OnExtractionDone(conversationID string, intent string, duration time.Duration)
	OnPlanBuilt(conversationID string, blockCount int, duration time.Duration)
	OnBlockExecuted(conversationID, blockID string, rowCount int, err error)
	OnResponseReady(conversationID string, status string, duration time.Duration)
}

// Manager fans one turn's events out to every registered TurnObserver.
type Manager struct {
	mu        sync.RWMutex
	observers []TurnObserver
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Add(o TurnObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

func (m *Manager) Remove(o TurnObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, obs := range m.observers {
		if obs == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

func (m *Manager) NotifyExtractionDone(conversationID, intent string, duration time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnExtractionDone(conversationID, intent, duration)
	}
}

func (m *Manager) NotifyPlanBuilt(conversationID string, blockCount int, duration time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnPlanBuilt(conversationID, blockCount, duration)
	}
}

func (m *Manager) NotifyBlockExecuted(conversationID, blockID string, rowCount int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnBlockExecuted(conversationID, blockID, rowCount, err)
	}
}

func (m *Manager) NotifyResponseReady(conversationID, status string, duration time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range m.observers {
		o.OnResponseReady(conversationID, status, duration)
	}
}
