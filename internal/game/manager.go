package game

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"log"
	mrand "math/rand/v2"
	"sync"
	"time"
)

// ErrTableNotFound is returned for unknown or expired table tokens.
var ErrTableNotFound = errors.New("table not found")

// TuningFunc supplies the tuning for newly created tables.
type TuningFunc func() Tuning

type hostedTable struct {
	session *TableSession
	cancel  context.CancelFunc
}

// Manager owns all live tables on this instance.
type Manager struct {
	tables    map[string]*hostedTable
	tuning    TuningFunc
	listeners []TableListener
	clock     Clock
	idleTTL   time.Duration
	mu        sync.RWMutex
}

// NewManager creates a manager. Tables idle longer than idleTTL are closed
// by the expiry checker; zero disables expiry.
func NewManager(tuning TuningFunc, idleTTL time.Duration, listeners ...TableListener) *Manager {
	if tuning == nil {
		tuning = DefaultTuning
	}
	return &Manager{
		tables:    make(map[string]*hostedTable),
		tuning:    tuning,
		listeners: listeners,
		clock:     SystemClock,
		idleTTL:   idleTTL,
	}
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// newRand seeds a per-table generator from crypto/rand.
func newRand() *mrand.Rand {
	var seed [16]byte
	rand.Read(seed[:])
	return mrand.New(mrand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}

// CreateTable racks a new table and starts its loop. The loop lives until
// the table is removed or ctx is cancelled.
func (m *Manager) CreateTable(ctx context.Context) (*TableSession, error) {
	token := "tbl_" + generateToken(8)

	session, err := NewTableSession(token, m.tuning(), newRand(), m.clock, m.listeners...)
	if err != nil {
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.tables[token] = &hostedTable{session: session, cancel: cancel}
	m.mu.Unlock()

	go session.Run(loopCtx)

	log.Printf("[TABLE] Table created: %s", token)
	return session, nil
}

// GetTable returns a live table by token.
func (m *Manager) GetTable(token string) (*TableSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tables[token]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t.session, nil
}

// RemoveTable stops a table's loop and forgets it.
func (m *Manager) RemoveTable(token string) error {
	m.mu.Lock()
	t, ok := m.tables[token]
	if ok {
		delete(m.tables, token)
	}
	m.mu.Unlock()

	if !ok {
		return ErrTableNotFound
	}
	t.cancel()
	log.Printf("[TABLE] Table removed: %s", token)
	return nil
}

// Count returns the number of live tables.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables)
}

// Shutdown stops every table loop.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	tables := m.tables
	m.tables = make(map[string]*hostedTable)
	m.mu.Unlock()

	for _, t := range tables {
		t.cancel()
	}
	log.Printf("[TABLE] Shut down %d tables", len(tables))
}

// StartExpiryChecker closes idle tables every interval until ctx is done.
func (m *Manager) StartExpiryChecker(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 {
		log.Println("[EXPIRY] Table expiry disabled")
		return
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkExpiredTables()
		}
	}
}

// checkExpiredTables removes tables whose last strike or reset is older than the idle TTL.
func (m *Manager) checkExpiredTables() int {
	now := m.clock.Now()

	// Collect candidates under read lock
	m.mu.RLock()
	var expired []string
	for token, t := range m.tables {
		if now.Sub(t.session.LastActivity()) > m.idleTTL {
			expired = append(expired, token)
		}
	}
	m.mu.RUnlock()

	for _, token := range expired {
		log.Printf("[EXPIRY] Table %s idle for more than %s; closing", token, m.idleTTL)
		m.RemoveTable(token)
	}
	return len(expired)
}
