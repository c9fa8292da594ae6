// Package session holds the per-user conversation drafts. Drafts live
// outside the durable store: they are discarded on cancel and only become a
// complaint row at finalize. Access is serialized per user through the
// Manager, so two concurrent updates from the same user can never race on
// one draft; different users proceed in parallel.
package session

import (
	"context"
	"sync"

	"civicbot/backend/internal/models"
)

// Store is the draft persistence contract: one draft per user, keyed by the
// platform user id.
type Store interface {
	// Load returns the user's draft, or nil if no flow is in progress.
	Load(ctx context.Context, userID int64) (*models.ConversationDraft, error)
	Save(ctx context.Context, userID int64, d *models.ConversationDraft) error
	Clear(ctx context.Context, userID int64) error
}

// Manager serializes draft access per user with a key-level mutex.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewManager wraps a Store with per-user locking.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		locks: make(map[int64]*sync.Mutex),
	}
}

func (m *Manager) userLock(userID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// With loads the user's draft (an Idle draft if none), runs fn under the
// user's lock, and writes the result back: a draft left in StateIdle is
// cleared, anything else is saved. fn must not start new flows for other
// users, and long remote calls belong outside of it.
func (m *Manager) With(ctx context.Context, userID int64, fn func(d *models.ConversationDraft) error) error {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	d, err := m.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	if d == nil {
		d = &models.ConversationDraft{State: models.StateIdle}
	}

	if err := fn(d); err != nil {
		return err
	}

	if d.State == models.StateIdle {
		return m.store.Clear(ctx, userID)
	}
	return m.store.Save(ctx, userID, d)
}

// Peek returns a copy of the user's current draft state tag without holding
// the lock beyond the read. Used by read-only routing decisions.
func (m *Manager) Peek(ctx context.Context, userID int64) (string, error) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()
	d, err := m.store.Load(ctx, userID)
	if err != nil {
		return models.StateIdle, err
	}
	if d == nil {
		return models.StateIdle, nil
	}
	return d.State, nil
}
