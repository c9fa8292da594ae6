package session

import (
	"context"
	"sync"

	"civicbot/backend/internal/models"
)

// MemoryStore keeps drafts in process memory. It is the default backend for
// single-process deployments; drafts do not survive a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[int64]models.ConversationDraft
}

// NewMemoryStore returns an empty in-memory draft store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[int64]models.ConversationDraft)}
}

// Load returns a copy of the stored draft so callers never alias the map's
// value outside the Manager's lock.
func (s *MemoryStore) Load(ctx context.Context, userID int64) (*models.ConversationDraft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[userID]
	if !ok {
		return nil, nil
	}
	out := d
	out.Media = append([]models.DraftMedia(nil), d.Media...)
	return &out, nil
}

// Save stores a copy of the draft.
func (s *MemoryStore) Save(ctx context.Context, userID int64, d *models.ConversationDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *d
	stored.Media = append([]models.DraftMedia(nil), d.Media...)
	s.drafts[userID] = stored
	return nil
}

// Clear drops the user's draft.
func (s *MemoryStore) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
