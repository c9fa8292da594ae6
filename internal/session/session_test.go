package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"civicbot/backend/internal/models"
	"civicbot/backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithCreatesDraftAndPersists(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore())
	ctx := context.Background()

	err := m.With(ctx, 100, func(d *models.ConversationDraft) error {
		assert.Equal(t, models.StateIdle, d.State)
		d.State = models.StateCategory
		return nil
	})
	require.NoError(t, err)

	state, err := m.Peek(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StateCategory, state)
}

func TestWithClearsIdleDraft(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, m.With(ctx, 100, func(d *models.ConversationDraft) error {
		d.State = models.StateMedia
		d.Media = append(d.Media, models.DraftMedia{FileID: "f1", Kind: models.MediaPhoto})
		return nil
	}))

	require.NoError(t, m.With(ctx, 100, func(d *models.ConversationDraft) error {
		*d = models.ConversationDraft{State: models.StateIdle}
		return nil
	}))

	state, err := m.Peek(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, state)
}

// Concurrent updates for the same user must serialize: every appended item
// must survive.
func TestWithSerializesPerUser(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore())
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := m.With(ctx, 100, func(d *models.ConversationDraft) error {
				d.State = models.StateMedia
				d.Media = append(d.Media, models.DraftMedia{
					FileID: fmt.Sprintf("file-%d", i),
					Kind:   models.MediaPhoto,
				})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	var count int
	require.NoError(t, m.With(ctx, 100, func(d *models.ConversationDraft) error {
		count = len(d.Media)
		return nil
	}))
	assert.Equal(t, n, count)
}

func TestUsersDoNotShareDrafts(t *testing.T) {
	m := session.NewManager(session.NewMemoryStore())
	ctx := context.Background()

	require.NoError(t, m.With(ctx, 100, func(d *models.ConversationDraft) error {
		d.State = models.StateDescription
		d.Category = "Вода"
		return nil
	}))

	state, err := m.Peek(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, state)
}

// The memory store must hand out copies: mutating a loaded draft without
// saving it may not leak into the stored one.
func TestMemoryStoreCopies(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 100, &models.ConversationDraft{
		State: models.StateMedia,
		Media: []models.DraftMedia{{FileID: "f1", Kind: models.MediaPhoto}},
	}))

	d, err := store.Load(ctx, 100)
	require.NoError(t, err)
	d.Media[0].FileID = "mutated"
	d.State = models.StateConfirm

	again, err := store.Load(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StateMedia, again.State)
	assert.Equal(t, "f1", again.Media[0].FileID)
}

func TestMemoryStoreClear(t *testing.T) {
	store := session.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 100, &models.ConversationDraft{State: models.StateCategory}))
	require.NoError(t, store.Clear(ctx, 100))

	d, err := store.Load(ctx, 100)
	require.NoError(t, err)
	assert.Nil(t, d)
}
