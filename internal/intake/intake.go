// Package intake turns a finished conversation draft into a durable
// complaint: id assignment, the one-shot collision retry, the transactional
// media insert with its sequential fallback, and the handoff to group
// posting.
package intake

import (
	"fmt"
	"log"

	"civicbot/backend/internal/models"
	"civicbot/backend/internal/storage"

	"github.com/google/uuid"
)

// Poster receives the saved complaint for rendering into the staff group.
// Implemented by the telegram group poster; a no-op in tests.
type Poster interface {
	Post(c *models.Complaint, media []models.MediaAttachment)
}

// Service finalizes drafts.
type Service struct {
	Storage storage.Storage
	IDs     *Generator
	Poster  Poster
}

// NewService builds an intake service over the given store and poster.
func NewService(s storage.Storage, poster Poster) *Service {
	return &Service{
		Storage: s,
		IDs:     &Generator{Storage: s},
		Poster:  poster,
	}
}

// Finalize persists the draft as a complaint with status New and hands the
// saved record to the poster. The caller has already acknowledged the user
// optimistically; errors here are the caller's to log, never to surface.
//
// Id collisions are recovered exactly once by appending a short random
// disambiguator; a second collision fails the submission.
func (s *Service) Finalize(d *models.ConversationDraft, authorID int64, authorHandle string) (string, error) {
	id := d.DraftID
	if id == "" {
		id = s.IDs.Next()
	}

	c := &models.Complaint{
		ID:           id,
		AuthorID:     authorID,
		AuthorHandle: authorHandle,
		Category:     d.Category,
		AddressText:  d.AddressText,
		GeoLat:       d.GeoLat,
		GeoLon:       d.GeoLon,
		Description:  d.Description,
		Status:       models.StatusNew,
	}

	err := s.Storage.SaveComplaint(c)
	if err == storage.ErrDuplicateID {
		c.ID = fmt.Sprintf("%s-%s", id, uuid.New().String()[:4])
		err = s.Storage.SaveComplaint(c)
		if err == storage.ErrDuplicateID {
			return "", fmt.Errorf("complaint id %q collided twice, submission dropped", id)
		}
	}
	if err != nil {
		return "", fmt.Errorf("save complaint: %w", err)
	}

	media := s.saveMedia(c.ID, d.Media)

	if s.Poster != nil {
		s.Poster.Post(c, media)
	}
	return c.ID, nil
}

// saveMedia persists the draft's media buffer in arrival order: one
// transaction first, then best-effort sequential inserts if the transaction
// fails. Partial media loss on the fallback path is a logged, recoverable
// defect, never fatal to the submission.
func (s *Service) saveMedia(complaintID string, buf []models.DraftMedia) []models.MediaAttachment {
	if len(buf) == 0 {
		return nil
	}
	media := make([]models.MediaAttachment, 0, len(buf))
	for _, m := range buf {
		media = append(media, models.MediaAttachment{
			ComplaintID: complaintID,
			FileID:      m.FileID,
			Kind:        m.Kind,
			FileName:    m.FileName,
			MimeType:    m.MimeType,
		})
	}

	if err := s.Storage.AddMediaTx(complaintID, media); err == nil {
		return media
	} else {
		log.Printf("WARN: transactional media insert failed for %s, falling back to sequential: %v", complaintID, err)
	}

	saved := media[:0]
	for i := range media {
		media[i].ID = 0
		if err := s.Storage.AddMedia(&media[i]); err != nil {
			log.Printf("ERROR: Failed to save attachment %d of complaint %s: %v", i, complaintID, err)
			continue
		}
		saved = append(saved, media[i])
	}
	return saved
}
