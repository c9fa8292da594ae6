// Package storage owns all persistence of the complaint bot: a single
// file-backed (or Postgres) database with four tables: complaints, media,
// posted cards and ephemeral hints. Every multi-statement mutation runs in an
// explicit transaction, and every statement goes through a bounded
// retry-on-contention primitive so concurrent handlers survive the single
// writer lock of the file store.
package storage

import (
	"errors"
	"log"
	"time"

	"civicbot/backend/internal/models"

	"gorm.io/gorm"
)

// Storage is the persistence contract the rest of the bot depends on.
type Storage interface {
	SaveComplaint(c *models.Complaint) error
	GetComplaint(id string) (*models.Complaint, error)
	CountComplaints() (int64, error)
	SetStatus(id, status string) error
	Assign(id string, userID *int64) error

	AddMediaTx(complaintID string, media []models.MediaAttachment) error
	AddMedia(m *models.MediaAttachment) error
	GetMedia(complaintID string) ([]models.MediaAttachment, error)

	SavePostedCard(card *models.PostedCard) error
	GetPostedCard(complaintID string) (*models.PostedCard, error)

	SaveHint(complaintID string, messageID int) error
	GetHint(complaintID string) (int, error)
	DeleteHints(complaintID string) error

	ListUserComplaints(userID int64, limit int) ([]models.Complaint, error)
	ListFree(limit int) ([]models.Complaint, error)
	ListInProgress(limit int) ([]models.Complaint, error)
	ListDone(limit int) ([]models.Complaint, error)
	ListAssigneeJobs(userID int64, limit int, activeOnly bool) ([]models.Complaint, error)
}

// Service implements Storage on top of GORM.
type Service struct {
	DB *gorm.DB
}

// NewService wraps an open GORM handle.
func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// AutoMigrate creates the four tables and their indexes if missing. The
// schema is additive only; there are no destructive migrations.
func (s *Service) AutoMigrate() error {
	return s.DB.AutoMigrate(
		&models.Complaint{},
		&models.MediaAttachment{},
		&models.PostedCard{},
		&models.EphemeralHint{},
	)
}

// SaveComplaint inserts a new complaint row. A primary key collision is
// reported as ErrDuplicateID; resolving it (regenerating the id) is the
// intake service's job, not ours.
func (s *Service) SaveComplaint(c *models.Complaint) error {
	err := execWithRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(c).Error
		})
	})
	if isDuplicate(err) {
		return ErrDuplicateID
	}
	return err
}

// GetComplaint returns one complaint by id, or ErrNotFound.
func (s *Service) GetComplaint(id string) (*models.Complaint, error) {
	var c models.Complaint
	err := execWithRetry(func() error {
		return s.DB.Where("id = ?", id).First(&c).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountComplaints returns the total number of stored complaints. The id
// generator derives its next candidate from this.
func (s *Service) CountComplaints() (int64, error) {
	var n int64
	err := execWithRetry(func() error {
		return s.DB.Model(&models.Complaint{}).Count(&n).Error
	})
	return n, err
}

// SetStatus updates a complaint's status and stamps the timestamp that
// belongs to it (taken/done/closed).
func (s *Service) SetStatus(id, status string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{"status": status}
	switch status {
	case models.StatusInProgress:
		updates["taken_at"] = now
	case models.StatusDone:
		updates["done_at"] = now
	case models.StatusClosed:
		updates["closed_at"] = now
	}
	return execWithRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Model(&models.Complaint{}).Where("id = ?", id).Updates(updates).Error
		})
	})
}

// Assign sets or clears the assignee. Setting an assignee moves the
// complaint to InProgress and stamps taken_at; clearing it returns the
// complaint to New and clears taken_at, so the status/assignee invariants
// hold in both directions.
func (s *Service) Assign(id string, userID *int64) error {
	return execWithRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			if userID == nil {
				return tx.Model(&models.Complaint{}).Where("id = ?", id).Updates(map[string]interface{}{
					"assignee_id": nil,
					"taken_at":    nil,
					"status":      models.StatusNew,
				}).Error
			}
			return tx.Model(&models.Complaint{}).Where("id = ?", id).Updates(map[string]interface{}{
				"assignee_id": *userID,
				"taken_at":    time.Now().UTC(),
				"status":      models.StatusInProgress,
			}).Error
		})
	})
}

// AddMediaTx inserts all buffered attachments of one complaint atomically,
// preserving buffer order.
func (s *Service) AddMediaTx(complaintID string, media []models.MediaAttachment) error {
	if len(media) == 0 {
		return nil
	}
	return execWithRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			for i := range media {
				media[i].ID = 0
				media[i].ComplaintID = complaintID
				if err := tx.Create(&media[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// AddMedia inserts a single attachment. Used as the sequential fallback when
// the transactional insert fails.
func (s *Service) AddMedia(m *models.MediaAttachment) error {
	return execWithRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(m).Error
		})
	})
}

// GetMedia returns a complaint's attachments in insertion order.
func (s *Service) GetMedia(complaintID string) ([]models.MediaAttachment, error) {
	var media []models.MediaAttachment
	err := execWithRetry(func() error {
		return s.DB.Where("complaint_id = ?", complaintID).Order("id asc").Find(&media).Error
	})
	return media, err
}

// SavePostedCard records the group message a complaint was rendered into.
func (s *Service) SavePostedCard(card *models.PostedCard) error {
	return execWithRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(card).Error
		})
	})
}

// GetPostedCard returns the most recent card reference for a complaint,
// or ErrNotFound.
func (s *Service) GetPostedCard(complaintID string) (*models.PostedCard, error) {
	var card models.PostedCard
	err := execWithRetry(func() error {
		return s.DB.Where("complaint_id = ?", complaintID).Order("id desc").First(&card).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// SaveHint records the transient hint message shown during media collection.
func (s *Service) SaveHint(complaintID string, messageID int) error {
	return execWithRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&models.EphemeralHint{ComplaintID: complaintID, MessageID: messageID}).Error
		})
	})
}

// GetHint returns the latest hint message id for a draft, or 0 if none.
func (s *Service) GetHint(complaintID string) (int, error) {
	var hint models.EphemeralHint
	err := execWithRetry(func() error {
		return s.DB.Where("complaint_id = ?", complaintID).Order("id desc").First(&hint).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return hint.MessageID, nil
}

// DeleteHints removes all hint rows of a draft.
func (s *Service) DeleteHints(complaintID string) error {
	return execWithRetry(func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Where("complaint_id = ?", complaintID).Delete(&models.EphemeralHint{}).Error
		})
	})
}

// ListUserComplaints returns the author's complaints, newest first.
func (s *Service) ListUserComplaints(userID int64, limit int) ([]models.Complaint, error) {
	var rows []models.Complaint
	err := execWithRetry(func() error {
		return s.DB.Where("author_id = ?", userID).
			Order("created_at desc").Limit(limit).Find(&rows).Error
	})
	if err != nil {
		log.Printf("ERROR: Failed to list complaints for user %d: %v", userID, err)
		return nil, err
	}
	return rows, nil
}

// ListFree returns unassigned New complaints, newest first.
func (s *Service) ListFree(limit int) ([]models.Complaint, error) {
	var rows []models.Complaint
	err := execWithRetry(func() error {
		return s.DB.Where("status = ? AND assignee_id IS NULL", models.StatusNew).
			Order("created_at desc").Limit(limit).Find(&rows).Error
	})
	return rows, err
}

// ListInProgress returns complaints currently being worked on, most recently
// taken first.
func (s *Service) ListInProgress(limit int) ([]models.Complaint, error) {
	var rows []models.Complaint
	err := execWithRetry(func() error {
		return s.DB.Where("status = ?", models.StatusInProgress).
			Order("taken_at desc").Limit(limit).Find(&rows).Error
	})
	return rows, err
}

// ListDone returns recently completed complaints, most recent first.
func (s *Service) ListDone(limit int) ([]models.Complaint, error) {
	var rows []models.Complaint
	err := execWithRetry(func() error {
		return s.DB.Where("status = ?", models.StatusDone).
			Order("done_at desc").Limit(limit).Find(&rows).Error
	})
	return rows, err
}

// ListAssigneeJobs returns the complaints assigned to one staff member,
// optionally restricted to active (InProgress) ones.
func (s *Service) ListAssigneeJobs(userID int64, limit int, activeOnly bool) ([]models.Complaint, error) {
	var rows []models.Complaint
	err := execWithRetry(func() error {
		q := s.DB.Where("assignee_id = ?", userID)
		if activeOnly {
			q = q.Where("status = ?", models.StatusInProgress)
		}
		return q.Order("taken_at desc").Limit(limit).Find(&rows).Error
	})
	return rows, err
}

var _ Storage = (*Service)(nil)
