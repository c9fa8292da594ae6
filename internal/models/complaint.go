// Package models defines the persistent data model of the complaint bot:
// complaints, their media attachments, posted group cards and transient
// hint-message references.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Complaint statuses. A complaint starts as New, becomes InProgress when a
// staff member takes it, and ends as Done (completed by staff) or Closed
// (forced shut by an operator). Rows are never deleted.
const (
	StatusNew        = "New"
	StatusInProgress = "InProgress"
	StatusDone       = "Done"
	StatusClosed     = "Closed"
)

// Attachment kinds.
const (
	MediaPhoto    = "photo"
	MediaVideo    = "video"
	MediaDocument = "document"
)

// Complaint is a resident-submitted issue report.
//
// Invariants: AssigneeID set implies Status == InProgress and TakenAt set;
// Status == New implies AssigneeID is NULL.
type Complaint struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	AuthorID     int64      `gorm:"index:idx_complaints_author" json:"author_id"`
	AuthorHandle string     `json:"author_handle"`
	Category     string     `json:"category"`
	AddressText  *string    `json:"address_text,omitempty"`
	GeoLat       *float64   `json:"geo_lat,omitempty"`
	GeoLon       *float64   `json:"geo_lon,omitempty"`
	Description  string     `json:"description"`
	Status       string     `gorm:"index:idx_complaints_status" json:"status"`
	AssigneeID   *int64     `gorm:"index:idx_complaints_assignee" json:"assignee_id,omitempty"`
	CreatedAt    time.Time  `gorm:"index:idx_complaints_created" json:"created_at"`
	TakenAt      *time.Time `gorm:"index:idx_complaints_taken" json:"taken_at,omitempty"`
	DoneAt       *time.Time `gorm:"index:idx_complaints_done" json:"done_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// BeforeCreate is a GORM hook that fills the defaults a caller may omit.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.Status == "" {
		c.Status = StatusNew
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return
}

// MediaAttachment belongs to exactly one complaint. FileID is the opaque
// Telegram file handle; FileName and MimeType are only set for documents.
// Insertion order (the autoincrement ID) is the display order.
type MediaAttachment struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ComplaintID string `gorm:"index:idx_media_complaint" json:"complaint_id"`
	FileID      string `json:"file_id"`
	Kind        string `json:"kind"`
	FileName    string `json:"file_name,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// PostedCard links a complaint to its card message in the staff group.
// The most recent row per complaint is the authoritative one.
type PostedCard struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ComplaintID string `gorm:"index:idx_posts_complaint"`
	ChatID      int64
	MessageID   int
}

// EphemeralHint is the transient "N files attached" message shown during
// media collection. It is keyed by the draft's candidate complaint id and
// never survives into the complaint's permanent record.
type EphemeralHint struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ComplaintID string `gorm:"index:idx_hints_complaint"`
	MessageID   int
}
