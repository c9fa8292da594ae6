package models

// Dialogue states of the intake flow. The empty string is Idle: no draft in
// progress. Each user has at most one draft at a time.
const (
	StateIdle        = ""
	StateCategory    = "category"
	StateDescription = "description"
	StateAddress     = "address"
	StateLocation    = "location"
	StateMedia       = "media"
	StateConfirm     = "confirm"
)

// DraftMedia is one buffered attachment inside a draft. JSON tags keep the
// draft serializable for the Redis session backend.
type DraftMedia struct {
	FileID   string `json:"file_id"`
	Kind     string `json:"kind"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime,omitempty"`
}

// ConversationDraft accumulates complaint fields across dialogue turns.
// It lives in the session store only and is discarded on confirm, cancel
// or /start; nothing here is written to the durable store before finalize.
type ConversationDraft struct {
	State       string       `json:"state"`
	DraftID     string       `json:"draft_id,omitempty"`
	Category    string       `json:"category,omitempty"`
	Description string       `json:"description,omitempty"`
	AddressText *string      `json:"address_text,omitempty"`
	GeoLat      *float64     `json:"geo_lat,omitempty"`
	GeoLon      *float64     `json:"geo_lon,omitempty"`
	Media       []DraftMedia `json:"media,omitempty"`
	LastAlbumID string       `json:"last_album_id,omitempty"`
	HintMsgID   int          `json:"hint_msg_id,omitempty"`
}

// HasGeo reports whether the draft carries a parsed location.
func (d *ConversationDraft) HasGeo() bool {
	return d.GeoLat != nil && d.GeoLon != nil
}

// SetGeo stores a latitude/longitude pair on the draft.
func (d *ConversationDraft) SetGeo(lat, lon float64) {
	d.GeoLat = &lat
	d.GeoLon = &lon
}
