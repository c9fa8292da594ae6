package intake

import (
	"log"
	"strconv"

	"civicbot/backend/internal/storage"
)

// Generator issues short, display-friendly complaint ids: the current
// complaint count plus one, as a decimal string ("1", "2", ...).
//
// This is not a real sequence. Two near-simultaneous finalizations can
// compute the same candidate; uniqueness is recovered by the finalize path's
// single disambiguated retry, not here. Keep ids human-short if you ever
// swap this for a monotonic counter or random token, since they appear
// verbatim in card text and confirmation messages.
type Generator struct {
	Storage storage.Storage
}

// Next returns the next candidate id. On a storage error it logs and falls
// back to "1" so the dialogue keeps working; the duplicate-retry path covers
// the collision that may cause.
func (g *Generator) Next() string {
	n, err := g.Storage.CountComplaints()
	if err != nil {
		log.Printf("WARN: id generator count failed, falling back to 1: %v", err)
		return "1"
	}
	return strconv.FormatInt(n+1, 10)
}
