package telegram

import (
	"fmt"
	"strings"

	"civicbot/backend/internal/localization"
	"civicbot/backend/internal/models"
)

// renderStatusLine builds the card's status line from a localized status
// label and an optional assignee mention.
func renderStatusLine(loc *localization.Localizer, lang, label, assignee string) string {
	line := fmt.Sprintf("%s: %s", loc.Get(lang, "card_status"), label)
	if assignee != "" {
		line += fmt.Sprintf(" (%s: %s)", loc.Get(lang, "card_assignee"), assignee)
	}
	return line
}

// renderCard renders the full card text for a complaint. Every status
// change re-renders the whole card from the record plus the new status
// line, so the displayed text is always a function of current state and
// never a patch of earlier text.
func renderCard(loc *localization.Localizer, lang string, c *models.Complaint, statusLine string) string {
	placeholder := loc.Get(lang, "placeholder")
	address := placeholder
	if c.AddressText != nil && *c.AddressText != "" {
		address = *c.AddressText
	}
	description := c.Description
	if description == "" {
		description = placeholder
	}
	category := c.Category
	if category == "" {
		category = placeholder
	}
	lines := []string{
		fmt.Sprintf("#%s  [%s: %s]", c.ID, loc.Get(lang, "card_category"), category),
		fmt.Sprintf("%s: %s", loc.Get(lang, "card_from"), safeMention(c.AuthorHandle, "", loc.Get(lang, "default_user"))),
		fmt.Sprintf("%s: %s", loc.Get(lang, "card_address"), address),
		fmt.Sprintf("%s: %s", loc.Get(lang, "card_description"), description),
		"",
		statusLine,
	}
	return strings.Join(lines, "\n")
}

// statusLabel maps a persisted status to its localized display label.
func statusLabel(loc *localization.Localizer, lang, status string) string {
	switch status {
	case models.StatusNew:
		return loc.Get(lang, "status_new")
	case models.StatusInProgress:
		return loc.Get(lang, "status_in_progress")
	case models.StatusDone:
		return loc.Get(lang, "status_done")
	case models.StatusClosed:
		return loc.Get(lang, "status_closed")
	}
	return status
}

// safeMention prefers @username, then a display name, then a neutral label.
func safeMention(username, firstName, fallback string) string {
	if username != "" {
		return "@" + username
	}
	if firstName != "" {
		return firstName
	}
	return fallback
}

// truncate shortens s for list entries, appending an ellipsis.
func truncate(s string, max int) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
