package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	"civicbot/backend/internal/config"
	"civicbot/backend/internal/intake"
	"civicbot/backend/internal/localization"
	"civicbot/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// beginFlow starts a fresh dialogue, discarding whatever draft the user had.
func (s *BotService) beginFlow(chatID, userID int64) {
	lang := s.Lang
	err := s.Sessions.With(context.Background(), userID, func(d *models.ConversationDraft) error {
		s.dropHint(d, userID)
		*d = models.ConversationDraft{State: models.StateCategory}
		s.send(chatID, s.Localizer.Get(lang, "choose_category"), categoriesKB(s.Localizer, lang))
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to start dialogue for user %d: %v", userID, err)
	}
}

// handleFlowMessage dispatches a private non-command message on the draft's
// current state. The whole turn runs under the user's session lock, so hint
// bookkeeping and state transitions never interleave between two updates of
// the same user.
func (s *BotService) handleFlowMessage(msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	lang := s.Lang

	err := s.Sessions.With(context.Background(), userID, func(d *models.ConversationDraft) error {
		switch d.State {
		case models.StateIdle:
			s.send(chatID, s.Localizer.Get(lang, "greeting"), mainMenuKB(s.Localizer, lang))

		case models.StateCategory:
			// Categories are picked by button; typed text just re-prompts.
			s.send(chatID, s.Localizer.Get(lang, "choose_category"), categoriesKB(s.Localizer, lang))

		case models.StateDescription:
			text := strings.TrimSpace(msg.Text)
			if text == "" {
				s.send(chatID, s.Localizer.Get(lang, "describe_problem"), nil)
				return nil
			}
			d.Description = text
			d.State = models.StateAddress
			s.send(chatID, s.Localizer.Get(lang, "ask_address"), skipKB(s.Localizer, lang))

		case models.StateAddress:
			text := strings.TrimSpace(msg.Text)
			if !s.isSkip(text) && text != "" {
				d.AddressText = &text
			}
			d.State = models.StateLocation
			s.send(chatID, s.Localizer.Get(lang, "ask_location"), locationKB(s.Localizer, lang))

		case models.StateLocation:
			s.handleLocationInput(d, msg, chatID)

		case models.StateMedia:
			if s.isSkip(strings.TrimSpace(msg.Text)) {
				s.enterConfirm(d, chatID)
				return nil
			}
			s.collectMedia(d, msg, chatID, userID)

		case models.StateConfirm:
			// Late attachments reopen media collection.
			if _, ok := extractMedia(msg); ok {
				d.State = models.StateMedia
				s.collectMedia(d, msg, chatID, userID)
				return nil
			}
			s.sendConfirm(d, chatID)
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to handle message from user %d: %v", userID, err)
	}
}

func (s *BotService) handleLocationInput(d *models.ConversationDraft, msg *tgbotapi.Message, chatID int64) {
	lang := s.Lang
	if msg.Location != nil {
		d.SetGeo(msg.Location.Latitude, msg.Location.Longitude)
		d.State = models.StateMedia
		s.send(chatID, s.Localizer.Get(lang, "location_saved_ask_media"), skipKB(s.Localizer, lang))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if s.isSkip(text) {
		d.State = models.StateMedia
		s.send(chatID, s.Localizer.Get(lang, "ask_media"), skipKB(s.Localizer, lang))
		return
	}

	if lat, lon, ok := intake.ParseCoordinates(text); ok {
		d.SetGeo(lat, lon)
		d.State = models.StateMedia
		s.send(chatID, s.Localizer.Get(lang, "location_saved_ask_media"), skipKB(s.Localizer, lang))
		return
	}
	s.send(chatID, s.Localizer.Get(lang, "location_unrecognized"), nil)
}

// handleIntakeCallback processes the dialogue's inline buttons.
func (s *BotService) handleIntakeCallback(cb *tgbotapi.CallbackQuery) {
	userID := cb.From.ID
	lang := s.Lang

	// A callback can arrive without its message when that message is too
	// old or inaccessible; there is no chat to continue the dialogue in.
	if cb.Message == nil {
		s.answer(cb.ID, s.Localizer.Get(lang, "cb_not_editable"), true)
		return
	}
	chatID := cb.Message.Chat.ID
	s.answer(cb.ID, "", false)

	err := s.Sessions.With(context.Background(), userID, func(d *models.ConversationDraft) error {
		switch {
		case cb.Data == cbConfirmCancel:
			if d.State == models.StateIdle {
				return nil
			}
			s.dropHint(d, userID)
			*d = models.ConversationDraft{State: models.StateIdle}
			if err := s.Gateway.ClearInlineKeyboard(chatID, cb.Message.MessageID); err != nil {
				log.Printf("WARN: failed to clear keyboard: %v", err)
			}
			s.send(chatID, s.Localizer.Get(lang, "cancelled"), mainMenuKB(s.Localizer, lang))

		case strings.HasPrefix(cb.Data, cbCategoryPrefix):
			if d.State != models.StateCategory {
				return nil
			}
			category := strings.TrimPrefix(cb.Data, cbCategoryPrefix)
			if !config.IsCategory(category) {
				return nil
			}
			d.Category = category
			d.State = models.StateDescription
			if err := s.Gateway.ClearInlineKeyboard(chatID, cb.Message.MessageID); err != nil {
				log.Printf("WARN: failed to clear keyboard: %v", err)
			}
			s.send(chatID, s.Localizer.Get(lang, "describe_problem"), nil)

		case cb.Data == cbSkip:
			switch d.State {
			case models.StateAddress:
				d.State = models.StateLocation
				s.send(chatID, s.Localizer.Get(lang, "ask_location"), locationKB(s.Localizer, lang))
			case models.StateLocation:
				d.State = models.StateMedia
				s.send(chatID, s.Localizer.Get(lang, "ask_media"), skipKB(s.Localizer, lang))
			case models.StateMedia:
				s.enterConfirm(d, chatID)
			}

		case cb.Data == cbReview:
			if d.State == models.StateMedia {
				s.enterConfirm(d, chatID)
			}

		case cb.Data == cbConfirmSend:
			if d.State == models.StateConfirm {
				s.finalizeDraft(d, cb, chatID, userID)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to handle callback from user %d: %v", userID, err)
	}
}

// collectMedia buffers one attachment. Album items arrive as separate
// updates sharing a media group id; every item is buffered, but the counter
// hint is refreshed only on the first item of each album so the user sees
// one hint per batch instead of ten.
func (s *BotService) collectMedia(d *models.ConversationDraft, msg *tgbotapi.Message, chatID, userID int64) {
	m, ok := extractMedia(msg)
	if !ok {
		s.send(chatID, s.Localizer.Get(s.Lang, "media_unrecognized"), nil)
		return
	}
	d.Media = append(d.Media, m)

	refresh := true
	if msg.MediaGroupID != "" {
		refresh = msg.MediaGroupID != d.LastAlbumID
		d.LastAlbumID = msg.MediaGroupID
	}
	if refresh {
		s.refreshHint(d, chatID, userID)
	}
}

// refreshHint replaces the transient "media added (N)" message: the old one
// is deleted first so at most one hint is ever visible.
func (s *BotService) refreshHint(d *models.ConversationDraft, chatID, userID int64) {
	lang := s.Lang
	if d.HintMsgID != 0 {
		if err := s.Gateway.DeleteMessage(chatID, d.HintMsgID); err != nil {
			log.Printf("WARN: failed to delete hint message %d: %v", d.HintMsgID, err)
		}
	}
	if err := s.Storage.DeleteHints(draftKey(userID)); err != nil {
		log.Printf("WARN: failed to clear hint rows for user %d: %v", userID, err)
	}

	ref := s.send(chatID, s.Localizer.Getf(lang, "media_added", len(d.Media)), hintKB(s.Localizer, lang))
	d.HintMsgID = ref.MessageID
	if ref.MessageID != 0 {
		if err := s.Storage.SaveHint(draftKey(userID), ref.MessageID); err != nil {
			log.Printf("WARN: failed to record hint for user %d: %v", userID, err)
		}
	}
}

// dropHint removes the transient hint message and its bookkeeping rows.
// Private chat ids equal user ids, which is where hints live.
func (s *BotService) dropHint(d *models.ConversationDraft, userID int64) {
	if d.HintMsgID != 0 {
		if err := s.Gateway.DeleteMessage(userID, d.HintMsgID); err != nil {
			log.Printf("WARN: failed to delete hint message %d: %v", d.HintMsgID, err)
		}
		d.HintMsgID = 0
	}
	if err := s.Storage.DeleteHints(draftKey(userID)); err != nil {
		log.Printf("WARN: failed to clear hint rows for user %d: %v", userID, err)
	}
}

// enterConfirm moves the dialogue to the review step.
func (s *BotService) enterConfirm(d *models.ConversationDraft, chatID int64) {
	d.State = models.StateConfirm
	s.sendConfirm(d, chatID)
}

func (s *BotService) sendConfirm(d *models.ConversationDraft, chatID int64) {
	lang := s.Lang
	text := renderDraftPreview(s.Localizer, lang, d) + "\n\n" + s.Localizer.Get(lang, "confirm_question")
	s.send(chatID, text, confirmKB(s.Localizer, lang))
}

// finalizeDraft acknowledges the submission immediately with a candidate id,
// resets the dialogue, and completes persistence and group posting in the
// background. A failure after the acknowledgement is logged; the user is
// never shown a save error.
func (s *BotService) finalizeDraft(d *models.ConversationDraft, cb *tgbotapi.CallbackQuery, chatID, userID int64) {
	lang := s.Lang

	id := d.DraftID
	if id == "" {
		id = s.Intake.IDs.Next()
	}
	s.dropHint(d, userID)
	if err := s.Gateway.ClearInlineKeyboard(chatID, cb.Message.MessageID); err != nil {
		log.Printf("WARN: failed to clear keyboard: %v", err)
	}
	s.send(chatID, s.Localizer.Getf(lang, "registered", id), mainMenuKB(s.Localizer, lang))

	snapshot := *d
	snapshot.DraftID = id
	snapshot.Media = append([]models.DraftMedia(nil), d.Media...)
	handle := cb.From.UserName

	*d = models.ConversationDraft{State: models.StateIdle}

	go func() {
		finalID, err := s.Intake.Finalize(&snapshot, userID, handle)
		if err != nil {
			log.Printf("ERROR: Failed to finalize complaint %s for user %d: %v", id, userID, err)
			return
		}
		if finalID != id {
			log.Printf("WARN: complaint id %s was taken, stored as %s", id, finalID)
		}
	}()
}

// renderDraftPreview is the user-facing summary shown at the review step.
func renderDraftPreview(loc *localization.Localizer, lang string, d *models.ConversationDraft) string {
	placeholder := loc.Get(lang, "placeholder")
	address := placeholder
	if d.AddressText != nil && *d.AddressText != "" {
		address = *d.AddressText
	}
	lines := []string{
		fmt.Sprintf("[%s: %s]", loc.Get(lang, "card_category"), d.Category),
		fmt.Sprintf("%s: %s", loc.Get(lang, "card_address"), address),
	}
	if d.HasGeo() {
		lines = append(lines, fmt.Sprintf("%s: %.5f, %.5f", loc.Get(lang, "card_geo"), *d.GeoLat, *d.GeoLon))
	}
	lines = append(lines,
		fmt.Sprintf("%s: %s", loc.Get(lang, "card_description"), d.Description),
		fmt.Sprintf("%s: %d", loc.Get(lang, "card_media"), len(d.Media)),
	)
	return strings.Join(lines, "\n")
}

// extractMedia pulls the attachment out of a message, if it carries one the
// bot accepts. For photos the largest size wins.
func extractMedia(msg *tgbotapi.Message) (models.DraftMedia, bool) {
	switch {
	case len(msg.Photo) > 0:
		return models.DraftMedia{
			FileID: msg.Photo[len(msg.Photo)-1].FileID,
			Kind:   models.MediaPhoto,
		}, true
	case msg.Video != nil:
		return models.DraftMedia{
			FileID: msg.Video.FileID,
			Kind:   models.MediaVideo,
		}, true
	case msg.Document != nil:
		return models.DraftMedia{
			FileID:   msg.Document.FileID,
			Kind:     models.MediaDocument,
			FileName: msg.Document.FileName,
			MimeType: msg.Document.MimeType,
		}, true
	}
	return models.DraftMedia{}, false
}

// isSkip matches the typed skip token and the skip button label.
func (s *BotService) isSkip(text string) bool {
	if text == "" {
		return false
	}
	return strings.EqualFold(text, s.Localizer.Get(s.Lang, "skip_token")) ||
		text == s.Localizer.Get(s.Lang, "btn_skip")
}
