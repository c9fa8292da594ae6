package telegram

import (
	"log"
	"strings"

	"civicbot/backend/internal/config"
	"civicbot/backend/internal/feed"
	"civicbot/backend/internal/localization"
	"civicbot/backend/internal/models"
	"civicbot/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Chat member roles allowed to complete complaints.
const (
	memberCreator = "creator"
	memberAdmin   = "administrator"
)

// GroupPoster renders complaints into the staff group and drives the card
// lifecycle from its buttons.
type GroupPoster struct {
	Gateway   Gateway
	Storage   storage.Storage
	Localizer *localization.Localizer
	Feed      *feed.Hub
	ChatID    int64
	Lang      string
}

// NewGroupPoster builds the poster. A zero chat id disables posting.
func NewGroupPoster(gw Gateway, store storage.Storage, loc *localization.Localizer,
	hub *feed.Hub, chatID int64) *GroupPoster {
	return &GroupPoster{
		Gateway:   gw,
		Storage:   store,
		Localizer: loc,
		Feed:      hub,
		ChatID:    chatID,
		Lang:      localization.DefaultLang,
	}
}

// Post publishes a freshly saved complaint: the media album first, then the
// card with its action buttons. Album failures are logged and the card is
// posted anyway; a card failure leaves the complaint reachable through the
// group listings.
func (p *GroupPoster) Post(c *models.Complaint, media []models.MediaAttachment) {
	if p.ChatID == 0 {
		return
	}
	lang := p.Lang

	if len(media) > 0 {
		if err := p.Gateway.SendMediaGroup(p.ChatID, buildAlbum(media)); err != nil {
			log.Printf("WARN: failed to post media album for %s: %v", c.ID, err)
		}
	}

	statusLine := renderStatusLine(p.Localizer, lang, p.Localizer.Get(lang, "status_free"), "")
	kb := cardKB(p.Localizer, lang, c.ID)
	ref, err := p.Gateway.SendMessage(p.ChatID, renderCard(p.Localizer, lang, c, statusLine), kb)
	if err != nil {
		log.Printf("ERROR: Failed to post card for complaint %s: %v", c.ID, err)
		return
	}

	if err := p.Storage.SavePostedCard(&models.PostedCard{
		ComplaintID: c.ID,
		ChatID:      ref.ChatID,
		MessageID:   ref.MessageID,
	}); err != nil {
		log.Printf("ERROR: Failed to record posted card for %s: %v", c.ID, err)
	}

	if p.Feed != nil {
		p.Feed.Publish(feed.Event{
			Type:        feed.EventCreated,
			ComplaintID: c.ID,
			Status:      c.Status,
			Category:    c.Category,
		})
	}
}

// buildAlbum converts stored attachments into one Telegram media group,
// truncated to the album cap. Elements go in as pointers: the InputMedia
// contract is implemented on the pointer receivers of the constructor
// values.
func buildAlbum(media []models.MediaAttachment) []tgbotapi.InputMedia {
	var album []tgbotapi.InputMedia
	for _, m := range media {
		if len(album) == config.MediaAlbumCap {
			break
		}
		switch m.Kind {
		case models.MediaVideo:
			v := tgbotapi.NewInputMediaVideo(tgbotapi.FileID(m.FileID))
			album = append(album, &v)
		case models.MediaDocument:
			d := tgbotapi.NewInputMediaDocument(tgbotapi.FileID(m.FileID))
			album = append(album, &d)
		default:
			p := tgbotapi.NewInputMediaPhoto(tgbotapi.FileID(m.FileID))
			album = append(album, &p)
		}
	}
	return album
}

// HandleAction processes a card button press. The card edit runs before any
// persistence: if the card text cannot be updated, the action is refused and
// nothing changes, so the card never lies about the stored state.
func (p *GroupPoster) HandleAction(cb *tgbotapi.CallbackQuery) {
	lang := p.Lang

	// Telegram omits the message when the card is too old or inaccessible.
	// Without it there is nothing to edit, so the action is refused outright.
	if cb.Message == nil {
		p.answer(cb.ID, p.Localizer.Get(lang, "cb_not_editable"), true)
		return
	}

	action, id := splitAction(cb.Data)
	c, err := p.Storage.GetComplaint(id)
	if err != nil {
		if err != storage.ErrNotFound {
			log.Printf("ERROR: Failed to load complaint %s: %v", id, err)
		}
		p.answer(cb.ID, p.Localizer.Get(lang, "cb_not_found"), true)
		return
	}

	actor := cb.From.ID
	mention := safeMention(cb.From.UserName, cb.From.FirstName, p.Localizer.Get(lang, "default_user"))

	switch action {
	case cbTakePrefix:
		statusLine := renderStatusLine(p.Localizer, lang, p.Localizer.Get(lang, "status_in_progress"), mention)
		if !p.editCard(cb, c, statusLine) {
			return
		}
		if err := p.Storage.Assign(id, &actor); err != nil {
			log.Printf("ERROR: Failed to assign complaint %s to %d: %v", id, actor, err)
			return
		}
		p.answer(cb.ID, p.Localizer.Get(lang, "cb_taken"), false)
		go p.notifyAuthor(c.AuthorID, p.Localizer.Getf(lang, "notify_taken", id, mention))
		p.publish(feed.EventTaken, c, models.StatusInProgress, &actor)

	case cbDeclinePrefix:
		statusLine := renderStatusLine(p.Localizer, lang, p.Localizer.Get(lang, "status_free"), "")
		if !p.editCard(cb, c, statusLine) {
			return
		}
		if err := p.Storage.Assign(id, nil); err != nil {
			log.Printf("ERROR: Failed to release complaint %s: %v", id, err)
			return
		}
		p.answer(cb.ID, p.Localizer.Get(lang, "cb_declined"), false)
		go p.notifyAuthor(c.AuthorID, p.Localizer.Getf(lang, "notify_declined", id))
		p.publish(feed.EventDeclined, c, models.StatusNew, nil)

	case cbDonePrefix:
		if !p.isAdmin(actor) {
			p.answer(cb.ID, p.Localizer.Get(lang, "cb_admins_only"), true)
			return
		}
		statusLine := renderStatusLine(p.Localizer, lang, p.Localizer.Get(lang, "status_done"), mention)
		if !p.editCard(cb, c, statusLine) {
			return
		}
		if err := p.Storage.SetStatus(id, models.StatusDone); err != nil {
			log.Printf("ERROR: Failed to complete complaint %s: %v", id, err)
			return
		}
		p.answer(cb.ID, p.Localizer.Get(lang, "cb_done"), false)
		go p.notifyAuthor(c.AuthorID, p.Localizer.Getf(lang, "notify_done", id, mention))
		p.publish(feed.EventDone, c, models.StatusDone, c.AssigneeID)
	}
}

// editCard rewrites the card with a new status line, keeping the buttons
// attached. Returns false when the action must be aborted.
func (p *GroupPoster) editCard(cb *tgbotapi.CallbackQuery, c *models.Complaint, statusLine string) bool {
	lang := p.Lang
	kb := cardKB(p.Localizer, lang, c.ID)
	err := p.Gateway.EditMessageText(cb.Message.Chat.ID, cb.Message.MessageID,
		renderCard(p.Localizer, lang, c, statusLine), &kb)
	if err == nil {
		return true
	}
	if isNotEditable(err) {
		p.answer(cb.ID, p.Localizer.Get(lang, "cb_not_editable"), true)
	} else {
		log.Printf("ERROR: Failed to edit card for complaint %s: %v", c.ID, err)
	}
	return false
}

// isAdmin checks the presser's current role in the group. A lookup failure
// denies the action.
func (p *GroupPoster) isAdmin(userID int64) bool {
	status, err := p.Gateway.ChatMemberStatus(p.ChatID, userID)
	if err != nil {
		log.Printf("WARN: failed to check member status for %d: %v", userID, err)
		return false
	}
	return status == memberCreator || status == memberAdmin
}

func (p *GroupPoster) publish(eventType string, c *models.Complaint, status string, assignee *int64) {
	if p.Feed == nil {
		return
	}
	p.Feed.Publish(feed.Event{
		Type:        eventType,
		ComplaintID: c.ID,
		Status:      status,
		Category:    c.Category,
		AssigneeID:  assignee,
	})
}

func (p *GroupPoster) answer(callbackID, text string, alert bool) {
	if err := p.Gateway.AnswerCallback(callbackID, text, alert); err != nil {
		log.Printf("WARN: failed to answer callback: %v", err)
	}
}

// splitAction separates a card callback into its verb prefix and complaint
// id.
func splitAction(data string) (prefix, id string) {
	for _, p := range []string{cbTakePrefix, cbDeclinePrefix, cbDonePrefix} {
		if strings.HasPrefix(data, p) {
			return p, strings.TrimPrefix(data, p)
		}
	}
	return "", data
}

// handleGroupMessage serves the staff group listing commands.
func (s *BotService) handleGroupMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}
	lang := s.Lang
	chatID := msg.Chat.ID

	var (
		header string
		rows   []models.Complaint
		err    error
	)
	switch msg.Command() {
	case "free":
		header = "list_free_header"
		rows, err = s.Storage.ListFree(config.GroupListLimit)
	case "active":
		header = "list_active_header"
		rows, err = s.Storage.ListInProgress(config.GroupListLimit)
	case "my":
		header = "list_my_header"
		rows, err = s.Storage.ListAssigneeJobs(msg.From.ID, config.GroupListLimit, true)
	case "done":
		header = "list_done_header"
		rows, err = s.Storage.ListDone(config.GroupListLimit)
	default:
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to list complaints for /%s: %v", msg.Command(), err)
		return
	}

	var b strings.Builder
	b.WriteString(s.Localizer.Get(lang, header))
	if len(rows) == 0 {
		b.WriteString("\n")
		b.WriteString(s.Localizer.Get(lang, "list_empty"))
	}
	for _, c := range rows {
		b.WriteString("\n")
		b.WriteString(s.Localizer.Getf(lang, "list_entry",
			c.ID, c.Category, truncate(c.Description, config.DescriptionPreviewLen)))
	}
	s.send(chatID, b.String(), nil)
}
