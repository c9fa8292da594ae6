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
	"civicbot/backend/internal/session"
	"civicbot/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotService wires the update loop to the intake dialogue and the staff
// group card lifecycle.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Gateway   Gateway
	Storage   storage.Storage
	Sessions  *session.Manager
	Intake    *intake.Service
	Group     *GroupPoster
	Localizer *localization.Localizer
	Lang      string
}

// NewBotService assembles the bot over its collaborators.
func NewBotService(api *tgbotapi.BotAPI, gw Gateway, store storage.Storage,
	sessions *session.Manager, in *intake.Service, group *GroupPoster,
	loc *localization.Localizer) *BotService {
	return &BotService{
		BotAPI:    api,
		Gateway:   gw,
		Storage:   store,
		Sessions:  sessions,
		Intake:    in,
		Group:     group,
		Localizer: loc,
		Lang:      localization.DefaultLang,
	}
}

// Run is the main loop for receiving Telegram updates. Each update is
// handled in its own goroutine; per-user ordering is restored by the
// session manager's lock.
func (s *BotService) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for update := range updates {
		go s.handleUpdate(update)
	}
}

func (s *BotService) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		s.handleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		msg := update.Message
		if s.Group != nil && s.Group.ChatID != 0 && msg.Chat.ID == s.Group.ChatID {
			s.handleGroupMessage(msg)
			return
		}
		if msg.Chat.IsPrivate() {
			s.handlePrivateMessage(msg)
		}
	}
}

func (s *BotService) handleCallbackQuery(cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	if strings.HasPrefix(data, cbTakePrefix) ||
		strings.HasPrefix(data, cbDeclinePrefix) ||
		strings.HasPrefix(data, cbDonePrefix) {
		s.Group.HandleAction(cb)
		return
	}
	s.handleIntakeCallback(cb)
}

func (s *BotService) handlePrivateMessage(msg *tgbotapi.Message) {
	userID := msg.From.ID
	lang := s.Lang

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			s.resetDraft(userID)
			s.send(msg.Chat.ID, s.Localizer.Get(lang, "greeting"), mainMenuKB(s.Localizer, lang))
			return
		case "stop":
			s.resetDraft(userID)
			s.send(msg.Chat.ID, s.Localizer.Get(lang, "bot_stopped"), tgbotapi.NewRemoveKeyboard(false))
			return
		case "mine":
			s.handleMine(msg.Chat.ID, userID)
			return
		}
	}

	switch msg.Text {
	case s.Localizer.Get(lang, "btn_new_complaint"):
		s.beginFlow(msg.Chat.ID, userID)
		return
	case s.Localizer.Get(lang, "btn_my_complaints"):
		s.handleMine(msg.Chat.ID, userID)
		return
	}

	s.handleFlowMessage(msg)
}

// resetDraft discards any in-progress dialogue, removing its transient hint
// message first.
func (s *BotService) resetDraft(userID int64) {
	err := s.Sessions.With(context.Background(), userID, func(d *models.ConversationDraft) error {
		s.dropHint(d, userID)
		*d = models.ConversationDraft{State: models.StateIdle}
		return nil
	})
	if err != nil {
		log.Printf("ERROR: Failed to reset draft for user %d: %v", userID, err)
	}
}

// handleMine lists the author's recent complaints.
func (s *BotService) handleMine(chatID, userID int64) {
	lang := s.Lang
	rows, err := s.Storage.ListUserComplaints(userID, config.MineListLimit)
	if err != nil {
		return
	}
	if len(rows) == 0 {
		s.send(chatID, s.Localizer.Get(lang, "mine_empty"), nil)
		return
	}

	placeholder := s.Localizer.Get(lang, "placeholder")
	var b strings.Builder
	b.WriteString(s.Localizer.Get(lang, "mine_header"))
	for _, c := range rows {
		address := placeholder
		if c.AddressText != nil && *c.AddressText != "" {
			address = *c.AddressText
		}
		b.WriteString("\n\n")
		b.WriteString(s.Localizer.Getf(lang, "mine_entry",
			c.ID, statusLabel(s.Localizer, lang, c.Status), c.Category,
			address, truncate(c.Description, config.DescriptionPreviewLen)))
	}
	s.send(chatID, b.String(), nil)
}

// send is the fire-and-forget message helper; delivery failures are logged,
// never propagated.
func (s *BotService) send(chatID int64, text string, markup interface{}) MessageRef {
	ref, err := s.Gateway.SendMessage(chatID, text, markup)
	if err != nil {
		log.Printf("ERROR: Failed to send message to chat %d: %v", chatID, err)
	}
	return ref
}

func (s *BotService) answer(callbackID, text string, alert bool) {
	if err := s.Gateway.AnswerCallback(callbackID, text, alert); err != nil {
		log.Printf("WARN: failed to answer callback: %v", err)
	}
}

// draftKey is the hint-table key for a user's unfinished dialogue.
func draftKey(userID int64) string {
	return fmt.Sprintf("draft:%d", userID)
}
