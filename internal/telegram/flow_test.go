package telegram

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"civicbot/backend/internal/feed"
	"civicbot/backend/internal/intake"
	"civicbot/backend/internal/localization"
	"civicbot/backend/internal/models"
	"civicbot/backend/internal/session"
	"civicbot/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGroupChat = int64(-500)
	testUser      = int64(100)
)

func newTestBot(t *testing.T) (*BotService, *fakeGateway, *storage.Service) {
	t.Helper()
	db, err := storage.Open("", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	store := storage.NewService(db)
	require.NoError(t, store.AutoMigrate())

	loc, err := localization.New()
	require.NoError(t, err)

	gw := &fakeGateway{memberStatus: "member"}
	group := NewGroupPoster(gw, store, loc, feed.NewHub(), testGroupChat)
	bot := NewBotService(nil, gw, store,
		session.NewManager(session.NewMemoryStore()),
		intake.NewService(store, group), group, loc)
	return bot, gw, store
}

func privateMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "resident", FirstName: "Анна"},
		Chat: tgbotapi.Chat{ID: userID, Type: "private"},
		Text: text,
	}
}

func commandMessage(userID int64, cmd string) *tgbotapi.Message {
	msg := privateMessage(userID, cmd)
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	return msg
}

func photoMessage(userID int64, fileID, albumID string) *tgbotapi.Message {
	msg := privateMessage(userID, "")
	msg.Photo = []tgbotapi.PhotoSize{
		{FileID: fileID + "-small"},
		{FileID: fileID},
	}
	msg.MediaGroupID = albumID
	return msg
}

func buttonPress(userID, chatID int64, messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: userID, UserName: "resident", FirstName: "Анна"},
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      tgbotapi.Chat{ID: chatID},
		},
		Data: data,
	}
}

func peekState(t *testing.T, bot *BotService, userID int64) string {
	t.Helper()
	state, err := bot.Sessions.Peek(context.Background(), userID)
	require.NoError(t, err)
	return state
}

// Full happy path: menu button, category, description, address, pasted
// coordinates, skip media, confirm. The user gets an immediate registration
// ack and the card lands in the staff group.
func TestIntakeFlowEndToEnd(t *testing.T) {
	bot, gw, store := newTestBot(t)

	bot.handlePrivateMessage(privateMessage(testUser, bot.Localizer.Get("ru", "btn_new_complaint")))
	assert.Equal(t, models.StateCategory, peekState(t, bot, testUser))

	bot.handleIntakeCallback(buttonPress(testUser, testUser, 1, "cat:Вода"))
	assert.Equal(t, models.StateDescription, peekState(t, bot, testUser))

	bot.handlePrivateMessage(privateMessage(testUser, "Нет воды третий день"))
	assert.Equal(t, models.StateAddress, peekState(t, bot, testUser))

	bot.handlePrivateMessage(privateMessage(testUser, "ул. Ленина 5"))
	assert.Equal(t, models.StateLocation, peekState(t, bot, testUser))

	bot.handlePrivateMessage(privateMessage(testUser, "41.3111, 69.2797"))
	assert.Equal(t, models.StateMedia, peekState(t, bot, testUser))

	bot.handleIntakeCallback(buttonPress(testUser, testUser, 2, "skip"))
	assert.Equal(t, models.StateConfirm, peekState(t, bot, testUser))

	bot.handleIntakeCallback(buttonPress(testUser, testUser, 3, "confirm:send"))

	// The ack arrives before persistence completes.
	assert.Equal(t, 1, gw.countSentContaining(testUser, "#1"))
	assert.Equal(t, models.StateIdle, peekState(t, bot, testUser))

	require.Eventually(t, func() bool {
		_, err := store.GetComplaint("1")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	c, err := store.GetComplaint("1")
	require.NoError(t, err)
	assert.Equal(t, "Вода", c.Category)
	assert.Equal(t, models.StatusNew, c.Status)
	assert.Equal(t, "resident", c.AuthorHandle)
	require.NotNil(t, c.AddressText)
	assert.Equal(t, "ул. Ленина 5", *c.AddressText)
	require.NotNil(t, c.GeoLat)
	assert.InDelta(t, 41.3111, *c.GeoLat, 1e-9)

	require.Eventually(t, func() bool {
		return gw.countSentContaining(testGroupChat, "#1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	card, err := store.GetPostedCard("1")
	require.NoError(t, err)
	assert.Equal(t, testGroupChat, card.ChatID)
}

func TestCancelDiscardsDraft(t *testing.T) {
	bot, gw, store := newTestBot(t)

	bot.handlePrivateMessage(privateMessage(testUser, bot.Localizer.Get("ru", "btn_new_complaint")))
	bot.handleIntakeCallback(buttonPress(testUser, testUser, 1, "cat:Шум"))
	bot.handlePrivateMessage(privateMessage(testUser, "Сосед сверлит ночью"))
	bot.handleIntakeCallback(buttonPress(testUser, testUser, 2, "confirm:cancel"))

	assert.Equal(t, models.StateIdle, peekState(t, bot, testUser))
	assert.Equal(t, 1, gw.countSentContaining(testUser, bot.Localizer.Get("ru", "cancelled")))

	n, err := store.CountComplaints()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartResetsDraft(t *testing.T) {
	bot, _, _ := newTestBot(t)

	bot.handlePrivateMessage(privateMessage(testUser, bot.Localizer.Get("ru", "btn_new_complaint")))
	assert.Equal(t, models.StateCategory, peekState(t, bot, testUser))

	bot.handlePrivateMessage(commandMessage(testUser, "/start"))
	assert.Equal(t, models.StateIdle, peekState(t, bot, testUser))
}

func TestUnrecognizedLocationReprompts(t *testing.T) {
	bot, gw, _ := newTestBot(t)

	bot.handlePrivateMessage(privateMessage(testUser, bot.Localizer.Get("ru", "btn_new_complaint")))
	bot.handleIntakeCallback(buttonPress(testUser, testUser, 1, "cat:Дороги"))
	bot.handlePrivateMessage(privateMessage(testUser, "Яма на дороге"))
	bot.handleIntakeCallback(buttonPress(testUser, testUser, 2, "skip"))
	assert.Equal(t, models.StateLocation, peekState(t, bot, testUser))

	bot.handlePrivateMessage(privateMessage(testUser, "возле гаражей"))
	assert.Equal(t, models.StateLocation, peekState(t, bot, testUser))
	assert.Equal(t, 1, gw.countSentContaining(testUser, "Не удалось распознать"))
}

// Ten album photos must all be buffered, but the counter hint is refreshed
// once per album, not once per photo.
func TestAlbumBuffersAllRefreshesHintOnce(t *testing.T) {
	bot, gw, _ := newTestBot(t)

	require.NoError(t, bot.Sessions.With(context.Background(), testUser, func(d *models.ConversationDraft) error {
		d.State = models.StateMedia
		d.Category = "Мусор"
		d.Description = "Свалка во дворе"
		return nil
	}))

	bot.handlePrivateMessage(photoMessage(testUser, "ph-1", "album-1"))
	bot.handlePrivateMessage(photoMessage(testUser, "ph-2", "album-1"))
	bot.handlePrivateMessage(photoMessage(testUser, "ph-3", "album-1"))

	assert.Equal(t, 1, gw.countSentContaining(testUser, "Медиа добавлено"))

	var mediaCount int
	require.NoError(t, bot.Sessions.With(context.Background(), testUser, func(d *models.ConversationDraft) error {
		mediaCount = len(d.Media)
		return nil
	}))
	assert.Equal(t, 3, mediaCount)
}

// A standalone photo after an album starts a fresh hint; the previous hint
// message is deleted first.
func TestSinglePhotoReplacesHint(t *testing.T) {
	bot, gw, _ := newTestBot(t)

	require.NoError(t, bot.Sessions.With(context.Background(), testUser, func(d *models.ConversationDraft) error {
		d.State = models.StateMedia
		d.Category = "Мусор"
		d.Description = "Свалка во дворе"
		return nil
	}))

	bot.handlePrivateMessage(photoMessage(testUser, "ph-1", "album-1"))
	bot.handlePrivateMessage(photoMessage(testUser, "ph-2", ""))

	assert.Equal(t, 2, gw.countSentContaining(testUser, "Медиа добавлено"))
	assert.Equal(t, 1, gw.deletedCount())
}

// A dialogue callback without its originating message may not advance the
// draft or touch the chat; it is answered with an alert and dropped.
func TestCallbackWithoutMessageIsRefused(t *testing.T) {
	bot, gw, _ := newTestBot(t)

	bot.handlePrivateMessage(privateMessage(testUser, bot.Localizer.Get("ru", "btn_new_complaint")))
	assert.Equal(t, models.StateCategory, peekState(t, bot, testUser))

	cb := buttonPress(testUser, testUser, 1, "cat:Вода")
	cb.Message = nil
	bot.handleIntakeCallback(cb)

	assert.Equal(t, models.StateCategory, peekState(t, bot, testUser), "state must not advance")

	answer, ok := gw.lastAnswer()
	require.True(t, ok)
	assert.True(t, answer.Alert)
}

func TestMineListsOwnComplaints(t *testing.T) {
	bot, gw, store := newTestBot(t)

	address := "ул. Мира 3"
	require.NoError(t, store.SaveComplaint(&models.Complaint{
		ID: "1", AuthorID: testUser, Category: "Свет",
		AddressText: &address, Description: "Не горит фонарь",
	}))
	require.NoError(t, store.SaveComplaint(&models.Complaint{
		ID: "2", AuthorID: 999, Category: "Шум", Description: "чужая",
	}))

	bot.handlePrivateMessage(commandMessage(testUser, "/mine"))

	assert.Equal(t, 1, gw.countSentContaining(testUser, "#1"))
	assert.Equal(t, 0, gw.countSentContaining(testUser, "#2"))
}
