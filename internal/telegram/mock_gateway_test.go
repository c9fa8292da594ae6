package telegram

import (
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sentMessage struct {
	ChatID    int64
	MessageID int
	Text      string
	Markup    interface{}
}

type answeredCallback struct {
	ID    string
	Text  string
	Alert bool
}

// fakeGateway records every outgoing call so tests can assert on the
// conversation without a live Bot API.
type fakeGateway struct {
	mu            sync.Mutex
	nextMessageID int

	sent    []sentMessage
	edits   []sentMessage
	deleted []MessageRef
	cleared []MessageRef
	albums  [][]tgbotapi.InputMedia
	direct  []sentMessage
	answers []answeredCallback

	memberStatus string
	editErr      error
	sendErr      error
	directErr    error
}

func (g *fakeGateway) SendMessage(chatID int64, text string, markup interface{}) (MessageRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return MessageRef{}, g.sendErr
	}
	g.nextMessageID++
	g.sent = append(g.sent, sentMessage{ChatID: chatID, MessageID: g.nextMessageID, Text: text, Markup: markup})
	return MessageRef{ChatID: chatID, MessageID: g.nextMessageID}, nil
}

func (g *fakeGateway) EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.editErr != nil {
		return g.editErr
	}
	g.edits = append(g.edits, sentMessage{ChatID: chatID, MessageID: messageID, Text: text, Markup: markup})
	return nil
}

func (g *fakeGateway) ClearInlineKeyboard(chatID int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cleared = append(g.cleared, MessageRef{ChatID: chatID, MessageID: messageID})
	return nil
}

func (g *fakeGateway) DeleteMessage(chatID int64, messageID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, MessageRef{ChatID: chatID, MessageID: messageID})
	return nil
}

func (g *fakeGateway) SendMediaGroup(chatID int64, media []tgbotapi.InputMedia) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.albums = append(g.albums, media)
	return nil
}

func (g *fakeGateway) AnswerCallback(callbackID, text string, alert bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.answers = append(g.answers, answeredCallback{ID: callbackID, Text: text, Alert: alert})
	return nil
}

func (g *fakeGateway) ChatMemberStatus(chatID, userID int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.memberStatus, nil
}

func (g *fakeGateway) SendDirect(userID int64, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.directErr != nil {
		return g.directErr
	}
	g.direct = append(g.direct, sentMessage{ChatID: userID, Text: text})
	return nil
}

var _ Gateway = (*fakeGateway)(nil)

// countSentContaining counts messages sent to chatID whose text contains
// substr.
func (g *fakeGateway) countSentContaining(chatID int64, substr string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, m := range g.sent {
		if m.ChatID == chatID && strings.Contains(m.Text, substr) {
			n++
		}
	}
	return n
}

func (g *fakeGateway) directContaining(userID int64, substr string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, m := range g.direct {
		if m.ChatID == userID && strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}

func (g *fakeGateway) lastEdit() (sentMessage, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.edits) == 0 {
		return sentMessage{}, false
	}
	return g.edits[len(g.edits)-1], true
}

func (g *fakeGateway) lastAnswer() (answeredCallback, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.answers) == 0 {
		return answeredCallback{}, false
	}
	return g.answers[len(g.answers)-1], true
}

func (g *fakeGateway) deletedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.deleted)
}

func (g *fakeGateway) albumCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.albums)
}
