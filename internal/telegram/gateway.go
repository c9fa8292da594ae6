// Package telegram integrates the bot with the Telegram Bot API: the update
// loop, the guided intake dialogue, the staff group card lifecycle, and
// direct-message notifications.
package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrNotEditable marks an edit that failed because the underlying message is
// too old, deleted, or otherwise frozen. Callers must treat it differently
// from transport errors: the card text cannot be reconciled, so the action's
// remaining side effects are skipped.
var ErrNotEditable = errors.New("telegram: message cannot be edited")

// MessageRef identifies a sent message.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Gateway is the narrow messaging surface the bot core depends on. The
// production implementation wraps tgbotapi; tests substitute a mock.
type Gateway interface {
	SendMessage(chatID int64, text string, markup interface{}) (MessageRef, error)
	EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error
	ClearInlineKeyboard(chatID int64, messageID int) error
	DeleteMessage(chatID int64, messageID int) error
	SendMediaGroup(chatID int64, media []tgbotapi.InputMedia) error
	AnswerCallback(callbackID, text string, alert bool) error
	ChatMemberStatus(chatID, userID int64) (string, error)
	SendDirect(userID int64, text string) error
}

// BotGateway implements Gateway over a live Bot API connection.
type BotGateway struct {
	API *tgbotapi.BotAPI
}

// SendMessage sends a text message with an optional keyboard.
func (g *BotGateway) SendMessage(chatID int64, text string, markup interface{}) (MessageRef, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := g.API.Send(msg)
	if err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// EditMessageText rewrites a message's text and keyboard. A message Telegram
// refuses to edit comes back wrapped in ErrNotEditable; an edit that changed
// nothing is not an error.
func (g *BotGateway) EditMessageText(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	var cfg tgbotapi.Chattable
	if markup != nil {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	_, err := g.API.Request(cfg)
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "message is not modified") {
		return nil
	}
	if strings.Contains(msg, "message can't be edited") ||
		strings.Contains(msg, "message to edit not found") {
		return fmt.Errorf("%w: %v", ErrNotEditable, err)
	}
	return err
}

// ClearInlineKeyboard strips the inline keyboard off a sent message.
func (g *BotGateway) ClearInlineKeyboard(chatID int64, messageID int) error {
	cfg := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	_, err := g.API.Request(cfg)
	return err
}

// DeleteMessage removes a message from a chat.
func (g *BotGateway) DeleteMessage(chatID int64, messageID int) error {
	_, err := g.API.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// SendMediaGroup posts an album of up to 10 attachments.
func (g *BotGateway) SendMediaGroup(chatID int64, media []tgbotapi.InputMedia) error {
	_, err := g.API.Request(tgbotapi.NewMediaGroup(chatID, media))
	return err
}

// AnswerCallback acknowledges a button press, optionally with a prominent
// alert popup.
func (g *BotGateway) AnswerCallback(callbackID, text string, alert bool) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	cb.ShowAlert = alert
	_, err := g.API.Request(cb)
	return err
}

// ChatMemberStatus queries the user's current role in a chat. Not cached:
// the admin-only completion check wants the role at action time.
func (g *BotGateway) ChatMemberStatus(chatID, userID int64) (string, error) {
	member, err := g.API.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
			UserID:     userID,
		},
	})
	if err != nil {
		return "", err
	}
	return member.Status, nil
}

// SendDirect delivers a private message to a user by id.
func (g *BotGateway) SendDirect(userID int64, text string) error {
	_, err := g.API.Send(tgbotapi.NewMessage(userID, text))
	return err
}

var _ Gateway = (*BotGateway)(nil)
