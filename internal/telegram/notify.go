package telegram

import (
	"errors"
	"log"
)

// notifyAuthor delivers a status-change notification to the complaint's
// author. Failures are swallowed: the author may have blocked the bot or
// never opened a private chat, and neither may disturb the card action that
// triggered the notification.
func (p *GroupPoster) notifyAuthor(authorID int64, text string) {
	if authorID == 0 {
		return
	}
	if err := p.Gateway.SendDirect(authorID, text); err != nil {
		log.Printf("WARN: failed to notify user %d: %v", authorID, err)
	}
}

func isNotEditable(err error) bool {
	return errors.Is(err, ErrNotEditable)
}
