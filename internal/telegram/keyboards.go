package telegram

import (
	"civicbot/backend/internal/config"
	"civicbot/backend/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback data vocabulary of the intake flow and the group card.
const (
	cbCategoryPrefix = "cat:"
	cbSkip           = "skip"
	cbReview         = "review"
	cbConfirmSend    = "confirm:send"
	cbConfirmCancel  = "confirm:cancel"
	cbTakePrefix     = "take:"
	cbDeclinePrefix  = "decline:"
	cbDonePrefix     = "done:"
)

func mainMenuKB(loc *localization.Localizer, lang string) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(loc.Get(lang, "btn_new_complaint"))),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(loc.Get(lang, "btn_my_complaints"))),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

// categoriesKB lays the fixed categories out two per row, with a cancel row
// at the bottom.
func categoriesKB(loc *localization.Localizer, lang string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, cat := range config.Categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(cat, cbCategoryPrefix+cat))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(loc.Get(lang, "btn_cancel"), cbConfirmCancel),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func skipKB(loc *localization.Localizer, lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(loc.Get(lang, "btn_skip"), cbSkip),
		),
	)
}

// hintKB is attached to the transient media counter so the user can jump to
// review without typing.
func hintKB(loc *localization.Localizer, lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(loc.Get(lang, "btn_review"), cbReview),
		),
	)
}

func confirmKB(loc *localization.Localizer, lang string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(loc.Get(lang, "btn_confirm_send"), cbConfirmSend),
			tgbotapi.NewInlineKeyboardButtonData(loc.Get(lang, "btn_confirm_cancel"), cbConfirmCancel),
		),
	)
}

// locationKB offers the native location-request button next to a skip row.
func locationKB(loc *localization.Localizer, lang string) tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(loc.Get(lang, "btn_send_location"))),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(loc.Get(lang, "btn_skip"))),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// cardKB is the action row attached to every group card. It stays attached
// through every status rewrite, completed cards included.
func cardKB(loc *localization.Localizer, lang, complaintID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(loc.Get(lang, "btn_take"), cbTakePrefix+complaintID),
			tgbotapi.NewInlineKeyboardButtonData(loc.Get(lang, "btn_decline"), cbDeclinePrefix+complaintID),
			tgbotapi.NewInlineKeyboardButtonData(loc.Get(lang, "btn_done"), cbDonePrefix+complaintID),
		),
	)
}
