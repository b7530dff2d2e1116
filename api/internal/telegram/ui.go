package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"assessment-pipeline/api/internal/types"
	"assessment-pipeline/api/internal/util"
)

const (
	cbTags  = "tags:"
	cbAudit = "audit:"
)

func newTextMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, util.Truncate(text, maxMessage))
}

// makeRunKeyboard offers the tags of an approved run and the audit trail of any run.
func makeRunKeyboard(a types.RunArtifact) tgbotapi.InlineKeyboardMarkup {
	audit := tgbotapi.NewInlineKeyboardButtonData("🔍 Audit", cbAudit+a.RunID)
	if a.Approved() {
		tags := tgbotapi.NewInlineKeyboardButtonData("🏷 Tags", cbTags+a.RunID)
		return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(tags, audit))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(audit))
}
