package bot

import (
	"strings"

	"kit-telegram/models"
	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	if b.store.IsVerified(msg.From.ID) {
		b.showVerifiedHome(msg.Chat.ID)
		return
	}
	b.showWelcome(msg.Chat.ID, msg.From.ID)
}

// showWelcome sends the sales pitch, attached to the presentation PDF when
// one is bound (asset cache, then env file_id, then URL), plain text otherwise.
func (b *Bot) showWelcome(chatID, userID int64) {
	caption := b.welcomeText()
	kb := b.menuFor(userID)

	for _, ref := range []string{
		b.store.AssetFileID(models.AssetPresentation),
		b.cfg.Assets.PresentationFileID,
		b.cfg.Assets.PresentationURL,
	} {
		if ref == "" {
			continue
		}
		doc := tgbotapi.NewDocument(chatID, fileRef(ref))
		doc.Caption = caption
		doc.ParseMode = tgbotapi.ModeHTML
		doc.ReplyMarkup = *kb
		if _, err := b.send(doc); err == nil {
			return
		}
	}
	b.sendHTML(chatID, caption, kb)
}

func (b *Bot) showVerifiedHome(chatID int64) {
	b.sendHTML(chatID, b.verifiedHomeText(), kbAfterPayment(chatID == b.admin))
}

// fileRef treats http(s) strings as URLs to be fetched by Telegram itself
// and everything else as a file_id.
func fileRef(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FileID(ref)
}

// handleFreeText covers plain text outside any flow: keyword triggers for
// the AI chat and support, then a status-dependent nudge.
func (b *Bot) handleFreeText(msg *tgbotapi.Message) {
	uid := msg.From.ID
	txt := strings.ToLower(strings.TrimSpace(msg.Text))

	if matchTrigger(txt, "ai", "ии", "помощник", "ассистент", "чат") {
		b.openAIFromTrigger(msg)
		return
	}
	if matchTrigger(txt, "поддержка", "support", "help", "менеджер") {
		b.sessions.Set(uid, services.Session{Kind: services.StateAwaitingSupportText})
		b.sendHTML(msg.Chat.ID, "💬 Напишите сообщение — передам в поддержку.", kbBackMain())
		return
	}

	if b.store.IsVerified(uid) {
		b.sendHTML(msg.Chat.ID, "💬 Нужна помощь? Напишите «поддержка» или нажмите кнопку ниже:", b.menuFor(uid))
	} else {
		b.sendHTML(msg.Chat.ID,
			"👋 Доступ к файлам появится после подтверждения оплаты.\n"+
				"А пока можно попробовать 🤖 демо-чат с ИИ (кнопка ниже).",
			b.menuFor(uid))
	}
}

func matchTrigger(txt string, triggers ...string) bool {
	for _, t := range triggers {
		if txt == t || strings.HasPrefix(txt, t+" ") {
			return true
		}
	}
	return false
}
