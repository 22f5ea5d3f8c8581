package bot

import (
	"fmt"
	"time"

	"kit-telegram/models"
	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// pendingBroadcast rides in the admin session between collect and confirm.
// The payload itself lives here because Session carries only scalars.
type pendingBroadcast struct {
	payload models.BroadcastPayload
}

// broadcastStart arms content collection.
func (b *Bot) broadcastStart(chatID int64, messageID int) {
	b.pending = nil
	b.sessions.Set(b.admin, services.Session{Kind: services.StateAwaitingBroadcast})
	b.editHTML(chatID, messageID,
		"📣 Отправьте сюда текст/фото/видео/док/аудио/voice/GIF для рассылки.\n"+
			"Покажу предпросмотр и попрошу подтвердить.", kbAdminBack())
}

// broadcastCollect stores the payload, previews it and asks for confirmation.
func (b *Bot) broadcastCollect(msg *tgbotapi.Message) {
	payload := packPayload(msg)
	b.pending = &pendingBroadcast{payload: payload}
	b.sessions.Set(b.admin, services.Session{Kind: services.StateConfirmBroadcast})

	if err := b.sendPayload(msg.Chat.ID, payload); err != nil {
		log.Warn().Err(err).Msg("broadcast preview failed")
	}
	b.sendHTML(msg.Chat.ID, "✅ Предпросмотр выше. Отправляем?", kbBroadcastConfirm())
}

func (b *Bot) broadcastCancel(cb *tgbotapi.CallbackQuery) {
	b.pending = nil
	b.sessions.Clear(b.admin)
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, "❌ Рассылка отменена.", kbAdminBack())
}

// broadcastSend fans the confirmed payload out sequentially with a small
// pause between sends to stay under the flood limits, then reports the tally.
func (b *Bot) broadcastSend(cb *tgbotapi.CallbackQuery) {
	if b.pending == nil || b.sessions.Get(b.admin).Kind != services.StateConfirmBroadcast {
		b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID,
			"⚠️ Нет контента. Начните заново: /broadcast", kbAdminBack())
		b.sessions.Clear(b.admin)
		return
	}
	payload := b.pending.payload
	b.pending = nil
	b.sessions.Clear(b.admin)

	targets := services.BroadcastTargets(b.store.Users(), b.cfg.Broadcast.VerifiedOnly)
	total := len(targets)
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, fmt.Sprintf("🚀 Рассылка запущена (%d получателей)…", total), nil)

	ok, fail := 0, 0
	for _, uid := range targets {
		if err := b.sendPayload(uid, payload); err != nil {
			log.Warn().Err(err).Int64("user_id", uid).Msg("broadcast send failed")
			fail++
		} else {
			ok++
		}
		time.Sleep(30 * time.Millisecond)
	}

	log.Info().Int("total", total).Int("ok", ok).Int("fail", fail).Msg("broadcast finished")
	b.sendHTML(cb.Message.Chat.ID,
		fmt.Sprintf("📣 Готово.\n\n✅ Успешно: %d\n❌ Ошибок: %d\n👥 Всего: %d", ok, fail, total),
		kbAdminBack())
}
