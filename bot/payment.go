package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kit-telegram/models"
	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// handlePaySBP opens a payment order: registers the pending user, generates
// an order id and sends the SBP QR with payment instructions. QR delivery
// degrades photo -> document -> text only.
func (b *Bot) handlePaySBP(cb *tgbotapi.CallbackQuery) {
	uid := cb.From.ID
	uname := username(cb.From)
	orderID := services.NewOrderID(time.Now())

	if err := b.store.SavePending(uid, uname); err != nil {
		log.Error().Err(err).Int64("user_id", uid).Msg("save pending user")
	}
	b.sessions.Set(uid, services.Session{Kind: services.StateAwaitingScreenshot, OrderID: orderID})

	text := b.sbpInstructions(orderID)
	kb := kbVerificationBack()

	qrFileID := b.store.AssetFileID(models.AssetSBPQR)
	if qrFileID == "" {
		qrFileID = b.cfg.SBP.QRFileID
	}
	qrURL := b.cfg.SBP.QRURL

	if qrFileID != "" || isImageURL(qrURL) {
		ref := qrFileID
		if ref == "" {
			ref = qrURL
		}
		photo := tgbotapi.NewPhoto(cb.Message.Chat.ID, fileRef(ref))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = *kb
		if _, err := b.send(photo); err == nil {
			return
		}
		log.Warn().Str("order_id", orderID).Msg("qr as photo failed, trying document")
	}

	if qrFileID != "" || qrURL != "" {
		ref := qrFileID
		if ref == "" {
			ref = qrURL
		}
		doc := tgbotapi.NewDocument(cb.Message.Chat.ID, fileRef(ref))
		doc.Caption = text
		doc.ParseMode = tgbotapi.ModeHTML
		doc.ReplyMarkup = *kb
		if _, err := b.send(doc); err == nil {
			return
		}
		log.Warn().Str("order_id", orderID).Msg("qr as document failed, text only")
	}

	b.sendHTML(cb.Message.Chat.ID,
		text+"\n\n⚠️ QR временно недоступен. Свяжитесь с поддержкой: "+b.cfg.Brand.SupportTG, kb)
}

func (b *Bot) sbpInstructions(orderID string) string {
	parts := []string{
		"💳 <b>Оплата по СБП</b>",
		fmt.Sprintf("Сумма: <b>%d ₽</b>", b.cfg.SBP.PriceRub),
	}
	if b.cfg.SBP.RecipientName != "" {
		parts = append(parts, fmt.Sprintf("Получатель: <b>%s</b>", b.cfg.SBP.RecipientName))
	}
	parts = append(parts,
		fmt.Sprintf("Номер заказа: <code>%s</code>", orderID),
		"",
		"1️⃣ Отсканируйте QR",
		fmt.Sprintf("2️⃣ В комментарии укажите: <code>%s %s</code>", b.cfg.SBP.CommentPrefix, orderID),
		"3️⃣ Оплатите",
		"4️⃣ Пришлите сюда <b>скрин чека</b>",
	)
	if b.cfg.SBP.QRURL != "" {
		parts = append(parts, "", "🔗 <b>Ссылка для оплаты:</b>", b.cfg.SBP.QRURL)
	}
	parts = append(parts,
		"",
		"<b>Важно!</b> В комментарии к переводу укажите:",
		fmt.Sprintf("<code>%s %s</code>", b.cfg.SBP.CommentPrefix, orderID),
	)
	return strings.Join(parts, "\n")
}

func isImageURL(url string) bool {
	if url == "" {
		return false
	}
	base := strings.ToLower(strings.SplitN(url, "?", 2)[0])
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

// handleRequestVerification puts the user into screenshot-waiting mode,
// keeping an order id from an open payment flow if there is one.
func (b *Bot) handleRequestVerification(cb *tgbotapi.CallbackQuery) {
	uid := cb.From.ID
	uname := username(cb.From)
	if err := b.store.SavePending(uid, uname); err != nil {
		log.Error().Err(err).Int64("user_id", uid).Msg("save pending user")
	}

	orderID := b.sessions.Get(uid).OrderID
	if orderID == "" {
		orderID = services.NewOrderID(time.Now())
	}
	b.sessions.Set(uid, services.Session{Kind: services.StateAwaitingScreenshot, OrderID: orderID})

	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, verificationText, kbVerificationBack())
}

// handleScreenshot forwards the payment proof to the admin with approve and
// reject buttons. A document is accepted as proof too; other content gets a
// reminder and the state is kept.
func (b *Bot) handleScreenshot(msg *tgbotapi.Message, sess services.Session) {
	uid := msg.From.ID
	uname := username(msg.From)
	orderID := sess.OrderID
	if orderID == "" {
		orderID = services.NewOrderID(time.Now())
	}

	if err := b.store.SavePending(uid, uname); err != nil {
		log.Error().Err(err).Int64("user_id", uid).Msg("save pending user")
	}

	caption := fmt.Sprintf(
		"📸 <b>ЗАПРОС ПОДТВЕРЖДЕНИЯ</b>\n\n@%s\nID: %d\nOrder: %s\n%s",
		uname, uid, orderID, time.Now().Format("15:04 02.01.2006"))

	var c tgbotapi.Chattable
	switch {
	case len(msg.Photo) > 0:
		photo := tgbotapi.NewPhoto(b.admin, tgbotapi.FileID(largestPhoto(msg)))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = *kbApproveReject(uid)
		c = photo
	case msg.Document != nil:
		doc := tgbotapi.NewDocument(b.admin, tgbotapi.FileID(msg.Document.FileID))
		doc.Caption = caption
		doc.ParseMode = tgbotapi.ModeHTML
		doc.ReplyMarkup = *kbApproveReject(uid)
		c = doc
	default:
		b.sendHTML(msg.Chat.ID, "📸 Пришлите, пожалуйста, скриншот чека (фото или документ).", kbVerificationBack())
		return
	}

	if _, err := b.send(c); err != nil {
		log.Warn().Err(err).Int64("user_id", uid).Msg("forward screenshot to admin failed")
		b.sendHTML(msg.Chat.ID, "❌ Не удалось отправить скрин на проверку. Попробуйте ещё раз или свяжитесь с поддержкой.", nil)
		return
	}

	b.sendHTML(msg.Chat.ID,
		"✅ Скрин загружен и отправлен на проверку.\nМы уведомим вас, как только доступ будет открыт.",
		kbBackMain())
	b.sessions.Clear(uid)
}

// handleApprove marks the user paid and delivers the kit. Re-approval of an
// already verified user just re-sends the files.
func (b *Bot) handleApprove(cb *tgbotapi.CallbackQuery) {
	if cb.From.ID != b.admin {
		b.answerCB(cb.ID, "❌ Нет доступа", true)
		return
	}
	b.answerCB(cb.ID, "", false)

	userID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "approve_"), 10, 64)
	if err != nil {
		b.sendHTML(b.admin, "⚠️ Некорректный формат callback-данных approve_*", nil)
		return
	}

	uname := "unknown"
	if rec, ok := b.store.User(userID); ok {
		uname = rec.Username
	}
	if err := b.store.MarkVerified(userID, uname); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("mark verified")
		b.sendHTML(b.admin, fmt.Sprintf("❌ Не удалось записать подтверждение для ID %d: %v", userID, err), kbAdminBack())
		return
	}

	if err := b.sendKit(userID, false); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("send kit after approve")
		b.sendHTML(b.admin, fmt.Sprintf(
			"⚠️ <b>Не удалось выслать файлы</b>\nПользователь @%s (ID: <code>%d</code>)\nОшибка: <code>%v</code>",
			uname, userID, err), kbAdminBack())
		b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID,
			"⚠️ Оплата подтверждена, но при отправке файлов произошла ошибка — проверьте логи.", kbAdminBack())
		return
	}

	b.showVerifiedHome(userID)
	b.sendHTML(b.admin, fmt.Sprintf(
		"✅ <b>Выдано</b>\nПользователь @%s (ID: <code>%d</code>) получил все материалы.",
		uname, userID), kbAdminBack())
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("✅ Подтверждено. Пользователь @%s получил файлы.", uname), kbAdminBack())
}

// handleReject notifies the user; their record stays pending so they can
// retry with a better screenshot.
func (b *Bot) handleReject(cb *tgbotapi.CallbackQuery) {
	if cb.From.ID != b.admin {
		b.answerCB(cb.ID, "❌ Нет доступа", true)
		return
	}
	b.answerCB(cb.ID, "", false)

	userID, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "reject_"), 10, 64)
	if err != nil {
		return
	}
	b.sendHTML(userID,
		"❌ <b>Оплата не подтверждена</b>\n"+
			"Проверьте, чтобы на скриншоте были видны дата, сумма и статус платежа. "+
			"Попробуйте отправить более чёткое подтверждение.", nil)
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, "❌ Запрос отклонён. Пользователь уведомлён.", kbAdminBack())
}
