package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kit-telegram/models"
	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const contactPerPage = 10

// showContactList renders the pick-a-user page of the admin contact flow.
func (b *Bot) showContactList(cb *tgbotapi.CallbackQuery, page int, verifiedOnly bool) {
	items := services.ListUsers(b.store.Users(), verifiedOnly)
	pageItems, page, pages, total := services.Paginate(items, page, contactPerPage)

	lines := []string{
		fmt.Sprintf("👤 <b>Выбор пользователя</b>  |  страница %d/%d\n", page, pages),
		fmt.Sprintf("Пользователи: %d\n", total),
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, it := range pageItems {
		mark := "❔"
		if it.Verified {
			mark = "✅"
		}
		uname := it.Username
		if uname == "" {
			uname = "unknown"
		}
		lines = append(lines, fmt.Sprintf("%s <code>%d</code> @%s", mark, it.ID, uname))
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			btn(fmt.Sprintf("%s @%s (%d)", mark, uname, it.ID), fmt.Sprintf("admin_contact_pick_%d", it.ID)),
		})
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 1 {
		nav = append(nav, btn("⬅️ Назад", fmt.Sprintf("admin_contact_page_%d_%s", page-1, boolFlag(verifiedOnly))))
	}
	if page < pages {
		nav = append(nav, btn("Вперёд ➡️", fmt.Sprintf("admin_contact_page_%d_%s", page+1, boolFlag(verifiedOnly))))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	filterLabel := "👥 Все пользователи"
	if verifiedOnly {
		filterLabel = "✅ Только покупатели"
	}
	rows = append(rows,
		[]tgbotapi.InlineKeyboardButton{btn(filterLabel, fmt.Sprintf("admin_contact_toggle_%s_p%d", boolFlag(!verifiedOnly), page))},
		[]tgbotapi.InlineKeyboardButton{btn("↩️ В админ-панель", "admin_home")},
	)

	b.sessions.Set(b.admin, services.Session{Kind: services.StateSelectingUser})
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, strings.Join(lines, "\n"), markup(rows...))
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

var (
	contactPageRe   = regexp.MustCompile(`^admin_contact_page_(\d+)_(\d)$`)
	contactToggleRe = regexp.MustCompile(`^admin_contact_toggle_(\d)_p(\d+)$`)
)

func (b *Bot) handleContactPage(cb *tgbotapi.CallbackQuery) {
	m := contactPageRe.FindStringSubmatch(cb.Data)
	if m == nil {
		return
	}
	page, _ := strconv.Atoi(m[1])
	b.showContactList(cb, page, m[2] == "1")
}

func (b *Bot) handleContactToggle(cb *tgbotapi.CallbackQuery) {
	m := contactToggleRe.FindStringSubmatch(cb.Data)
	if m == nil {
		return
	}
	page, _ := strconv.Atoi(m[2])
	b.showContactList(cb, page, m[1] == "1")
}

func (b *Bot) handleContactPick(cb *tgbotapi.CallbackQuery) {
	uid, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "admin_contact_pick_"), 10, 64)
	if err != nil {
		return
	}
	uname, status := "unknown", "❔ не подтверждён"
	if rec, ok := b.store.User(uid); ok {
		if rec.Username != "" {
			uname = rec.Username
		}
		if rec.Verified {
			status = "✅ покупатель"
		}
	}
	text := fmt.Sprintf(
		"👤 <b>Пользователь выбран</b>\n\nID: <code>%d</code>\nUsername: @%s\nСтатус: %s\n\nВыберите действие:",
		uid, uname, status)
	b.sessions.Set(b.admin, services.Session{Kind: services.StateSelectingUser, TargetID: uid})
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, text, kbContactUser(uid))
}

// handleComposeOnce arms the one-shot message mode for the picked user.
func (b *Bot) handleComposeOnce(cb *tgbotapi.CallbackQuery) {
	uid, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "admin_msg_once_"), 10, 64)
	if err != nil {
		return
	}
	b.sessions.Set(b.admin, services.Session{Kind: services.StateComposingOnce, TargetID: uid})
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("✍️ Напишите сообщение (можно с медиа), которое отправим пользователю <code>%d</code> один раз.", uid),
		kbAdminBack())
}

// sendOnceMessage delivers the composed one-shot message and drops the state.
func (b *Bot) sendOnceMessage(msg *tgbotapi.Message, sess services.Session) {
	defer b.sessions.Clear(b.admin)
	if sess.TargetID == 0 {
		b.sendHTML(msg.Chat.ID, "⚠️ Не выбран получатель. Откройте: Админ → 👤 Связаться", nil)
		return
	}
	caption := strings.TrimSpace(firstNonEmpty(msg.Caption, msg.Text))
	if caption == "" {
		caption = " "
	}
	if err := b.forwardMessage(sess.TargetID, msg, caption); err != nil {
		b.sendHTML(msg.Chat.ID, fmt.Sprintf("❌ Ошибка отправки пользователю %d: %v", sess.TargetID, err), nil)
		return
	}
	b.sendHTML(msg.Chat.ID, fmt.Sprintf("✅ Отправлено пользователю <code>%d</code>", sess.TargetID), nil)
}

// handleChatEnter opens a live relay channel with the user, closing any
// previous one first.
func (b *Bot) handleChatEnter(cb *tgbotapi.CallbackQuery) {
	uid, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "admin_chat_enter_"), 10, 64)
	if err != nil {
		return
	}
	if prev, evicted := b.sessions.EnterChat(b.admin, uid); evicted && prev != uid {
		b.sendHTML(prev, "✅ Диалог с администратором завершён.", b.menuFor(prev))
	}
	b.sessions.Set(b.admin, services.Session{Kind: services.StateChatting, TargetID: uid})

	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("💬 Диалог с пользователем <code>%d</code> открыт.\nПиши сюда — сообщения будут пересылаться.", uid),
		kbChatControls())
	b.sendHTML(uid, "👨‍💼 Поддержка подключилась к чату. Можете писать здесь.", nil)
}

func (b *Bot) handleChatEnd(cb *tgbotapi.CallbackQuery) {
	if uid, ok := b.sessions.EndChat(b.admin); ok {
		b.sendHTML(uid, "✅ Диалог с администратором завершён.", b.menuFor(uid))
	}
	b.sessions.Clear(b.admin)
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, "⛔ Диалог закрыт.", b.menuFor(b.admin))
}

func (b *Bot) endAdminChat(chatID int64) {
	if uid, ok := b.sessions.EndChat(b.admin); ok {
		b.sendHTML(uid, "✅ Диалог с администратором завершён.", b.menuFor(uid))
	}
	b.sessions.Clear(b.admin)
	b.sendHTML(chatID, "⛔ Диалог закрыт.", b.menuFor(b.admin))
}

// relayAdminToUser forwards the admin's chat messages to the linked user.
func (b *Bot) relayAdminToUser(msg *tgbotapi.Message) {
	uid, ok := b.sessions.LinkedUser(b.admin)
	if !ok {
		b.sessions.Clear(b.admin)
		b.sendHTML(msg.Chat.ID, "⚠️ Диалог не активен. Открой: Админ → 👤 Связаться → «Войти в диалог».", nil)
		return
	}
	caption := strings.TrimSpace(firstNonEmpty(msg.Caption, msg.Text))
	if err := b.forwardMessage(uid, msg, caption); err != nil {
		log.Warn().Err(err).Int64("user_id", uid).Msg("admin relay failed")
		b.sendHTML(msg.Chat.ID, fmt.Sprintf("❌ Ошибка отправки: %v", err), nil)
	}
}

// relayUserToAdmin forwards a linked user's message to the admin with an
// identifying header.
func (b *Bot) relayUserToAdmin(msg *tgbotapi.Message, adminID int64) {
	header := fmt.Sprintf("👤 <b>От пользователя %d</b>", msg.From.ID)
	p := packPayload(msg)
	if p.Kind == models.PayloadText {
		p.Text = header + "\n\n" + p.Text
	} else {
		p.Caption = header + "\n\n" + p.Caption
	}
	if err := b.sendPayload(adminID, p); err != nil {
		log.Warn().Err(err).Int64("user_id", msg.From.ID).Msg("user relay failed")
	}
}

// handleSupportIntake pushes one support message to the admin with quick
// reply buttons, then confirms to the user and clears the state.
func (b *Bot) handleSupportIntake(msg *tgbotapi.Message) {
	uid := msg.From.ID
	uname := username(msg.From)
	if err := b.store.SavePending(uid, uname); err != nil {
		log.Error().Err(err).Int64("user_id", uid).Msg("save pending user")
	}

	header := fmt.Sprintf("📨 <b>НОВОЕ СООБЩЕНИЕ В ПОДДЕРЖКУ</b>\n\n@%s\nID: %d\n%s",
		uname, uid, time.Now().Format("15:04 02.01.2006"))

	p := packPayload(msg)
	body := p.Caption
	if p.Kind == models.PayloadText {
		body = p.Text
		if body == "" {
			body = "(без текста)"
		}
		p.Text = header + "\n\n" + body
	} else {
		if p.Kind == models.PayloadVoice {
			body = "(голосовое)"
		}
		p.Caption = header + "\n\n" + body
	}

	if err := b.sendPayloadWithMarkup(b.admin, p, kbQuickReply(uid)); err != nil {
		log.Warn().Err(err).Int64("user_id", uid).Msg("support intake forward failed")
	}

	b.sendHTML(msg.Chat.ID, "✅ Сообщение отправлено в поддержку. Обычно отвечаем в течение 5–15 минут.", b.menuFor(uid))
	b.sessions.Clear(uid)
}

// handleQuickReplyStart arms the quick-reply mode from a ✉️ button.
func (b *Bot) handleQuickReplyStart(cb *tgbotapi.CallbackQuery) {
	uid, err := strconv.ParseInt(strings.TrimPrefix(cb.Data, "admin_quick_reply_"), 10, 64)
	if err != nil {
		return
	}
	b.sessions.Set(b.admin, services.Session{Kind: services.StateAwaitingQuickReply, TargetID: uid})
	b.sendHTML(cb.Message.Chat.ID, fmt.Sprintf("✍️ Введите текст/медиа ответа пользователю <code>%d</code>.", uid), nil)
}

// quickReplySend delivers the armed quick reply.
func (b *Bot) quickReplySend(msg *tgbotapi.Message, sess services.Session) {
	defer b.sessions.Clear(b.admin)
	if sess.TargetID == 0 {
		b.sendHTML(msg.Chat.ID, "⚠️ Не найден получатель. Запустите из уведомления ещё раз.", nil)
		return
	}
	b.deliverReply(msg, sess.TargetID, strings.TrimSpace(firstNonEmpty(msg.Caption, msg.Text)))
}

var userIDRe = regexp.MustCompile(`ID:\s*(\d+)`)

// handleReplyCommand implements /reply USER_ID Text and the reply-to-
// notification variant /reply Text.
func (b *Bot) handleReplyCommand(msg *tgbotapi.Message) {
	raw := strings.TrimSpace(firstNonEmpty(msg.Text, msg.Caption))
	raw = regexp.MustCompile(`(?i)^/reply(@\w+)?\s*`).ReplaceAllString(raw, "")

	var targetID int64
	text := raw
	if m := regexp.MustCompile(`(?s)^(\d+)\s+(.*)$`).FindStringSubmatch(raw); m != nil {
		targetID, _ = strconv.ParseInt(m[1], 10, 64)
		text = strings.TrimSpace(m[2])
	} else if id, ok := extractNotificationUserID(msg); ok {
		targetID = id
	}

	if targetID == 0 {
		b.sendHTML(msg.Chat.ID,
			"Использование:\n<code>/reply USER_ID Текст</code>\n"+
				"или ответом на уведомление: <code>/reply Текст</code>\n"+
				"Поддерживаются медиа в подписи.", nil)
		return
	}
	if text == "" && packPayload(msg).Kind == models.PayloadText {
		b.sendHTML(msg.Chat.ID, "❗ Укажите текст после /reply", nil)
		return
	}
	b.deliverReply(msg, targetID, text)
}

// replyByReply sends the admin's bare reply-to-notification message to the
// user the notification was about. Returns false when the replied message is
// not one of our notifications.
func (b *Bot) replyByReply(msg *tgbotapi.Message) bool {
	targetID, ok := extractNotificationUserID(msg)
	if !ok {
		return false
	}
	caption := strings.TrimSpace(firstNonEmpty(msg.Caption, msg.Text))
	if caption == "" {
		caption = " "
	}
	b.deliverReply(msg, targetID, caption)
	return true
}

func extractNotificationUserID(msg *tgbotapi.Message) (int64, bool) {
	if msg.ReplyToMessage == nil {
		return 0, false
	}
	src := msg.ReplyToMessage.Text + "\n" + msg.ReplyToMessage.Caption
	m := userIDRe.FindStringSubmatch(src)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// deliverReply pushes the admin's text or media to the user, prefixing plain
// text with the support-reply header, and confirms to the admin.
func (b *Bot) deliverReply(msg *tgbotapi.Message, targetID int64, text string) {
	p := packPayload(msg)
	var err error
	if p.Kind == models.PayloadText {
		err = b.sendPayload(targetID, models.BroadcastPayload{
			Kind: models.PayloadText,
			Text: "💬 <b>Ответ поддержки</b>\n\n" + text,
		})
	} else {
		p.Caption = text
		err = b.sendPayload(targetID, p)
	}
	if err != nil {
		b.sendHTML(msg.Chat.ID, fmt.Sprintf("❌ Ошибка отправки пользователю %d: %v", targetID, err), nil)
		return
	}
	b.sendHTML(msg.Chat.ID, fmt.Sprintf("✅ Ответ отправлен (ID: <code>%d</code>)", targetID), nil)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
