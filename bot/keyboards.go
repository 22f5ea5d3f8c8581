package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func btn(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func markup(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func (b *Bot) kbStart(isAdmin bool) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{btn(fmt.Sprintf("💳 Оплата по СБП (QR) — %d ₽", b.cfg.SBP.PriceRub), "pay_sbp")},
		{btn("✅ Я оплатил(а)", "request_verification")},
		{btn("❓ FAQ", "open_faq")},
	}
	if isAdmin {
		rows = append([][]tgbotapi.InlineKeyboardButton{{btn("👑 Админ-панель", "admin_home")}}, rows...)
	}
	return markup(rows...)
}

func kbAfterPayment(isAdmin bool) *tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{btn("🤖 ИИ-помощник", "ai_choice")},
		{btn("💬 Написать в поддержку", "support_request")},
		{btn("🔄 Получить файлы снова", "get_files_again")},
		{btn("❓ FAQ", "open_faq")},
	}
	if isAdmin {
		rows = append([][]tgbotapi.InlineKeyboardButton{{btn("👑 Админ-панель", "admin_home")}}, rows...)
	}
	return markup(rows...)
}

// menuFor picks the home keyboard for the user's verification status.
func (b *Bot) menuFor(userID int64) *tgbotapi.InlineKeyboardMarkup {
	isAdmin := userID == b.admin
	if b.store.IsVerified(userID) {
		return kbAfterPayment(isAdmin)
	}
	return b.kbStart(isAdmin)
}

func kbAIChoice() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		[]tgbotapi.InlineKeyboardButton{btn("🤖 GPT-чат (универсальный)", "ai_open_demo")},
		[]tgbotapi.InlineKeyboardButton{btn("💼 Консультант по набору", "ai_open")},
		[]tgbotapi.InlineKeyboardButton{btn("↩️ Назад", "back_to_main")},
	)
}

func kbBackMain() *tgbotapi.InlineKeyboardMarkup {
	return markup([]tgbotapi.InlineKeyboardButton{btn("↩️ Назад", "back_to_main")})
}

func kbSupport() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		[]tgbotapi.InlineKeyboardButton{btn("💬 Написать сообщение", "support_message")},
		[]tgbotapi.InlineKeyboardButton{btn("📞 Связаться с менеджером", "support_manager_info")},
		[]tgbotapi.InlineKeyboardButton{btn("↩️ Назад", "back_to_main")},
	)
}

func kbAdminPanel() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		[]tgbotapi.InlineKeyboardButton{btn("📊 Статистика", "admin_stats"), btn("👥 Пользователи", "list_users")},
		[]tgbotapi.InlineKeyboardButton{btn("📥 Покупатели", "admin_buyers"), btn("📤 Экспорт CSV", "admin_export_buyers")},
		[]tgbotapi.InlineKeyboardButton{btn("👤 Связаться", "admin_contact_open")},
		[]tgbotapi.InlineKeyboardButton{btn("✉️ Ответ пользователю", "admin_reply_prompt"), btn("📣 Рассылка", "open_broadcast")},
		[]tgbotapi.InlineKeyboardButton{btn("🤖 ИИ (админ)", "ai_admin_open"), btn("💾 Backup", "create_backup"), btn("♻️ Restore", "admin_restore")},
		[]tgbotapi.InlineKeyboardButton{btn("🗑 Очистить базу", "clear_all")},
		[]tgbotapi.InlineKeyboardButton{btn("↩️ Закрыть", "back_to_main")},
	)
}

func kbAIChat(isAdmin bool) *tgbotapi.InlineKeyboardMarkup {
	closeData := "ai_close"
	if isAdmin {
		closeData = "ai_admin_close"
	}
	return markup([]tgbotapi.InlineKeyboardButton{
		btn("⏹️ Завершить чат", closeData),
		btn("↩️ В меню", "back_to_main"),
	})
}

func kbAdminBack() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		[]tgbotapi.InlineKeyboardButton{btn("⬅️ В админ-панель", "admin_home")},
		[]tgbotapi.InlineKeyboardButton{btn("↩️ В главное меню", "back_to_main")},
	)
}

func kbQuickReply(userID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		[]tgbotapi.InlineKeyboardButton{btn("✉️ Ответить пользователю", fmt.Sprintf("admin_quick_reply_%d", userID))},
		[]tgbotapi.InlineKeyboardButton{btn("💬 Войти в диалог", fmt.Sprintf("admin_chat_enter_%d", userID))},
	)
}

func kbBroadcastConfirm() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		[]tgbotapi.InlineKeyboardButton{btn("🚀 Разослать", "broadcast_send")},
		[]tgbotapi.InlineKeyboardButton{btn("❌ Отмена", "broadcast_cancel")},
		[]tgbotapi.InlineKeyboardButton{btn("⬅️ В админ-панель", "admin_home")},
	)
}

func kbVerificationBack() *tgbotapi.InlineKeyboardMarkup {
	return markup([]tgbotapi.InlineKeyboardButton{btn("↩️ Назад", "back_to_main")})
}

func kbApproveReject(userID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup([]tgbotapi.InlineKeyboardButton{
		btn("✅ Подтвердить", fmt.Sprintf("approve_%d", userID)),
		btn("❌ Отклонить", fmt.Sprintf("reject_%d", userID)),
	})
}

func kbContactUser(userID int64) *tgbotapi.InlineKeyboardMarkup {
	return markup(
		[]tgbotapi.InlineKeyboardButton{btn("✉️ Разовое сообщение", fmt.Sprintf("admin_msg_once_%d", userID))},
		[]tgbotapi.InlineKeyboardButton{btn("💬 Войти в диалог", fmt.Sprintf("admin_chat_enter_%d", userID))},
		[]tgbotapi.InlineKeyboardButton{btn("↩️ К списку", "admin_contact_open")},
	)
}

func kbChatControls() *tgbotapi.InlineKeyboardMarkup {
	return markup(
		[]tgbotapi.InlineKeyboardButton{btn("⛔ Завершить диалог", "admin_chat_end")},
		[]tgbotapi.InlineKeyboardButton{btn("↩️ В админ-панель", "admin_home")},
	)
}
