package bot

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kit-telegram/models"
	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

func (b *Bot) adminHomeText() string {
	users := b.store.Users()
	verified := 0
	for _, rec := range users {
		if rec != nil && rec.Verified {
			verified++
		}
	}
	total := len(users)
	denom := total
	if denom == 0 {
		denom = 1
	}
	return fmt.Sprintf(
		"👑 <b>Панель администратора</b>\n\n💰 Подтвержденных: %d\n👥 Всего записей: %d\n🎯 Конверсия: %.1f%%\n",
		verified, total, float64(verified)/float64(denom)*100)
}

func (b *Bot) showAdminHome(chatID int64, messageID int) {
	b.editHTML(chatID, messageID, b.adminHomeText(), kbAdminPanel())
}

func (b *Bot) showStats(cb *tgbotapi.CallbackQuery) {
	users := b.store.Users()
	verified := 0
	for _, rec := range users {
		if rec != nil && rec.Verified {
			verified++
		}
	}
	total := len(users)
	denom := total
	if denom == 0 {
		denom = 1
	}
	text := fmt.Sprintf(
		"📊 <b>Статистика</b>\n\n💰 Подтверждено: %d\n👥 Всего: %d\n🎯 Конверсия: %.1f%%",
		verified, total, float64(verified)/float64(denom)*100)
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, text, kbAdminBack())
}

func (b *Bot) showAllUsers(cb *tgbotapi.CallbackQuery) {
	items := services.ListUsers(b.store.Users(), false)
	if len(items) == 0 {
		b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, "📭 База пустая", kbAdminBack())
		return
	}
	lines := []string{"👥 <b>Пользователи</b>\n"}
	for i, it := range items {
		if i >= 80 {
			break
		}
		mark := "❌"
		if it.Verified {
			mark = "✅"
		}
		line := fmt.Sprintf("%s @%s | ID: %d", mark, orUnknown(it.Username), it.ID)
		if it.PurchaseDate != "" {
			line += " | " + prefix(it.PurchaseDate, 16)
		}
		lines = append(lines, line)
	}
	b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, clip(strings.Join(lines, "\n"), 4000), kbAdminBack())
}

func (b *Bot) showBuyers(chatID int64, messageID int) {
	items := services.ListUsers(b.store.Users(), true)
	if len(items) == 0 {
		b.editHTML(chatID, messageID, "📭 Пока нет подтверждённых покупателей.", kbAdminBack())
		return
	}
	lines := []string{"👥 <b>Покупатели</b> (первые 70):\n"}
	for i, it := range items {
		if i >= 70 {
			break
		}
		line := fmt.Sprintf("✅ @%s | ID: %d", orUnknown(it.Username), it.ID)
		if it.PurchaseDate != "" {
			line += " | " + prefix(it.PurchaseDate, 16)
		}
		lines = append(lines, line)
	}
	b.editHTML(chatID, messageID, clip(strings.Join(lines, "\n"), 3800), kbAdminBack())
}

func (b *Bot) exportBuyers(chatID int64, messageID int) {
	users := b.store.Users()
	if len(services.ListUsers(users, true)) == 0 {
		b.editHTML(chatID, messageID, "📭 Нет данных для экспорта.", kbAdminBack())
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("buyers_%s.csv", time.Now().Format("20060102_1504")),
		Bytes: services.BuyersCSV(users),
	})
	doc.Caption = "📦 Экспорт покупателей (CSV)"
	if _, err := b.send(doc); err != nil {
		log.Error().Err(err).Msg("buyers export failed")
		b.sendHTML(chatID, "❌ Не удалось отправить экспорт.", kbAdminBack())
	}
}

// clearDatabase snapshots the ledger, then wipes it.
func (b *Bot) clearDatabase(chatID int64, messageID int) {
	backupPath, err := b.store.SnapshotUsers()
	if err != nil {
		log.Warn().Err(err).Msg("pre-clear snapshot failed")
	}
	if err := b.store.Clear(); err != nil {
		log.Error().Err(err).Msg("clear database")
		b.editHTML(chatID, messageID, fmt.Sprintf("❌ Ошибка очистки: %v", err), kbAdminBack())
		return
	}
	text := "🗑️ <b>База очищена.</b>"
	if backupPath != "" {
		text += fmt.Sprintf("\n💾 Backup: <code>%s</code>", filepath.Base(backupPath))
	}
	b.editHTML(chatID, messageID, text, kbAdminBack())
}

func (b *Bot) handleRemoveUser(msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) != 1 {
		b.sendHTML(msg.Chat.ID, "Использование: <code>/remove_user USER_ID</code>", nil)
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendHTML(msg.Chat.ID, "Использование: <code>/remove_user USER_ID</code>", nil)
		return
	}
	removed, err := b.store.RemoveUser(userID)
	if err != nil {
		b.sendHTML(msg.Chat.ID, fmt.Sprintf("❌ Ошибка: %v", err), kbAdminBack())
		return
	}
	if removed {
		b.sendHTML(msg.Chat.ID, "✅ Удалён", kbAdminBack())
	} else {
		b.sendHTML(msg.Chat.ID, "❌ Не найден", kbAdminBack())
	}
}

func (b *Bot) showAssetsDebug(chatID int64) {
	assets := b.store.Assets()
	var keys []string
	for name := range assets {
		keys = append(keys, name)
	}
	keyList := strings.Join(keys, ", ")
	if keyList == "" {
		keyList = "—"
	}
	bound := func(name string) bool {
		e, ok := assets[name]
		return ok && e != nil && e.FileID != ""
	}
	b.sendHTML(chatID, fmt.Sprintf(
		"🧩 <b>kit_assets.json</b>\nКлючи: <code>%s</code>\n\n"+
			"prompts: %t\nguide: %t\npresentation: %t\nbot_template: %t\nsbp_qr: %t",
		keyList,
		bound(models.AssetPrompts), bound(models.AssetGuide), bound(models.AssetPresentation),
		bound(models.AssetBotTemplate), bound(models.AssetSBPQR)), nil)
}

// handleBindCommand binds an asset file_id from the replied-to message.
// /bind_sbp_qr accepts a photo or a document, the rest require a document.
func (b *Bot) handleBindCommand(msg *tgbotapi.Message) {
	var name, label string
	switch msg.Command() {
	case "bind_sbp_qr":
		name, label = models.AssetSBPQR, "QR СБП"
	case "bind_prompts":
		name, label = models.AssetPrompts, "Промпты"
	case "bind_guide":
		name, label = models.AssetGuide, "Гайд"
	case "bind_presentation":
		name, label = models.AssetPresentation, "Презентация"
	case "bind_bot":
		name, label = models.AssetBotTemplate, "Шаблон бота"
	default:
		return
	}

	src := msg.ReplyToMessage
	if src == nil {
		b.sendHTML(msg.Chat.ID, "Ответьте этой командой на сообщение с нужным файлом.", nil)
		return
	}

	var fileID string
	if name == models.AssetSBPQR {
		fileID = largestPhoto(src)
		if fileID == "" && src.Document != nil {
			fileID = src.Document.FileID
		}
		if fileID == "" {
			b.sendHTML(msg.Chat.ID, "Нужна картинка или документ с QR.", nil)
			return
		}
	} else {
		if src.Document == nil {
			b.sendHTML(msg.Chat.ID, "Ответьте этой командой на <b>документ</b>.", nil)
			return
		}
		fileID = src.Document.FileID
		if name == models.AssetBotTemplate {
			fname := strings.ToLower(src.Document.FileName)
			if fname != "" && !strings.HasSuffix(fname, ".py") {
				b.sendHTML(msg.Chat.ID, "⚠️ Похоже, это не .py файл. Всё равно привязываю по file_id — проверьте название.", nil)
			}
		}
	}

	if err := b.store.SetAssetFileID(name, fileID); err != nil {
		b.sendHTML(msg.Chat.ID, fmt.Sprintf("❌ Не удалось сохранить привязку: %v", err), nil)
		return
	}
	b.sendHTML(msg.Chat.ID, fmt.Sprintf("✅ %s привязан по file_id. Теперь будет использоваться кэш.", label), nil)
}

func (b *Bot) handleUnknownCommand(msg *tgbotapi.Message) {
	if msg.From.ID == b.admin {
		b.sendHTML(msg.Chat.ID,
			"🤖 Неизвестная команда.\n\n"+
				"<b>Доступные команды администратора:</b>\n"+
				"• /admin — панель администратора\n"+
				"• /reply — ответ пользователю\n"+
				"• /broadcast — рассылка\n"+
				"• /backup — резервная копия\n"+
				"• /restore_backup — восстановление\n"+
				"• /clear_db — очистка БД\n"+
				"• /buyers — список покупателей\n"+
				"• /export_buyers — экспорт CSV\n"+
				"• /remove_user — удалить запись\n"+
				"• /endchat — завершить диалог", nil)
		return
	}
	b.sendHTML(msg.Chat.ID, "🤖 Неизвестная команда. Нажмите /start или воспользуйтесь меню ниже.", b.menuFor(msg.From.ID))
}

func orUnknown(username string) string {
	if username == "" {
		return "unknown"
	}
	return username
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "\n... (обрезано)"
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
