package bot

import (
	"fmt"
	"time"

	"kit-telegram/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// assetSpec describes one deliverable document and every place its bytes may
// come from.
type assetSpec struct {
	name      string // asset cache name, also used as the per-user cache key prefix
	envFileID string
	url       string
	caption   string
}

// deliverDocument sends one document through the resolver chain:
// bound asset file_id, env file_id, the user's cached file_id, direct URL
// (Telegram downloads it; the returned file_id is cached for this user),
// then a plain text message with the link. Traffic through this process is
// zero for every tier except none: Telegram serves cached file_ids itself.
func (b *Bot) deliverDocument(chatID int64, spec assetSpec) error {
	cacheKey := spec.name + "_file_id"

	tryFileID := func(fileID, tier string) bool {
		if fileID == "" {
			return false
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileID(fileID))
		doc.Caption = spec.caption
		doc.ParseMode = tgbotapi.ModeHTML
		if _, err := b.send(doc); err != nil {
			log.Warn().Err(err).Str("asset", spec.name).Str("tier", tier).Msg("file_id send failed")
			return false
		}
		return true
	}

	if tryFileID(b.store.AssetFileID(spec.name), "override") {
		return nil
	}
	if tryFileID(spec.envFileID, "env") {
		return nil
	}
	if tryFileID(b.store.UserCache(chatID, cacheKey), "cache") {
		return nil
	}

	if spec.url != "" {
		retries := b.cfg.Assets.URLRetry
		if retries < 1 {
			retries = 1
		}
		for attempt := 0; attempt < retries; attempt++ {
			doc := tgbotapi.NewDocument(chatID, tgbotapi.FileURL(spec.url))
			doc.Caption = spec.caption
			doc.ParseMode = tgbotapi.ModeHTML
			sent, err := b.send(doc)
			if err != nil {
				log.Warn().Err(err).Str("asset", spec.name).Int("attempt", attempt).Msg("url send failed")
				continue
			}
			if sent.Document != nil && sent.Document.FileID != "" {
				if err := b.store.SetUserCache(chatID, cacheKey, sent.Document.FileID); err != nil {
					log.Warn().Err(err).Str("asset", spec.name).Msg("cache backfill failed")
				}
			}
			return nil
		}
	}

	// Degraded tier: the user still gets something actionable.
	text := spec.caption + "\n" + spec.url
	if spec.url == "" {
		text = spec.caption + "\n(файл временно недоступен)"
	}
	b.sendHTML(chatID, text, nil)
	return nil
}

// sendKit delivers the full purchase bundle: prompts, launch guide,
// optionally the presentation, the bot template and a wrap-up message, then
// notifies the admin.
func (b *Bot) sendKit(userID int64, includePresentation bool) error {
	if err := b.deliverDocument(userID, assetSpec{
		name:      models.AssetPrompts,
		envFileID: b.cfg.Assets.PromptsFileID,
		url:       b.cfg.Assets.PromptsURL,
		caption:   "📘 <b>100 ChatGPT-промптов для бизнеса</b>",
	}); err != nil {
		return fmt.Errorf("prompts: %w", err)
	}

	if err := b.deliverDocument(userID, assetSpec{
		name:      models.AssetGuide,
		envFileID: b.cfg.Assets.GuideFileID,
		url:       b.cfg.Assets.GuideURL,
		caption: "🧭 <b>Гайд по запуску бота (шаг за шагом)</b>\n" +
			"Полная инструкция по установке, настройке и запуску шаблонного бота.",
	}); err != nil {
		return fmt.Errorf("guide: %w", err)
	}

	if includePresentation {
		if err := b.deliverDocument(userID, assetSpec{
			name:      models.AssetPresentation,
			envFileID: b.cfg.Assets.PresentationFileID,
			url:       b.cfg.Assets.PresentationURL,
			caption:   "🖼️ <b>Презентация продукта</b>",
		}); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("presentation delivery failed")
		}
	}

	if err := b.deliverDocument(userID, assetSpec{
		name:      models.AssetBotTemplate,
		envFileID: b.cfg.Assets.BotTemplateFileID,
		url:       b.cfg.Assets.BotTemplateURL,
		caption:   "🤖 <b>AI Business Bot Template</b> — готовый код для запуска",
	}); err != nil {
		return fmt.Errorf("bot template: %w", err)
	}

	b.sendReadme(userID)

	b.sendHTML(userID, "✅ Готово! Если нужна помощь — нажмите «Поддержка».", b.menuFor(userID))

	uname := "unknown"
	if rec, ok := b.store.User(userID); ok {
		uname = rec.Username
	}
	b.sendHTML(b.admin, fmt.Sprintf(
		"📦 <b>Файлы отправлены</b>\n\nПользователь: @%s\nID: %d\nВремя: %s",
		uname, userID, time.Now().Format("15:04 02.01.2006")), nil)
	return nil
}

// sendReadme attaches the generated quick-start README as a text file.
func (b *Bot) sendReadme(userID int64) {
	doc := tgbotapi.NewDocument(userID, tgbotapi.FileBytes{
		Name:  "README_AI_Business_Bot_Template.txt",
		Bytes: []byte(b.readmeText()),
	})
	doc.Caption = "🧾 README (бот из шаблона)"
	doc.ParseMode = tgbotapi.ModeHTML
	if _, err := b.send(doc); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("send readme failed")
	}
}

func (b *Bot) readmeText() string {
	return fmt.Sprintf(
		"AI Business Bot Template — README\n"+
			"=================================\n\n"+
			"Готовый Telegram-бот для цифрового бизнеса 💼\n"+
			"— магазин цифровых товаров\n"+
			"— учёт покупателей\n"+
			"— авто-выдача файлов и поддержка чатов\n"+
			"— встроенная интеграция с AI\n\n"+
			"Быстрый старт описан в PDF-гайде из комплекта.\n\n"+
			"1) Получите токен у @BotFather и свой ID у @userinfobot\n"+
			"2) Заполните .env по образцу .env.template\n"+
			"3) Запустите шаблон и проверьте /start\n\n"+
			"🌐 Бренд: %s — %s\n"+
			"💬 Поддержка: %s\n",
		b.cfg.Brand.Name, b.cfg.Brand.URL, b.cfg.Brand.SupportTG)
}

// handleFilesAgain re-sends the bundle to a verified buyer.
func (b *Bot) handleFilesAgain(cb *tgbotapi.CallbackQuery) {
	uid := cb.From.ID
	if !b.store.IsVerified(uid) {
		b.sendHTML(cb.Message.Chat.ID,
			"❌ Доступ ещё не активирован. Нажмите «Я оплатил(а)» и отправьте скрин подтверждения.",
			b.menuFor(uid))
		return
	}

	b.sendHTML(cb.Message.Chat.ID, "🔄 Переотправляю комплект файлов…", nil)
	if err := b.sendKit(uid, false); err != nil {
		log.Error().Err(err).Int64("user_id", uid).Msg("re-send kit failed")
	}

	b.sendHTML(b.admin, fmt.Sprintf(
		"♻️ <b>Пользователь запросил повторную выдачу файлов</b>\nID: %d\nВремя: %s",
		uid, time.Now().Format("15:04 02.01.2006")), nil)
}
