package bot

import (
	"context"
	"regexp"
	"strings"

	"kit-telegram/ai"
	"kit-telegram/config"
	"kit-telegram/services"
	"kit-telegram/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Bot wires the Telegram API to the store, the conversation state machine
// and the AI client. One instance serves polling and webhook modes; the
// webhook server feeds updates through HandleUpdate.
type Bot struct {
	api     *tgbotapi.BotAPI
	send    func(tgbotapi.Chattable) (tgbotapi.Message, error)
	request func(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)

	cfg      *config.Config
	store    *store.Store
	sessions *services.SessionManager
	history  *services.HistoryBank
	quota    services.QuotaPolicy
	ai       *ai.Client
	admin    int64

	// pending broadcast content; only the single admin touches it.
	pending *pendingBroadcast
}

func New(cfg *config.Config, st *store.Store, aiClient *ai.Client) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	api.Debug = cfg.Debug
	b := &Bot{
		api:      api,
		send:     api.Send,
		request:  api.Request,
		cfg:      cfg,
		store:    st,
		sessions: services.NewSessionManager(),
		history:  services.NewHistoryBank(cfg.AI.MaxHistory),
		quota: services.QuotaPolicy{
			Enabled:     cfg.Demo.Enabled,
			DailyLimit:  cfg.Demo.DailyLimit,
			CooldownSec: cfg.Demo.CooldownSec,
		},
		ai:    aiClient,
		admin: cfg.Telegram.AdminID,
	}
	return b, nil
}

// Start runs long polling until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	log.Info().Str("username", b.api.Self.UserName).Msg("bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.HandleUpdate(ctx, update)
	}
}

// Notify sends plain text to a chat, for startup and heartbeat pings.
func (b *Bot) Notify(chatID int64, text string) error {
	_, err := b.send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SetWebhook registers the webhook URL with Telegram, dropping any
// updates queued while the service was down.
func (b *Bot) SetWebhook(baseURL, secret string) error {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + "/webhook/" + secret)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	_, err = b.request(wh)
	return err
}

// DeleteWebhook removes a previously registered webhook so long polling
// can take over.
func (b *Bot) DeleteWebhook() error {
	_, err := b.request(tgbotapi.DeleteWebhookConfig{})
	return err
}

// HandleUpdate dispatches one update. Exported so the webhook server can
// reuse the same routing as the polling loop.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil && update.Message.From != nil {
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	uid := msg.From.ID
	if uid == b.admin {
		b.handleAdminMessage(ctx, msg)
		return
	}

	switch sess := b.sessions.Get(uid); sess.Kind {
	case services.StateAwaitingScreenshot:
		b.handleScreenshot(msg, sess)
	case services.StateAwaitingSupportText:
		b.handleSupportIntake(msg)
	case services.StateAIChat:
		b.handleAIMessage(ctx, msg, sess)
	default:
		// No flow active: an open relay channel takes the message, otherwise
		// plain text goes through the keyword triggers.
		if adminID, ok := b.sessions.LinkedAdmin(uid); ok {
			b.relayUserToAdmin(msg, adminID)
			return
		}
		if msg.Text != "" {
			b.handleFreeText(msg)
		}
	}
}

var backAdminRe = regexp.MustCompile(`(?i)^(назад( в админку)?|в админку|админ|admin)$`)

func (b *Bot) handleAdminMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch sess := b.sessions.Get(b.admin); sess.Kind {
	case services.StateAwaitingQuickReply:
		b.quickReplySend(msg, sess)
	case services.StateComposingOnce:
		b.sendOnceMessage(msg, sess)
	case services.StateAwaitingBroadcast:
		b.broadcastCollect(msg)
	case services.StateAwaitingRestoreFile:
		b.restoreFromDocument(msg)
	case services.StateAIChat:
		b.handleAIMessage(ctx, msg, sess)
	case services.StateChatting:
		b.relayAdminToUser(msg)
	default:
		if msg.ReplyToMessage != nil && b.replyByReply(msg) {
			return
		}
		if backAdminRe.MatchString(strings.TrimSpace(msg.Text)) {
			b.showAdminHome(msg.Chat.ID, 0)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	uid := msg.From.ID
	switch msg.Command() {
	case "start":
		b.handleStart(msg)
	case "help":
		b.sendHTML(msg.Chat.ID, helpText, nil)
	case "about":
		b.sendHTML(msg.Chat.ID, aboutText, nil)
	case "cancel":
		if b.sessions.Get(uid).Kind != services.StateNone {
			b.sessions.Clear(uid)
			b.sendHTML(msg.Chat.ID, "✅ Отменено.", nil)
		}
	case "ai":
		b.handleAICommand(msg)
	case "ai_diag":
		b.handleAIDiag(ctx, msg)

	// admin command surface
	case "admin":
		if !b.requireAdmin(msg) {
			return
		}
		b.showAdminHome(msg.Chat.ID, 0)
	case "back_admin":
		if !b.requireAdmin(msg) {
			return
		}
		b.showAdminHome(msg.Chat.ID, 0)
	case "reply":
		if !b.requireAdmin(msg) {
			return
		}
		b.handleReplyCommand(msg)
	case "broadcast":
		if !b.requireAdmin(msg) {
			return
		}
		b.broadcastStart(msg.Chat.ID, 0)
	case "backup":
		if !b.requireAdmin(msg) {
			return
		}
		b.createAndSendBackup(msg.Chat.ID)
	case "restore_backup":
		if !b.requireAdmin(msg) {
			return
		}
		b.restoreStart(msg.Chat.ID)
	case "clear_db":
		if !b.requireAdmin(msg) {
			return
		}
		b.clearDatabase(msg.Chat.ID, 0)
	case "remove_user":
		if !b.requireAdmin(msg) {
			return
		}
		b.handleRemoveUser(msg)
	case "buyers":
		if !b.requireAdmin(msg) {
			return
		}
		b.showBuyers(msg.Chat.ID, 0)
	case "export_buyers":
		if !b.requireAdmin(msg) {
			return
		}
		b.exportBuyers(msg.Chat.ID, 0)
	case "endchat":
		if !b.requireAdmin(msg) {
			return
		}
		b.endAdminChat(msg.Chat.ID)
	case "assets_debug":
		if !b.requireAdmin(msg) {
			return
		}
		b.showAssetsDebug(msg.Chat.ID)
	case "bind_sbp_qr", "bind_prompts", "bind_guide", "bind_presentation", "bind_bot":
		if !b.requireAdmin(msg) {
			return
		}
		b.handleBindCommand(msg)
	default:
		b.handleUnknownCommand(msg)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	data := cb.Data

	switch {
	case data == "back_to_main":
		b.answerCB(cb.ID, "", false)
		b.showWelcome(cb.Message.Chat.ID, cb.From.ID)
	case data == "open_faq":
		b.answerCB(cb.ID, "", false)
		b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, faqText, kbBackMain())
	case data == "pay_sbp":
		b.answerCB(cb.ID, "", false)
		b.handlePaySBP(cb)
	case data == "request_verification":
		b.answerCB(cb.ID, "", false)
		b.handleRequestVerification(cb)
	case data == "get_files_again":
		b.answerCB(cb.ID, "", false)
		b.handleFilesAgain(cb)
	case data == "support_request":
		b.answerCB(cb.ID, "", false)
		b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, supportIntroText, kbSupport())
	case data == "support_message":
		b.answerCB(cb.ID, "", false)
		b.sessions.Set(cb.From.ID, services.Session{Kind: services.StateAwaitingSupportText})
		b.sendHTML(cb.Message.Chat.ID, supportComposeText, kbBackMain())
	case data == "support_manager_info":
		b.answerCB(cb.ID, "", false)
		b.sendHTML(cb.Message.Chat.ID, b.managerInfoText(), kbBackMain())

	case data == "ai_choice":
		b.answerCB(cb.ID, "", false)
		b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, "Выбери режим работы ИИ 👇", kbAIChoice())
	case data == "ai_open", data == "ai_open_demo", data == "ai_demo_open", data == "ai_admin_open":
		b.handleAIOpen(cb, data)
	case data == "ai_close", data == "ai_admin_close":
		b.handleAIClose(cb, data)

	case strings.HasPrefix(data, "approve_"):
		b.handleApprove(cb)
	case strings.HasPrefix(data, "reject_"):
		b.handleReject(cb)

	case data == "admin_home":
		if !b.requireAdminCB(cb) {
			return
		}
		b.showAdminHome(cb.Message.Chat.ID, cb.Message.MessageID)
	case data == "admin_stats":
		if !b.requireAdminCB(cb) {
			return
		}
		b.showStats(cb)
	case data == "list_users":
		if !b.requireAdminCB(cb) {
			return
		}
		b.showAllUsers(cb)
	case data == "admin_buyers":
		if !b.requireAdminCB(cb) {
			return
		}
		b.showBuyers(cb.Message.Chat.ID, cb.Message.MessageID)
	case data == "admin_export_buyers":
		if !b.requireAdminCB(cb) {
			return
		}
		b.exportBuyers(cb.Message.Chat.ID, cb.Message.MessageID)
	case data == "admin_reply_prompt":
		if !b.requireAdminCB(cb) {
			return
		}
		b.editHTML(cb.Message.Chat.ID, cb.Message.MessageID, replyUsageText, kbAdminBack())
	case data == "clear_all":
		if !b.requireAdminCB(cb) {
			return
		}
		b.clearDatabase(cb.Message.Chat.ID, cb.Message.MessageID)
	case data == "create_backup":
		if !b.requireAdminCB(cb) {
			return
		}
		b.createAndSendBackup(cb.From.ID)
	case data == "admin_restore":
		if !b.requireAdminCB(cb) {
			return
		}
		b.restoreStart(cb.From.ID)

	case data == "admin_contact_open":
		if !b.requireAdminCB(cb) {
			return
		}
		b.showContactList(cb, 1, true)
	case strings.HasPrefix(data, "admin_contact_page_"):
		if !b.requireAdminCB(cb) {
			return
		}
		b.handleContactPage(cb)
	case strings.HasPrefix(data, "admin_contact_toggle_"):
		if !b.requireAdminCB(cb) {
			return
		}
		b.handleContactToggle(cb)
	case strings.HasPrefix(data, "admin_contact_pick_"):
		if !b.requireAdminCB(cb) {
			return
		}
		b.handleContactPick(cb)
	case strings.HasPrefix(data, "admin_msg_once_"):
		if !b.requireAdminCB(cb) {
			return
		}
		b.handleComposeOnce(cb)
	case strings.HasPrefix(data, "admin_chat_enter_"):
		if !b.requireAdminCB(cb) {
			return
		}
		b.handleChatEnter(cb)
	case data == "admin_chat_end":
		if !b.requireAdminCB(cb) {
			return
		}
		b.handleChatEnd(cb)
	case strings.HasPrefix(data, "admin_quick_reply_"):
		if !b.requireAdminCB(cb) {
			return
		}
		b.handleQuickReplyStart(cb)

	case data == "open_broadcast":
		if !b.requireAdminCB(cb) {
			return
		}
		b.broadcastStart(cb.Message.Chat.ID, cb.Message.MessageID)
	case data == "broadcast_send":
		if !b.requireAdminCB(cb) {
			return
		}
		b.broadcastSend(cb)
	case data == "broadcast_cancel":
		if !b.requireAdminCB(cb) {
			return
		}
		b.broadcastCancel(cb)
	}
}

func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	if msg.From.ID != b.admin {
		b.sendHTML(msg.Chat.ID, "❌ Нет доступа", nil)
		return false
	}
	return true
}

func (b *Bot) requireAdminCB(cb *tgbotapi.CallbackQuery) bool {
	if cb.From.ID != b.admin {
		b.answerCB(cb.ID, "❌ Нет доступа", true)
		return false
	}
	b.answerCB(cb.ID, "", false)
	return true
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// sendHTML sends with HTML parse mode and falls back to stripped plain text
// when Telegram rejects the markup.
func (b *Bot) sendHTML(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.send(msg); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("html send failed, retrying plain")
		plain := tgbotapi.NewMessage(chatID, htmlTagRe.ReplaceAllString(text, ""))
		if kb != nil {
			plain.ReplyMarkup = *kb
		}
		if _, err := b.send(plain); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("plain send failed")
		}
	}
}

// editHTML edits in place; if the edit fails (message deleted, too old) it
// sends a fresh message instead.
func (b *Bot) editHTML(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		b.sendHTML(chatID, text, kb)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if kb != nil {
		edit.ReplyMarkup = kb
	}
	if _, err := b.send(edit); err != nil {
		if strings.Contains(err.Error(), "not modified") {
			return
		}
		b.sendHTML(chatID, text, kb)
	}
}

func (b *Bot) answerCB(id, text string, alert bool) {
	cb := tgbotapi.NewCallback(id, text)
	cb.ShowAlert = alert
	if _, err := b.request(cb); err != nil {
		log.Debug().Err(err).Msg("callback answer failed")
	}
}

func username(from *tgbotapi.User) string {
	if from != nil && from.UserName != "" {
		return from.UserName
	}
	return "без_username"
}
