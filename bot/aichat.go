package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kit-telegram/ai"
	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	aiTimeout     = 45 * time.Second
	aiDemoTimeout = 30 * time.Second
)

func (b *Bot) handleAIOpen(cb *tgbotapi.CallbackQuery, data string) {
	uid := cb.From.ID
	switch data {
	case "ai_open":
		if !b.store.IsVerified(uid) {
			b.answerCB(cb.ID, "Сначала подтвердите оплату.", true)
			return
		}
		b.answerCB(cb.ID, "", false)
		b.sessions.Set(uid, services.Session{Kind: services.StateAIChat, Persona: services.PersonaConsultant})
		b.sendHTML(cb.Message.Chat.ID, "🤖 Готов к диалогу. Напиши вопрос про набор, запуск, маркетинг и т. п.", kbAIChat(false))

	case "ai_open_demo":
		// Universal prompt runner: no payment gate and no demo bookkeeping.
		b.answerCB(cb.ID, "", false)
		b.sessions.Set(uid, services.Session{Kind: services.StateAIChat, Persona: services.PersonaUniversal})
		b.sendHTML(cb.Message.Chat.ID,
			"🤖 <b>ИИ активен и готов к работе!</b>\n\n"+
				"Это универсальный режим: используйте его, чтобы создавать тексты, идеи, описания и решения для задач прямо здесь.",
			kbAIChat(false))

	case "ai_demo_open":
		b.answerCB(cb.ID, "", false)
		b.sessions.Set(uid, services.Session{Kind: services.StateAIChat, Persona: services.PersonaConsultant, ForceDemo: true})
		b.sendHTML(cb.Message.Chat.ID,
			fmt.Sprintf("🤖 Демо-режим ИИ включён.\nДоступно до %d сообщений в день.\n"+
				"Спросите что-нибудь про набор, установку бота или маркетинг.", b.cfg.Demo.DailyLimit),
			kbAIChat(false))

	case "ai_admin_open":
		if uid != b.admin {
			b.answerCB(cb.ID, "❌ Нет доступа", true)
			return
		}
		b.answerCB(cb.ID, "", false)
		b.sessions.Set(uid, services.Session{Kind: services.StateAIChat, Persona: services.PersonaAdmin})
		b.sendHTML(cb.Message.Chat.ID, "🤖 ИИ (админ): готов. Спрашивай по коду/логике/базе.", kbAIChat(true))
	}
}

func (b *Bot) handleAIClose(cb *tgbotapi.CallbackQuery, data string) {
	uid := cb.From.ID
	if data == "ai_admin_close" {
		b.answerCB(cb.ID, "Чат ИИ (админ) закрыт", false)
		b.sessions.Clear(uid)
		b.sendHTML(cb.Message.Chat.ID, "Чат ИИ (админ) закрыт.", b.menuFor(b.admin))
		return
	}
	b.answerCB(cb.ID, "", false)
	b.sessions.Clear(uid)
	b.sendHTML(cb.Message.Chat.ID, "Чат закрыт. Чем ещё помочь?", b.menuFor(uid))
}

// openAIFromTrigger handles the bare "ии"/"ai" keyword: full consultant for
// buyers, demo consultant for everyone else while the demo is enabled.
func (b *Bot) openAIFromTrigger(msg *tgbotapi.Message) {
	uid := msg.From.ID
	if b.store.IsVerified(uid) {
		b.sessions.Set(uid, services.Session{Kind: services.StateAIChat, Persona: services.PersonaConsultant})
		b.sendHTML(msg.Chat.ID, "🤖 Готов к диалогу. Спроси про материалы, запуск или маркетинг.", kbAIChat(false))
		return
	}
	if !b.cfg.Demo.Enabled {
		b.sendHTML(msg.Chat.ID, "⚠️ Демо-режим временно отключён. Для полного доступа оформите покупку.", b.menuFor(uid))
		return
	}
	b.sessions.Set(uid, services.Session{Kind: services.StateAIChat, Persona: services.PersonaConsultant, ForceDemo: true})
	b.sendHTML(msg.Chat.ID,
		fmt.Sprintf("🤖 Демо-режим ИИ включён. Доступно до %d сообщений в день.\n"+
			"Спросите что-нибудь про набор или запуск.", b.cfg.Demo.DailyLimit),
		kbAIChat(false))
}

func (b *Bot) handleAICommand(msg *tgbotapi.Message) {
	uid := msg.From.ID
	verified := b.store.IsVerified(uid)
	b.sessions.Set(uid, services.Session{Kind: services.StateAIChat, Persona: services.PersonaConsultant, ForceDemo: !verified})
	if verified {
		b.sendHTML(msg.Chat.ID, "🤖 Готов к диалогу. Задайте вопрос по набору, оплате или запуску.", kbAIChat(false))
		return
	}
	b.sendHTML(msg.Chat.ID,
		fmt.Sprintf("🧪 Демо-режим: до %d сообщений/день, пауза %d сек.\nЗадайте вопрос — отвечу кратко и по делу.",
			b.cfg.Demo.DailyLimit, b.cfg.Demo.CooldownSec),
		kbAIChat(false))
}

// handleAIMessage routes one chat turn through the completion proxy, with
// demo quota accounting for unverified consultant sessions.
func (b *Bot) handleAIMessage(ctx context.Context, msg *tgbotapi.Message, sess services.Session) {
	uid := msg.From.ID
	userText := strings.TrimSpace(msg.Text)
	if userText == "" {
		return
	}

	isAdmin := sess.Persona == services.PersonaAdmin
	verified := b.store.IsVerified(uid)
	demo := (sess.ForceDemo || !verified) && b.cfg.Demo.Enabled && !isAdmin && sess.Persona != services.PersonaUniversal

	if demo {
		if ok, reason := b.quota.Check(b.store.DemoUsage(uid), time.Now()); !ok {
			b.sendHTML(msg.Chat.ID, "⚠️ "+reason, b.menuFor(uid))
			return
		}
	}

	lane := "user"
	if isAdmin {
		lane = "admin"
	}
	key := services.HistKey(uid, lane)

	desired := 0
	if demo {
		desired = b.cfg.AI.MaxHistory
		if desired > 6 {
			desired = 6
		}
		if desired < 2 {
			desired = 2
		}
	}
	b.history.Push(key, ai.RoleUser, userText, desired)

	msgs := append([]ai.Message{{Role: ai.RoleSystem, Content: b.systemPrompt(uid, sess.Persona)}}, b.history.History(key)...)

	b.request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping))

	timeout := aiTimeout
	if demo {
		timeout = aiDemoTimeout
	}
	reply, err := b.ai.Complete(ctx, msgs, timeout)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Int64("user_id", uid).Str("persona", sess.Persona).Msg("ai completion failed")
		if errors.Is(err, ai.ErrNoAPIKey) {
			reply = "⚠️ OPENAI_API_KEY не задан в .env"
		} else {
			reply = "⚠️ " + err.Error()
		}
	}
	b.history.Push(key, ai.RoleAssistant, reply, desired)

	if demo && !verified {
		reply += "\n\n—\n<i>Это демо-режим (есть лимит по сообщениям). " +
			"Чтобы получить полный доступ и файлы, нажмите «Оплата по СБП (QR)».</i>"
	}

	kb := b.menuFor(uid)
	if verified || isAdmin {
		kb = kbAIChat(isAdmin)
	}
	b.sendHTML(msg.Chat.ID, reply, kb)

	if demo && err == nil {
		usage := services.RegisterHit(b.store.DemoUsage(uid), time.Now())
		if err := b.store.SaveDemoUsage(uid, usage); err != nil {
			log.Warn().Err(err).Int64("user_id", uid).Msg("save demo usage")
		}
	}
}

func (b *Bot) systemPrompt(uid int64, persona string) string {
	tpl := b.cfg.AI.UserPrompt
	switch persona {
	case services.PersonaAdmin:
		tpl = b.cfg.AI.AdminPrompt
	case services.PersonaUniversal:
		tpl = b.cfg.AI.UniPrompt
	}
	return services.FormatPrompt(tpl, map[string]string{
		"BRAND_NAME":       b.cfg.Brand.Name,
		"BRAND_OWNER":      b.cfg.Brand.Owner,
		"BRAND_URL":        b.cfg.Brand.URL,
		"BRAND_SUPPORT_TG": b.cfg.Brand.SupportTG,
		"BRAND_CREATED_AT": b.cfg.Brand.CreatedAt,
		"user_id":          strconv.FormatInt(uid, 10),
		"is_admin":         strconv.FormatBool(persona == services.PersonaAdmin),
	})
}

// handleAIDiag reports the proxy configuration and fires one live ping.
func (b *Bot) handleAIDiag(ctx context.Context, msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}

	keyState := "MISSING"
	if b.ai.HasKey() {
		keyState = "set"
	}
	b.sendHTML(msg.Chat.ID, fmt.Sprintf(
		"🔎 AI DIAG:\nBASE_URL: %s\nMODEL: %s\nKEY: %s",
		b.ai.BaseURL(), b.ai.Model(), keyState), nil)

	if !b.ai.HasKey() {
		b.sendHTML(msg.Chat.ID, "⚠️ В .env не задан OPENAI_API_KEY", nil)
		return
	}
	status, body, err := b.ai.Ping(ctx)
	if err != nil {
		b.sendHTML(msg.Chat.ID, fmt.Sprintf("❌ EXC: %v", err), nil)
		return
	}
	b.sendHTML(msg.Chat.ID, fmt.Sprintf("HTTP %d\n%s", status, body), nil)
}
