package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"kit-telegram/models"
	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func aiUserMessage(uid int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: uid, UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: uid},
		Text: text,
	}
}

func exhaustedUsage(limit int) models.DemoUsage {
	return models.DemoUsage{Date: time.Now().Format("2006-01-02"), Count: limit}
}

func TestAIMessageDemoLimitBlocksUnverified(t *testing.T) {
	b, fake := newTestBot(t)
	b.cfg.Demo.Enabled = true
	b.quota = services.QuotaPolicy{Enabled: true, DailyLimit: 3}
	if err := b.store.SaveDemoUsage(42, exhaustedUsage(3)); err != nil {
		t.Fatal(err)
	}

	sess := services.Session{Kind: services.StateAIChat, Persona: services.PersonaConsultant, ForceDemo: true}
	b.handleAIMessage(context.Background(), aiUserMessage(42, "вопрос"), sess)

	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want only the denial", len(fake.sent))
	}
	msg := fake.sent[0].(tgbotapi.MessageConfig)
	if msg.ChatID != 42 || !strings.Contains(msg.Text, "Лимит в демо") {
		t.Errorf("denial = %q to %d", msg.Text, msg.ChatID)
	}
}

// A session opened in demo mode keeps its quota even if the user's record
// becomes verified mid-session.
func TestAIMessageForcedDemoSessionStaysLimited(t *testing.T) {
	b, fake := newTestBot(t)
	b.cfg.Demo.Enabled = true
	b.quota = services.QuotaPolicy{Enabled: true, DailyLimit: 2}
	if err := b.store.MarkVerified(42, "alice"); err != nil {
		t.Fatal(err)
	}
	if err := b.store.SaveDemoUsage(42, exhaustedUsage(2)); err != nil {
		t.Fatal(err)
	}

	sess := services.Session{Kind: services.StateAIChat, Persona: services.PersonaConsultant, ForceDemo: true}
	b.handleAIMessage(context.Background(), aiUserMessage(42, "ещё вопрос"), sess)

	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want only the denial", len(fake.sent))
	}
	msg := fake.sent[0].(tgbotapi.MessageConfig)
	if !strings.Contains(msg.Text, "Лимит в демо") {
		t.Errorf("denial = %q", msg.Text)
	}
}
