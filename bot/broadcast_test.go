package bot

import (
	"errors"
	"strings"
	"testing"

	"kit-telegram/models"
	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func adminCallback() *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		From: &tgbotapi.User{ID: testAdminID},
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: testAdminID},
		},
	}
}

func TestBroadcastSendWithoutContent(t *testing.T) {
	b, fake := newTestBot(t)

	b.broadcastSend(adminCallback())

	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want only the warning", len(fake.sent))
	}
	edit, ok := fake.sent[0].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("sent %T, want EditMessageTextConfig", fake.sent[0])
	}
	if !strings.Contains(edit.Text, "Нет контента") {
		t.Errorf("warning text = %q", edit.Text)
	}
}

func TestBroadcastSendFanOut(t *testing.T) {
	b, fake := newTestBot(t)
	b.cfg.Broadcast.VerifiedOnly = true
	for _, uid := range []int64{1, 2, 3} {
		if err := b.store.MarkVerified(uid, "u"); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.store.SavePending(4, "pending"); err != nil {
		t.Fatal(err)
	}

	b.pending = &pendingBroadcast{payload: models.BroadcastPayload{Kind: models.PayloadText, Text: "новость"}}
	b.sessions.Set(testAdminID, services.Session{Kind: services.StateConfirmBroadcast})

	fail := errors.New("Forbidden: bot was blocked by the user")
	fake.respond = func(c tgbotapi.Chattable) (tgbotapi.Message, error) {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == 2 {
			return tgbotapi.Message{}, fail
		}
		return tgbotapi.Message{}, nil
	}

	b.broadcastSend(adminCallback())

	var toUsers []int64
	for _, c := range fake.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID != testAdminID {
			toUsers = append(toUsers, m.ChatID)
		}
	}
	if len(toUsers) != 3 {
		t.Fatalf("fan-out reached %v, want the 3 verified users", toUsers)
	}

	tally := fake.sent[len(fake.sent)-1].(tgbotapi.MessageConfig)
	if !strings.Contains(tally.Text, "✅ Успешно: 2") || !strings.Contains(tally.Text, "❌ Ошибок: 1") {
		t.Errorf("tally = %q", tally.Text)
	}
	if b.pending != nil {
		t.Error("pending payload must be dropped after send")
	}
	if b.sessions.Get(testAdminID).Kind != services.StateNone {
		t.Error("admin state must reset after send")
	}
}

func TestBroadcastCollectArmsConfirmation(t *testing.T) {
	b, fake := newTestBot(t)

	b.broadcastCollect(&tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: testAdminID},
		Text: "анонс",
	})

	if b.pending == nil || b.pending.payload.Text != "анонс" {
		t.Fatalf("pending = %+v", b.pending)
	}
	if b.sessions.Get(testAdminID).Kind != services.StateConfirmBroadcast {
		t.Error("collect must arm the confirm state")
	}
	last := fake.sent[len(fake.sent)-1].(tgbotapi.MessageConfig)
	if !strings.Contains(last.Text, "Предпросмотр") {
		t.Errorf("confirmation prompt = %q", last.Text)
	}
}
