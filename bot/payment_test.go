package bot

import (
	"strings"
	"testing"

	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func proofMessage(uid int64) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: uid, UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: uid},
	}
}

func decisionCallback(fromID int64, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: fromID},
		Data: data,
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: testAdminID},
		},
	}
}

func callbackData(t *testing.T, markup interface{}) []string {
	t.Helper()
	kb, ok := markup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("reply markup is %T, want InlineKeyboardMarkup", markup)
	}
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				data = append(data, *btn.CallbackData)
			}
		}
	}
	return data
}

func TestScreenshotPhotoForwardedToAdmin(t *testing.T) {
	b, fake := newTestBot(t)
	msg := proofMessage(42)
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}
	sess := services.Session{Kind: services.StateAwaitingScreenshot, OrderID: "09011542-a3f1"}
	b.sessions.Set(42, sess)

	b.handleScreenshot(msg, sess)

	if len(fake.sent) != 2 {
		t.Fatalf("sent %d messages, want forward + confirmation", len(fake.sent))
	}
	photo, ok := fake.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("forwarded as %T, want PhotoConfig", fake.sent[0])
	}
	if photo.ChatID != testAdminID {
		t.Errorf("forwarded to %d, want admin", photo.ChatID)
	}
	if id, ok := photo.File.(tgbotapi.FileID); !ok || string(id) != "big" {
		t.Errorf("forwarded file = %v, want the largest photo size", photo.File)
	}
	for _, part := range []string{"@alice", "ID: 42", "Order: 09011542-a3f1"} {
		if !strings.Contains(photo.Caption, part) {
			t.Errorf("caption %q misses %q", photo.Caption, part)
		}
	}
	buttons := callbackData(t, photo.ReplyMarkup)
	if len(buttons) != 2 || buttons[0] != "approve_42" || buttons[1] != "reject_42" {
		t.Errorf("decision buttons = %v", buttons)
	}

	confirm := fake.sent[1].(tgbotapi.MessageConfig)
	if confirm.ChatID != 42 || !strings.Contains(confirm.Text, "на проверку") {
		t.Errorf("user confirmation = %q to %d", confirm.Text, confirm.ChatID)
	}
	if b.sessions.Get(42).Kind != services.StateNone {
		t.Error("state must clear once the proof is forwarded")
	}
	rec, ok := b.store.User(42)
	if !ok || rec.Verified {
		t.Errorf("record after screenshot = %+v, want pending", rec)
	}
}

func TestScreenshotDocumentAccepted(t *testing.T) {
	b, fake := newTestBot(t)
	msg := proofMessage(42)
	msg.Document = &tgbotapi.Document{FileID: "receipt_pdf"}

	b.handleScreenshot(msg, services.Session{Kind: services.StateAwaitingScreenshot})

	doc, ok := fake.sent[0].(tgbotapi.DocumentConfig)
	if !ok {
		t.Fatalf("forwarded as %T, want DocumentConfig", fake.sent[0])
	}
	if doc.ChatID != testAdminID {
		t.Errorf("forwarded to %d, want admin", doc.ChatID)
	}
	buttons := callbackData(t, doc.ReplyMarkup)
	if len(buttons) != 2 || buttons[0] != "approve_42" {
		t.Errorf("decision buttons = %v", buttons)
	}
}

func TestScreenshotReminderKeepsState(t *testing.T) {
	b, fake := newTestBot(t)
	msg := proofMessage(42)
	msg.Text = "оплатил, всё ок"
	sess := services.Session{Kind: services.StateAwaitingScreenshot, OrderID: "09011542-a3f1"}
	b.sessions.Set(42, sess)

	b.handleScreenshot(msg, sess)

	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want only the reminder", len(fake.sent))
	}
	reminder := fake.sent[0].(tgbotapi.MessageConfig)
	if reminder.ChatID != 42 || !strings.Contains(reminder.Text, "скриншот") {
		t.Errorf("reminder = %q to %d", reminder.Text, reminder.ChatID)
	}
	got := b.sessions.Get(42)
	if got.Kind != services.StateAwaitingScreenshot || got.OrderID != "09011542-a3f1" {
		t.Errorf("state after reminder = %+v, must stay awaiting", got)
	}
}

func TestApproveUnknownUserDeliversKit(t *testing.T) {
	b, fake := newTestBot(t)

	b.handleApprove(decisionCallback(testAdminID, "approve_42"))

	if !b.store.IsVerified(42) {
		t.Fatal("user must be verified after approve")
	}
	var toUser int
	var adminCard string
	for _, c := range fake.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			if m.ChatID == 42 {
				toUser++
			}
			if m.ChatID == testAdminID && strings.Contains(m.Text, "Выдано") {
				adminCard = m.Text
			}
		}
	}
	if toUser == 0 {
		t.Error("kit delivery must reach the user")
	}
	if !strings.Contains(adminCard, "@unknown") {
		t.Errorf("admin card = %q, want the unknown-user placeholder", adminCard)
	}
	edit, ok := fake.sent[len(fake.sent)-1].(tgbotapi.EditMessageTextConfig)
	if !ok || !strings.Contains(edit.Text, "Подтверждено") {
		t.Errorf("request card edit = %+v", fake.sent[len(fake.sent)-1])
	}
}

func TestReApprovalReSendsKit(t *testing.T) {
	b, fake := newTestBot(t)
	if err := b.store.MarkVerified(42, "alice"); err != nil {
		t.Fatal(err)
	}
	rec, _ := b.store.User(42)
	first := rec.PurchaseDate

	b.handleApprove(decisionCallback(testAdminID, "approve_42"))

	rec, _ = b.store.User(42)
	if !rec.Verified || rec.PurchaseDate != first {
		t.Errorf("record after re-approval = %+v, purchase date must not move", rec)
	}
	var toUser int
	for _, c := range fake.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == 42 {
			toUser++
		}
	}
	if toUser == 0 {
		t.Error("re-approval must re-send the files")
	}
}

func TestRejectLeavesRecordPending(t *testing.T) {
	b, fake := newTestBot(t)
	if err := b.store.SavePending(42, "alice"); err != nil {
		t.Fatal(err)
	}

	b.handleReject(decisionCallback(testAdminID, "reject_42"))

	notice := fake.sent[0].(tgbotapi.MessageConfig)
	if notice.ChatID != 42 || !strings.Contains(notice.Text, "не подтверждена") {
		t.Errorf("user notice = %q to %d", notice.Text, notice.ChatID)
	}
	edit, ok := fake.sent[1].(tgbotapi.EditMessageTextConfig)
	if !ok || !strings.Contains(edit.Text, "отклонён") {
		t.Errorf("request card edit = %+v", fake.sent[1])
	}
	rec, ok := b.store.User(42)
	if !ok || rec.Verified {
		t.Errorf("record after reject = %+v, must stay pending", rec)
	}
}

func TestDecisionCallbacksRequireAdmin(t *testing.T) {
	b, fake := newTestBot(t)

	b.handleApprove(decisionCallback(42, "approve_42"))
	b.handleReject(decisionCallback(42, "reject_42"))

	if len(fake.sent) != 0 {
		t.Errorf("sent %d messages, want none for a non-admin", len(fake.sent))
	}
	if b.store.IsVerified(42) {
		t.Error("non-admin approve must not verify anyone")
	}
}
