package bot

import (
	"testing"

	"kit-telegram/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestPackPayload(t *testing.T) {
	tests := []struct {
		name     string
		msg      *tgbotapi.Message
		wantKind string
		wantFile string
		wantText string
	}{
		{
			"plain text",
			&tgbotapi.Message{Text: "привет"},
			models.PayloadText, "", "привет",
		},
		{
			"photo keeps largest size",
			&tgbotapi.Message{
				Photo:   []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}},
				Caption: "подпись",
			},
			models.PayloadPhoto, "big", "",
		},
		{
			"document",
			&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc1"}},
			models.PayloadDocument, "doc1", "",
		},
		{
			"photo wins over text and document",
			&tgbotapi.Message{
				Photo:    []tgbotapi.PhotoSize{{FileID: "p"}},
				Document: &tgbotapi.Document{FileID: "d"},
				Text:     "x",
			},
			models.PayloadPhoto, "p", "",
		},
		{
			"video",
			&tgbotapi.Message{Video: &tgbotapi.Video{FileID: "v"}},
			models.PayloadVideo, "v", "",
		},
		{
			"voice",
			&tgbotapi.Message{Voice: &tgbotapi.Voice{FileID: "vo"}},
			models.PayloadVoice, "vo", "",
		},
		{
			"empty message becomes empty text",
			&tgbotapi.Message{},
			models.PayloadText, "", "",
		},
	}
	for _, tt := range tests {
		p := packPayload(tt.msg)
		if p.Kind != tt.wantKind || p.FileID != tt.wantFile || p.Text != tt.wantText {
			t.Errorf("%s: packPayload = %+v", tt.name, p)
		}
	}
}

func TestSendPayloadEmptyTextPlaceholder(t *testing.T) {
	b, fake := newTestBot(t)

	if err := b.sendPayload(1, models.BroadcastPayload{Kind: models.PayloadText}); err != nil {
		t.Fatal(err)
	}
	if len(fake.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(fake.sent))
	}
	m, ok := fake.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", fake.sent[0])
	}
	if m.Text != " " {
		t.Errorf("empty payload text = %q, want single space", m.Text)
	}
}

func TestForwardMessageCaptionOverride(t *testing.T) {
	b, fake := newTestBot(t)

	msg := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{{FileID: "p1"}}, Caption: "original"}
	if err := b.forwardMessage(5, msg, "override"); err != nil {
		t.Fatal(err)
	}
	ph, ok := fake.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("sent %T, want PhotoConfig", fake.sent[0])
	}
	if ph.Caption != "override" {
		t.Errorf("caption = %q, want override", ph.Caption)
	}
	if ph.ChatID != 5 {
		t.Errorf("chat id = %d, want 5", ph.ChatID)
	}
}
