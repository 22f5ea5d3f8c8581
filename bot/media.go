package bot

import (
	"kit-telegram/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func largestPhoto(msg *tgbotapi.Message) string {
	if len(msg.Photo) == 0 {
		return ""
	}
	return msg.Photo[len(msg.Photo)-1].FileID
}

// packPayload normalizes an incoming message into exactly one payload kind.
// Media wins over text; a photo message keeps only its largest size.
func packPayload(msg *tgbotapi.Message) models.BroadcastPayload {
	switch {
	case len(msg.Photo) > 0:
		return models.BroadcastPayload{Kind: models.PayloadPhoto, FileID: largestPhoto(msg), Caption: msg.Caption}
	case msg.Document != nil:
		return models.BroadcastPayload{Kind: models.PayloadDocument, FileID: msg.Document.FileID, Caption: msg.Caption}
	case msg.Video != nil:
		return models.BroadcastPayload{Kind: models.PayloadVideo, FileID: msg.Video.FileID, Caption: msg.Caption}
	case msg.Animation != nil:
		return models.BroadcastPayload{Kind: models.PayloadAnimation, FileID: msg.Animation.FileID, Caption: msg.Caption}
	case msg.Audio != nil:
		return models.BroadcastPayload{Kind: models.PayloadAudio, FileID: msg.Audio.FileID, Caption: msg.Caption}
	case msg.Voice != nil:
		return models.BroadcastPayload{Kind: models.PayloadVoice, FileID: msg.Voice.FileID, Caption: msg.Caption}
	default:
		text := msg.Text
		if text == "" {
			text = msg.Caption
		}
		return models.BroadcastPayload{Kind: models.PayloadText, Text: text}
	}
}

// sendPayload delivers one normalized payload to a chat.
func (b *Bot) sendPayload(chatID int64, p models.BroadcastPayload) error {
	return b.sendPayloadWithMarkup(chatID, p, nil)
}

func (b *Bot) sendPayloadWithMarkup(chatID int64, p models.BroadcastPayload, kb *tgbotapi.InlineKeyboardMarkup) error {
	var c tgbotapi.Chattable
	switch p.Kind {
	case models.PayloadPhoto:
		m := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(p.FileID))
		m.Caption = p.Caption
		m.ParseMode = tgbotapi.ModeHTML
		if kb != nil {
			m.ReplyMarkup = *kb
		}
		c = m
	case models.PayloadDocument:
		m := tgbotapi.NewDocument(chatID, tgbotapi.FileID(p.FileID))
		m.Caption = p.Caption
		m.ParseMode = tgbotapi.ModeHTML
		if kb != nil {
			m.ReplyMarkup = *kb
		}
		c = m
	case models.PayloadVideo:
		m := tgbotapi.NewVideo(chatID, tgbotapi.FileID(p.FileID))
		m.Caption = p.Caption
		m.ParseMode = tgbotapi.ModeHTML
		if kb != nil {
			m.ReplyMarkup = *kb
		}
		c = m
	case models.PayloadAnimation:
		m := tgbotapi.NewAnimation(chatID, tgbotapi.FileID(p.FileID))
		m.Caption = p.Caption
		m.ParseMode = tgbotapi.ModeHTML
		if kb != nil {
			m.ReplyMarkup = *kb
		}
		c = m
	case models.PayloadAudio:
		m := tgbotapi.NewAudio(chatID, tgbotapi.FileID(p.FileID))
		m.Caption = p.Caption
		m.ParseMode = tgbotapi.ModeHTML
		if kb != nil {
			m.ReplyMarkup = *kb
		}
		c = m
	case models.PayloadVoice:
		m := tgbotapi.NewVoice(chatID, tgbotapi.FileID(p.FileID))
		m.Caption = p.Caption
		m.ParseMode = tgbotapi.ModeHTML
		if kb != nil {
			m.ReplyMarkup = *kb
		}
		c = m
	default:
		text := p.Text
		if text == "" {
			text = " "
		}
		m := tgbotapi.NewMessage(chatID, text)
		m.ParseMode = tgbotapi.ModeHTML
		if kb != nil {
			m.ReplyMarkup = *kb
		}
		c = m
	}
	_, err := b.send(c)
	return err
}

// forwardMessage re-sends an incoming message's content to another chat with
// the given caption (relay, once-messages, quick replies).
func (b *Bot) forwardMessage(chatID int64, msg *tgbotapi.Message, caption string) error {
	p := packPayload(msg)
	if p.Kind == models.PayloadText {
		p.Text = caption
	} else {
		p.Caption = caption
	}
	return b.sendPayload(chatID, p)
}
