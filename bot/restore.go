package bot

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"kit-telegram/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const restoreHintText = "♻️ Режим восстановления включён.\n" +
	"Пришлите ZIP (предпочтительно) или один из JSON:\n" +
	"• <code>paid_users.json</code>\n" +
	"• <code>kit_assets.json</code>\n\n" +
	"Отмена: /cancel"

// createAndSendBackup zips both documents, sends the archive to the admin
// and arms restore mode so the same archive can be pushed straight back.
func (b *Bot) createAndSendBackup(chatID int64) {
	zipPath, err := b.store.CreateBackupZip()
	if err != nil {
		log.Error().Err(err).Msg("backup create failed")
		b.sendHTML(chatID, "❌ Ошибка при создании или отправке бэкапа.", kbAdminBack())
		return
	}
	zipName := filepath.Base(zipPath)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(zipPath))
	doc.Caption = fmt.Sprintf(
		"💾 <b>Backup создан:</b> <code>%s</code>\n\n"+
			"♻️ Для восстановления пришлите этот ZIP <i>ответом</i> на это сообщение\n"+
			"или используйте команду /restore_backup.\n\nОтмена восстановления: /cancel", zipName)
	doc.ParseMode = tgbotapi.ModeHTML
	doc.ReplyMarkup = *kbAdminBack()
	if _, err := b.send(doc); err != nil {
		log.Error().Err(err).Msg("backup send failed")
		b.sendHTML(chatID, "❌ Ошибка при создании или отправке бэкапа.", kbAdminBack())
		return
	}
	log.Info().Str("file", zipName).Msg("backup sent to admin")
	b.sessions.Set(b.admin, services.Session{Kind: services.StateAwaitingRestoreFile})
}

func (b *Bot) restoreStart(chatID int64) {
	b.sessions.Set(b.admin, services.Session{Kind: services.StateAwaitingRestoreFile})
	b.sendHTML(chatID, restoreHintText, nil)
}

// restoreFromDocument downloads the uploaded archive and applies it through
// the store. Per-entry failures are reported without dropping what did apply.
func (b *Bot) restoreFromDocument(msg *tgbotapi.Message) {
	if msg.Document == nil {
		b.sendHTML(msg.Chat.ID, "⚠️ Пришлите .zip или .json файлом.", nil)
		return
	}

	data, err := b.downloadFile(msg.Document.FileID)
	if err != nil {
		log.Error().Err(err).Str("file", msg.Document.FileName).Msg("restore download failed")
		b.sendHTML(msg.Chat.ID, fmt.Sprintf("❌ Не удалось скачать файл: %v", err), nil)
		return
	}

	result, err := b.store.Restore(msg.Document.FileName, data)
	if err != nil {
		b.sendHTML(msg.Chat.ID, "⚠️ "+err.Error(), nil)
		return
	}
	b.sessions.Clear(b.admin)

	okList, errList := "—", "—"
	if len(result.Restored) > 0 {
		okList = "• " + strings.Join(result.Restored, "\n• ")
	}
	if len(result.Errors) > 0 {
		errList = "• " + strings.Join(result.Errors, "\n• ")
	}
	b.sendHTML(msg.Chat.ID, fmt.Sprintf(
		"✅ Восстановление завершено.\n\n<b>Обновлены:</b>\n%s\n\n<b>Ошибки:</b>\n%s",
		okList, errList), nil)
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
