// Package tgbot adapts the Telegram Bot API to the transport contract.
package tgbot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

const actionRenewInterval = 4 * time.Second

type Transport struct {
	api  *tgbotapi.BotAPI
	http *http.Client
}

func New(token string) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("tgbot: create bot api: %w", err)
	}
	return &Transport{
		api:  api,
		http: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (t *Transport) Self() string {
	return t.api.Self.UserName
}

// Updates returns the long-poll update channel.
func (t *Transport) Updates(timeout int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	return t.api.GetUpdatesChan(u)
}

func (t *Transport) StopUpdates() {
	t.api.StopReceivingUpdates()
}

func (t *Transport) Send(ctx context.Context, msg transport.Message) (int64, error) {
	markup := inlineKeyboard(msg.Keyboard)
	if msg.Media != nil {
		photo := tgbotapi.NewPhoto(msg.ChatID, mediaFile(msg.Media))
		photo.Caption = msg.Text
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = markup
		sent, err := t.api.Send(photo)
		if err != nil {
			return 0, fmt.Errorf("tgbot: send photo: %w", err)
		}
		return int64(sent.MessageID), nil
	}

	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	out.ReplyMarkup = markup
	sent, err := t.api.Send(out)
	if err != nil {
		return 0, fmt.Errorf("tgbot: send message: %w", err)
	}
	return int64(sent.MessageID), nil
}

func (t *Transport) Edit(ctx context.Context, messageID int64, msg transport.Message) error {
	markup := inlineKeyboard(msg.Keyboard)

	if msg.Media != nil {
		media := tgbotapi.NewInputMediaPhoto(mediaFile(msg.Media))
		media.Caption = msg.Text
		media.ParseMode = tgbotapi.ModeHTML
		edit := tgbotapi.EditMessageMediaConfig{
			BaseEdit: tgbotapi.BaseEdit{
				ChatID:    msg.ChatID,
				MessageID: int(messageID),
			},
			Media: media,
		}
		if markup != nil {
			edit.ReplyMarkup = markup
		}
		if _, err := t.api.Request(edit); err != nil {
			return fmt.Errorf("tgbot: edit media: %w", err)
		}
		return nil
	}

	edit := tgbotapi.NewEditMessageText(msg.ChatID, int(messageID), msg.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = markup
	if _, err := t.api.Request(edit); err != nil {
		// The target message may be a photo card; retry as a caption edit.
		if strings.Contains(err.Error(), "no text in the message") {
			capEdit := tgbotapi.NewEditMessageCaption(msg.ChatID, int(messageID), msg.Text)
			capEdit.ParseMode = tgbotapi.ModeHTML
			capEdit.ReplyMarkup = markup
			if _, capErr := t.api.Request(capEdit); capErr != nil {
				return fmt.Errorf("tgbot: edit caption: %w", capErr)
			}
			return nil
		}
		return fmt.Errorf("tgbot: edit message: %w", err)
	}
	return nil
}

func (t *Transport) Delete(ctx context.Context, chatID, messageID int64) error {
	del := tgbotapi.NewDeleteMessage(chatID, int(messageID))
	if _, err := t.api.Request(del); err != nil {
		return fmt.Errorf("tgbot: delete message: %w", err)
	}
	return nil
}

func (t *Transport) AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error {
	answer := tgbotapi.NewCallback(callbackID, text)
	answer.ShowAlert = showAlert
	if _, err := t.api.Request(answer); err != nil {
		return fmt.Errorf("tgbot: answer callback: %w", err)
	}
	return nil
}

func (t *Transport) Download(ctx context.Context, fileID string) ([]byte, string, error) {
	file, err := t.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("tgbot: get file: %w", err)
	}
	url := file.Link(t.api.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("tgbot: download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("tgbot: download http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	name := file.FilePath
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return data, name, nil
}

// StartAction renews the chat action until the returned stop function is
// called. Telegram drops the indicator after ~5s, hence the ticker.
func (t *Transport) StartAction(ctx context.Context, chatID int64, action string) func() {
	if action == "" {
		action = "typing"
	}
	done := make(chan struct{})
	send := func() {
		_, _ = t.api.Request(tgbotapi.NewChatAction(chatID, action))
	}
	send()
	go func() {
		ticker := time.NewTicker(actionRenewInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				send()
			}
		}
	}()
	var once bool
	return func() {
		if once {
			return
		}
		once = true
		close(done)
	}
}

func mediaFile(m *transport.Media) tgbotapi.RequestFileData {
	switch {
	case m.FileID != "":
		return tgbotapi.FileID(m.FileID)
	case m.URL != "":
		return tgbotapi.FileURL(m.URL)
	default:
		return tgbotapi.FileBytes{Name: m.Name, Bytes: m.Bytes}
	}
}

func inlineKeyboard(kb transport.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		rows = append(rows, buttons)
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
