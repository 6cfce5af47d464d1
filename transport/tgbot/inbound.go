package tgbot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// EventFromUpdate normalizes a Telegram update into a transport event. The
// second return value is false for update kinds the bot ignores.
func EventFromUpdate(u tgbotapi.Update) (transport.Event, bool) {
	if u.CallbackQuery != nil {
		cb := u.CallbackQuery
		if cb.Message == nil || cb.From == nil {
			return transport.Event{}, false
		}
		return transport.Event{
			UserID:       cb.From.ID,
			ChatID:       cb.Message.Chat.ID,
			MessageID:    int64(cb.Message.MessageID),
			Kind:         transport.EventCallback,
			Username:     cb.From.UserName,
			CallbackID:   cb.ID,
			CallbackData: cb.Data,
		}, true
	}

	msg := u.Message
	if msg == nil || msg.Chat == nil || msg.From == nil || msg.From.IsBot {
		return transport.Event{}, false
	}

	ev := transport.Event{
		UserID:    msg.From.ID,
		ChatID:    msg.Chat.ID,
		MessageID: int64(msg.MessageID),
		Username:  msg.From.UserName,
		Text:      strings.TrimSpace(msg.Text),
	}
	if msg.Caption != "" {
		ev.Text = strings.TrimSpace(msg.Caption)
	}
	if msg.ForwardFrom != nil {
		ev.ForwardedFrom = displayName(msg.ForwardFrom)
	} else if msg.ForwardSenderName != "" {
		ev.ForwardedFrom = msg.ForwardSenderName
	} else if msg.ForwardFromChat != nil {
		ev.ForwardedFrom = msg.ForwardFromChat.Title
	}
	if msg.ReplyToMessage != nil {
		ev.ReplyToText = strings.TrimSpace(msg.ReplyToMessage.Text)
		if ev.ReplyToText == "" {
			ev.ReplyToText = strings.TrimSpace(msg.ReplyToMessage.Caption)
		}
	}

	switch {
	case msg.IsCommand():
		ev.Kind = transport.EventCommand
		ev.Command = msg.Command()
		ev.Text = strings.TrimSpace(msg.CommandArguments())
	case len(msg.Photo) > 0:
		ev.Kind = transport.EventPhoto
		best := msg.Photo[len(msg.Photo)-1]
		ev.FileID = best.FileID
		ev.FileSize = int64(best.FileSize)
		ev.MimeType = "image/jpeg"
	case msg.Voice != nil:
		ev.Kind = transport.EventVoice
		ev.FileID = msg.Voice.FileID
		ev.FileSize = int64(msg.Voice.FileSize)
		ev.MimeType = msg.Voice.MimeType
		ev.FileName = "voice.ogg"
	case msg.Audio != nil:
		ev.Kind = transport.EventAudio
		ev.FileID = msg.Audio.FileID
		ev.FileSize = int64(msg.Audio.FileSize)
		ev.MimeType = msg.Audio.MimeType
		ev.FileName = msg.Audio.FileName
	case msg.Video != nil:
		ev.Kind = transport.EventVideo
		ev.FileID = msg.Video.FileID
		ev.FileSize = int64(msg.Video.FileSize)
		ev.MimeType = msg.Video.MimeType
		ev.FileName = msg.Video.FileName
	case msg.Document != nil:
		// Uncompressed images arrive as documents.
		ev.Kind = transport.EventPhoto
		ev.FileID = msg.Document.FileID
		ev.FileSize = int64(msg.Document.FileSize)
		ev.MimeType = msg.Document.MimeType
		ev.FileName = msg.Document.FileName
	case ev.Text != "":
		ev.Kind = transport.EventText
	default:
		return transport.Event{}, false
	}
	return ev, true
}

func displayName(u *tgbotapi.User) string {
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	case u.UserName != "":
		return "@" + u.UserName
	default:
		return ""
	}
}
