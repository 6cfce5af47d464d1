package tgbot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

func baseMessage() *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 10,
		Chat:      &tgbotapi.Chat{ID: 55},
		From:      &tgbotapi.User{ID: 7, UserName: "ivan"},
	}
}

func TestEventFromUpdateText(t *testing.T) {
	msg := baseMessage()
	msg.Text = " привет "
	ev, ok := EventFromUpdate(tgbotapi.Update{Message: msg})
	if !ok {
		t.Fatalf("EventFromUpdate() ok = false")
	}
	if ev.Kind != transport.EventText || ev.Text != "привет" || ev.ChatID != 55 {
		t.Fatalf("event = %+v", ev)
	}
}

func TestEventFromUpdateCommand(t *testing.T) {
	msg := baseMessage()
	msg.Text = "/start payload"
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}
	ev, ok := EventFromUpdate(tgbotapi.Update{Message: msg})
	if !ok {
		t.Fatalf("EventFromUpdate() ok = false")
	}
	if ev.Kind != transport.EventCommand || ev.Command != "start" || ev.Text != "payload" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestEventFromUpdatePhotoPicksLargest(t *testing.T) {
	msg := baseMessage()
	msg.Caption = "подпись"
	msg.Photo = []tgbotapi.PhotoSize{
		{FileID: "small", FileSize: 100},
		{FileID: "big", FileSize: 9000},
	}
	ev, ok := EventFromUpdate(tgbotapi.Update{Message: msg})
	if !ok {
		t.Fatalf("EventFromUpdate() ok = false")
	}
	if ev.Kind != transport.EventPhoto || ev.FileID != "big" || ev.Text != "подпись" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestEventFromUpdateCallback(t *testing.T) {
	ev, ok := EventFromUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    "d:edit_text",
		From:    &tgbotapi.User{ID: 7},
		Message: baseMessage(),
	}})
	if !ok {
		t.Fatalf("EventFromUpdate() ok = false")
	}
	if ev.Kind != transport.EventCallback || ev.CallbackData != "d:edit_text" || ev.CallbackID != "cb-1" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestEventFromUpdateIgnoresBots(t *testing.T) {
	msg := baseMessage()
	msg.From.IsBot = true
	msg.Text = "x"
	if _, ok := EventFromUpdate(tgbotapi.Update{Message: msg}); ok {
		t.Fatalf("EventFromUpdate() accepted a bot message")
	}
}
