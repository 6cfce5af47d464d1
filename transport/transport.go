// Package transport defines the chat-facing boundary of the bot: inbound
// events normalized from the messenger and the outbound message directives
// the dialog runtime issues.
package transport

import "context"

type EventKind string

const (
	EventText     EventKind = "text"
	EventPhoto    EventKind = "photo"
	EventVoice    EventKind = "voice"
	EventAudio    EventKind = "audio"
	EventVideo    EventKind = "video"
	EventCallback EventKind = "callback"
	EventCommand  EventKind = "command"
)

// Event is one normalized inbound interaction.
type Event struct {
	UserID    int64
	ChatID    int64
	MessageID int64
	Kind      EventKind

	// Text carries the message text, or the caption for media events.
	Text     string
	Username string

	// Command without the leading slash, for EventCommand.
	Command string

	// Callback query fields, for EventCallback.
	CallbackID   string
	CallbackData string

	// Media fields. FileID addresses the original-quality variant.
	FileID   string
	FileName string
	FileSize int64
	MimeType string

	// Forward / reply context, concatenated into LLM turns by brief flows.
	ForwardedFrom string
	ReplyToText   string
}

type Button struct {
	Text         string
	CallbackData string
	URL          string
}

type Keyboard [][]Button

// Media attaches one image to an outbound message. Exactly one of URL,
// FileID, Bytes is set.
type Media struct {
	URL    string
	FileID string
	Bytes  []byte
	Name   string
}

type Message struct {
	ChatID   int64
	Text     string // Telegram HTML
	Media    *Media
	Keyboard Keyboard
}

// Transport sends, edits and deletes chat messages and downloads user files.
// Implementations must be safe for concurrent use across chats.
type Transport interface {
	Send(ctx context.Context, msg Message) (messageID int64, err error)
	Edit(ctx context.Context, messageID int64, msg Message) error
	Delete(ctx context.Context, chatID, messageID int64) error
	AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error
	Download(ctx context.Context, fileID string) (data []byte, filename string, err error)

	// StartAction begins an auto-renewing chat action ("typing",
	// "upload_photo") and returns a stop function.
	StartAction(ctx context.Context, chatID int64, action string) (stop func())
}
