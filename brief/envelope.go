package brief

import "strings"

const envelopeReminder = "<system>Отвечай строго одним JSON-объектом. " +
	"Поле message_to_user содержит HTML для Telegram: каждый открывающий тег " +
	"должен иметь закрывающий.</system>"

// Envelope wraps raw user content in the XML-tagged turn format the stage
// prompts expect, with the JSON/HTML reminder the model sees on every turn.
func Envelope(userText string) string {
	return "<user_message>\n" + userText + "\n</user_message>\n" + envelopeReminder
}

// UserText assembles the raw user content of one turn. Forwarded and
// replied-to context is concatenated with the prefixes the prompts describe;
// voice input arrives here already transcribed.
type UserText struct {
	Text          string
	ForwardedFrom string // sender name of a forwarded message
	ForwardedText string
	ReplyToText   string
}

func (u UserText) String() string {
	var b strings.Builder
	if u.ReplyToText != "" {
		b.WriteString("[Ответ на]: ")
		b.WriteString(u.ReplyToText)
		b.WriteString("\n")
	}
	if u.ForwardedText != "" {
		b.WriteString("[Пересланное сообщение]:")
		if u.ForwardedFrom != "" {
			b.WriteString(" (")
			b.WriteString(u.ForwardedFrom)
			b.WriteString(")")
		}
		b.WriteString(" ")
		b.WriteString(u.ForwardedText)
		b.WriteString("\n")
	}
	b.WriteString(u.Text)
	return strings.TrimSpace(b.String())
}
