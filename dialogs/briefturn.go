package dialogs

import (
	"github.com/LoomAI-IT/loom-tg-bot-sub000/brief"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/dialog"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// briefTurn assembles the raw user content of one brief turn from the
// triggering event: forwarded and replied-to context keeps its prefixes, text
// is whatever the caller resolved (possibly a voice transcription).
func briefTurn(ev transport.Event, text string) string {
	u := brief.UserText{ReplyToText: ev.ReplyToText}
	if ev.ForwardedFrom != "" {
		u.ForwardedFrom = ev.ForwardedFrom
		u.ForwardedText = text
	} else {
		u.Text = text
	}
	return u.String()
}

// transcribeVoice downloads a voice/audio message and turns it into text.
func transcribeVoice(c *dialog.Ctx, deps Deps) (string, bool, error) {
	if c.Event.Kind != transport.EventVoice && c.Event.Kind != transport.EventAudio {
		return "", false, nil
	}
	audio, name, err := c.Transport().Download(c.Context, c.Event.FileID)
	if err != nil {
		return "", false, err
	}
	text, err := deps.Editor.TranscribeAudio(c.Context, c.User.OrganizationID, audio, name)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func mapString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func mapStrings(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
