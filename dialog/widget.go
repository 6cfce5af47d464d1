package dialog

import (
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

const callbackPrefix = "d:"

// Widget is a screen element. Buttons, selects and checkboxes render into the
// inline keyboard; text and media inputs bind inbound messages to handlers.
type Widget interface {
	Key() string
	visibleFor(data any) bool
}

type when func(data any) bool

func visible(w when, data any) bool {
	if w == nil {
		return true
	}
	return w(data)
}

// Button invokes its handler on tap. URL buttons open a link instead.
type Button struct {
	ID      string
	Label   string
	LabelFn func(data any) string
	URL     string
	When    when
	OnClick func(*Ctx) error
}

func (b *Button) Key() string              { return b.ID }
func (b *Button) visibleFor(data any) bool { return visible(b.When, data) }

func (b *Button) label(data any) string {
	if b.LabelFn != nil {
		return b.LabelFn(data)
	}
	return b.Label
}

type SelectItem struct {
	ID    string
	Label string
}

// Select renders one button per item; the handler receives the item id.
type Select struct {
	ID       string
	Columns  int
	Items    func(data any) []SelectItem
	When     when
	OnSelect func(c *Ctx, itemID string) error
}

func (s *Select) Key() string              { return s.ID }
func (s *Select) visibleFor(data any) bool { return visible(s.When, data) }

// Checkbox is a managed stateful toggle. Its checked state lives on the
// frame, so any handler can query it through Find.
type Checkbox struct {
	ID       string
	Label    string
	Default  bool
	When     when
	OnToggle func(c *Ctx, checked bool) error
}

func (cb *Checkbox) Key() string              { return cb.ID }
func (cb *Checkbox) visibleFor(data any) bool { return visible(cb.When, data) }

func (cb *Checkbox) IsChecked(f *Frame) bool {
	if v, ok := f.checkbox(cb.ID); ok {
		return v
	}
	return cb.Default
}

func (cb *Checkbox) SetChecked(f *Frame, v bool) {
	f.setCheckbox(cb.ID, v)
}

func (cb *Checkbox) label(f *Frame) string {
	if cb.IsChecked(f) {
		return "✅ " + cb.Label
	}
	return "☑️ " + cb.Label
}

// TextInput binds plain text messages to a handler.
type TextInput struct {
	ID      string
	When    when
	OnInput func(c *Ctx, text string) error
}

func (t *TextInput) Key() string              { return t.ID }
func (t *TextInput) visibleFor(data any) bool { return visible(t.When, data) }

// MediaInput binds photo/voice/audio/video messages to a handler. The handler
// receives the raw event, including caption text and file metadata.
type MediaInput struct {
	ID      string
	When    when
	OnInput func(c *Ctx, ev transport.Event) error
}

func (m *MediaInput) Key() string              { return m.ID }
func (m *MediaInput) visibleFor(data any) bool { return visible(m.When, data) }

func callbackData(widgetID string, itemID string) string {
	if itemID == "" {
		return callbackPrefix + widgetID
	}
	return callbackPrefix + widgetID + ":" + itemID
}

func parseCallbackData(data string) (widgetID, itemID string, ok bool) {
	if !strings.HasPrefix(data, callbackPrefix) {
		return "", "", false
	}
	rest := data[len(callbackPrefix):]
	if rest == "" {
		return "", "", false
	}
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		return rest[:i], rest[i+1:], true
	}
	return rest, "", true
}
