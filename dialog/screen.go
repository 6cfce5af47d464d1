package dialog

import (
	"text/template"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// Screen declares one state of a dialog: how to assemble its render data, the
// message template, the widget set, and lifecycle handlers. Screens are
// immutable after registration.
type Screen struct {
	State State

	// Getter assembles render data. It must be side-effect free; it may
	// read remote collaborators and the frame's volatile data.
	Getter func(*Ctx) (any, error)

	// Template renders the message body from the getter's data.
	Template *template.Template

	// Media optionally attaches an image, computed from the getter's data.
	Media func(c *Ctx, data any) *transport.Media

	Widgets []Widget

	// OnEnter runs after the state tag is set and before the render.
	OnEnter func(*Ctx) error

	// OnResume runs when a nested sub-dialog started with StartNormal
	// finishes; result is whatever the child passed to Finish.
	OnResume func(c *Ctx, result any) error
}

func (s *Screen) data(c *Ctx) (any, error) {
	if s.Getter == nil {
		return struct{}{}, nil
	}
	return s.Getter(c)
}

func (s *Screen) findWidget(key string) Widget {
	for _, w := range s.Widgets {
		if w.Key() == key {
			return w
		}
	}
	return nil
}

func (s *Screen) firstTextInput(data any) *TextInput {
	for _, w := range s.Widgets {
		if ti, ok := w.(*TextInput); ok && ti.visibleFor(data) {
			return ti
		}
	}
	return nil
}

func (s *Screen) firstMediaInput(data any) *MediaInput {
	for _, w := range s.Widgets {
		if mi, ok := w.(*MediaInput); ok && mi.visibleFor(data) {
			return mi
		}
	}
	return nil
}
