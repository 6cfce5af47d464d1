// Package dialog implements the stack-based screen runtime behind the bot:
// per-user dialog stacks, a screen registry, an event router with per-user
// serialization, and the render loop that turns screens into chat messages.
package dialog

import (
	"fmt"
	"text/template"
)

// State tags one screen inside a dialog.
type State string

// ShowMode tells the renderer how to deliver the next screen.
type ShowMode string

const (
	// ShowEdit updates the last bot message in place.
	ShowEdit ShowMode = "edit"
	// ShowSend appends a new message, keeping the previous one.
	ShowSend ShowMode = "send"
	// ShowDeleteAndSend best-effort deletes the previous message and sends
	// a fresh one.
	ShowDeleteAndSend ShowMode = "delete_and_send"
	// ShowNoUpdate suppresses rendering for this event.
	ShowNoUpdate ShowMode = "no_update"
)

// StartMode controls what happens to the existing stack on Start.
type StartMode int

const (
	// StartNormal pushes a new frame on top of the stack (nested
	// sub-dialog; Finish returns to the current frame).
	StartNormal StartMode = iota
	// StartResetStack discards all frames before pushing the new one.
	StartResetStack
	// StartNewStack discards all frames and renders the entry screen as a
	// fresh message instead of editing the previous one.
	StartNewStack
)

// Frame is one screen instance on a user's dialog stack. A frame exclusively
// owns its Data; the runtime guarantees handlers for one user never run
// concurrently.
type Frame struct {
	DialogID  string
	State     State
	ShowMode  ShowMode
	Data      any
	StartData map[string]any

	// MessageID is the chat message the frame last rendered into.
	MessageID int64

	checkboxes map[string]bool
}

func (f *Frame) checkbox(key string) (bool, bool) {
	v, ok := f.checkboxes[key]
	return v, ok
}

func (f *Frame) setCheckbox(key string, v bool) {
	if f.checkboxes == nil {
		f.checkboxes = make(map[string]bool)
	}
	f.checkboxes[key] = v
}

// Dialog is a registered set of screens sharing one state namespace.
type Dialog struct {
	ID      string
	Entry   State
	NewData func(startData map[string]any) any

	screens map[State]*Screen
}

func NewDialog(id string, entry State, screens ...*Screen) (*Dialog, error) {
	if id == "" {
		return nil, fmt.Errorf("dialog: id is required")
	}
	d := &Dialog{ID: id, Entry: entry, screens: make(map[State]*Screen, len(screens))}
	for _, s := range screens {
		if s == nil || s.State == "" {
			return nil, fmt.Errorf("dialog %s: screen without state tag", id)
		}
		if _, dup := d.screens[s.State]; dup {
			return nil, fmt.Errorf("dialog %s: duplicate state %q", id, s.State)
		}
		d.screens[s.State] = s
	}
	if _, ok := d.screens[entry]; !ok {
		return nil, fmt.Errorf("dialog %s: entry state %q is not registered", id, entry)
	}
	return d, nil
}

func (d *Dialog) Screen(state State) (*Screen, bool) {
	s, ok := d.screens[state]
	return s, ok
}

// Registry holds all registered dialogs. Immutable after setup.
type Registry struct {
	dialogs map[string]*Dialog
}

func NewRegistry() *Registry {
	return &Registry{dialogs: make(map[string]*Dialog)}
}

func (r *Registry) Register(d *Dialog) error {
	if d == nil || d.ID == "" {
		return fmt.Errorf("dialog: cannot register empty dialog")
	}
	if _, dup := r.dialogs[d.ID]; dup {
		return fmt.Errorf("dialog: duplicate dialog id %q", d.ID)
	}
	r.dialogs[d.ID] = d
	return nil
}

func (r *Registry) Get(id string) (*Dialog, bool) {
	d, ok := r.dialogs[id]
	return d, ok
}

// Tmpl parses a screen template at registration time. Screen templates are
// Telegram HTML with conditional blocks over the getter's data.
func Tmpl(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}
