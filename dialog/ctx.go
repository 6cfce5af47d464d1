package dialog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/state"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

const maxEnterDepth = 16

// Ctx is handed to getters and handlers. It carries the triggering event, the
// resolved user state, and the transition operations. A Ctx is only valid for
// the duration of one event; handlers for the same user never overlap.
type Ctx struct {
	Context context.Context
	Event   transport.Event
	User    state.UserState

	rt         *Runtime
	sess       *session
	enterDepth int
}

// Frame returns the top frame of the user's stack, or nil when empty.
func (c *Ctx) Frame() *Frame {
	return c.sess.top()
}

func (c *Ctx) ChatID() int64 {
	return c.sess.chatID
}

func (c *Ctx) Transport() transport.Transport {
	return c.rt.transport
}

func (c *Ctx) Logger() *slog.Logger {
	return c.rt.logger
}

func (c *Ctx) States() *state.Store {
	return c.rt.states
}

// SaveUser persists a mutated user state and refreshes c.User.
func (c *Ctx) SaveUser(st state.UserState) error {
	if err := c.rt.states.Save(st); err != nil {
		return err
	}
	c.User = st
	return nil
}

// Start opens a dialog. stateTag "" means the dialog's entry screen. With
// StartNormal the current frame stays below the new one and is resumed when
// the child calls Finish.
func (c *Ctx) Start(dialogID string, stateTag State, mode StartMode, startData map[string]any) error {
	d, ok := c.rt.registry.Get(dialogID)
	if !ok {
		return fmt.Errorf("dialog: unknown dialog %q", dialogID)
	}
	if stateTag == "" {
		stateTag = d.Entry
	}
	if _, ok := d.Screen(stateTag); !ok {
		return fmt.Errorf("dialog %s: unknown state %q", dialogID, stateTag)
	}

	showMode := ShowEdit
	switch mode {
	case StartResetStack:
		c.sess.stack = nil
	case StartNewStack:
		c.sess.stack = nil
		showMode = ShowSend
	}

	frame := &Frame{
		DialogID:  dialogID,
		State:     stateTag,
		ShowMode:  showMode,
		StartData: startData,
	}
	if mode != StartNormal && len(c.sess.stack) == 0 {
		// A reset keeps editing the previous card only if one exists.
		frame.MessageID = c.sess.lastMessageID
	}
	if d.NewData != nil {
		frame.Data = d.NewData(startData)
	}
	if parent := c.sess.top(); parent != nil && mode == StartNormal {
		// Nested dialogs reuse the parent's rendered message.
		frame.MessageID = parent.MessageID
	}
	c.sess.push(frame)

	return c.runOnEnter(frame)
}

// SwitchTo moves the current frame to another state of the same dialog.
func (c *Ctx) SwitchTo(stateTag State, mode ...ShowMode) error {
	frame := c.sess.top()
	if frame == nil {
		return fmt.Errorf("dialog: switch_to with empty stack")
	}
	d, ok := c.rt.registry.Get(frame.DialogID)
	if !ok {
		return fmt.Errorf("dialog: unknown dialog %q", frame.DialogID)
	}
	if _, ok := d.Screen(stateTag); !ok {
		return fmt.Errorf("dialog %s: unknown state %q", frame.DialogID, stateTag)
	}
	frame.State = stateTag
	if len(mode) > 0 {
		frame.ShowMode = mode[0]
	}
	return c.runOnEnter(frame)
}

// Finish pops the current frame. When a parent frame exists its screen's
// OnResume receives result; otherwise the runtime's entry dialog is opened.
func (c *Ctx) Finish(result any) error {
	finished := c.sess.pop()
	if finished == nil {
		return fmt.Errorf("dialog: finish with empty stack")
	}
	parent := c.sess.top()
	if parent == nil {
		return c.Start(c.rt.entryDialog, "", StartResetStack, nil)
	}
	parent.MessageID = finished.MessageID
	screen, err := c.rt.screenOf(parent)
	if err != nil {
		return err
	}
	if screen.OnResume != nil {
		return screen.OnResume(c, result)
	}
	return nil
}

// Show renders the current screen immediately using its show mode. The
// post-handler render is suppressed so getters with one-shot data (validation
// flags, notices) run exactly once per event.
func (c *Ctx) Show() error {
	if err := c.rt.render(c); err != nil {
		return err
	}
	if frame := c.sess.top(); frame != nil {
		frame.ShowMode = ShowNoUpdate
	}
	return nil
}

// Find returns the widget with the given id on the current screen, or nil.
// Callers type-assert to the concrete widget (e.g. *Checkbox) for state
// queries.
func (c *Ctx) Find(key string) Widget {
	frame := c.sess.top()
	if frame == nil {
		return nil
	}
	screen, err := c.rt.screenOf(frame)
	if err != nil {
		return nil
	}
	return screen.findWidget(key)
}

// Toast answers the triggering callback query with a short notification.
// Used for precondition refusals that must not advance the screen.
func (c *Ctx) Toast(text string) {
	if c.Event.CallbackID == "" {
		return
	}
	if err := c.rt.transport.AnswerCallback(c.Context, c.Event.CallbackID, text, false); err != nil {
		c.rt.logger.Warn("callback_answer_failed", "error", err.Error())
	}
}

// StartAction starts an auto-renewing chat action for this chat.
func (c *Ctx) StartAction(action string) func() {
	return c.rt.transport.StartAction(c.Context, c.sess.chatID, action)
}

func (c *Ctx) runOnEnter(frame *Frame) error {
	screen, err := c.rt.screenOf(frame)
	if err != nil {
		return err
	}
	if screen.OnEnter == nil {
		return nil
	}
	if c.enterDepth >= maxEnterDepth {
		return fmt.Errorf("dialog %s: on_enter transition loop at %q", frame.DialogID, frame.State)
	}
	c.enterDepth++
	defer func() { c.enterDepth-- }()
	return screen.OnEnter(c)
}
