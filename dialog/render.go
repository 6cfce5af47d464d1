package dialog

import (
	"fmt"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// render draws the top frame's screen into the chat according to the frame's
// show mode, then resets the mode to ShowEdit.
func (rt *Runtime) render(c *Ctx) error {
	frame := c.sess.top()
	if frame == nil {
		return nil
	}
	mode := frame.ShowMode
	frame.ShowMode = ShowEdit
	if mode == ShowNoUpdate {
		return nil
	}

	screen, err := rt.screenOf(frame)
	if err != nil {
		return err
	}
	msg, err := rt.compose(c, frame, screen)
	if err != nil {
		return err
	}

	switch mode {
	case ShowSend:
		return rt.sendNew(c, frame, msg)
	case ShowDeleteAndSend:
		if frame.MessageID != 0 {
			// Best effort; an already-deleted message is not an error.
			_ = rt.transport.Delete(c.Context, c.sess.chatID, frame.MessageID)
		}
		return rt.sendNew(c, frame, msg)
	default: // ShowEdit
		if frame.MessageID == 0 {
			return rt.sendNew(c, frame, msg)
		}
		if err := rt.transport.Edit(c.Context, frame.MessageID, msg); err != nil {
			// Media added or removed since the last render makes an
			// in-place edit impossible; fall back to replacing the card.
			rt.logger.Warn("render_edit_fallback", "chat_id", c.sess.chatID, "error", err.Error())
			_ = rt.transport.Delete(c.Context, c.sess.chatID, frame.MessageID)
			return rt.sendNew(c, frame, msg)
		}
		return nil
	}
}

func (rt *Runtime) sendNew(c *Ctx, frame *Frame, msg transport.Message) error {
	id, err := rt.transport.Send(c.Context, msg)
	if err != nil {
		return err
	}
	frame.MessageID = id
	c.sess.lastMessageID = id
	return nil
}

func (rt *Runtime) compose(c *Ctx, frame *Frame, screen *Screen) (transport.Message, error) {
	data, err := screen.data(c)
	if err != nil {
		return transport.Message{}, fmt.Errorf("getter %s/%s: %w", frame.DialogID, frame.State, err)
	}

	var body strings.Builder
	if screen.Template != nil {
		if err := screen.Template.Execute(&body, data); err != nil {
			return transport.Message{}, fmt.Errorf("template %s/%s: %w", frame.DialogID, frame.State, err)
		}
	}

	msg := transport.Message{
		ChatID:   c.sess.chatID,
		Text:     strings.TrimSpace(body.String()),
		Keyboard: rt.keyboard(c, frame, screen, data),
	}
	if screen.Media != nil {
		msg.Media = screen.Media(c, data)
	}
	return msg, nil
}

func (rt *Runtime) keyboard(c *Ctx, frame *Frame, screen *Screen, data any) transport.Keyboard {
	var kb transport.Keyboard
	for _, w := range screen.Widgets {
		if !w.visibleFor(data) {
			continue
		}
		switch widget := w.(type) {
		case *Button:
			b := transport.Button{Text: widget.label(data)}
			if widget.URL != "" {
				b.URL = widget.URL
			} else {
				b.CallbackData = callbackData(widget.ID, "")
			}
			kb = append(kb, []transport.Button{b})
		case *Select:
			items := widget.Items(data)
			cols := widget.Columns
			if cols <= 0 {
				cols = 1
			}
			var row []transport.Button
			for _, item := range items {
				row = append(row, transport.Button{
					Text:         item.Label,
					CallbackData: callbackData(widget.ID, item.ID),
				})
				if len(row) == cols {
					kb = append(kb, row)
					row = nil
				}
			}
			if len(row) > 0 {
				kb = append(kb, row)
			}
		case *Checkbox:
			kb = append(kb, []transport.Button{{
				Text:         widget.label(frame),
				CallbackData: callbackData(widget.ID, ""),
			}})
		}
	}
	return kb
}
