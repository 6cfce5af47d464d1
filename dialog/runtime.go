package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/state"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

const (
	defaultMaxConcurrency    = 8
	defaultCoalesceThreshold = 8

)

// ApologyText is what the error boundary sends when a handler panics or
// returns an unexpected error.
const ApologyText = "Что-то пошло не так. Попробуйте ещё раз или начните заново: /start"

type Options struct {
	Registry  *Registry
	Transport transport.Transport
	States    *state.Store
	Logger    *slog.Logger

	// EntryDialog opens on /start and whenever an event arrives with an
	// empty stack.
	EntryDialog string

	// MaxConcurrency bounds in-flight handlers across all users.
	MaxConcurrency int

	// CoalesceThreshold is the pending-queue length beyond which repeated
	// callback events for the same widget are collapsed to the last one.
	CoalesceThreshold int
}

// Runtime owns every user's dialog stack and serializes their events.
// Events of different users are handled in parallel up to MaxConcurrency.
type Runtime struct {
	registry    *Registry
	transport   transport.Transport
	states      *state.Store
	logger      *slog.Logger
	entryDialog string
	coalesceAt  int

	sem chan struct{}

	mu       sync.Mutex
	sessions map[int64]*session
}

type session struct {
	chatID int64
	stack  []*Frame

	// lastMessageID survives a stack reset so the next dialog can keep
	// editing the same chat card.
	lastMessageID int64

	pendingMu sync.Mutex
	pending   []transport.Event
	wake      chan struct{}
}

func (s *session) top() *Frame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *session) push(f *Frame) {
	s.stack = append(s.stack, f)
}

func (s *session) pop() *Frame {
	if len(s.stack) == 0 {
		return nil
	}
	f := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return f
}

func NewRuntime(opts Options) (*Runtime, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("dialog: registry is required")
	}
	if opts.Transport == nil {
		return nil, fmt.Errorf("dialog: transport is required")
	}
	if opts.States == nil {
		return nil, fmt.Errorf("dialog: state store is required")
	}
	if opts.EntryDialog == "" {
		return nil, fmt.Errorf("dialog: entry dialog is required")
	}
	if _, ok := opts.Registry.Get(opts.EntryDialog); !ok {
		return nil, fmt.Errorf("dialog: entry dialog %q is not registered", opts.EntryDialog)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxConc := opts.MaxConcurrency
	if maxConc <= 0 {
		maxConc = defaultMaxConcurrency
	}
	coalesceAt := opts.CoalesceThreshold
	if coalesceAt <= 0 {
		coalesceAt = defaultCoalesceThreshold
	}
	return &Runtime{
		registry:    opts.Registry,
		transport:   opts.Transport,
		states:      opts.States,
		logger:      logger,
		entryDialog: opts.EntryDialog,
		coalesceAt:  coalesceAt,
		sem:         make(chan struct{}, maxConc),
		sessions:    make(map[int64]*session),
	}, nil
}

// Dispatch enqueues an inbound event. Per chat the queue is FIFO; across
// chats workers run in parallel. Returns immediately.
func (rt *Runtime) Dispatch(ctx context.Context, ev transport.Event) {
	sess := rt.sessionFor(ctx, ev.ChatID)
	sess.enqueue(ev, rt.coalesceAt)
}

// Deliver handles one event synchronously, bypassing the per-chat queue. For
// callers that already serialize events per chat.
func (rt *Runtime) Deliver(ctx context.Context, ev transport.Event) {
	rt.handleEvent(ctx, rt.sessionFor(ctx, ev.ChatID), ev)
}

func (rt *Runtime) sessionFor(ctx context.Context, chatID int64) *session {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if s, ok := rt.sessions[chatID]; ok {
		return s
	}
	s := &session{
		chatID: chatID,
		wake:   make(chan struct{}, 1),
	}
	rt.sessions[chatID] = s
	go rt.worker(ctx, s)
	return s
}

func (s *session) enqueue(ev transport.Event, coalesceAt int) {
	s.pendingMu.Lock()
	coalesced := false
	if ev.Kind == transport.EventCallback && len(s.pending) >= coalesceAt {
		if wid, _, ok := parseCallbackData(ev.CallbackData); ok {
			for i := range s.pending {
				p := s.pending[i]
				if p.Kind != transport.EventCallback {
					continue
				}
				if pw, _, pok := parseCallbackData(p.CallbackData); pok && pw == wid {
					s.pending[i] = ev
					coalesced = true
					break
				}
			}
		}
	}
	if !coalesced {
		s.pending = append(s.pending, ev)
	}
	s.pendingMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) next() (transport.Event, bool) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if len(s.pending) == 0 {
		return transport.Event{}, false
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, true
}

func (rt *Runtime) worker(ctx context.Context, s *session) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
		for {
			ev, ok := s.next()
			if !ok {
				break
			}
			select {
			case rt.sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			rt.handleEvent(ctx, s, ev)
			<-rt.sem
		}
	}
}

// handleEvent is the error boundary: handler panics and errors end here with
// an apology, and the frame is retained so the user can continue.
func (rt *Runtime) handleEvent(ctx context.Context, sess *session, ev transport.Event) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("handler_panic",
				"chat_id", sess.chatID,
				"event_kind", string(ev.Kind),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			rt.apologize(ctx, sess, ev)
		}
	}()

	user, err := rt.states.Ensure(ev.ChatID, ev.Username)
	if err != nil {
		rt.logger.Error("state_ensure_failed", "chat_id", ev.ChatID, "error", err.Error())
		rt.apologize(ctx, sess, ev)
		return
	}

	c := &Ctx{Context: ctx, Event: ev, User: user, rt: rt, sess: sess}

	if err := rt.route(c); err != nil {
		rt.logger.Error("handler_failed",
			"chat_id", sess.chatID,
			"event_kind", string(ev.Kind),
			"error", err.Error(),
		)
		rt.apologize(ctx, sess, ev)
		return
	}

	if err := rt.render(c); err != nil {
		// Render is idempotent; state is not rolled back.
		rt.logger.Error("render_failed", "chat_id", sess.chatID, "error", err.Error())
	}
}

func (rt *Runtime) route(c *Ctx) error {
	ev := c.Event

	if ev.Kind == transport.EventCommand && ev.Command == "start" {
		return c.Start(rt.entryDialog, "", StartResetStack, nil)
	}
	if c.sess.top() == nil {
		return c.Start(rt.entryDialog, "", StartResetStack, nil)
	}

	frame := c.sess.top()
	screen, err := rt.screenOf(frame)
	if err != nil {
		return err
	}

	switch ev.Kind {
	case transport.EventCallback:
		err := rt.routeCallback(c, screen, ev)
		// Always release the spinner; handlers may have toasted already,
		// in which case the extra answer is a no-op failure we ignore.
		_ = rt.transport.AnswerCallback(c.Context, ev.CallbackID, "", false)
		return err

	case transport.EventText:
		data, derr := screen.data(c)
		if derr != nil {
			return derr
		}
		if ti := screen.firstTextInput(data); ti != nil {
			return ti.OnInput(c, ev.Text)
		}
		frame.ShowMode = ShowNoUpdate
		return nil

	case transport.EventPhoto, transport.EventVoice, transport.EventAudio, transport.EventVideo:
		data, derr := screen.data(c)
		if derr != nil {
			return derr
		}
		if mi := screen.firstMediaInput(data); mi != nil {
			return mi.OnInput(c, ev)
		}
		if ev.Kind == transport.EventVoice || ev.Kind == transport.EventAudio {
			// Voice in a text context falls back to the text input; the
			// screen's input handler decides whether to transcribe.
			if ti := screen.firstTextInput(data); ti != nil {
				return ti.OnInput(c, ev.Text)
			}
		}
		frame.ShowMode = ShowNoUpdate
		return nil

	case transport.EventCommand:
		// Unknown commands are ignored without a render.
		frame.ShowMode = ShowNoUpdate
		return nil

	default:
		frame.ShowMode = ShowNoUpdate
		return nil
	}
}

func (rt *Runtime) routeCallback(c *Ctx, screen *Screen, ev transport.Event) error {
	widgetID, itemID, ok := parseCallbackData(ev.CallbackData)
	if !ok {
		c.sess.top().ShowMode = ShowNoUpdate
		return nil
	}
	w := screen.findWidget(widgetID)
	if w == nil {
		// Stale keyboard from a previous screen; ignore silently.
		c.sess.top().ShowMode = ShowNoUpdate
		return nil
	}
	switch widget := w.(type) {
	case *Button:
		if widget.OnClick == nil {
			c.sess.top().ShowMode = ShowNoUpdate
			return nil
		}
		return widget.OnClick(c)
	case *Select:
		if widget.OnSelect == nil {
			c.sess.top().ShowMode = ShowNoUpdate
			return nil
		}
		return widget.OnSelect(c, itemID)
	case *Checkbox:
		frame := c.sess.top()
		checked := !widget.IsChecked(frame)
		widget.SetChecked(frame, checked)
		if widget.OnToggle != nil {
			return widget.OnToggle(c, checked)
		}
		return nil
	default:
		c.sess.top().ShowMode = ShowNoUpdate
		return nil
	}
}

func (rt *Runtime) screenOf(frame *Frame) (*Screen, error) {
	d, ok := rt.registry.Get(frame.DialogID)
	if !ok {
		return nil, fmt.Errorf("dialog: unknown dialog %q", frame.DialogID)
	}
	s, ok := d.Screen(frame.State)
	if !ok {
		return nil, fmt.Errorf("dialog %s: unknown state %q", frame.DialogID, frame.State)
	}
	return s, nil
}

func (rt *Runtime) apologize(ctx context.Context, sess *session, ev transport.Event) {
	if ev.CallbackID != "" {
		_ = rt.transport.AnswerCallback(ctx, ev.CallbackID, "", false)
	}
	if _, err := rt.transport.Send(ctx, transport.Message{ChatID: sess.chatID, Text: ApologyText}); err != nil {
		rt.logger.Error("apology_send_failed", "chat_id", sess.chatID, "error", err.Error())
	}
}
