package alerts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/state"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

type recordingSink struct {
	sent []transport.Message
	err  error
}

func (r *recordingSink) Send(ctx context.Context, msg transport.Message) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.sent = append(r.sent, msg)
	return int64(len(r.sent)), nil
}

func newHandler(t *testing.T) (*Handler, *state.Store, *recordingSink) {
	t.Helper()
	store, err := state.NewStore(state.StoreOptions{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	sink := &recordingSink{}
	return &Handler{States: store, Sink: sink, Logger: slog.Default()}, store, sink
}

func linkAccount(t *testing.T, store *state.Store, chatID int64, accountID string) state.UserState {
	t.Helper()
	st, err := store.Ensure(chatID, "user")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	st.AccountID = accountID
	if err := store.Save(st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return st
}

func TestHandleRejectedEventStoresAlertAndPushes(t *testing.T) {
	h, store, sink := newHandler(t)
	st := linkAccount(t, store, 100, "acc-1")

	err := h.Handle(context.Background(), Event{
		Kind:          string(state.AlertPublicationRejected),
		AccountID:     "acc-1",
		PublicationID: "pub-1",
		Comment:       "Не по теме",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	alerts, err := store.Alerts(st.ID)
	if err != nil || len(alerts) != 1 {
		t.Fatalf("alerts = %v, %v", alerts, err)
	}
	if alerts[0].Kind != state.AlertPublicationRejected {
		t.Fatalf("kind = %q", alerts[0].Kind)
	}
	if alerts[0].Payload["comment"] != "Не по теме" {
		t.Fatalf("payload = %v", alerts[0].Payload)
	}

	if len(sink.sent) != 1 || sink.sent[0].ChatID != 100 {
		t.Fatalf("push = %+v", sink.sent)
	}
	if !strings.Contains(sink.sent[0].Text, "отклонена") || !strings.Contains(sink.sent[0].Text, "Не по теме") {
		t.Fatalf("push text = %q", sink.sent[0].Text)
	}
}

func TestHandleRespectsAlertOptOut(t *testing.T) {
	h, store, sink := newHandler(t)
	st := linkAccount(t, store, 100, "acc-1")
	st.CanShowAlerts = false
	if err := store.Save(st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	err := h.Handle(context.Background(), Event{
		Kind:      string(state.AlertPublicationApproved),
		AccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(sink.sent) != 0 {
		t.Fatalf("push sent despite opt-out: %+v", sink.sent)
	}
	// The alert is still recorded for the menu badge.
	alerts, _ := store.Alerts(st.ID)
	if len(alerts) != 1 {
		t.Fatalf("alerts = %v", alerts)
	}
}

func TestHandleUnknownAccountIsDropped(t *testing.T) {
	h, _, sink := newHandler(t)
	err := h.Handle(context.Background(), Event{
		Kind:      string(state.AlertVideoGenerated),
		AccountID: "nobody",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(sink.sent) != 0 {
		t.Fatalf("push sent for unknown account")
	}
}

func TestHandlePushFailureDoesNotFailEvent(t *testing.T) {
	h, store, sink := newHandler(t)
	st := linkAccount(t, store, 100, "acc-1")
	sink.err = errors.New("telegram down")

	err := h.Handle(context.Background(), Event{
		Kind:      string(state.AlertPublicationApproved),
		AccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v, alert must not requeue on push failure", err)
	}
	alerts, _ := store.Alerts(st.ID)
	if len(alerts) != 1 {
		t.Fatalf("alert lost: %v", alerts)
	}
}

func TestDecodeEventPoison(t *testing.T) {
	if _, err := DecodeEvent([]byte("{not json")); !errors.Is(err, ErrPoison) {
		t.Fatalf("err = %v, want ErrPoison", err)
	}
	ev, err := DecodeEvent([]byte(`{"kind":"publication_approved","account_id":"acc-1"}`))
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}
	if ev.Kind != "publication_approved" || ev.AccountID != "acc-1" {
		t.Fatalf("event = %+v", ev)
	}
}
