// Package alerts consumes moderation and generation events from RabbitMQ and
// turns them into pending alerts plus push messages for the affected user.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/retryutil"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/textutil"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/state"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/transport"
)

// ErrPoison marks an undecodable event. Poison deliveries are acked and
// dropped instead of requeued.
var ErrPoison = errors.New("alerts: poison message")

// Event is the wire format published by the content backend.
type Event struct {
	Kind           string `json:"kind"`
	AccountID      string `json:"account_id"`
	OrganizationID string `json:"organization_id"`
	PublicationID  string `json:"publication_id,omitempty"`
	VideoCutID     string `json:"video_cut_id,omitempty"`
	Comment        string `json:"comment,omitempty"`
	Link           string `json:"link,omitempty"`
}

// Sink is the outbound slice of the transport the consumer pushes through.
type Sink interface {
	Send(ctx context.Context, msg transport.Message) (int64, error)
}

type Handler struct {
	States *state.Store
	Sink   Sink
	Logger *slog.Logger
}

// Handle records the alert for later display and pushes an immediate
// notification when the user allows it. Unknown account ids are dropped; the
// event may belong to a user of another frontend.
func (h *Handler) Handle(ctx context.Context, ev Event) error {
	kind := state.AlertKind(ev.Kind)
	switch kind {
	case state.AlertVideoGenerated, state.AlertPublicationApproved, state.AlertPublicationRejected:
	default:
		h.Logger.Warn("alert_unknown_kind", "kind", ev.Kind)
		return nil
	}

	st, err := h.States.FindByAccount(ev.AccountID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			h.Logger.Info("alert_account_unknown", "account_id", ev.AccountID, "kind", ev.Kind)
			return nil
		}
		return err
	}

	payload := map[string]any{
		"publication_id": ev.PublicationID,
		"video_cut_id":   ev.VideoCutID,
		"comment":        ev.Comment,
		"link":           ev.Link,
	}
	if _, err := h.States.AddAlert(st.ID, kind, payload); err != nil {
		return err
	}
	h.Logger.Info("alert_recorded", "state_id", st.ID, "kind", ev.Kind)

	if !st.CanShowAlerts {
		return nil
	}
	push := transport.Message{ChatID: st.TgChatID, Text: pushText(kind, ev)}
	if _, err := h.Sink.Send(ctx, push); err != nil {
		// The alert is stored; the push gets one delayed retry and is
		// otherwise best effort.
		h.Logger.Warn("alert_push_failed", "state_id", st.ID, "error", err)
		retryutil.AsyncRetry(h.Logger, "alert_push", 0, 0, func(ctx context.Context) error {
			_, err := h.Sink.Send(ctx, push)
			return err
		})
	}
	return nil
}

func pushText(kind state.AlertKind, ev Event) string {
	switch kind {
	case state.AlertPublicationApproved:
		return "✅ Ваша публикация была одобрена и опубликована."
	case state.AlertPublicationRejected:
		if ev.Comment != "" {
			return "❌ Ваша публикация была отклонена модератором.\nКомментарий: " + ev.Comment
		}
		return "❌ Ваша публикация была отклонена модератором."
	case state.AlertVideoGenerated:
		return "🎬 Готово новое " + textutil.VideoWord(1) + "! Откройте меню, чтобы посмотреть."
	}
	return ""
}

// DecodeEvent unmarshals a delivery body, mapping decode failures to
// ErrPoison.
func DecodeEvent(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrPoison, err)
	}
	return ev, nil
}

// ConsumerConfig describes the queue topology of the alerts consumer.
type ConsumerConfig struct {
	URL        string
	Exchange   string
	Queue      string
	BindingKey string
	Prefetch   int
}

// Consumer is a supervised RabbitMQ consumer: it re-opens the channel when
// the broker closes it and nacks transient failures back to the queue.
type Consumer struct {
	cfg     ConsumerConfig
	handler *Handler
	log     *slog.Logger
}

func NewConsumer(cfg ConsumerConfig, handler *Handler, log *slog.Logger) *Consumer {
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{cfg: cfg, handler: handler, log: log}
}

// Run blocks until ctx is done, consuming alert events. Connection-level
// failures propagate to the caller, which restarts Run with backoff.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("alerts: dial: %w", err)
	}
	defer conn.Close()

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		if err := c.consumeOnce(ctx, conn); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-connClosed:
			return fmt.Errorf("alerts: connection closed: %v", amqpErr)
		default:
			// Channel closed but the connection survived; reopen.
			c.log.Warn("alerts_channel_reopened")
		}
	}
}

func (c *Consumer) consumeOnce(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("alerts: open channel: %w", err)
	}
	defer ch.Close()

	prefetch := c.cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("alerts: qos: %w", err)
	}
	if err := c.declareTopology(ch); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("alerts: consume: %w", err)
	}
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	c.log.Info("alerts_consumer_started", "queue", c.cfg.Queue, "prefetch", prefetch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-chClosed:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	ev, err := DecodeEvent(d.Body)
	if err != nil {
		c.log.Error("alert_event_poison", "error", err)
		_ = d.Ack(false)
		return
	}
	if err := c.handler.Handle(ctx, ev); err != nil {
		c.log.Error("alert_event_failed", "kind", ev.Kind, "error", err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func (c *Consumer) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("alerts: declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("alerts: declare queue: %w", err)
	}
	if err := ch.QueueBind(c.cfg.Queue, c.cfg.BindingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("alerts: bind queue: %w", err)
	}
	return nil
}
