// Package brief drives the organization and category brief dialogs with a
// reasoning model that answers in staged JSON. Assistant replies signal stage
// transitions through the presence of specific fields; the orchestrator turns
// those signals into deterministic state-machine steps.
package brief

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/channelreader"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/chathistory"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/htmlutil"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/llm"
)

// Stage tracks where the brief conversation is between calls.
type Stage string

const (
	StageAwaitChannels Stage = "await_channels"
	StageAwaitPosts    Stage = "await_posts"
	StageAwaitTest     Stage = "await_test"
	StageAwaitFinal    Stage = "await_final"
)

// Assistant reply fields that drive stage transitions.
const (
	fieldMessage      = "message_to_user"
	fieldChannel      = "telegram_channel_username"
	fieldChannelList  = "telegram_channel_username_list"
	fieldStage        = "current_stage"
	fieldTestCategory = "test_category"
	fieldTestRef      = "user_text_reference"
	fieldCategoryData = "category_data"
	fieldFinal        = "final_category"
	fieldOrganization = "organization_data"
)

const (
	defaultPostsLimit = 50

	// Cap on model calls per user turn; each auxiliary injection (channel
	// posts, test post, training switch) costs one extra call.
	maxCallsPerTurn = 4

	trainingSwitchTurn = "<system>Финальный этап -- обучение</system>"
)

// HistoryStore is the slice of the chat history store the orchestrator uses.
type HistoryStore interface {
	Get(chatID string) (chathistory.Chat, error)
	Append(chatID, role, text string) (chathistory.Chat, error)
	AddCost(chatID string, cost llm.Cost) (chathistory.Chat, error)
	ClearMessages(chatID string) (chathistory.Chat, error)
}

// TestGenerator renders a sample publication from a tentative category
// profile so the user can judge the style before training starts.
type TestGenerator interface {
	GeneratePreviewText(ctx context.Context, organizationID string, category map[string]any, textReference string) (string, error)
}

// Session is the per-frame orchestrator state, stored in dialog data.
type Session struct {
	ChatID         string
	OrganizationID string
	Stage          Stage
	CategoryDraft  map[string]any
	Cost           llm.Cost
}

// Reply is what a dialog handler renders after one user turn.
type Reply struct {
	MessageToUser    string
	FinalCategory    map[string]any
	OrganizationData map[string]any
}

type Options struct {
	LLM      llm.Client
	History  HistoryStore
	Channels channelreader.Reader
	Tests    TestGenerator
	Logger   *slog.Logger

	Model          string
	FallbackModel  string
	MaxTokens      int
	ThinkingTokens int
	PostsLimit     int
}

type Orchestrator struct {
	llm      llm.Client
	history  HistoryStore
	channels channelreader.Reader
	tests    TestGenerator
	log      *slog.Logger

	model          string
	fallbackModel  string
	maxTokens      int
	thinkingTokens int
	postsLimit     int
}

func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PostsLimit <= 0 {
		opts.PostsLimit = defaultPostsLimit
	}
	return &Orchestrator{
		llm:            opts.LLM,
		history:        opts.History,
		channels:       opts.Channels,
		tests:          opts.Tests,
		log:            opts.Logger,
		model:          opts.Model,
		fallbackModel:  opts.FallbackModel,
		maxTokens:      opts.MaxTokens,
		thinkingTokens: opts.ThinkingTokens,
		postsLimit:     opts.PostsLimit,
	}
}

// Step runs one user turn through the stage protocol: persist the enveloped
// user message, call the model, apply any transition its JSON fields signal,
// and repeat with injected auxiliary turns until the model has nothing more
// to drive. Assistant replies are persisted before their side effects so the
// history the model sees next call matches what produced this reply.
func (o *Orchestrator) Step(ctx context.Context, sess *Session, systemPrompt, userText string) (Reply, error) {
	if _, err := o.history.Append(sess.ChatID, llm.RoleUser, Envelope(userText)); err != nil {
		return Reply{}, fmt.Errorf("brief: persist user turn: %w", err)
	}

	webSearch := true
	var reply Reply
	for call := 0; call < maxCallsPerTurn; call++ {
		obj, cost, err := o.callModel(ctx, sess, systemPrompt, webSearch)
		if err != nil {
			return Reply{}, err
		}
		sess.Cost.Add(cost)
		if _, err := o.history.AddCost(sess.ChatID, cost); err != nil {
			o.log.Warn("brief_cost_persist_failed", "chat_id", sess.ChatID, "error", err)
		}

		reply.MessageToUser = stringField(obj, fieldMessage)

		switch {
		case o.wantsChannelPosts(obj):
			if err := o.injectChannelPosts(ctx, sess, obj); err != nil {
				return Reply{}, err
			}
			sess.Stage = StageAwaitPosts
			// The posts are already in history; a web search would only
			// dilute them.
			webSearch = false
			continue

		case stringField(obj, fieldTestCategory) != "" && stringField(obj, fieldTestRef) != "":
			if err := o.injectTestPost(ctx, sess, obj); err != nil {
				return Reply{}, err
			}
			sess.Stage = StageAwaitTest
			continue

		case mapField(obj, fieldCategoryData) != nil:
			if err := o.startTrainingPhase(sess, mapField(obj, fieldCategoryData)); err != nil {
				return Reply{}, err
			}
			continue

		case mapField(obj, fieldFinal) != nil:
			reply.FinalCategory = mapField(obj, fieldFinal)
			return reply, nil

		case mapField(obj, fieldOrganization) != nil:
			reply.OrganizationData = mapField(obj, fieldOrganization)
			return reply, nil

		default:
			return reply, nil
		}
	}
	o.log.Warn("brief_transition_budget_exhausted", "chat_id", sess.ChatID, "stage", string(sess.Stage))
	return reply, nil
}

// callModel runs one JSON completion against the accumulated history. An
// invalid JSON object or malformed HTML in message_to_user triggers a single
// retry on the cheaper fallback model; after that whatever came back is
// surfaced. Only the accepted reply is persisted, so the retry sees the same
// history as the failed call.
func (o *Orchestrator) callModel(ctx context.Context, sess *Session, systemPrompt string, webSearch bool) (map[string]any, llm.Cost, error) {
	chat, err := o.history.Get(sess.ChatID)
	if err != nil {
		return nil, llm.Cost{}, fmt.Errorf("brief: load history: %w", err)
	}

	var total llm.Cost
	var lastObj map[string]any
	var lastText string
	for attempt, model := range []string{o.model, o.fallbackModel} {
		if model == "" {
			break
		}
		res, err := o.llm.GenerateJSON(ctx, llm.Request{
			Model:           model,
			System:          systemPrompt,
			Messages:        chat.LLMMessages(),
			MaxTokens:       o.maxTokens,
			ThinkingTokens:  o.thinkingTokens,
			EnableWebSearch: webSearch,
			ForceJSON:       true,
		})
		total.Add(res.Cost)
		if err != nil {
			if attempt == 0 {
				o.log.Warn("brief_reply_invalid", "chat_id", sess.ChatID, "model", model, "error", err)
				continue
			}
			return nil, total, fmt.Errorf("brief: model call: %w", err)
		}
		lastObj, lastText = res.JSON, res.Text

		msg := stringField(res.JSON, fieldMessage)
		if attempt == 0 && (msg == "" || htmlutil.Validate(msg) != nil) {
			o.log.Warn("brief_reply_invalid_html", "chat_id", sess.ChatID, "model", model)
			continue
		}
		break
	}
	if lastObj == nil {
		return nil, total, fmt.Errorf("brief: no usable model reply")
	}
	if _, err := o.history.Append(sess.ChatID, llm.RoleAssistant, lastText); err != nil {
		return nil, total, fmt.Errorf("brief: persist assistant turn: %w", err)
	}
	return lastObj, total, nil
}

func (o *Orchestrator) wantsChannelPosts(obj map[string]any) bool {
	if stringField(obj, fieldStage) != "3" {
		return false
	}
	return stringField(obj, fieldChannel) != "" || len(stringListField(obj, fieldChannelList)) > 0
}

func (o *Orchestrator) injectChannelPosts(ctx context.Context, sess *Session, obj map[string]any) error {
	channels := stringListField(obj, fieldChannelList)
	if single := stringField(obj, fieldChannel); single != "" {
		channels = append(channels, single)
	}
	var turn strings.Builder
	for _, ch := range channels {
		if !channelreader.ValidUsername(ch) {
			o.log.Warn("brief_channel_invalid_username", "channel", ch)
			fmt.Fprintf(&turn, "<channel_posts channel=%q error=\"невалидное имя канала\"/>\n", ch)
			continue
		}
		posts, err := o.channels.RecentPosts(ctx, ch, o.postsLimit)
		if err != nil {
			o.log.Warn("brief_channel_fetch_failed", "channel", ch, "error", err)
			switch {
			case errors.Is(err, channelreader.ErrAccessDenied):
				fmt.Fprintf(&turn, "<channel_posts channel=%q error=\"нет доступа к каналу\"/>\n", ch)
			case errors.Is(err, channelreader.ErrChannelNotFound):
				fmt.Fprintf(&turn, "<channel_posts channel=%q error=\"канал не найден\"/>\n", ch)
			default:
				fmt.Fprintf(&turn, "<channel_posts channel=%q error=\"недоступен\"/>\n", ch)
			}
			continue
		}
		fmt.Fprintf(&turn, "<channel_posts channel=%q>\n", ch)
		for i, p := range posts {
			fmt.Fprintf(&turn, "%d. %s\n", i+1, p.Text)
		}
		turn.WriteString("</channel_posts>\n")
		o.log.Info("brief_channel_posts_injected", "chat_id", sess.ChatID, "channel", ch, "count", len(posts))
	}
	_, err := o.history.Append(sess.ChatID, llm.RoleUser, turn.String())
	return err
}

func (o *Orchestrator) injectTestPost(ctx context.Context, sess *Session, obj map[string]any) error {
	category := map[string]any{"name": stringField(obj, fieldTestCategory)}
	if draft := mapField(obj, fieldTestCategory); draft != nil {
		category = draft
	}
	text, err := o.tests.GeneratePreviewText(ctx, sess.OrganizationID, category, stringField(obj, fieldTestRef))
	if err != nil {
		return fmt.Errorf("brief: test generation: %w", err)
	}
	turn := "<test_publication>\n" + text + "\n</test_publication>"
	_, err = o.history.Append(sess.ChatID, llm.RoleUser, turn)
	return err
}

// startTrainingPhase stores the draft category, drops the drafting history
// (token totals survive) and opens the training phase with a system-tagged
// user turn.
func (o *Orchestrator) startTrainingPhase(sess *Session, draft map[string]any) error {
	sess.CategoryDraft = draft
	sess.Stage = StageAwaitFinal
	if _, err := o.history.ClearMessages(sess.ChatID); err != nil {
		return fmt.Errorf("brief: clear history: %w", err)
	}
	_, err := o.history.Append(sess.ChatID, llm.RoleUser, trainingSwitchTurn)
	return err
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		return ""
	}
}

func stringListField(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func mapField(obj map[string]any, key string) map[string]any {
	m, _ := obj[key].(map[string]any)
	return m
}
