// Package chathistory persists the ordered LLM transcript of a brief-flow
// session, together with accumulated token costs.
package chathistory

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/fsstore"
	"github.com/LoomAI-IT/loom-tg-bot-sub000/llm"
)

var ErrNotFound = errors.New("chathistory: not found")

type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type Chat struct {
	ID                string    `json:"id"`
	StateID           string    `json:"state_id"`
	Messages          []Message `json:"messages"`
	TotalInputTokens  int       `json:"total_input_tokens"`
	TotalOutputTokens int       `json:"total_output_tokens"`
	RubCost           float64   `json:"rub_cost"`
}

func (c Chat) LLMMessages() []llm.Message {
	out := make([]llm.Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Text})
	}
	return out
}

type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

type StoreOptions struct {
	Dir string
	Now func() time.Time
}

func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("chathistory: dir is required")
	}
	if err := fsstore.EnsureDir(opts.Dir, 0); err != nil {
		return nil, err
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Store{dir: opts.Dir, now: nowFn}, nil
}

func (s *Store) path(chatID string) string {
	return filepath.Join(s.dir, chatID+".json")
}

func (s *Store) Create(stateID string) (Chat, error) {
	if stateID == "" {
		return Chat{}, fmt.Errorf("chathistory: state_id is required")
	}
	chat := Chat{ID: uuid.NewString(), StateID: stateID}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fsstore.WriteJSONAtomic(s.path(chat.ID), chat, fsstore.FileOptions{}); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

func (s *Store) Get(chatID string) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(chatID)
}

func (s *Store) getLocked(chatID string) (Chat, error) {
	var chat Chat
	found, err := fsstore.ReadJSON(s.path(chatID), &chat)
	if err != nil {
		return Chat{}, err
	}
	if !found {
		return Chat{}, ErrNotFound
	}
	return chat, nil
}

// Append adds one message to the transcript, preserving order.
func (s *Store) Append(chatID, role, text string) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, err := s.getLocked(chatID)
	if err != nil {
		return Chat{}, err
	}
	chat.Messages = append(chat.Messages, Message{
		Role:      role,
		Text:      text,
		CreatedAt: s.now().UTC(),
	})
	if err := fsstore.WriteJSONAtomic(s.path(chatID), chat, fsstore.FileOptions{}); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

func (s *Store) AddCost(chatID string, cost llm.Cost) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, err := s.getLocked(chatID)
	if err != nil {
		return Chat{}, err
	}
	chat.TotalInputTokens += cost.InputTokens
	chat.TotalOutputTokens += cost.OutputTokens
	chat.RubCost += cost.RubAmount
	if err := fsstore.WriteJSONAtomic(s.path(chatID), chat, fsstore.FileOptions{}); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

// ClearMessages drops the transcript but keeps the chat and its cost totals.
// The brief flow uses this between the drafting and training phases.
func (s *Store) ClearMessages(chatID string) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, err := s.getLocked(chatID)
	if err != nil {
		return Chat{}, err
	}
	chat.Messages = nil
	if err := fsstore.WriteJSONAtomic(s.path(chatID), chat, fsstore.FileOptions{}); err != nil {
		return Chat{}, err
	}
	return chat, nil
}

func (s *Store) Delete(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsstore.Remove(s.path(chatID))
}
