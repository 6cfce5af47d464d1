// Package state persists per-user bot state and pending alerts on the
// filesystem. One JSON document per user, keyed by Telegram chat id.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/fsstore"
)

var ErrNotFound = errors.New("state: not found")

type UserState struct {
	ID                string `json:"id"`
	AccountID         string `json:"account_id,omitempty"`
	OrganizationID    string `json:"organization_id,omitempty"`
	TgChatID          int64  `json:"tg_chat_id"`
	TgUsername        string `json:"tg_username,omitempty"`
	CanShowAlerts     bool   `json:"can_show_alerts"`
	ShowErrorRecovery bool   `json:"show_error_recovery"`
}

type AlertKind string

const (
	AlertVideoGenerated      AlertKind = "video_generated"
	AlertPublicationApproved AlertKind = "publication_approved"
	AlertPublicationRejected AlertKind = "publication_rejected"
)

type Alert struct {
	ID        string         `json:"id"`
	StateID   string         `json:"state_id"`
	Kind      AlertKind      `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
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
		return nil, fmt.Errorf("state: dir is required")
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

func (s *Store) userPath(chatID int64) string {
	return filepath.Join(s.dir, "users", strconv.FormatInt(chatID, 10)+".json")
}

func (s *Store) alertsPath(stateID string) string {
	return filepath.Join(s.dir, "alerts", stateID+".json")
}

// Ensure returns the state for chatID, creating it on first contact.
func (s *Store) Ensure(chatID int64, username string) (UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st UserState
	found, err := fsstore.ReadJSON(s.userPath(chatID), &st)
	if err != nil {
		return UserState{}, err
	}
	if found {
		if username != "" && st.TgUsername != username {
			st.TgUsername = username
			if err := fsstore.WriteJSONAtomic(s.userPath(chatID), st, fsstore.FileOptions{}); err != nil {
				return UserState{}, err
			}
		}
		return st, nil
	}

	st = UserState{
		ID:            uuid.NewString(),
		TgChatID:      chatID,
		TgUsername:    username,
		CanShowAlerts: true,
	}
	if err := fsstore.WriteJSONAtomic(s.userPath(chatID), st, fsstore.FileOptions{}); err != nil {
		return UserState{}, err
	}
	return st, nil
}

func (s *Store) Get(chatID int64) (UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st UserState
	found, err := fsstore.ReadJSON(s.userPath(chatID), &st)
	if err != nil {
		return UserState{}, err
	}
	if !found {
		return UserState{}, ErrNotFound
	}
	return st, nil
}

// FindByAccount scans the user files for a matching backend account id.
// Alert events carry account ids, not chat ids. The user base of one bot is
// small enough for a directory scan.
func (s *Store) FindByAccount(accountID string) (UserState, error) {
	if accountID == "" {
		return UserState{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, "users"))
	if err != nil {
		if os.IsNotExist(err) {
			return UserState{}, ErrNotFound
		}
		return UserState{}, err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var st UserState
		found, err := fsstore.ReadJSON(filepath.Join(s.dir, "users", entry.Name()), &st)
		if err != nil || !found {
			continue
		}
		if st.AccountID == accountID {
			return st, nil
		}
	}
	return UserState{}, ErrNotFound
}

func (s *Store) Save(st UserState) error {
	if st.TgChatID == 0 {
		return fmt.Errorf("state: tg_chat_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fsstore.WriteJSONAtomic(s.userPath(st.TgChatID), st, fsstore.FileOptions{})
}

// AddAlert appends a pending alert for the given state id.
func (s *Store) AddAlert(stateID string, kind AlertKind, payload map[string]any) (Alert, error) {
	if stateID == "" {
		return Alert{}, fmt.Errorf("state: state_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var alerts []Alert
	if _, err := fsstore.ReadJSON(s.alertsPath(stateID), &alerts); err != nil {
		return Alert{}, err
	}
	alert := Alert{
		ID:        uuid.NewString(),
		StateID:   stateID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: s.now().UTC(),
	}
	alerts = append(alerts, alert)
	if err := fsstore.WriteJSONAtomic(s.alertsPath(stateID), alerts, fsstore.FileOptions{}); err != nil {
		return Alert{}, err
	}
	return alert, nil
}

func (s *Store) Alerts(stateID string) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var alerts []Alert
	if _, err := fsstore.ReadJSON(s.alertsPath(stateID), &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// ConsumeAlerts removes and returns pending alerts of the given kind. The
// dedicated alert dialog calls this when it opens, so an alert is shown once.
func (s *Store) ConsumeAlerts(stateID string, kind AlertKind) ([]Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var alerts []Alert
	if _, err := fsstore.ReadJSON(s.alertsPath(stateID), &alerts); err != nil {
		return nil, err
	}
	var consumed, kept []Alert
	for _, a := range alerts {
		if a.Kind == kind {
			consumed = append(consumed, a)
		} else {
			kept = append(kept, a)
		}
	}
	if len(consumed) == 0 {
		return nil, nil
	}
	if len(kept) == 0 {
		if err := fsstore.Remove(s.alertsPath(stateID)); err != nil {
			return nil, err
		}
	} else if err := fsstore.WriteJSONAtomic(s.alertsPath(stateID), kept, fsstore.FileOptions{}); err != nil {
		return nil, err
	}
	return consumed, nil
}
