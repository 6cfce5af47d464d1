// Package gotdreader implements channelreader.Reader over MTProto using a
// pre-authorized gotd session file.
package gotdreader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/channelreader"
)

// ErrFloodWaitActive is returned while a FLOOD_WAIT penalty is in effect;
// callers back off instead of retrying.
var ErrFloodWaitActive = errors.New("gotdreader: flood wait active")

var floodWaitRe = regexp.MustCompile(`FLOOD_WAIT \((\d+)\)`)

type Config struct {
	APIID       int
	APIHash     string
	SessionPath string
}

// Reader keeps one long-lived MTProto connection. Start must be called once
// before RecentPosts; the session file must already be authorized.
type Reader struct {
	client *telegram.Client
	log    *slog.Logger
	clock  func() time.Time

	mu             sync.RWMutex
	unhealthyUntil time.Time

	startOnce sync.Once
	ready     chan struct{}
	runErr    error
}

func New(cfg Config, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	client := telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
	})
	return &Reader{
		client: client,
		log:    log,
		clock:  time.Now,
		ready:  make(chan struct{}),
	}
}

// Start launches the background runner and blocks until the connection is
// ready or the client fails to come up.
func (r *Reader) Start(ctx context.Context) error {
	r.startOnce.Do(func() {
		connected := make(chan error, 1)
		go func() {
			err := r.client.Run(ctx, func(runCtx context.Context) error {
				status, err := r.client.Auth().Status(runCtx)
				if err != nil {
					return err
				}
				if !status.Authorized {
					return errors.New("gotdreader: session file is not authorized")
				}
				connected <- nil
				<-runCtx.Done()
				return runCtx.Err()
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error("channel_reader_stopped", "error", err)
			}
			r.mu.Lock()
			r.runErr = err
			r.mu.Unlock()
			select {
			case connected <- err:
			default:
			}
			close(r.ready)
		}()
		if err := <-connected; err != nil {
			r.runErr = err
		}
	})
	return r.runErr
}

// RecentPosts resolves the username and pulls up to limit messages of the
// channel history, newest first. Service messages and empty posts are
// skipped.
func (r *Reader) RecentPosts(ctx context.Context, username string, limit int) ([]channelreader.Post, error) {
	if err := r.checkFloodWait(); err != nil {
		return nil, err
	}
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")

	api := r.client.API()
	resolved, err := api.ContactsResolveUsername(ctx, username)
	if err != nil {
		return nil, r.wrapError(username, err)
	}
	channel := findChannel(resolved.Chats)
	if channel == nil {
		return nil, channelreader.ErrChannelNotFound
	}

	history, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:  &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash},
		Limit: limit,
	})
	if err != nil {
		return nil, r.wrapError(username, err)
	}

	messages, ok := history.(*tg.MessagesChannelMessages)
	if !ok {
		return nil, channelreader.ErrAccessDenied
	}

	posts := make([]channelreader.Post, 0, len(messages.Messages))
	for _, m := range messages.Messages {
		msg, ok := m.(*tg.Message)
		if !ok || msg.Message == "" {
			continue
		}
		posts = append(posts, channelreader.Post{
			ID:    msg.ID,
			Date:  time.Unix(int64(msg.Date), 0),
			Text:  msg.Message,
			Views: msg.Views,
			Link:  fmt.Sprintf("https://t.me/%s/%d", username, msg.ID),
		})
	}
	r.log.Info("channel_posts_fetched", "channel", username, "count", len(posts))
	return posts, nil
}

func findChannel(chats []tg.ChatClass) *tg.Channel {
	for _, chat := range chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return ch
		}
	}
	return nil
}

func (r *Reader) wrapError(username string, err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "USERNAME_NOT_OCCUPIED"), strings.Contains(msg, "USERNAME_INVALID"):
		return channelreader.ErrChannelNotFound
	case strings.Contains(msg, "CHANNEL_PRIVATE"), strings.Contains(msg, "CHANNEL_INVALID"):
		return channelreader.ErrAccessDenied
	}
	if wait, ok := parseFloodWait(err); ok {
		r.mu.Lock()
		r.unhealthyUntil = r.clock().Add(wait)
		r.mu.Unlock()
		r.log.Warn("channel_reader_flood_wait", "channel", username, "wait", wait)
		return fmt.Errorf("%w: %v", ErrFloodWaitActive, wait)
	}
	return err
}

func (r *Reader) checkFloodWait() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.unhealthyUntil.IsZero() && r.clock().Before(r.unhealthyUntil) {
		return fmt.Errorf("%w: until %v", ErrFloodWaitActive, r.unhealthyUntil)
	}
	return nil
}

func parseFloodWait(err error) (time.Duration, bool) {
	matches := floodWaitRe.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0, false
	}
	seconds, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}
