// Package channelreader reads recent posts from public Telegram channels.
// The brief flow feeds them to the model as style references.
package channelreader

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrChannelNotFound means the username does not resolve to a channel.
	ErrChannelNotFound = errors.New("channelreader: channel not found")
	// ErrAccessDenied means the channel exists but its history is not
	// readable (private channel or missing permission).
	ErrAccessDenied = errors.New("channelreader: access denied")
)

// Post is one channel message, newest first in RecentPosts output.
type Post struct {
	ID    int
	Date  time.Time
	Text  string
	Views int
	Link  string
}

// Reader fetches the most recent posts of a public channel by username
// (without the @ prefix).
type Reader interface {
	RecentPosts(ctx context.Context, username string, limit int) ([]Post, error)
}

var usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{4,31}$`)

// ValidUsername reports whether s is a plausible public channel username.
// A leading @ is tolerated.
func ValidUsername(s string) bool {
	return usernameRe.MatchString(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}
