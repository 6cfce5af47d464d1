package gotdreader

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/channelreader"
)

func testReader() *Reader {
	return &Reader{log: slog.Default(), clock: time.Now}
}

func TestParseFloodWait(t *testing.T) {
	wait, ok := parseFloodWait(errors.New("rpc error code 420: FLOOD_WAIT (37)"))
	if !ok || wait != 37*time.Second {
		t.Fatalf("parseFloodWait() = %v, %v", wait, ok)
	}
	if _, ok := parseFloodWait(errors.New("CHANNEL_PRIVATE")); ok {
		t.Fatalf("non flood-wait error parsed")
	}
}

func TestWrapErrorMapsTelegramCodes(t *testing.T) {
	r := testReader()
	cases := []struct {
		in   string
		want error
	}{
		{"rpc error code 400: USERNAME_NOT_OCCUPIED", channelreader.ErrChannelNotFound},
		{"rpc error code 400: USERNAME_INVALID", channelreader.ErrChannelNotFound},
		{"rpc error code 400: CHANNEL_PRIVATE", channelreader.ErrAccessDenied},
	}
	for _, tc := range cases {
		if got := r.wrapError("ch", errors.New(tc.in)); !errors.Is(got, tc.want) {
			t.Errorf("wrapError(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFloodWaitMakesReaderUnhealthy(t *testing.T) {
	r := testReader()
	err := r.wrapError("ch", errors.New("FLOOD_WAIT (60)"))
	if !errors.Is(err, ErrFloodWaitActive) {
		t.Fatalf("wrapError() = %v", err)
	}
	if err := r.checkFloodWait(); !errors.Is(err, ErrFloodWaitActive) {
		t.Fatalf("checkFloodWait() = %v, want active penalty", err)
	}
	// Penalty expires with the clock.
	r.clock = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := r.checkFloodWait(); err != nil {
		t.Fatalf("checkFloodWait() after expiry = %v", err)
	}
}
