package editor

import (
	"strings"
	"testing"
)

func TestCheckTextBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		ok    bool
		flags Flags
	}{
		{name: "empty", text: "", flags: Flags{VoidText: true}},
		{name: "whitespace only", text: "   \n", flags: Flags{VoidText: true}},
		{name: "49 runes", text: strings.Repeat("ж", 49), flags: Flags{SmallText: true}},
		{name: "50 runes", text: strings.Repeat("ж", 50), ok: true},
		{name: "3999 runes", text: strings.Repeat("ж", 3999), ok: true},
		{name: "4000 runes", text: strings.Repeat("ж", 4000), ok: true},
		{name: "4001 runes", text: strings.Repeat("ж", 4001), flags: Flags{BigText: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f Flags
			if got := f.CheckText(tc.text); got != tc.ok {
				t.Fatalf("CheckText() = %v, want %v", got, tc.ok)
			}
			if f != tc.flags {
				t.Fatalf("flags = %+v, want %+v", f, tc.flags)
			}
		})
	}
}

func TestCheckPromptBoundaries(t *testing.T) {
	cases := []struct {
		name string
		n    int
		ok   bool
	}{
		{name: "9", n: 9},
		{name: "10", n: 10, ok: true},
		{name: "1000", n: 1000, ok: true},
		{name: "1001", n: 1001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f Flags
			if got := f.CheckPrompt(strings.Repeat("п", tc.n)); got != tc.ok {
				t.Fatalf("CheckPrompt(%d runes) = %v, want %v", tc.n, got, tc.ok)
			}
		})
	}
}

func TestCheckRejectCommentBoundaries(t *testing.T) {
	var f Flags
	if f.CheckRejectComment(strings.Repeat("к", 9)) {
		t.Fatalf("9-rune comment accepted")
	}
	if !f.SmallRejectComment {
		t.Fatalf("SmallRejectComment not set: %+v", f)
	}
	f.Clear()
	if !f.CheckRejectComment(strings.Repeat("к", 500)) {
		t.Fatalf("500-rune comment rejected: %+v", f)
	}
	f.Clear()
	if f.CheckRejectComment(strings.Repeat("к", 501)) {
		t.Fatalf("501-rune comment accepted")
	}
	if !f.BigRejectComment {
		t.Fatalf("BigRejectComment not set: %+v", f)
	}
}

func TestCheckUpload(t *testing.T) {
	var f Flags
	if !f.CheckUpload("image/jpeg", 5<<20) {
		t.Fatalf("valid photo rejected: %+v", f)
	}
	f.Clear()
	if f.CheckUpload("video/mp4", 100) {
		t.Fatalf("video accepted as photo")
	}
	if !f.NotPhoto {
		t.Fatalf("NotPhoto not set: %+v", f)
	}
	f.Clear()
	if f.CheckUpload("image/png", ImageMaxBytes+1) {
		t.Fatalf("oversized photo accepted")
	}
	if !f.BigImage {
		t.Fatalf("BigImage not set: %+v", f)
	}
}

func TestCheckYouTubeURL(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtu.be/dQw4w9WgXcQ",
		"youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/abc123XYZ_-",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://m.youtube.com/watch?v=dQw4w9WgXcQ",
	}
	for _, u := range valid {
		var f Flags
		if !f.CheckYouTubeURL(u) {
			t.Errorf("CheckYouTubeURL(%q) = false, want true", u)
		}
	}
	invalid := []string{
		"",
		"https://vimeo.com/12345",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"просто текст",
		"youtube.com/",
	}
	for _, u := range invalid {
		var f Flags
		if f.CheckYouTubeURL(u) {
			t.Errorf("CheckYouTubeURL(%q) = true, want false", u)
		}
		if !f.InvalidYouTubeURL {
			t.Errorf("InvalidYouTubeURL not set for %q", u)
		}
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags("маркетинг, smm ,, продажи ")
	want := []string{"маркетинг", "smm", "продажи"}
	if len(got) != len(want) {
		t.Fatalf("ParseTags() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ParseTags()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	var f Flags
	if !f.CheckTags(got) {
		t.Fatalf("3 tags rejected")
	}
	many := make([]string, 16)
	for i := range many {
		many[i] = "тег"
	}
	f.Clear()
	if f.CheckTags(many) {
		t.Fatalf("16 tags accepted")
	}
	if !f.ManyTags {
		t.Fatalf("ManyTags not set: %+v", f)
	}
}

func TestFitsTelegramRespectsImageState(t *testing.T) {
	text := strings.Repeat("а", 2000)
	if FitsTelegram(text, true) {
		t.Fatalf("2000 runes with image should not fit 1024 cap")
	}
	if !FitsTelegram(text, false) {
		t.Fatalf("2000 runes without image should fit 4096 cap")
	}
	// HTML markup is excluded from the count.
	tagged := "<b>" + strings.Repeat("а", 1024) + "</b>"
	if !FitsTelegram(tagged, true) {
		t.Fatalf("tags counted against the cap")
	}
}

func TestCompressTarget(t *testing.T) {
	if got := CompressTarget(true); got != 900 {
		t.Fatalf("CompressTarget(true) = %d", got)
	}
	if got := CompressTarget(false); got != 3600 {
		t.Fatalf("CompressTarget(false) = %d", got)
	}
}
