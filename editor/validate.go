package editor

import (
	"regexp"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/internal/htmlutil"
)

// Field limits. Text and prompt limits count runes of the raw input; the
// publish length invariant counts runes of the plain text with HTML stripped.
const (
	TextMin = 50
	TextMax = 4000

	PromptMin = 10
	PromptMax = 1000

	RejectCommentMin = 10
	RejectCommentMax = 500

	TitleMin = 5
	TitleMax = 500

	DescriptionMin = 5
	DescriptionMax = 2200

	TagsMax = 15

	ImageMaxBytes = 10 << 20

	// Telegram caps captions at 1024 characters and plain messages at 4096.
	PublishMaxWithImage    = 1024
	PublishMaxWithoutImage = 4096

	// Compression targets leave headroom below the publish caps.
	CompressTargetWithImage    = 900
	CompressTargetWithoutImage = 3600
)

var youtubeRe = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?(?:youtube\.com/(?:watch\?v=|embed/|shorts/|live/)[A-Za-z0-9_-]{6,}|youtu\.be/[A-Za-z0-9_-]{6,})`)

// Flags accumulates validation outcomes for the current screen. Handlers
// clear the struct before re-validating so a stale flag never survives a
// screen transition.
type Flags struct {
	VoidText  bool
	SmallText bool
	BigText   bool

	VoidPrompt  bool
	SmallPrompt bool
	BigPrompt   bool

	VoidRejectComment  bool
	SmallRejectComment bool
	BigRejectComment   bool

	VoidTitle  bool
	SmallTitle bool
	BigTitle   bool

	VoidDescription  bool
	SmallDescription bool
	BigDescription   bool

	ManyTags bool

	NotPhoto bool
	BigImage bool

	CombineFull       bool
	CombineTooFew     bool
	InvalidYouTubeURL bool

	InsufficientBalance bool
	TextTooLongToAttach bool
}

func (f *Flags) Clear() { *f = Flags{} }

func (f Flags) Any() bool { return f != Flags{} }

func runeLen(s string) int { return len([]rune(s)) }

// CheckText validates publication text length against 50..4000 and records
// the outcome on f. Returns true when valid.
func (f *Flags) CheckText(text string) bool {
	switch n := runeLen(strings.TrimSpace(text)); {
	case n == 0:
		f.VoidText = true
	case n < TextMin:
		f.SmallText = true
	case n > TextMax:
		f.BigText = true
	default:
		return true
	}
	return false
}

// CheckPrompt validates a free-form generation or edit prompt, 10..1000.
func (f *Flags) CheckPrompt(prompt string) bool {
	switch n := runeLen(strings.TrimSpace(prompt)); {
	case n == 0:
		f.VoidPrompt = true
	case n < PromptMin:
		f.SmallPrompt = true
	case n > PromptMax:
		f.BigPrompt = true
	default:
		return true
	}
	return false
}

// CheckRejectComment validates a moderation rejection comment, 10..500.
func (f *Flags) CheckRejectComment(comment string) bool {
	switch n := runeLen(strings.TrimSpace(comment)); {
	case n == 0:
		f.VoidRejectComment = true
	case n < RejectCommentMin:
		f.SmallRejectComment = true
	case n > RejectCommentMax:
		f.BigRejectComment = true
	default:
		return true
	}
	return false
}

// CheckTitle validates a video-cut title, 5..500.
func (f *Flags) CheckTitle(title string) bool {
	switch n := runeLen(strings.TrimSpace(title)); {
	case n == 0:
		f.VoidTitle = true
	case n < TitleMin:
		f.SmallTitle = true
	case n > TitleMax:
		f.BigTitle = true
	default:
		return true
	}
	return false
}

// CheckDescription validates a video-cut description, 5..2200.
func (f *Flags) CheckDescription(desc string) bool {
	switch n := runeLen(strings.TrimSpace(desc)); {
	case n == 0:
		f.VoidDescription = true
	case n < DescriptionMin:
		f.SmallDescription = true
	case n > DescriptionMax:
		f.BigDescription = true
	default:
		return true
	}
	return false
}

// CheckTags validates a parsed tag list against the 15 cap.
func (f *Flags) CheckTags(tags []string) bool {
	if len(tags) > TagsMax {
		f.ManyTags = true
		return false
	}
	return true
}

// CheckUpload validates an incoming photo by mime type and size.
func (f *Flags) CheckUpload(mimeType string, size int64) bool {
	ok := true
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") {
		f.NotPhoto = true
		ok = false
	}
	if size > ImageMaxBytes {
		f.BigImage = true
		ok = false
	}
	return ok
}

// CheckYouTubeURL validates a source link for video-cut generation.
func (f *Flags) CheckYouTubeURL(raw string) bool {
	if !youtubeRe.MatchString(strings.TrimSpace(raw)) {
		f.InvalidYouTubeURL = true
		return false
	}
	return true
}

// ParseTags splits a comma-separated tag line, dropping blanks.
func ParseTags(line string) []string {
	var tags []string
	for _, part := range strings.Split(line, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// PublishMax returns the Telegram length cap for a publication given whether
// it carries an image.
func PublishMax(hasImage bool) int {
	if hasImage {
		return PublishMaxWithImage
	}
	return PublishMaxWithoutImage
}

// CompressTarget returns the requested length for a compress-text call.
func CompressTarget(hasImage bool) int {
	if hasImage {
		return CompressTargetWithImage
	}
	return CompressTargetWithoutImage
}

// FitsTelegram reports whether the plain text (HTML stripped) fits the cap
// implied by the image state. Checked before attaching an image to long text
// and before publishing.
func FitsTelegram(text string, hasImage bool) bool {
	return htmlutil.PlainLength(text) <= PublishMax(hasImage)
}
