// Package htmlutil validates and measures the HTML subset Telegram accepts in
// message bodies.
package htmlutil

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Tags Telegram renders in messages. Anything else is surfaced raw to the
// user, so replies containing other tags are treated as malformed.
var allowedTags = map[string]bool{
	"b": true, "strong": true,
	"i": true, "em": true,
	"u": true, "ins": true,
	"s": true, "strike": true, "del": true,
	"a":          true,
	"code":       true,
	"pre":        true,
	"blockquote": true,
	"tg-spoiler": true,
	"span":       true,
	"tg-emoji":   true,
}

// Validate checks that s is well-formed Telegram HTML: every open tag has a
// matching close tag in the right order and only allowed tags appear.
func Validate(s string) error {
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var stack []string
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != nil && err.Error() != "EOF" {
				return fmt.Errorf("htmlutil: tokenize: %w", err)
			}
			if len(stack) > 0 {
				return fmt.Errorf("htmlutil: unclosed tag <%s>", stack[len(stack)-1])
			}
			return nil
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			tag := strings.ToLower(string(name))
			if !allowedTags[tag] {
				return fmt.Errorf("htmlutil: unsupported tag <%s>", tag)
			}
			stack = append(stack, tag)
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := strings.ToLower(string(name))
			if len(stack) == 0 {
				return fmt.Errorf("htmlutil: unexpected closing tag </%s>", tag)
			}
			top := stack[len(stack)-1]
			if top != tag {
				return fmt.Errorf("htmlutil: mismatched tag </%s>, expected </%s>", tag, top)
			}
			stack = stack[:len(stack)-1]
		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := strings.ToLower(string(name))
			if !allowedTags[tag] {
				return fmt.Errorf("htmlutil: unsupported tag <%s>", tag)
			}
		}
	}
}

// StripTags returns the plain text of s with all markup removed. Entities are
// decoded so the result reflects what the user actually reads.
func StripTags(s string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return b.String()
		}
		if tt == html.TextToken {
			b.Write(tokenizer.Text())
		}
	}
}

// PlainLength is the rune count of s after markup removal. Telegram's caption
// and message limits apply to this value, not to the raw HTML.
func PlainLength(s string) int {
	return len([]rune(StripTags(s)))
}
