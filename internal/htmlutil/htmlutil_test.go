package htmlutil

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain text", input: "привет"},
		{name: "balanced bold", input: "<b>привет</b>, мир"},
		{name: "nested", input: "<b><i>x</i></b>"},
		{name: "link", input: `<a href="https://example.com">ссылка</a>`},
		{name: "unclosed", input: "<b>привет", wantErr: true},
		{name: "crossed", input: "<b><i>x</b></i>", wantErr: true},
		{name: "stray close", input: "x</b>", wantErr: true},
		{name: "unsupported tag", input: "<table>x</table>", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.input)
			if tc.wantErr && err == nil {
				t.Fatalf("Validate(%q) expected error", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("Validate(%q) error = %v", tc.input, err)
			}
		})
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags("<b>Заголовок</b>\n<i>курсив</i> и &amp; амперсанд")
	want := "Заголовок\nкурсив и & амперсанд"
	if got != want {
		t.Fatalf("StripTags() = %q, want %q", got, want)
	}
}

func TestPlainLengthCountsRunes(t *testing.T) {
	if got := PlainLength("<b>аб</b>в"); got != 3 {
		t.Fatalf("PlainLength() = %d, want 3", got)
	}
	long := "<i>" + strings.Repeat("я", 1024) + "</i>"
	if got := PlainLength(long); got != 1024 {
		t.Fatalf("PlainLength() = %d, want 1024", got)
	}
}
