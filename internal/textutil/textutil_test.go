package textutil

import "testing"

func TestPluralRu(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{1, "уведомление"},
		{2, "уведомления"},
		{4, "уведомления"},
		{5, "уведомлений"},
		{11, "уведомлений"},
		{12, "уведомлений"},
		{21, "уведомление"},
		{22, "уведомления"},
		{100, "уведомлений"},
		{101, "уведомление"},
	}
	for _, tc := range cases {
		if got := AlertWord(tc.n); got != tc.want {
			t.Fatalf("AlertWord(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("короткий", 20); got != "короткий" {
		t.Fatalf("Truncate() = %q", got)
	}
	got := Truncate("очень длинный текст", 8)
	if len([]rune(got)) > 8 {
		t.Fatalf("Truncate() too long: %q", got)
	}
	if got[len(got)-len("…"):] != "…" {
		t.Fatalf("Truncate() missing ellipsis: %q", got)
	}
}
