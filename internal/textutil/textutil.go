// Package textutil holds small Russian text helpers shared by screens.
package textutil

import "strings"

// PluralRu picks the Russian plural form for n. Forms are ordered
// {one, few, many}: "видео" uses identical forms, "алерт" uses
// {"алерт", "алерта", "алертов"}.
func PluralRu(n int, one, few, many string) string {
	n = abs(n)
	switch {
	case n%10 == 1 && n%100 != 11:
		return one
	case n%10 >= 2 && n%10 <= 4 && (n%100 < 10 || n%100 >= 20):
		return few
	default:
		return many
	}
}

func VideoWord(n int) string {
	return PluralRu(n, "видео", "видео", "видео")
}

func AlertWord(n int) string {
	return PluralRu(n, "уведомление", "уведомления", "уведомлений")
}

func PublicationWord(n int) string {
	return PluralRu(n, "публикация", "публикации", "публикаций")
}

// Truncate cuts s to at most limit runes, appending an ellipsis when the
// text was shortened.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
