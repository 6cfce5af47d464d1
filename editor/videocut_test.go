package editor

import (
	"testing"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
)

func cutDraft() content.VideoCut {
	return content.VideoCut{
		ID:          "cut-1",
		Name:        "Запуск продукта за 60 секунд",
		Description: "Короткая нарезка с презентации нового продукта.",
		Tags:        []string{"запуск", "продукт"},
	}
}

func TestVideoCutSessionEditAndRestore(t *testing.T) {
	s := NewVideoCutSession(cutDraft())
	if s.HasChanges() {
		t.Fatalf("fresh session reports changes")
	}
	orig := s.Working.Title

	s.SetTitle("Совсем другое название нарезки")
	if !s.HasChanges() {
		t.Fatalf("title edit not detected")
	}
	if !s.HasSnapshot() {
		t.Fatalf("SetTitle did not snapshot")
	}

	if err := s.RestorePrevious(); err != nil {
		t.Fatalf("RestorePrevious() error = %v", err)
	}
	if s.Working.Title != orig {
		t.Fatalf("title not restored: %q", s.Working.Title)
	}
	if s.HasChanges() {
		t.Fatalf("restored session still reports changes")
	}
	if err := s.RestorePrevious(); err == nil {
		t.Fatalf("second undo should fail, snapshot is depth 1")
	}
}

func TestVideoCutSessionTagEditsAreUndoable(t *testing.T) {
	s := NewVideoCutSession(cutDraft())
	s.SetTags([]string{"другое"})
	if !s.HasChanges() {
		t.Fatalf("tag edit not detected")
	}
	if err := s.RestorePrevious(); err != nil {
		t.Fatalf("RestorePrevious() error = %v", err)
	}
	if len(s.Working.Tags) != 2 || s.Working.Tags[0] != "запуск" {
		t.Fatalf("tags not restored: %v", s.Working.Tags)
	}
}
