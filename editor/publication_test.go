package editor

import (
	"testing"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
)

func draft() content.Publication {
	return content.Publication{
		ID:         "pub-1",
		CategoryID: "cat-1",
		Text:       "Исходный текст публикации про запуск нового продукта компании.",
		ImageURL:   "https://cdn.example.com/img/base.jpg?v=123",
		ImageName:  "base.jpg",
		TgSource:   true,
	}
}

func TestNewSessionHasNoChanges(t *testing.T) {
	s := NewSession(draft())
	if s.HasChanges() {
		t.Fatalf("fresh session reports changes")
	}
	if s.HasSnapshot() {
		t.Fatalf("fresh session has a snapshot")
	}
}

func TestSetTextAndRestore(t *testing.T) {
	s := NewSession(draft())
	orig := s.Working.Text

	s.SetText("Совсем другой текст про совсем другой продукт и другую аудиторию.")
	if !s.HasChanges() {
		t.Fatalf("text edit not detected")
	}
	if !s.HasSnapshot() {
		t.Fatalf("SetText did not snapshot")
	}

	if err := s.RestorePrevious(); err != nil {
		t.Fatalf("RestorePrevious() error = %v", err)
	}
	if s.Working.Text != orig {
		t.Fatalf("text not restored: %q", s.Working.Text)
	}
	if s.HasChanges() {
		t.Fatalf("restored session still reports changes")
	}
	if err := s.RestorePrevious(); err == nil {
		t.Fatalf("second undo should fail, snapshot is depth 1")
	}
}

func TestCacheBusterIgnoredInComparison(t *testing.T) {
	s := NewSession(draft())
	// Same image, different cache key.
	s.Working.Images[0].URL = "https://cdn.example.com/img/base.jpg?v=999"
	if s.HasChanges() {
		t.Fatalf("cache-buster change counted as an edit")
	}
	s.Working.Images[0].URL = "https://cdn.example.com/img/other.jpg?v=999"
	if !s.HasChanges() {
		t.Fatalf("different image path not detected")
	}
}

func TestAdoptGeneratedAndCarousel(t *testing.T) {
	s := NewSession(draft())
	s.AdoptGenerated([]string{"https://cdn/a.jpg", "https://cdn/b.jpg", "https://cdn/c.jpg"})
	if s.Working.ImageMode != ImageGenerated || len(s.Working.Images) != 3 {
		t.Fatalf("working = %+v", s.Working)
	}
	if !s.HasChanges() {
		t.Fatalf("generated set not detected as change")
	}

	s.NextImage()
	s.NextImage()
	if s.Working.ImageIndex != 2 {
		t.Fatalf("index = %d", s.Working.ImageIndex)
	}
	s.NextImage()
	if s.Working.ImageIndex != 0 {
		t.Fatalf("carousel did not wrap: %d", s.Working.ImageIndex)
	}
	s.PrevImage()
	if s.Working.ImageIndex != 2 {
		t.Fatalf("backward wrap failed: %d", s.Working.ImageIndex)
	}

	// Rejecting the new set restores the previous image untouched.
	if err := s.RestorePrevious(); err != nil {
		t.Fatalf("RestorePrevious() error = %v", err)
	}
	img, ok := s.Working.CurrentImage()
	if !ok || img.Name != "base.jpg" {
		t.Fatalf("original image not restored: %+v", img)
	}
}

func TestRemoveImageChangesLengthCap(t *testing.T) {
	s := NewSession(draft())
	if !s.Working.HasImage() {
		t.Fatalf("draft should carry an image")
	}
	s.RemoveImage()
	if s.Working.HasImage() {
		t.Fatalf("image not removed")
	}
	if !s.HasChanges() {
		t.Fatalf("image removal not detected")
	}
	if got := PublishMax(s.Working.HasImage()); got != PublishMaxWithoutImage {
		t.Fatalf("cap after removal = %d", got)
	}
}

func TestAttachUploadDetected(t *testing.T) {
	s := NewSession(content.Publication{ID: "pub-2", Text: "Текст без картинки, достаточно длинный для проверки."})
	s.AttachUpload("file-abc", "photo.jpg")
	if !s.HasChanges() {
		t.Fatalf("upload not detected as change")
	}
	img, ok := s.Working.CurrentImage()
	if !ok || img.FileID != "file-abc" {
		t.Fatalf("image = %+v", img)
	}
}

func TestApplyToWritesBack(t *testing.T) {
	src := draft()
	s := NewSession(src)
	s.SetText("Обновлённый текст для записи обратно в модель сервера, длиннее пятидесяти символов.")
	s.Working.VkSelected = true
	s.AdoptGenerated([]string{"https://cdn/new.jpg"})

	s.Working.ApplyTo(&src)
	if src.Text != s.Working.Text || !src.VkSource {
		t.Fatalf("write-back missed fields: %+v", src)
	}
	if src.ImageURL != "https://cdn/new.jpg" {
		t.Fatalf("image url = %q", src.ImageURL)
	}
}

func TestCombineBufferLimits(t *testing.T) {
	img := UploadedImage{Data: []byte("x"), Name: "x.jpg"}
	cases := []struct {
		name       string
		count      int
		canCombine bool
	}{
		{name: "one", count: 1, canCombine: false},
		{name: "two", count: 2, canCombine: true},
		{name: "three", count: 3, canCombine: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var b CombineBuffer
			for i := 0; i < tc.count; i++ {
				if !b.Add(img) {
					t.Fatalf("Add #%d rejected", i+1)
				}
			}
			if got := b.CanCombine(); got != tc.canCombine {
				t.Fatalf("CanCombine() = %v, want %v", got, tc.canCombine)
			}
		})
	}

	var b CombineBuffer
	for i := 0; i < CombineMax; i++ {
		b.Add(img)
	}
	if b.Add(img) {
		t.Fatalf("fourth image accepted")
	}
	b.Clear()
	if len(b.Images) != 0 || b.Prompt != "" {
		t.Fatalf("Clear() left state: %+v", b)
	}
}

func TestCombinePromptDefault(t *testing.T) {
	var b CombineBuffer
	if got := b.EffectivePrompt(); got != DefaultCombinePrompt {
		t.Fatalf("EffectivePrompt() = %q", got)
	}
	b.Prompt = "Сделай коллаж в тёплых тонах"
	if got := b.EffectivePrompt(); got != b.Prompt {
		t.Fatalf("EffectivePrompt() = %q", got)
	}
}
