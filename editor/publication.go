// Package editor implements the content-editing state machine substrate
// shared by the draft, moderation and generate flows: the
// original/working/previous triplet, the image carousel, the combine and
// reference buffers, and the validation rules.
package editor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
)

type ImageMode string

const (
	ImageNone      ImageMode = "none"
	ImageURL       ImageMode = "url"
	ImageFileID    ImageMode = "file_id"
	ImageGenerated ImageMode = "generated"
)

// ImageHandle addresses one image either by CDN URL (generated) or Telegram
// file id (uploaded).
type ImageHandle struct {
	URL    string
	FileID string
	Name   string
}

// Publication is the editable working copy of a publication.
// Invariant: exactly one ImageMode is active and
// 0 <= ImageIndex < len(Images) whenever ImageMode != ImageNone.
type Publication struct {
	ID         string
	CategoryID string
	Text       string
	ImageMode  ImageMode
	Images     []ImageHandle
	ImageIndex int
	TgSelected bool
	VkSelected bool
}

func (p Publication) HasImage() bool {
	return p.ImageMode != ImageNone && len(p.Images) > 0
}

func (p Publication) CurrentImage() (ImageHandle, bool) {
	if !p.HasImage() || p.ImageIndex < 0 || p.ImageIndex >= len(p.Images) {
		return ImageHandle{}, false
	}
	return p.Images[p.ImageIndex], true
}

func (p Publication) SelectedNetworks() int {
	n := 0
	if p.TgSelected {
		n++
	}
	if p.VkSelected {
		n++
	}
	return n
}

// FromContent maps the server representation into a working copy.
func FromContent(src content.Publication) Publication {
	p := Publication{
		ID:         src.ID,
		CategoryID: src.CategoryID,
		Text:       src.Text,
		TgSelected: src.TgSource,
		VkSelected: src.VkSource,
		ImageMode:  ImageNone,
	}
	if src.ImageURL != "" {
		p.ImageMode = ImageURL
		p.Images = []ImageHandle{{URL: src.ImageURL, Name: src.ImageName}}
	}
	return p
}

// ApplyTo writes the working copy back onto the server representation.
func (p Publication) ApplyTo(dst *content.Publication) {
	dst.Text = p.Text
	dst.TgSource = p.TgSelected
	dst.VkSource = p.VkSelected
	if img, ok := p.CurrentImage(); ok && img.URL != "" {
		dst.ImageURL = img.URL
		dst.ImageName = img.Name
	} else if !p.HasImage() {
		dst.ImageURL = ""
		dst.ImageName = ""
	}
}

// Session carries everything one editing frame needs: the persisted original,
// the mutable working copy, the depth-1 undo snapshot, the staging buffers
// and the validation flags.
type Session struct {
	Original Publication
	Working  Publication
	Prev     *Publication

	Combine   CombineBuffer
	Reference ReferenceBuffer
	Flags     Flags
}

func NewSession(original content.Publication) *Session {
	orig := FromContent(original)
	return &Session{Original: orig, Working: orig.clone()}
}

func (p Publication) clone() Publication {
	out := p
	out.Images = append([]ImageHandle(nil), p.Images...)
	return out
}

// Snapshot records the working copy for a one-step undo. An edit that may
// break an invariant calls this first.
func (s *Session) Snapshot() {
	prev := s.Working.clone()
	s.Prev = &prev
}

func (s *Session) HasSnapshot() bool { return s.Prev != nil }

// RestorePrevious undoes the last snapshotted edit.
func (s *Session) RestorePrevious() error {
	if s.Prev == nil {
		return fmt.Errorf("editor: no previous snapshot")
	}
	s.Working = s.Prev.clone()
	s.Prev = nil
	return nil
}

// SetText snapshots and replaces the working text.
func (s *Session) SetText(text string) {
	s.Snapshot()
	s.Working.Text = text
}

// AdoptGenerated snapshots and replaces the image with a generated variant
// set; the first variant is selected.
func (s *Session) AdoptGenerated(urls []string) {
	s.Snapshot()
	images := make([]ImageHandle, 0, len(urls))
	for _, u := range urls {
		images = append(images, ImageHandle{URL: u})
	}
	s.Working.ImageMode = ImageGenerated
	s.Working.Images = images
	s.Working.ImageIndex = 0
}

// AttachUpload snapshots and replaces the image with an uploaded photo.
func (s *Session) AttachUpload(fileID, name string) {
	s.Snapshot()
	s.Working.ImageMode = ImageFileID
	s.Working.Images = []ImageHandle{{FileID: fileID, Name: name}}
	s.Working.ImageIndex = 0
}

// RemoveImage snapshots and detaches the image.
func (s *Session) RemoveImage() {
	s.Snapshot()
	s.Working.ImageMode = ImageNone
	s.Working.Images = nil
	s.Working.ImageIndex = 0
}

// NextImage advances the generated-set carousel, wrapping around.
func (s *Session) NextImage() {
	if n := len(s.Working.Images); n > 1 {
		s.Working.ImageIndex = (s.Working.ImageIndex + 1) % n
	}
}

func (s *Session) PrevImage() {
	if n := len(s.Working.Images); n > 1 {
		s.Working.ImageIndex = (s.Working.ImageIndex - 1 + n) % n
	}
}

// HasChanges compares working against original. The image dimension is
// compared symbolically so cache-buster URL parameters and carousel motion
// alone do not count as edits.
func (s *Session) HasChanges() bool {
	if s.Working.Text != s.Original.Text {
		return true
	}
	if s.Working.TgSelected != s.Original.TgSelected || s.Working.VkSelected != s.Original.VkSelected {
		return true
	}
	return s.imageChanged()
}

func (s *Session) imageChanged() bool {
	if s.Working.HasImage() != s.Original.HasImage() {
		return true
	}
	if !s.Working.HasImage() {
		return false
	}
	cur, _ := s.Working.CurrentImage()
	orig, _ := s.Original.CurrentImage()
	if cur.FileID != orig.FileID {
		return true
	}
	return stripCacheBuster(cur.URL) != stripCacheBuster(orig.URL)
}

// stripCacheBuster drops the query string before URL comparison; the CDN
// appends volatile cache keys.
func stripCacheBuster(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// --- Combine buffer ---

// UploadedImage is a downloaded photo staged in memory for a combine or
// reference call.
type UploadedImage struct {
	Data []byte
	Name string
}

const (
	CombineMin = 2
	CombineMax = 3

	DefaultCombinePrompt = "Объедини эти фотографии в одну композицию"
)

// CombineBuffer stages up to three photos for a combine-images call.
type CombineBuffer struct {
	Images []UploadedImage
	Prompt string
}

// Add stages one photo. Returns false when the buffer is already full.
func (b *CombineBuffer) Add(img UploadedImage) bool {
	if len(b.Images) >= CombineMax {
		return false
	}
	b.Images = append(b.Images, img)
	return true
}

func (b *CombineBuffer) CanCombine() bool {
	return len(b.Images) >= CombineMin && len(b.Images) <= CombineMax
}

func (b *CombineBuffer) Clear() {
	*b = CombineBuffer{}
}

func (b *CombineBuffer) EffectivePrompt() string {
	if strings.TrimSpace(b.Prompt) == "" {
		return DefaultCombinePrompt
	}
	return b.Prompt
}

// --- Reference buffer ---

// ReferenceBuffer stages one photo plus an optional prompt for
// reference-guided generation.
type ReferenceBuffer struct {
	Image  *UploadedImage
	Prompt string
}

func (b *ReferenceBuffer) Clear() {
	*b = ReferenceBuffer{}
}
