package editor

import (
	"fmt"

	"github.com/LoomAI-IT/loom-tg-bot-sub000/backend/content"
)

// VideoCut is the editable working copy of a generated video cut.
type VideoCut struct {
	ID              string
	Title           string
	Description     string
	Tags            []string
	YouTubeSelected bool
}

func VideoCutFromContent(src content.VideoCut) VideoCut {
	return VideoCut{
		ID:              src.ID,
		Title:           src.Name,
		Description:     src.Description,
		Tags:            append([]string(nil), src.Tags...),
		YouTubeSelected: src.YouTubeSource,
	}
}

func (v VideoCut) ApplyTo(dst *content.VideoCut) {
	dst.Name = v.Title
	dst.Description = v.Description
	dst.Tags = append([]string(nil), v.Tags...)
	dst.YouTubeSource = v.YouTubeSelected
}

func (v VideoCut) clone() VideoCut {
	out := v
	out.Tags = append([]string(nil), v.Tags...)
	return out
}

// VideoCutSession mirrors Session for video cuts: the persisted original, a
// working copy, a depth-1 undo snapshot and the validation flags.
type VideoCutSession struct {
	Original VideoCut
	Working  VideoCut
	Prev     *VideoCut
	Flags    Flags
}

func NewVideoCutSession(original content.VideoCut) *VideoCutSession {
	orig := VideoCutFromContent(original)
	return &VideoCutSession{Original: orig, Working: orig.clone()}
}

func (s *VideoCutSession) Snapshot() {
	prev := s.Working.clone()
	s.Prev = &prev
}

func (s *VideoCutSession) HasSnapshot() bool { return s.Prev != nil }

// RestorePrevious undoes the last snapshotted edit.
func (s *VideoCutSession) RestorePrevious() error {
	if s.Prev == nil {
		return fmt.Errorf("editor: no previous snapshot")
	}
	s.Working = s.Prev.clone()
	s.Prev = nil
	return nil
}

func (s *VideoCutSession) SetTitle(title string) {
	s.Snapshot()
	s.Working.Title = title
}

func (s *VideoCutSession) SetDescription(desc string) {
	s.Snapshot()
	s.Working.Description = desc
}

func (s *VideoCutSession) SetTags(tags []string) {
	s.Snapshot()
	s.Working.Tags = append([]string(nil), tags...)
}

func (s *VideoCutSession) HasChanges() bool {
	if s.Working.Title != s.Original.Title || s.Working.Description != s.Original.Description {
		return true
	}
	if s.Working.YouTubeSelected != s.Original.YouTubeSelected {
		return true
	}
	if len(s.Working.Tags) != len(s.Original.Tags) {
		return true
	}
	for i, t := range s.Working.Tags {
		if t != s.Original.Tags[i] {
			return true
		}
	}
	return false
}
