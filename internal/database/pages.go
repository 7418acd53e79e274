package database

import (
	"errors"

	"github.com/BarnabaBobbili/StoryHaven/internal/data"
)

var ErrInvalidBackground = errors.New("invalid background")

// AppendPage inserts a new page at the end of the story's page list
// and returns the merged story, the new page's id and the reward to
// surface, if any.
func (s *service) AppendPage(storyID string, req *data.AddPageRequest) (*data.Story, string, data.Reward, error) {
	background := data.BackgroundDefault
	if req.Background != "" {
		background = data.Background(req.Background)
		if !background.Valid() {
			return nil, "", data.RewardNone, ErrInvalidBackground
		}
	}

	var pageID string
	story, reward, err := s.mutate(storyID, func(story *data.Story) error {
		page := data.Page{
			ID:         s.mintIDLocked(),
			Text:       req.Text,
			Background: background,
			Stickers:   append([]string{}, req.Stickers...),
		}
		if req.Emotion != "" {
			emotion := req.Emotion
			page.Emotion = &emotion
		}
		pageID = page.ID
		story.Pages = append(story.Pages, page)
		return nil
	})
	return story, pageID, reward, err
}

// UpdatePage merges the patch into the matching page, preserving its
// position and every field the patch leaves nil.
func (s *service) UpdatePage(storyID, pageID string, patch data.PagePatch) (*data.Story, data.Reward, error) {
	if patch.Background != nil && !patch.Background.Valid() {
		return nil, data.RewardNone, ErrInvalidBackground
	}
	return s.mutate(storyID, func(story *data.Story) error {
		page := findPage(story, pageID)
		if page == nil {
			return ErrPageNotFound
		}
		if patch.Text != nil {
			page.Text = *patch.Text
		}
		if patch.Background != nil {
			page.Background = *patch.Background
		}
		page.Image = applyNullable(page.Image, patch.Image)
		page.Audio = applyNullable(page.Audio, patch.Audio)
		page.Emotion = applyNullable(page.Emotion, patch.Emotion)
		page.Drawing = applyNullable(page.Drawing, patch.Drawing)
		return nil
	})
}

func (s *service) RemovePage(storyID, pageID string) (*data.Story, data.Reward, error) {
	return s.mutate(storyID, func(story *data.Story) error {
		for i, page := range story.Pages {
			if page.ID == pageID {
				story.Pages = append(story.Pages[:i], story.Pages[i+1:]...)
				return nil
			}
		}
		return ErrPageNotFound
	})
}

// MovePage removes the page at from and reinserts it at to, clamped
// to the valid range. It is idempotent when from == to and is safe to
// call repeatedly during a continuous drag gesture: each call sees
// the cumulative order and no page is ever duplicated or dropped.
func (s *service) MovePage(storyID string, from, to int) (*data.Story, data.Reward, error) {
	return s.mutate(storyID, func(story *data.Story) error {
		if from < 0 || from >= len(story.Pages) {
			return ErrBadIndex
		}
		if to < 0 {
			to = 0
		}
		if to > len(story.Pages)-1 {
			to = len(story.Pages) - 1
		}
		if from == to {
			return nil
		}
		page := story.Pages[from]
		story.Pages = append(story.Pages[:from], story.Pages[from+1:]...)
		story.Pages = append(story.Pages[:to], append([]data.Page{page}, story.Pages[to:]...)...)
		return nil
	})
}

func (s *service) AddSticker(storyID, pageID, glyph string) (*data.Story, data.Reward, error) {
	return s.mutate(storyID, func(story *data.Story) error {
		page := findPage(story, pageID)
		if page == nil {
			return ErrPageNotFound
		}
		page.Stickers = append(page.Stickers, glyph)
		return nil
	})
}

func (s *service) RemoveSticker(storyID, pageID string, index int) (*data.Story, data.Reward, error) {
	return s.mutate(storyID, func(story *data.Story) error {
		page := findPage(story, pageID)
		if page == nil {
			return ErrPageNotFound
		}
		if index < 0 || index >= len(page.Stickers) {
			return ErrBadIndex
		}
		page.Stickers = append(page.Stickers[:index], page.Stickers[index+1:]...)
		return nil
	})
}

// AppendDictation appends a final speech-recognition transcript,
// space-separated, to the page's text.
func (s *service) AppendDictation(storyID, pageID, transcript string) (*data.Story, data.Reward, error) {
	return s.mutate(storyID, func(story *data.Story) error {
		page := findPage(story, pageID)
		if page == nil {
			return ErrPageNotFound
		}
		if page.Text == "" {
			page.Text = transcript
		} else {
			page.Text = page.Text + " " + transcript
		}
		return nil
	})
}

// SetDrawing stores the raster snapshot for a page. The snapshot is
// an opaque data-URI string; its pixel contents are never inspected.
func (s *service) SetDrawing(storyID, pageID, snapshot string) (*data.Story, data.Reward, error) {
	return s.mutate(storyID, func(story *data.Story) error {
		page := findPage(story, pageID)
		if page == nil {
			return ErrPageNotFound
		}
		page.Drawing = &snapshot
		return nil
	})
}

func findPage(story *data.Story, pageID string) *data.Page {
	for i := range story.Pages {
		if story.Pages[i].ID == pageID {
			return &story.Pages[i]
		}
	}
	return nil
}

// applyNullable merges a nullable field: nil leaves the current value,
// an empty string clears it, anything else replaces it.
func applyNullable(current, update *string) *string {
	if update == nil {
		return current
	}
	if *update == "" {
		return nil
	}
	value := *update
	return &value
}
