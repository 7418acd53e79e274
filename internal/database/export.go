package database

import (
	"encoding/json"

	"github.com/BarnabaBobbili/StoryHaven/internal/data"
)

// Export snapshots the whole collection plus the settings into a
// single document for manual backup.
func (s *service) Export() *data.ExportDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := &data.ExportDocument{
		Stories:    make([]data.Story, 0, len(s.stories)),
		Settings:   s.settings,
		ExportDate: s.now(),
	}
	for _, story := range s.stories {
		doc.Stories = append(doc.Stories, *cloneStory(story))
	}
	return doc
}

// Import appends the document's stories to the collection. There is
// no dedup against existing ids: re-importing a backup duplicates its
// stories, each keeping its original id. Malformed input leaves the
// collection untouched.
func (s *service) Import(raw []byte) (int, error) {
	var doc struct {
		Stories *[]data.Story `json:"stories"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return 0, ErrInvalidImport
	}
	if doc.Stories == nil {
		return 0, ErrInvalidImport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, story := range *doc.Stories {
		imported := sanitizeImported(story)
		if imported.ID == "" {
			imported.ID = s.mintIDLocked()
		}
		s.stories = append(s.stories, imported)
	}
	s.log.Info().Int("count", len(*doc.Stories)).Msg("stories imported")
	return len(*doc.Stories), nil
}

// ShareStory serializes one story standalone, for clipboard sharing.
// The result round-trips through ImportStory when pasted back.
func (s *service) ShareStory(id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	story := s.findLocked(id)
	if story == nil {
		return nil, ErrStoryNotFound
	}
	return json.Marshal(cloneStory(story))
}

func (s *service) ImportStory(raw []byte) (*data.Story, error) {
	var story data.Story
	if err := json.Unmarshal(raw, &story); err != nil {
		return nil, ErrInvalidImport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	imported := sanitizeImported(story)
	if imported.ID == "" {
		imported.ID = s.mintIDLocked()
	}
	s.stories = append(s.stories, imported)
	return cloneStory(imported), nil
}

// sanitizeImported fills the collection-valued fields a hand-edited
// backup may omit. Derived fields are taken as-is rather than
// recomputed, so a round trip reproduces the story exactly.
func sanitizeImported(story data.Story) *data.Story {
	if story.Pages == nil {
		story.Pages = []data.Page{}
	}
	for i := range story.Pages {
		if story.Pages[i].Stickers == nil {
			story.Pages[i].Stickers = []string{}
		}
	}
	if story.Badges == nil {
		story.Badges = []string{}
	}
	if story.DailyProgress == nil {
		story.DailyProgress = map[string]int{}
	}
	return &story
}
