package database

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/BarnabaBobbili/StoryHaven/internal/data"
)

var (
	ErrStoryNotFound = errors.New("story not found")
	ErrPageNotFound  = errors.New("page not found")
	ErrBadIndex      = errors.New("index out of range")
	ErrInvalidImport = errors.New("invalid import document")
)

// Service is the story repository plus the page list editor. All
// state lives in memory; export/import is the only way anything
// survives the process.
type Service interface {
	CreateStory(req *data.CreateStoryRequest) (*data.Story, error)
	GetStory(id string) (*data.Story, error)
	GetStories() ([]data.Story, error)
	DeleteStory(id string) error

	AppendPage(storyID string, req *data.AddPageRequest) (*data.Story, string, data.Reward, error)
	UpdatePage(storyID, pageID string, patch data.PagePatch) (*data.Story, data.Reward, error)
	RemovePage(storyID, pageID string) (*data.Story, data.Reward, error)
	MovePage(storyID string, from, to int) (*data.Story, data.Reward, error)
	AddSticker(storyID, pageID, glyph string) (*data.Story, data.Reward, error)
	RemoveSticker(storyID, pageID string, index int) (*data.Story, data.Reward, error)
	AppendDictation(storyID, pageID, transcript string) (*data.Story, data.Reward, error)
	SetDrawing(storyID, pageID, snapshot string) (*data.Story, data.Reward, error)

	GetSettings() data.Settings
	UpdateSettings(s data.Settings)
	Dashboard() *data.Dashboard

	Export() *data.ExportDocument
	Import(raw []byte) (int, error)
	ShareStory(id string) ([]byte, error)
	ImportStory(raw []byte) (*data.Story, error)

	Health() (map[string]string, error)
}

type service struct {
	mu       sync.RWMutex
	stories  []*data.Story
	settings data.Settings
	log      zerolog.Logger
	now      func() time.Time
}

func New(defaults data.Settings, log zerolog.Logger) Service {
	return &service{
		settings: defaults,
		log:      log,
		now:      time.Now,
	}
}

func (s *service) CreateStory(req *data.CreateStoryRequest) (*data.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story := &data.Story{
		ID:              s.mintIDLocked(),
		Title:           req.Title,
		Pages:           []data.Page{},
		CreatedAt:       s.now(),
		Badges:          []string{},
		BackgroundMusic: req.BackgroundMusic,
		DailyProgress:   map[string]int{},
	}
	s.stories = append(s.stories, story)
	s.log.Info().Str("story_id", story.ID).Str("title", story.Title).Msg("story created")
	return cloneStory(story), nil
}

func (s *service) GetStory(id string) (*data.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	story := s.findLocked(id)
	if story == nil {
		return nil, ErrStoryNotFound
	}
	return cloneStory(story), nil
}

func (s *service) GetStories() ([]data.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stories := make([]data.Story, 0, len(s.stories))
	for _, story := range s.stories {
		stories = append(stories, *cloneStory(story))
	}
	return stories, nil
}

func (s *service) DeleteStory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, story := range s.stories {
		if story.ID == id {
			s.stories = append(s.stories[:i], s.stories[i+1:]...)
			s.log.Info().Str("story_id", id).Msg("story deleted")
			return nil
		}
	}
	return ErrStoryNotFound
}

func (s *service) GetSettings() data.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *service) UpdateSettings(settings data.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

func (s *service) Dashboard() *data.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := &data.Dashboard{
		TotalStories:  len(s.stories),
		Badges:        []string{},
		DailyProgress: map[string]int{},
		Stories:       make([]data.StoryProgress, 0, len(s.stories)),
	}
	seen := map[string]bool{}
	for _, story := range s.stories {
		d.TotalPages += len(story.Pages)
		d.TotalWords += story.WordCount
		for _, badge := range story.Badges {
			if !seen[badge] {
				seen[badge] = true
				d.Badges = append(d.Badges, badge)
			}
		}
		for day, words := range story.DailyProgress {
			d.DailyProgress[day] += words
		}
		d.Stories = append(d.Stories, data.StoryProgress{
			ID:        story.ID,
			Title:     story.Title,
			PageCount: len(story.Pages),
			WordCount: story.WordCount,
			Badges:    append([]string{}, story.Badges...),
			Completed: story.CompletionDate != nil,
		})
	}
	return d
}

func (s *service) Health() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{"message": "It's healthy"}, nil
}

// mutate runs fn on the story under the write lock, then recomputes
// the derived metrics and evaluates the reward trigger against the
// before/after snapshots. Every page mutation funnels through here so
// the derived fields can never drift from the page list.
func (s *service) mutate(storyID string, fn func(story *data.Story) error) (*data.Story, data.Reward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story := s.findLocked(storyID)
	if story == nil {
		return nil, data.RewardNone, ErrStoryNotFound
	}

	before := data.SnapshotOf(story)
	if err := fn(story); err != nil {
		return nil, data.RewardNone, err
	}

	m := data.ComputeMetrics(story, story.Pages, s.now())
	story.WordCount = m.WordCount
	story.Badges = m.Badges
	story.CompletionDate = m.CompletionDate
	story.DailyProgress = m.DailyProgress

	reward := data.EvaluateReward(before, data.SnapshotOf(story))
	return cloneStory(story), reward, nil
}

func (s *service) findLocked(id string) *data.Story {
	for _, story := range s.stories {
		if story.ID == id {
			return story
		}
	}
	return nil
}

// mintIDLocked issues an identifier not held by any current story or
// page, regenerating on the off chance of a collision.
func (s *service) mintIDLocked() string {
	for {
		id := uuid.NewString()
		if !s.idInUseLocked(id) {
			return id
		}
	}
}

func (s *service) idInUseLocked(id string) bool {
	for _, story := range s.stories {
		if story.ID == id {
			return true
		}
		for _, page := range story.Pages {
			if page.ID == id {
				return true
			}
		}
	}
	return false
}

func cloneStory(story *data.Story) *data.Story {
	c := *story
	c.Pages = make([]data.Page, len(story.Pages))
	for i, page := range story.Pages {
		c.Pages[i] = clonePage(page)
	}
	c.Badges = append([]string{}, story.Badges...)
	c.DailyProgress = make(map[string]int, len(story.DailyProgress))
	for day, words := range story.DailyProgress {
		c.DailyProgress[day] = words
	}
	return &c
}

func clonePage(page data.Page) data.Page {
	c := page
	c.Stickers = append([]string{}, page.Stickers...)
	return c
}
