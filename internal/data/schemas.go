package data

import "time"

type Background string

const (
	BackgroundDefault Background = "default"
	BackgroundSky     Background = "sky"
	BackgroundForest  Background = "forest"
	BackgroundSpace   Background = "space"
	BackgroundSunset  Background = "sunset"
	BackgroundOcean   Background = "ocean"
)

func (b Background) Valid() bool {
	switch b {
	case BackgroundDefault, BackgroundSky, BackgroundForest, BackgroundSpace, BackgroundSunset, BackgroundOcean:
		return true
	}
	return false
}

type Story struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Pages           []Page         `json:"pages"`
	CreatedAt       time.Time      `json:"created_at"`
	WordCount       int            `json:"word_count"`
	Badges          []string       `json:"badges"`
	BackgroundMusic string         `json:"background_music,omitempty"`
	CompletionDate  *time.Time     `json:"completion_date,omitempty"`
	DailyProgress   map[string]int `json:"daily_progress"`
}

type Page struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Image      *string    `json:"image,omitempty"`
	Audio      *string    `json:"audio,omitempty"`
	Background Background `json:"background"`
	Stickers   []string   `json:"stickers"`
	Emotion    *string    `json:"emotion,omitempty"`
	Drawing    *string    `json:"drawing,omitempty"`
}

// PagePatch carries the fields of a partial page update. Nil fields are
// left untouched; an empty string on a nullable field clears it.
type PagePatch struct {
	Text       *string     `json:"text,omitempty"`
	Image      *string     `json:"image,omitempty"`
	Audio      *string     `json:"audio,omitempty"`
	Background *Background `json:"background,omitempty"`
	Emotion    *string     `json:"emotion,omitempty"`
	Drawing    *string     `json:"drawing,omitempty"`
}

type Settings struct {
	SpeechRate   float64 `json:"speech_rate" validate:"gte=0.5,lte=2"`
	SpeechPitch  float64 `json:"speech_pitch" validate:"gte=0,lte=2"`
	SpeechVolume float64 `json:"speech_volume" validate:"gte=0,lte=1"`
	Voice        string  `json:"voice" validate:"max=100"`
	Theme        string  `json:"theme" validate:"max=50"`
	SoundEffects bool    `json:"sound_effects"`
}

type ExportDocument struct {
	Stories    []Story   `json:"stories"`
	Settings   Settings  `json:"settings"`
	ExportDate time.Time `json:"exportDate"`
}

type Dashboard struct {
	TotalStories  int             `json:"total_stories"`
	TotalPages    int             `json:"total_pages"`
	TotalWords    int             `json:"total_words"`
	Badges        []string        `json:"badges"`
	DailyProgress map[string]int  `json:"daily_progress"`
	Stories       []StoryProgress `json:"stories"`
}

type StoryProgress struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	PageCount int      `json:"page_count"`
	WordCount int      `json:"word_count"`
	Badges    []string `json:"badges"`
	Completed bool     `json:"completed"`
}

type CreateStoryRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=100"`
	BackgroundMusic string `json:"background_music" validate:"max=50"`
}

type AddPageRequest struct {
	Text       string   `json:"text" validate:"max=5000"`
	Background string   `json:"background" validate:"max=20"`
	Emotion    string   `json:"emotion" validate:"max=16"`
	Stickers   []string `json:"stickers" validate:"dive,max=16"`
}

type UpdatePageRequest struct {
	PageID string    `json:"page_id" validate:"required"`
	Patch  PagePatch `json:"patch"`
}

type MovePageRequest struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gte=0"`
}

type AddStickerRequest struct {
	PageID  string `json:"page_id" validate:"required"`
	Sticker string `json:"sticker" validate:"required,max=16"`
}

type RemoveStickerRequest struct {
	PageID string `json:"page_id" validate:"required"`
	Index  int    `json:"index" validate:"gte=0"`
}

type DictationRequest struct {
	Transcript string `json:"transcript" validate:"required,max=5000"`
}

type SetDrawingRequest struct {
	PageID  string `json:"page_id" validate:"required"`
	Drawing string `json:"drawing" validate:"required,startswith=data:image/"`
}
