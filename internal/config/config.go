package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"

	"github.com/BarnabaBobbili/StoryHaven/internal/data"
)

type Config struct {
	Port                int    `env:"PORT" env-default:"8080"`
	ReadTimeoutSeconds  int    `env:"READ_TIMEOUT_SECONDS" env-default:"10"`
	WriteTimeoutSeconds int    `env:"WRITE_TIMEOUT_SECONDS" env-default:"30"`
	IdleTimeoutSeconds  int    `env:"IDLE_TIMEOUT_SECONDS" env-default:"60"`
	LogLevel            string `env:"LOG_LEVEL" env-default:"info"`
	Debug               bool   `env:"DEBUG" env-default:"false"`

	SessionSecret   string `env:"SESSION_SECRET" env-default:"storyhaven-dev-secret"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" env-default:"24"`

	SpeechRate   float64 `env:"SPEECH_RATE" env-default:"1.0"`
	SpeechPitch  float64 `env:"SPEECH_PITCH" env-default:"1.0"`
	SpeechVolume float64 `env:"SPEECH_VOLUME" env-default:"1.0"`
	Voice        string  `env:"SPEECH_VOICE" env-default:""`
	Theme        string  `env:"THEME" env-default:"default"`
	SoundEffects bool    `env:"SOUND_EFFECTS" env-default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return &cfg, nil
}

// DefaultSettings is the settings record a fresh process starts with;
// users adjust it over the API afterwards.
func (c *Config) DefaultSettings() data.Settings {
	return data.Settings{
		SpeechRate:   c.SpeechRate,
		SpeechPitch:  c.SpeechPitch,
		SpeechVolume: c.SpeechVolume,
		Voice:        c.Voice,
		Theme:        c.Theme,
		SoundEffects: c.SoundEffects,
	}
}
