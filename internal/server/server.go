package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/BarnabaBobbili/StoryHaven/internal/config"
	"github.com/BarnabaBobbili/StoryHaven/internal/database"
)

type Server struct {
	cfg *config.Config

	db       database.Service
	sessions *sessionStore
}

func NewServer(cfg *config.Config, log zerolog.Logger) *http.Server {
	NewServer := &Server{
		cfg: cfg,

		db:       database.New(cfg.DefaultSettings(), log),
		sessions: newSessionStore([]byte(cfg.SessionSecret), time.Duration(cfg.SessionTTLHours)*time.Hour),
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	return server
}
