package server

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Screen string

const (
	ScreenHome      Screen = "home"
	ScreenEditor    Screen = "editor"
	ScreenWizard    Screen = "wizard"
	ScreenPreview   Screen = "preview"
	ScreenSettings  Screen = "settings"
	ScreenDashboard Screen = "dashboard"
	ScreenGames     Screen = "games"
)

func (s Screen) Valid() bool {
	switch s {
	case ScreenHome, ScreenEditor, ScreenWizard, ScreenPreview, ScreenSettings, ScreenDashboard, ScreenGames:
		return true
	}
	return false
}

// needsStory reports whether a screen only makes sense with a story
// selected.
func (s Screen) needsStory() bool {
	return s == ScreenEditor || s == ScreenWizard || s == ScreenPreview
}

var (
	errInvalidScreen    = errors.New("unknown screen")
	errScreenNeedsStory = errors.New("screen requires a selected story")
)

// session is one client's view state: the active screen, the selected
// story and the page currently open for editing. It lives in memory
// and dies with the process, like everything else here.
type session struct {
	Screen  Screen `json:"screen"`
	StoryID string `json:"story_id,omitempty"`
	PageID  string `json:"page_id,omitempty"`
}

type sessionStore struct {
	mu       sync.RWMutex
	secret   []byte
	ttl      time.Duration
	sessions map[string]*session
}

func newSessionStore(secret []byte, ttl time.Duration) *sessionStore {
	return &sessionStore{
		secret:   secret,
		ttl:      ttl,
		sessions: map[string]*session{},
	}
}

// Issue mints a session token and its backing state, starting on the
// home screen.
func (st *sessionStore) Issue() (string, error) {
	id := uuid.NewString()
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(st.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(st.secret)
	if err != nil {
		return "", err
	}

	st.mu.Lock()
	st.sessions[id] = &session{Screen: ScreenHome}
	st.mu.Unlock()
	return token, nil
}

// Verify checks the bearer token and returns the session id. A valid
// token whose state was lost (the store is volatile) gets a fresh
// home-screen session under the same id.
func (st *sessionStore) Verify(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("invalid token format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return st.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("session expired")
		}
		return "", errors.New("invalid token")
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}

	st.mu.Lock()
	if _, ok := st.sessions[claims.Subject]; !ok {
		st.sessions[claims.Subject] = &session{Screen: ScreenHome}
	}
	st.mu.Unlock()
	return claims.Subject, nil
}

func (st *sessionStore) State(id string) session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if sess, ok := st.sessions[id]; ok {
		return *sess
	}
	return session{Screen: ScreenHome}
}

// Navigate moves the session to the given screen. Any screen is
// reachable from any other, except the story-bound screens, which
// refuse when no story is selected. There is no history stack.
func (st *sessionStore) Navigate(id string, screen Screen) error {
	if !screen.Valid() {
		return errInvalidScreen
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	sess := st.sessions[id]
	if sess == nil {
		sess = &session{Screen: ScreenHome}
		st.sessions[id] = sess
	}
	if screen.needsStory() && sess.StoryID == "" {
		return errScreenNeedsStory
	}
	sess.Screen = screen
	return nil
}

// EnterEditor selects a story and lands on the editor screen, as
// happens automatically on story creation or selection.
func (st *sessionStore) EnterEditor(id, storyID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sess := st.sessions[id]; sess != nil {
		sess.Screen = ScreenEditor
		sess.StoryID = storyID
		sess.PageID = ""
	}
}

func (st *sessionStore) OpenPage(id, pageID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sess := st.sessions[id]; sess != nil {
		sess.PageID = pageID
	}
}

// ClosePage clears the currently-open page reference if it points at
// pageID, as it must after that page is deleted.
func (st *sessionStore) ClosePage(id, pageID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sess := st.sessions[id]; sess != nil && sess.PageID == pageID {
		sess.PageID = ""
	}
}

// ForgetStory sends every session that had storyID selected back to
// the home screen. Called after the story is deleted.
func (st *sessionStore) ForgetStory(storyID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, sess := range st.sessions {
		if sess.StoryID == storyID {
			sess.Screen = ScreenHome
			sess.StoryID = ""
			sess.PageID = ""
		}
	}
}
