package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/BarnabaBobbili/StoryHaven/internal/data"
	"github.com/BarnabaBobbili/StoryHaven/internal/database"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Logger.SetLevel(log.INFO)
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}\n",
	}))

	s.DEBUG(e)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/api/v1/health")
	})

	e.POST("/api/v1/session", s.CreateSession)
	e.GET("/api/v1/state", s.GetState, s.SessionMiddleware())
	e.POST("/api/v1/navigate", s.Navigate, s.SessionMiddleware())

	e.POST("/api/v1/create-story", s.CreateStory, s.SessionMiddleware())
	e.POST("/api/v1/get-story", s.GetStory)
	e.GET("/api/v1/get-stories", s.GetStories)
	e.POST("/api/v1/select-story", s.SelectStory, s.SessionMiddleware())
	e.POST("/api/v1/delete-story", s.DeleteStory, s.SessionMiddleware())

	e.POST("/api/v1/add-page", s.AddPage, s.SessionMiddleware())
	e.POST("/api/v1/open-page", s.OpenPage, s.SessionMiddleware())
	e.POST("/api/v1/update-page", s.UpdatePage, s.SessionMiddleware())
	e.POST("/api/v1/delete-page", s.DeletePage, s.SessionMiddleware())
	e.POST("/api/v1/move-page", s.MovePage, s.SessionMiddleware())
	e.POST("/api/v1/add-sticker", s.AddSticker, s.SessionMiddleware())
	e.POST("/api/v1/remove-sticker", s.RemoveSticker, s.SessionMiddleware())
	e.POST("/api/v1/dictation", s.Dictation, s.SessionMiddleware())
	e.POST("/api/v1/set-drawing", s.SetDrawing, s.SessionMiddleware())

	e.GET("/api/v1/settings", s.GetSettings)
	e.PUT("/api/v1/settings", s.UpdateSettings, s.SessionMiddleware())
	e.GET("/api/v1/dashboard", s.GetDashboard)

	e.GET("/api/v1/export", s.Export)
	e.POST("/api/v1/import", s.Import, s.SessionMiddleware())
	e.POST("/api/v1/share-story", s.ShareStory)
	e.POST("/api/v1/import-story", s.ImportStory, s.SessionMiddleware())

	e.GET("/api/v1/health", s.healthHandler)
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Not found"})
	})

	return e
}

func (s *Server) DEBUG(e *echo.Echo) {
	if s.cfg.Debug {
		e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
			if len(reqBody) > 0 {
				var formattedReq any
				if err := json.Unmarshal(reqBody, &formattedReq); err != nil {
					c.Logger().Error("Error parsing request body: " + err.Error())
				} else if reqBodyJson, err := json.MarshalIndent(formattedReq, "", "  "); err == nil {
					c.Logger().Debug("Request Body:\n" + string(reqBodyJson))
				}
			}
			if len(resBody) > 0 {
				var formattedRes any
				if err := json.Unmarshal(resBody, &formattedRes); err != nil {
					c.Logger().Error("Error parsing response body: " + err.Error())
				} else if resBodyJson, err := json.MarshalIndent(formattedRes, "", "  "); err == nil {
					c.Logger().Debug("Response Body:\n" + string(resBodyJson))
				}
			}
		}))
	}
}

func (s *Server) SessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			sessionID, err := s.sessions.Verify(authHeader)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthorized: " + err.Error()})
			}
			c.Set("session_id", sessionID)
			return next(c)
		}
	}
}

func (s *Server) CreateSession(c echo.Context) error {
	token, err := s.sessions.Issue()
	if err != nil {
		c.Logger().Error(err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	return c.JSON(http.StatusCreated, map[string]string{"message": "Session created", "token": token})
}

func (s *Server) GetState(c echo.Context) error {
	state := s.sessions.State(sessionID(c))
	return c.JSON(http.StatusOK, map[string]any{"message": "State found", "state": state})
}

func (s *Server) Navigate(c echo.Context) error {
	var request struct {
		Screen string `json:"screen"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := s.sessions.Navigate(sessionID(c), Screen(request.Screen)); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Navigated", "state": s.sessions.State(sessionID(c))})
}

func (s *Server) CreateStory(c echo.Context) error {
	var request data.CreateStoryRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Invalid story", "errors": fieldErrors})
	}
	story, err := s.db.CreateStory(&request)
	if err != nil {
		c.Logger().Error(err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	s.sessions.EnterEditor(sessionID(c), story.ID)
	return c.JSON(http.StatusCreated, map[string]any{"message": "Story created successfully", "story": story})
}

func (s *Server) GetStory(c echo.Context) error {
	var request struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	story, err := s.db.GetStory(request.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Story not found"})
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Story found", "story": story})
}

func (s *Server) GetStories(c echo.Context) error {
	stories, err := s.db.GetStories()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Stories found", "stories": stories})
}

func (s *Server) SelectStory(c echo.Context) error {
	var request struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	story, err := s.db.GetStory(request.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Story not found"})
	}
	s.sessions.EnterEditor(sessionID(c), story.ID)
	return c.JSON(http.StatusOK, map[string]any{"message": "Story selected", "story": story})
}

func (s *Server) DeleteStory(c echo.Context) error {
	var request struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := s.db.DeleteStory(request.ID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Story not found"})
	}
	s.sessions.ForgetStory(request.ID)
	return c.JSON(http.StatusOK, map[string]string{"message": "Story deleted successfully"})
}

func (s *Server) AddPage(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	var request data.AddPageRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Invalid page", "errors": fieldErrors})
	}
	story, pageID, reward, err := s.db.AppendPage(storyID, &request)
	if err != nil {
		return s.dbError(c, err)
	}
	s.sessions.OpenPage(sessionID(c), pageID)
	return c.JSON(http.StatusCreated, rewarded(map[string]any{"message": "Page added", "story": story, "page_id": pageID}, reward))
}

func (s *Server) OpenPage(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	var request struct {
		PageID string `json:"page_id"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	story, err := s.db.GetStory(storyID)
	if err != nil {
		return s.dbError(c, err)
	}
	for _, page := range story.Pages {
		if page.ID == request.PageID {
			s.sessions.OpenPage(sessionID(c), page.ID)
			return c.JSON(http.StatusOK, map[string]any{"message": "Page opened", "page": page})
		}
	}
	return c.JSON(http.StatusNotFound, map[string]string{"message": "Page not found"})
}

func (s *Server) UpdatePage(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	var request data.UpdatePageRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Invalid page update", "errors": fieldErrors})
	}
	story, reward, err := s.db.UpdatePage(storyID, request.PageID, request.Patch)
	if err != nil {
		return s.dbError(c, err)
	}
	return c.JSON(http.StatusOK, rewarded(map[string]any{"message": "Page updated", "story": story}, reward))
}

func (s *Server) DeletePage(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	var request struct {
		PageID string `json:"page_id"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	story, reward, err := s.db.RemovePage(storyID, request.PageID)
	if err != nil {
		return s.dbError(c, err)
	}
	s.sessions.ClosePage(sessionID(c), request.PageID)
	return c.JSON(http.StatusOK, rewarded(map[string]any{"message": "Page deleted", "story": story}, reward))
}

func (s *Server) MovePage(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	var request data.MovePageRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	story, reward, err := s.db.MovePage(storyID, request.From, request.To)
	if err != nil {
		return s.dbError(c, err)
	}
	return c.JSON(http.StatusOK, rewarded(map[string]any{"message": "Page moved", "story": story}, reward))
}

func (s *Server) AddSticker(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	var request data.AddStickerRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Invalid sticker", "errors": fieldErrors})
	}
	story, reward, err := s.db.AddSticker(storyID, request.PageID, request.Sticker)
	if err != nil {
		return s.dbError(c, err)
	}
	return c.JSON(http.StatusOK, rewarded(map[string]any{"message": "Sticker added", "story": story}, reward))
}

func (s *Server) RemoveSticker(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	var request data.RemoveStickerRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	story, reward, err := s.db.RemoveSticker(storyID, request.PageID, request.Index)
	if err != nil {
		return s.dbError(c, err)
	}
	return c.JSON(http.StatusOK, rewarded(map[string]any{"message": "Sticker removed", "story": story}, reward))
}

// Dictation receives the single final transcript of a recording
// session and appends it to the page currently open for editing.
func (s *Server) Dictation(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	state := s.sessions.State(sessionID(c))
	if state.PageID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "No page open for editing"})
	}
	var request data.DictationRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Invalid transcript", "errors": fieldErrors})
	}
	story, reward, err := s.db.AppendDictation(storyID, state.PageID, request.Transcript)
	if err != nil {
		return s.dbError(c, err)
	}
	return c.JSON(http.StatusOK, rewarded(map[string]any{"message": "Transcript added", "story": story}, reward))
}

func (s *Server) SetDrawing(c echo.Context) error {
	storyID, errResp := s.selectedStory(c)
	if errResp != nil {
		return errResp(c)
	}
	var request data.SetDrawingRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Invalid drawing", "errors": fieldErrors})
	}
	story, reward, err := s.db.SetDrawing(storyID, request.PageID, request.Drawing)
	if err != nil {
		return s.dbError(c, err)
	}
	return c.JSON(http.StatusOK, rewarded(map[string]any{"message": "Drawing saved", "story": story}, reward))
}

func (s *Server) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"message": "Settings found", "settings": s.db.GetSettings()})
}

func (s *Server) UpdateSettings(c echo.Context) error {
	var request data.Settings
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if fieldErrors, err := data.ValidateStruct(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"message": "Invalid settings", "errors": fieldErrors})
	}
	s.db.UpdateSettings(request)
	return c.JSON(http.StatusOK, map[string]any{"message": "Settings updated", "settings": request})
}

func (s *Server) GetDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"message": "Dashboard ready", "dashboard": s.db.Dashboard()})
}

func (s *Server) Export(c echo.Context) error {
	return c.JSON(http.StatusOK, s.db.Export())
}

func (s *Server) Import(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	count, err := s.db.Import(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Could not import: invalid backup file"})
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Stories imported", "count": count})
}

func (s *Server) ShareStory(c echo.Context) error {
	var request struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	share, err := s.db.ShareStory(request.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Story not found"})
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Story ready to share", "share": string(share)})
}

func (s *Server) ImportStory(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	story, err := s.db.ImportStory(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Could not import story"})
	}
	return c.JSON(http.StatusCreated, map[string]any{"message": "Story imported", "story": story})
}

func (s *Server) healthHandler(c echo.Context) error {
	health, err := s.db.Health()
	if err != nil {
		c.Logger().Error(err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	return c.JSON(http.StatusOK, health)
}

func sessionID(c echo.Context) string {
	id, _ := c.Get("session_id").(string)
	return id
}

// selectedStory resolves the session's selected story. Page
// operations always target it, never an arbitrary story id.
func (s *Server) selectedStory(c echo.Context) (string, echo.HandlerFunc) {
	state := s.sessions.State(sessionID(c))
	if state.StoryID == "" {
		return "", func(c echo.Context) error {
			return c.JSON(http.StatusBadRequest, map[string]string{"message": "No story selected"})
		}
	}
	return state.StoryID, nil
}

func rewarded(body map[string]any, reward data.Reward) map[string]any {
	if reward != data.RewardNone {
		body["reward"] = reward
	}
	return body
}

func (s *Server) dbError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, database.ErrStoryNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Story not found"})
	case errors.Is(err, database.ErrPageNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Page not found"})
	case errors.Is(err, database.ErrBadIndex), errors.Is(err, database.ErrInvalidBackground):
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	default:
		c.Logger().Error(err.Error())
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
}
