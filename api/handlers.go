package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Desarso/tripagent/itinerary"
	"github.com/Desarso/tripagent/models"
	"github.com/Desarso/tripagent/sessions"
)

type credentials struct {
	Email       string   `json:"email" binding:"required"`
	Password    string   `json:"password" binding:"required"`
	Preferences []string `json:"preferences"`
}

type authResponse struct {
	Token       string   `json:"token"`
	Email       string   `json:"email,omitempty"`
	Guest       bool     `json:"guest"`
	Preferences []string `json:"preferences"`
}

type preferencesBody struct {
	Preferences []string `json:"preferences"`
}

type sessionResponse struct {
	ID        string                       `json:"id"`
	Title     string                       `json:"title"`
	Messages  []models.ChatMessageResponse `json:"messages"`
	Itinerary *string                      `json:"itinerary_content,omitempty"`
	HasMap    bool                         `json:"has_map"`
	Resumable bool                         `json:"resumable"`
}

func (s *Server) register(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	token, ws, err := s.Service.Register(body.Email, body.Password, body.Preferences)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse{Token: token, Email: ws.Email, Preferences: ws.Preferences()})
}

func (s *Server) login(c *gin.Context) {
	var body credentials
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	token, ws, err := s.Service.Login(body.Email, body.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, Email: ws.Email, Preferences: ws.Preferences()})
}

func (s *Server) guest(c *gin.Context) {
	token, ws := s.Service.Guest()
	c.JSON(http.StatusCreated, authResponse{Token: token, Guest: true, Preferences: ws.Preferences()})
}

func (s *Server) logout(c *gin.Context) {
	s.Service.Logout(c.GetString("token"))
	c.Status(http.StatusNoContent)
}

func (s *Server) getPreferences(c *gin.Context) {
	c.JSON(http.StatusOK, preferencesBody{Preferences: currentWorkspace(c).Preferences()})
}

func (s *Server) putPreferences(c *gin.Context) {
	var body preferencesBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	tags, err := s.Service.SetPreferences(currentWorkspace(c), body.Preferences)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, preferencesBody{Preferences: tags})
}

func (s *Server) getProfile(c *gin.Context) {
	c.JSON(http.StatusOK, currentWorkspace(c).Profile())
}

func (s *Server) putProfile(c *gin.Context) {
	var body models.Profile
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if body.GroupSize < 0 {
		badRequest(c, errors.New("group_size must not be negative"))
		return
	}
	ws := currentWorkspace(c)
	ws.SetProfile(body)
	c.JSON(http.StatusOK, ws.Profile())
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": currentWorkspace(c).Summaries()})
}

func (s *Server) createSession(c *gin.Context) {
	session, err := s.Service.CreateSession(currentWorkspace(c))
	if session == nil {
		abortWithError(c, err)
		return
	}
	if err != nil {
		s.Logger.Printf("Session %s created in memory only: %v", session.ID, err)
	}
	c.JSON(http.StatusCreated, toSessionResponse(session))
}

func (s *Server) getSession(c *gin.Context) {
	session, err := currentWorkspace(c).Session(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.Service.DeleteSession(currentWorkspace(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toSessionResponse(s *models.ChatSession) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		Messages:  models.ToChatMessageResponses(s.Messages),
		Itinerary: s.Itinerary,
		HasMap:    s.Route != nil && s.Route.MapHTML != "",
		Resumable: s.NeedsResume(),
	}
}

func wantsStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

// postMessage runs a turn. JSON callers get the result (possibly
// suspended); SSE callers get every event through to completion.
func (s *Server) postMessage(c *gin.Context) {
	var req models.Turn_Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ws := currentWorkspace(c)
	if req.Profile != nil {
		ws.SetProfile(*req.Profile)
	}
	session := sessions.NewHTTPSession(c.Param("id"), s.Service.Bind(ws))

	if wantsStream(c) {
		w := &GinSSEWriter{Context: c}
		w.start()
		if err := session.RunSSEInteraction(c.Request.Context(), req.Message, w); err != nil {
			s.Logger.Printf("SSE turn failed: %v", err)
		}
		return
	}
	res, err := session.RunTurn(c.Request.Context(), req.Message)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) resume(c *gin.Context) {
	session := sessions.NewHTTPSession(c.Param("id"), s.Service.Bind(currentWorkspace(c)))
	if wantsStream(c) {
		w := &GinSSEWriter{Context: c}
		w.start()
		if err := session.RunSSEResume(c.Request.Context(), w); err != nil {
			s.Logger.Printf("SSE resume failed: %v", err)
		}
		return
	}
	res, err := session.ResumeTurn(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

var errNoItinerary = errors.New("no itinerary saved for this session")

func (s *Server) savedItinerary(c *gin.Context) (string, bool) {
	session, err := currentWorkspace(c).Session(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return "", false
	}
	if session.Itinerary == nil || *session.Itinerary == "" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errNoItinerary.Error()})
		return "", false
	}
	return *session.Itinerary, true
}

func (s *Server) itineraryDocx(c *gin.Context) {
	content, ok := s.savedItinerary(c)
	if !ok {
		return
	}
	data, err := itinerary.Docx(content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="My_Trip_Plan.docx"`)
	c.Data(http.StatusOK, itinerary.DocxMIME, data)
}

func (s *Server) itineraryText(c *gin.Context) {
	content, ok := s.savedItinerary(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+itinerary.TextFileName+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

func (s *Server) itineraryHTML(c *gin.Context) {
	content, ok := s.savedItinerary(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", itinerary.HTML(content))
}

func (s *Server) savedRoute(c *gin.Context) (*models.RouteArtifact, bool) {
	session, err := currentWorkspace(c).Session(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	if session.Route == nil || session.Route.MapHTML == "" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no map generated for this session"})
		return nil, false
	}
	return session.Route, true
}

func (s *Server) mapHTML(c *gin.Context) {
	route, ok := s.savedRoute(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(route.MapHTML))
}

func (s *Server) traffic(c *gin.Context) {
	route, ok := s.savedRoute(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"traffic": route.Traffic})
}

func (s *Server) websocket(c *gin.Context) {
	conn, err := s.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Printf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := sessions.NewAgentSession(uuid.NewString()[:8], conn, s.Service.Bind(currentWorkspace(c)))
	if err := session.Serve(c.Request.Context()); err != nil {
		s.Logger.Printf("Websocket closed: %v", err)
	}
}
