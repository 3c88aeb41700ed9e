// Package api exposes the trip agent over gin: auth, sessions, turns,
// artifacts and the websocket stream.
package api

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/swaggo/swag"

	_ "github.com/Desarso/tripagent/docs"
	"github.com/Desarso/tripagent/workspace"
)

const workspaceKey = "workspace"

type Server struct {
	Service  *workspace.Service
	Upgrader websocket.Upgrader
	Logger   *log.Logger
}

func NewServer(svc *workspace.Service) *Server {
	return &Server{
		Service: svc,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		Logger: log.New(os.Stdout, "[API] ", log.LstdFlags),
	}
}

// Router builds the gin engine with every route mounted.
func (s *Server) Router() *gin.Engine {
	router := gin.Default()
	router.GET("/healthz", s.health)
	router.GET("/swagger/doc.json", func(c *gin.Context) {
		doc, err := swag.ReadDoc()
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	})

	r := router.Group("/api/v1")
	r.POST("/auth/register", s.register)
	r.POST("/auth/login", s.login)
	r.POST("/auth/guest", s.guest)

	authed := r.Group("", s.requireToken)
	authed.POST("/auth/logout", s.logout)
	authed.GET("/preferences", s.getPreferences)
	authed.PUT("/preferences", s.putPreferences)
	authed.GET("/profile", s.getProfile)
	authed.PUT("/profile", s.putProfile)
	authed.GET("/sessions", s.listSessions)
	authed.POST("/sessions", s.createSession)
	authed.GET("/sessions/:id", s.getSession)
	authed.DELETE("/sessions/:id", s.deleteSession)
	authed.POST("/sessions/:id/messages", s.postMessage)
	authed.POST("/sessions/:id/resume", s.resume)
	authed.GET("/sessions/:id/itinerary.docx", s.itineraryDocx)
	authed.GET("/sessions/:id/itinerary.txt", s.itineraryText)
	authed.GET("/sessions/:id/itinerary.html", s.itineraryHTML)
	authed.GET("/sessions/:id/map", s.mapHTML)
	authed.GET("/sessions/:id/traffic", s.traffic)
	r.GET("/ws", s.requireToken, s.websocket)

	return router
}

// requireToken resolves the bearer token (or ?token= for websockets) to a
// workspace.
func (s *Server) requireToken(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		token = c.Query("token")
	}
	ws, err := s.Service.Workspace(token)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Set("token", token)
	c.Set(workspaceKey, ws)
	c.Next()
}

func currentWorkspace(c *gin.Context) *workspace.Workspace {
	return c.MustGet(workspaceKey).(*workspace.Workspace)
}

func (s *Server) health(c *gin.Context) {
	if s.Service.Store != nil {
		if err := s.Service.Store.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
