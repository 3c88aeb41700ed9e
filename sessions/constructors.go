package sessions

import (
	"fmt"
	"log"
	"os"

	"github.com/gorilla/websocket"
)

// NewAgentSession creates a new WebSocket agent session for one connection.
func NewAgentSession(connID string, conn *websocket.Conn, service TurnService) *AgentSession {
	logger := log.New(os.Stdout, fmt.Sprintf("[WS %s] ", connID), log.LstdFlags)
	return &AgentSession{
		Service:        service,
		Conn:           conn,
		Writer:         &WebSocketWriter{Conn: conn, Logger: logger},
		ResponseWaiter: NewResponseWaiter(),
		RenderTimeout:  DefaultRenderTimeout,
		Logger:         logger,
	}
}

// NewHTTPSession creates a new HTTP session
func NewHTTPSession(sessionID string, service TurnService) *HTTPSession {
	logger := log.New(os.Stdout, fmt.Sprintf("[HTTP %s] ", sessionID), log.LstdFlags)
	return &HTTPSession{
		Service:   service,
		SessionID: sessionID,
		Logger:    logger,
	}
}

// HTTPSession handles HTTP-based chat interactions
type HTTPSession struct {
	Service   TurnService
	SessionID string
	Logger    *log.Logger
}
