package tripagent

import (
	"github.com/gorilla/websocket"

	"github.com/Desarso/tripagent/sessions"
)

// Re-export session types so callers can drive turns from the root package
type AgentSession = sessions.AgentSession
type HTTPSession = sessions.HTTPSession
type WebSocketWriter = sessions.WebSocketWriter
type AgentError = sessions.AgentError
type SSEWriter = sessions.SSEWriter
type ResponseWaiter = sessions.ResponseWaiter
type AgentInterface = sessions.AgentInterface
type TurnEvent = sessions.TurnEvent
type TurnService = sessions.TurnService

// Re-export constructor functions
func NewAgentSession(connID string, conn *websocket.Conn, service TurnService) *AgentSession {
	return sessions.NewAgentSession(connID, conn, service)
}

func NewHTTPSession(sessionID string, service TurnService) *HTTPSession {
	return sessions.NewHTTPSession(sessionID, service)
}
