package sessions

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Desarso/tripagent/models"
)

// Client message types.
const (
	ClientMessage = "message"
	ClientResume  = "resume"
	ClientPing    = "ping"
)

// WebSocketClientMessage is what the browser sends over the socket.
type WebSocketClientMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// AgentSession encapsulates WebSocket agent interaction logic
type AgentSession struct {
	Service        TurnService
	Conn           *websocket.Conn
	Writer         *WebSocketWriter
	ResponseWaiter *ResponseWaiter
	RenderTimeout  time.Duration
	Logger         *log.Logger

	busy atomic.Bool
}

// Serve reads client messages until the connection closes. Turns run in
// their own goroutine so resume acks keep flowing while a turn is waiting.
func (as *AgentSession) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for {
		var msg WebSocketClientMessage
		if err := as.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				as.Logger.Printf("Client closed the connection")
				return nil
			}
			return err
		}

		switch msg.Type {
		case ClientMessage:
			if msg.Message == "" {
				as.Writer.WriteError("message is required")
				continue
			}
			if !as.busy.CompareAndSwap(false, true) {
				as.Writer.WriteError("a turn is already in progress")
				continue
			}
			go func(sessionID, text string) {
				defer as.busy.Store(false)
				if err := as.RunInteraction(ctx, sessionID, text); err != nil {
					as.Logger.Printf("Turn failed: %v", err)
				}
			}(msg.SessionID, msg.Message)
		case ClientResume:
			as.ResponseWaiter.ProvideResponse(msg.Type)
		case ClientPing:
			as.Writer.WriteResponse(map[string]string{"type": "pong"})
		default:
			as.Writer.WriteError("unknown message type: " + msg.Type)
		}
	}
}

// RunInteraction handles the complete agent interaction loop for one user
// message, including every map suspension.
func (as *AgentSession) RunInteraction(ctx context.Context, sessionID, text string) error {
	as.Writer.StartTime = time.Now()
	as.ResponseWaiter.Drain()
	sink := as.sink()

	res, err := as.Service.Turn(ctx, sessionID, text, sink)
	for err == nil && res.Status == models.TurnSuspended {
		// an empty id asked for a new session; resume the one created
		sessionID = res.SessionID
		as.awaitRender(ctx)
		res, err = as.Service.Resume(ctx, sessionID, sink)
	}
	if err != nil {
		return as.sendError(err)
	}
	return as.Writer.WriteDone(res.SessionID)
}

func (as *AgentSession) sink() EventSink {
	return func(ev TurnEvent) {
		if err := as.Writer.WriteResponse(ev); err != nil {
			as.Logger.Printf("Error sending %s event: %v", ev.Type, err)
		}
	}
}

func (as *AgentSession) sendError(err error) error {
	var agentErr *AgentError
	if errors.As(err, &agentErr) && agentErr.Fatal {
		// already delivered as an error event
		return err
	}
	if werr := as.Writer.WriteError(err.Error()); werr != nil {
		as.Logger.Printf("Error sending error: %v", werr)
	}
	return err
}
