package sessions

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Desarso/tripagent/common_tools"
	"github.com/Desarso/tripagent/models"
)

// AgentError is a turn failure surfaced to the user. Fatal errors end the
// turn; the others reject it before anything runs.
type AgentError struct {
	Message string
	Fatal   bool
}

func (e *AgentError) Error() string {
	return e.Message
}

// AgentInterface is the model plus tool registry a Runner drives.
type AgentInterface interface {
	Run(ctx context.Context, request models.Model_Request) (models.Model_Response, error)
	Declarations() []models.FunctionDeclaration
	ExecuteTool(ctx context.Context, env *common_tools.Env, call models.ToolCall) common_tools.Result
}

// Turn event types.
const (
	EventProgress   = "progress"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventMapReady   = "map_ready"
	EventFinal      = "final"
	EventError      = "error"
	EventDone       = "done"
)

// TurnEvent is one progress notification of a running turn.
type TurnEvent struct {
	Type       string                `json:"type"`
	SessionID  string                `json:"session_id,omitempty"`
	Round      int                   `json:"round,omitempty"`
	Text       string                `json:"text,omitempty"`
	Tool       string                `json:"tool,omitempty"`
	ToolCallID string                `json:"tool_call_id,omitempty"`
	Arguments  string                `json:"arguments,omitempty"`
	Result     string                `json:"result,omitempty"`
	IsError    bool                  `json:"is_error,omitempty"`
	Route      *models.RouteArtifact `json:"route,omitempty"`
}

// EventSink receives turn events. A nil sink drops them.
type EventSink func(TurnEvent)

func (s EventSink) emit(ev TurnEvent) {
	if s != nil {
		s(ev)
	}
}

// TurnService runs turns against a caller's sessions. The workspace layer
// implements it; the transport drivers only see this.
type TurnService interface {
	Turn(ctx context.Context, sessionID, text string, sink EventSink) (models.TurnResult, error)
	Resume(ctx context.Context, sessionID string, sink EventSink) (models.TurnResult, error)
}

// WebSocketWriter serializes all writes to one connection.
type WebSocketWriter struct {
	Conn      *websocket.Conn
	Logger    *log.Logger
	StartTime time.Time
	mu        sync.Mutex
}

func (w *WebSocketWriter) WriteResponse(resp interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(resp)
}

func (w *WebSocketWriter) WriteError(message string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Conn.WriteJSON(TurnEvent{Type: EventError, Text: message})
}

// WriteDone closes a turn and names the session it ran in.
func (w *WebSocketWriter) WriteDone(sessionID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.StartTime.IsZero() && w.Logger != nil {
		w.Logger.Printf("Turn finished in %v", time.Since(w.StartTime))
	}
	return w.Conn.WriteJSON(map[string]string{"type": EventDone, "session_id": sessionID})
}

// SSEWriter receives a turn's events as server-sent event payloads.
type SSEWriter interface {
	WriteSSE(data string) error
	WriteSSEError(err error) error
	Flush()
}

// ResponseWaiter hands a client acknowledgement to the goroutine waiting on it.
type ResponseWaiter struct {
	responseChan chan string
	isWaiting    bool
	mu           sync.Mutex
}

func NewResponseWaiter() *ResponseWaiter {
	return &ResponseWaiter{
		responseChan: make(chan string, 1),
	}
}

// WaitForResponse blocks until a response arrives, the timeout passes or ctx
// is done. ok is false unless a response was received.
func (rw *ResponseWaiter) WaitForResponse(ctx context.Context, timeout time.Duration) (string, bool) {
	rw.mu.Lock()
	rw.isWaiting = true
	rw.mu.Unlock()

	defer func() {
		rw.mu.Lock()
		rw.isWaiting = false
		rw.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case response := <-rw.responseChan:
		return response, true
	case <-timer.C:
		return "", false
	case <-ctx.Done():
		return "", false
	}
}

// ProvideResponse delivers a response. It does not require a waiter yet: an
// ack can arrive before WaitForResponse starts, and a stale one is replaced.
func (rw *ResponseWaiter) ProvideResponse(response string) bool {
	select {
	case rw.responseChan <- response:
		return true
	default:
		select {
		case <-rw.responseChan:
		default:
		}
		select {
		case rw.responseChan <- response:
			return true
		default:
			return false
		}
	}
}

// Drain discards a pending response.
func (rw *ResponseWaiter) Drain() {
	select {
	case <-rw.responseChan:
	default:
	}
}

func (rw *ResponseWaiter) IsWaiting() bool {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.isWaiting
}
