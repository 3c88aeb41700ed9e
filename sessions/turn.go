package sessions

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Desarso/tripagent/common_tools"
	"github.com/Desarso/tripagent/models"
	"github.com/Desarso/tripagent/stores"
)

// DefaultMaxRounds bounds the tool rounds of one turn before a final answer
// is forced.
const DefaultMaxRounds = 8

// budgetNote is sent, never stored, with the forced final request.
const budgetNote = "[SYSTEM NOTE] The tool budget for this turn is exhausted. Answer the user now with the information you already have. Do not request any more tools."

// Runner drives turns: model call, tool dispatch, repeat until the model
// answers without tools, a map round suspends the turn, or the round budget
// runs out. The budget covers the whole turn, resumes included.
type Runner struct {
	Agent     AgentInterface
	MaxRounds int
	Traces    stores.TraceStore // optional
	Logger    *log.Logger       // nil logs with a per-session prefix
}

func NewRunner(agent AgentInterface, maxRounds int) *Runner {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Runner{
		Agent:     agent,
		MaxRounds: maxRounds,
	}
}

// Run appends the user message and drives the turn.
func (r *Runner) Run(ctx context.Context, session *models.ChatSession, text string, sink EventSink) (models.TurnResult, error) {
	if session.NeedsResume() {
		return models.TurnResult{}, &AgentError{Message: "session has a suspended turn; resume it first", Fatal: false}
	}
	session.Messages = append(session.Messages, models.UserMessage(text))
	session.RefreshTitle()
	return r.loop(ctx, session, sink)
}

// Resume continues a suspended turn with the identical accumulated sequence.
func (r *Runner) Resume(ctx context.Context, session *models.ChatSession, sink EventSink) (models.TurnResult, error) {
	if !session.NeedsResume() {
		return models.TurnResult{}, &AgentError{Message: "session has no suspended turn", Fatal: false}
	}
	return r.loop(ctx, session, sink)
}

func (r *Runner) loop(ctx context.Context, session *models.ChatSession, sink EventSink) (models.TurnResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(os.Stdout, fmt.Sprintf("[TURN %s] ", session.ID), log.LstdFlags)
	}
	env := &common_tools.Env{Session: session}
	used := RoundsUsed(session.Messages)
	result := models.TurnResult{SessionID: session.ID, Rounds: used}

	for round := used + 1; round <= r.MaxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return result, &AgentError{Message: fmt.Sprintf("turn cancelled: %v", err), Fatal: false}
		}
		logger.Printf("=== Round %d ===", round)
		result.Rounds = round

		session.Messages = stores.SanitizeHistory(session.Messages)
		res, err := r.Agent.Run(ctx, models.Model_Request{
			Messages: session.Messages,
			Tools:    r.Agent.Declarations(),
		})
		if err != nil {
			return result, r.fail(sink, session, fmt.Sprintf("model request failed: %v", err))
		}

		if !res.HasToolCalls() {
			return r.finish(logger, sink, session, result, res.Text())
		}

		if interim := res.Text(); interim != "" {
			sink.emit(TurnEvent{Type: EventProgress, SessionID: session.ID, Round: round, Text: interim})
		}
		session.Messages = append(session.Messages, models.AssistantToolCalls(res.ToolCalls))

		suspend := false
		for _, call := range res.ToolCalls {
			out := r.execute(ctx, logger, sink, env, round, call)
			if out.Suspend {
				suspend = true
				if out.Route != nil {
					result.Route = out.Route
				}
			}
		}
		session.UpdatedAt = time.Now()

		if suspend {
			if result.Route == nil {
				result.Route = session.Route
			}
			logger.Printf("Suspending after round %d for map render", round)
			sink.emit(TurnEvent{Type: EventMapReady, SessionID: session.ID, Round: round, Route: result.Route})
			result.Status = models.TurnSuspended
			return result, nil
		}
	}

	logger.Printf("Round budget of %d exhausted, forcing a final answer", r.MaxRounds)
	session.Messages = stores.SanitizeHistory(session.Messages)
	msgs := append(append([]models.Message{}, session.Messages...), models.SystemMessage(budgetNote))
	res, err := r.Agent.Run(ctx, models.Model_Request{
		Messages:   msgs,
		Tools:      r.Agent.Declarations(),
		ToolChoice: models.ToolChoiceNone,
	})
	if err != nil {
		return result, r.fail(sink, session, fmt.Sprintf("final request failed: %v", err))
	}
	result.Rounds++
	return r.finish(logger, sink, session, result, res.Text())
}

// RoundsUsed counts the tool rounds since the last user message, so the
// budget holds across suspensions.
func RoundsUsed(msgs []models.Message) int {
	n := 0
	for i := len(msgs) - 1; i >= 0 && msgs[i].Role != models.RoleUser; i-- {
		if msgs[i].Role == models.RoleAssistant && msgs[i].HasToolCalls() {
			n++
		}
	}
	return n
}

func (r *Runner) execute(ctx context.Context, logger *log.Logger, sink EventSink, env *common_tools.Env, round int, call models.ToolCall) common_tools.Result {
	logger.Printf("Executing tool %s (call %s)", call.Function.Name, call.ID)
	sink.emit(TurnEvent{
		Type:       EventToolCall,
		SessionID:  env.Session.ID,
		Round:      round,
		Tool:       call.Function.Name,
		ToolCallID: call.ID,
		Arguments:  call.Function.Arguments,
	})

	start := time.Now()
	out := r.Agent.ExecuteTool(ctx, env, call)
	elapsed := time.Since(start)

	env.Session.Messages = append(env.Session.Messages, models.ToolResultMessage(call.ID, out.Content))
	sink.emit(TurnEvent{
		Type:       EventToolResult,
		SessionID:  env.Session.ID,
		Round:      round,
		Tool:       call.Function.Name,
		ToolCallID: call.ID,
		Result:     out.Content,
		IsError:    out.IsError,
	})
	r.trace(logger, env.Session.ID, round, call, out, elapsed)
	return out
}

func (r *Runner) trace(logger *log.Logger, sessionID string, round int, call models.ToolCall, out common_tools.Result, elapsed time.Duration) {
	if r.Traces == nil {
		return
	}
	args, _ := call.Args()
	err := r.Traces.SaveTrace(&stores.ToolTrace{
		SessionID:   sessionID,
		ToolCallID:  call.ID,
		Tool:        call.Function.Name,
		Round:       round,
		DurationMS:  elapsed.Milliseconds(),
		ResultBytes: len(out.Content),
		IsError:     out.IsError,
		Suspended:   out.Suspend,
		Args:        args,
	})
	if err != nil {
		logger.Printf("Error saving trace for %s: %v", call.ID, err)
	}
}

func (r *Runner) finish(logger *log.Logger, sink EventSink, session *models.ChatSession, result models.TurnResult, text string) (models.TurnResult, error) {
	if text == "" {
		return result, r.fail(sink, session, "model returned an empty response")
	}
	session.Messages = append(session.Messages, models.AssistantMessage(text))
	session.UpdatedAt = time.Now()
	logger.Printf("Final answer: %d chars after %d rounds", len(text), result.Rounds)

	result.Status = models.TurnCompleted
	result.Reply = text
	sink.emit(TurnEvent{Type: EventFinal, SessionID: session.ID, Round: result.Rounds, Text: text})
	return result, nil
}

func (r *Runner) fail(sink EventSink, session *models.ChatSession, message string) error {
	sink.emit(TurnEvent{Type: EventError, SessionID: session.ID, Text: message})
	return &AgentError{Message: message, Fatal: true}
}

// Locker hands out one mutex per session id so turns of the same session
// never overlap.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the session is free and returns its unlock func.
func (l *Locker) Lock(sessionID string) func() {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Forget drops the mutex of a deleted session.
func (l *Locker) Forget(sessionID string) {
	l.mu.Lock()
	delete(l.locks, sessionID)
	l.mu.Unlock()
}
