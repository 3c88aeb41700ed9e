package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Desarso/tripagent/models"
)

// RunTurn handles a complete request-response cycle. A suspended result is
// returned as is; the client renders the map and calls ResumeTurn.
func (s *HTTPSession) RunTurn(ctx context.Context, text string) (models.TurnResult, error) {
	s.Logger.Printf("Processing user message (%d chars)", len(text))
	res, err := s.Service.Turn(ctx, s.SessionID, text, nil)
	if err != nil {
		return res, s.wrap(err)
	}
	s.Logger.Printf("Turn %s after %d rounds", res.Status, res.Rounds)
	return res, nil
}

// ResumeTurn continues a suspended turn.
func (s *HTTPSession) ResumeTurn(ctx context.Context) (models.TurnResult, error) {
	s.Logger.Printf("Resuming suspended turn")
	res, err := s.Service.Resume(ctx, s.SessionID, nil)
	if err != nil {
		return res, s.wrap(err)
	}
	s.Logger.Printf("Turn %s after %d rounds", res.Status, res.Rounds)
	return res, nil
}

// RunSSEInteraction streams the turn's events. The map_ready event is the
// render point: once it is flushed the turn resumes on its own.
func (s *HTTPSession) RunSSEInteraction(ctx context.Context, text string, writer SSEWriter) error {
	s.Logger.Printf("Processing SSE user message (%d chars)", len(text))
	sink := s.sseSink(writer)
	res, err := s.Service.Turn(ctx, s.SessionID, text, sink)
	return s.streamRest(ctx, writer, sink, res, err)
}

// RunSSEResume streams the continuation of a suspended turn.
func (s *HTTPSession) RunSSEResume(ctx context.Context, writer SSEWriter) error {
	sink := s.sseSink(writer)
	res, err := s.Service.Resume(ctx, s.SessionID, sink)
	return s.streamRest(ctx, writer, sink, res, err)
}

func (s *HTTPSession) streamRest(ctx context.Context, writer SSEWriter, sink EventSink, res models.TurnResult, err error) error {
	for err == nil && res.Status == models.TurnSuspended {
		s.SessionID = res.SessionID
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res, err = s.Service.Resume(ctx, s.SessionID, sink)
	}
	if err != nil {
		s.Logger.Printf("SSE turn failed: %v", err)
		var agentErr *AgentError
		if !errors.As(err, &agentErr) || !agentErr.Fatal {
			// Fatal runner failures were already emitted as error events.
			if werr := writer.WriteSSEError(err); werr != nil {
				return werr
			}
			writer.Flush()
		}
		return s.wrap(err)
	}
	if res.SessionID != "" {
		s.SessionID = res.SessionID
	}
	done, _ := json.Marshal(map[string]interface{}{"type": EventDone, "session_id": s.SessionID, "rounds": res.Rounds})
	if werr := writer.WriteSSE(string(done)); werr != nil {
		return werr
	}
	writer.Flush()
	return nil
}

func (s *HTTPSession) sseSink(writer SSEWriter) EventSink {
	return func(ev TurnEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			s.Logger.Printf("Error marshaling %s event: %v", ev.Type, err)
			return
		}
		if err := writer.WriteSSE(string(data)); err != nil {
			s.Logger.Printf("Error writing %s event: %v", ev.Type, err)
			return
		}
		writer.Flush()
	}
}

func (s *HTTPSession) wrap(err error) error {
	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return err
	}
	return fmt.Errorf("turn for %s failed: %w", s.SessionID, err)
}
