package sessions

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Desarso/tripagent/models"
)

// runnerService serves one in-memory session straight through a Runner.
type runnerService struct {
	runner  *Runner
	session *models.ChatSession
}

func (s *runnerService) Turn(ctx context.Context, sessionID, text string, sink EventSink) (models.TurnResult, error) {
	return s.runner.Run(ctx, s.session, text, sink)
}

func (s *runnerService) Resume(ctx context.Context, sessionID string, sink EventSink) (models.TurnResult, error) {
	return s.runner.Resume(ctx, s.session, sink)
}

type recordingSSE struct {
	events  []map[string]interface{}
	errs    []error
	flushes int
}

func (w *recordingSSE) WriteSSE(data string) error {
	var ev map[string]interface{}
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return err
	}
	w.events = append(w.events, ev)
	return nil
}

func (w *recordingSSE) WriteSSEError(err error) error {
	w.errs = append(w.errs, err)
	return nil
}

func (w *recordingSSE) Flush() { w.flushes++ }

func mapThenAnswer() *MockAgent {
	return &MockAgent{Registry: echoRegistry(), RunFunc: func(call int, req models.Model_Request) (models.Model_Response, error) {
		if call == 1 {
			return models.NewToolCallResponse(models.NewToolCall("m1", "generate_map_with_traffic", map[string]interface{}{
				"locations_list": []interface{}{"A", "B"},
			})), nil
		}
		return models.NewTextResponse("Route ready."), nil
	}}
}

func TestHTTPSessionJSONSuspendsThenResumes(t *testing.T) {
	svc := &runnerService{runner: NewRunner(mapThenAnswer(), 8), session: newSession()}
	s := NewHTTPSession("s1", svc)

	res, err := s.RunTurn(context.Background(), "map please")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Status != models.TurnSuspended || res.Route == nil {
		t.Fatalf("expected suspended with route, got %+v", res)
	}
	res, err = s.ResumeTurn(context.Background())
	if err != nil {
		t.Fatalf("ResumeTurn: %v", err)
	}
	if res.Status != models.TurnCompleted || res.Reply != "Route ready." {
		t.Errorf("unexpected resume result %+v", res)
	}
}

func TestHTTPSessionSSEStreamsThroughMapReady(t *testing.T) {
	svc := &runnerService{runner: NewRunner(mapThenAnswer(), 8), session: newSession()}
	w := &recordingSSE{}

	if err := NewHTTPSession("s1", svc).RunSSEInteraction(context.Background(), "map please", w); err != nil {
		t.Fatalf("RunSSEInteraction: %v", err)
	}
	var types []string
	for _, ev := range w.events {
		types = append(types, ev["type"].(string))
	}
	want := []string{EventToolCall, EventToolResult, EventMapReady, EventFinal, EventDone}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, types[i], want[i])
		}
	}
	if w.flushes < len(want) {
		t.Errorf("each event should be flushed, got %d flushes", w.flushes)
	}
}

func TestResponseWaiter(t *testing.T) {
	rw := NewResponseWaiter()
	rw.ProvideResponse("resume")
	if got, ok := rw.WaitForResponse(context.Background(), time.Second); !ok || got != "resume" {
		t.Errorf("early ack lost: %q %v", got, ok)
	}
	if _, ok := rw.WaitForResponse(context.Background(), 10*time.Millisecond); ok {
		t.Error("expected timeout without an ack")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := rw.WaitForResponse(ctx, time.Second); ok {
		t.Error("expected cancelled wait to fail")
	}
}

func TestPolicySystemMessage(t *testing.T) {
	p := &Policy{DefaultOrigin: "Kuala Lumpur (KUL)", Now: func() time.Time {
		return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	}}
	p.Refresh()

	text := p.SystemMessage(&models.Profile{GroupSize: 4, TravelStyles: []string{"family", "foodie"}})
	for _, want := range []string{"2026-10-14", "Kuala Lumpur (KUL)", "search_general_web", "generate_map_with_traffic", "Group size: 4", "family, foodie"} {
		if !strings.Contains(text, want) {
			t.Errorf("system message missing %q", want)
		}
	}
	if p.SystemMessage(nil) != p.Text() {
		t.Error("no profile should leave the policy unchanged")
	}

	p.Now = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }
	p.Refresh()
	if !strings.Contains(p.Text(), "2026-10-15") {
		t.Error("refresh should move the date")
	}
}
